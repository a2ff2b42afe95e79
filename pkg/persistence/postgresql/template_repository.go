package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/persistence"
)

// TemplateRepository handles workflow template storage. The full template
// document is stored as JSONB; id, version and draft are lifted into columns
// for lookups.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

// GetByID returns the latest version of the template in the requested
// edition (draft or published).
func (tr *TemplateRepository) GetByID(ctx context.Context, id string, draft bool) (*models.WorkflowTemplate, error) {
	var document []byte

	err := tr.db.QueryRowContext(ctx, `
		SELECT document FROM workflow_templates
		WHERE id = $1 AND draft = $2
		ORDER BY version DESC
		LIMIT 1
	`, id, draft).Scan(&document)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStorageError("TemplateByID", id, persistence.ErrTemplateNotFound)
	}

	if err != nil {
		return nil, persistence.NewStorageError("TemplateByID", id, err)
	}

	return decodeTemplate(id, document)
}

// Save upserts a template version.
func (tr *TemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	document, err := json.Marshal(template)
	if err != nil {
		return persistence.NewStorageError("SaveTemplate", template.ID, err)
	}

	_, err = tr.db.ExecContext(ctx, `
		INSERT INTO workflow_templates (id, version, draft, title, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id, version, draft)
		DO UPDATE SET title = EXCLUDED.title, document = EXCLUDED.document, updated_at = NOW()
	`, template.ID, template.Version, template.Draft, template.Title, document)
	if err != nil {
		return persistence.NewStorageError("SaveTemplate", template.ID, err)
	}

	return nil
}

// GetAll returns the latest published version of every template.
func (tr *TemplateRepository) GetAll(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	rows, err := tr.db.QueryContext(ctx, `
		SELECT DISTINCT ON (id) id, document FROM workflow_templates
		WHERE draft = FALSE
		ORDER BY id, version DESC
	`)
	if err != nil {
		return nil, persistence.NewStorageError("Templates", "", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var templates []*models.WorkflowTemplate

	for rows.Next() {
		var (
			id       string
			document []byte
		)

		err = rows.Scan(&id, &document)
		if err != nil {
			return nil, persistence.NewStorageError("Templates", id, err)
		}

		template, err := decodeTemplate(id, document)
		if err != nil {
			return nil, err
		}

		templates = append(templates, template)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStorageError("Templates", "", err)
	}

	return templates, nil
}

func decodeTemplate(id string, document []byte) (*models.WorkflowTemplate, error) {
	var template models.WorkflowTemplate

	err := json.Unmarshal(document, &template)
	if err != nil {
		return nil, persistence.NewStorageError("TemplateByID", id, fmt.Errorf("failed to decode template document: %w", err))
	}

	return &template, nil
}
