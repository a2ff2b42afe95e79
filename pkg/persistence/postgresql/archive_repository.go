package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowtrack-io/flowtrack/pkg/persistence"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// ArchiveRepository stores finished-instance reports. The archive is
// insert-only; a conflicting insert for an already archived instance is
// silently dropped so duplicate terminal events never double-insert.
type ArchiveRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewArchiveRepository(db *sql.DB, logger *slog.Logger) *ArchiveRepository {
	return &ArchiveRepository{db: db, logger: logger}
}

func (ar *ArchiveRepository) Insert(ctx context.Context, rep *report.Report) error {
	instanceID := rep.InstanceID()

	document, err := json.Marshal(rep)
	if err != nil {
		return persistence.NewStorageError("InsertFinishedInstance", instanceID, err)
	}

	_, err = ar.db.ExecContext(ctx, `
		INSERT INTO finished_instances (instance_id, template_id, state, report)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (instance_id) DO NOTHING
	`, instanceID, rep.TemplateID, string(rep.Status()), document)
	if err != nil {
		return persistence.NewStorageError("InsertFinishedInstance", instanceID, err)
	}

	return nil
}

func (ar *ArchiveRepository) GetByID(ctx context.Context, instanceID string) (*report.Report, error) {
	var document []byte

	err := ar.db.QueryRowContext(ctx, `
		SELECT report FROM finished_instances WHERE instance_id = $1
	`, instanceID).Scan(&document)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStorageError("FinishedInstanceByID", instanceID, persistence.ErrFinishedInstanceNotFound)
	}

	if err != nil {
		return nil, persistence.NewStorageError("FinishedInstanceByID", instanceID, err)
	}

	var rep report.Report

	err = json.Unmarshal(document, &rep)
	if err != nil {
		return nil, persistence.NewStorageError("FinishedInstanceByID", instanceID, fmt.Errorf("failed to decode report document: %w", err))
	}

	return &rep, nil
}
