// Package postgresql provides PostgreSQL persistence for workflow templates
// and the finished-instance archive.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/persistence/sqlbase"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	templateRepo *TemplateRepository
	archiveRepo  *ArchiveRepository
}

// NewPersistence connects, runs migrations and returns a ready persistence
// layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:           database,
		logger:       logger,
		templateRepo: NewTemplateRepository(database, logger),
		archiveRepo:  NewArchiveRepository(database, logger),
	}, nil
}

func (p *Persistence) TemplateByID(ctx context.Context, id string, draft bool) (*models.WorkflowTemplate, error) {
	return p.templateRepo.GetByID(ctx, id, draft)
}

func (p *Persistence) SaveTemplate(ctx context.Context, template *models.WorkflowTemplate) error {
	return p.templateRepo.Save(ctx, template)
}

func (p *Persistence) Templates(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	return p.templateRepo.GetAll(ctx)
}

func (p *Persistence) InsertFinishedInstance(ctx context.Context, rep *report.Report) error {
	return p.archiveRepo.Insert(ctx, rep)
}

func (p *Persistence) FinishedInstanceByID(ctx context.Context, instanceID string) (*report.Report, error) {
	return p.archiveRepo.GetByID(ctx, instanceID)
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
