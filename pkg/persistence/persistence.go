// Package persistence provides the durable storage abstraction for workflow
// templates and the finished-instance archive.
package persistence

import (
	"context"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// Persistence is the tracker's view of durable storage. Templates are read
// mostly; the finished-instance archive is insert-only — archived reports are
// never updated.
type Persistence interface {
	// TemplateByID returns the latest version of a template. With draft set,
	// the draft edition is returned instead of the published one.
	TemplateByID(ctx context.Context, id string, draft bool) (*models.WorkflowTemplate, error)
	SaveTemplate(ctx context.Context, template *models.WorkflowTemplate) error
	Templates(ctx context.Context) ([]*models.WorkflowTemplate, error)

	// InsertFinishedInstance archives a sanitized report for a terminal
	// instance. Inserting the same instance id twice is a no-op.
	InsertFinishedInstance(ctx context.Context, rep *report.Report) error
	FinishedInstanceByID(ctx context.Context, instanceID string) (*report.Report, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
