// Package report derives the externally consumable view of a tracked workflow
// instance: the template structure merged with live per-task execution state.
package report

import (
	"github.com/flowtrack-io/flowtrack/pkg/models"
)

// OutputWhitelist lists the task output fields that survive redaction when a
// report is built without data (websocket push filtering, list views).
var OutputWhitelist = []string{"status", "progress", "summary"}

// Report is the merged template + execution snapshot for one instance. It is
// derived on demand and never stored as primary state; the shared report
// store only caches it transiently.
type Report struct {
	TemplateID string              `json:"template_id" validate:"required"`
	Version    int                 `json:"version"`
	Title      string              `json:"title"`
	Tags       []string            `json:"tags,omitempty"`
	Exec       *models.ExecState   `json:"exec"        validate:"required"`
	Graph      map[string][]string `json:"graph,omitempty"`
	Tasks      []*TaskReport       `json:"tasks,omitempty"`
	Metadata   map[string]any      `json:"metadata,omitempty"`
}

// TaskReport pairs a declared task template with its execution state. Tasks
// that appear in engine state but not in the template carry a template stub
// holding only the id.
type TaskReport struct {
	Template *models.TaskTemplate  `json:"template"`
	Exec     *models.TaskExecution `json:"exec"`
}

// InstanceID returns the instance the report describes.
func (r *Report) InstanceID() string {
	if r == nil || r.Exec == nil {
		return ""
	}

	return r.Exec.ID
}

// Status returns the workflow-level state captured by the report.
func (r *Report) Status() models.InstanceStatus {
	if r == nil || r.Exec == nil {
		return ""
	}

	return r.Exec.Status
}
