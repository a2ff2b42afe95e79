package models

import "time"

// InstanceStatus is the overall state of a running workflow instance.
type InstanceStatus string

const (
	InstanceStatusCreated InstanceStatus = "created"
	InstanceStatusBegin   InstanceStatus = "begin"
	InstanceStatusEnd     InstanceStatus = "end"
	InstanceStatusError   InstanceStatus = "error"
)

// Terminal reports whether no further events are expected for the instance.
func (s InstanceStatus) Terminal() bool {
	return s == InstanceStatusEnd || s == InstanceStatusError
}

// TaskStatus is the state of one task execution within an instance.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not-started"
	TaskStatusBegin      TaskStatus = "begin"
	TaskStatusProgress   TaskStatus = "progress"
	TaskStatusTimeout    TaskStatus = "timeout"
	TaskStatusEnd        TaskStatus = "end"
	TaskStatusError      TaskStatus = "error"
)

// LiveInstance is the engine-owned run-time object for one execution of a
// template. The tracker only reads from it; all mutation happens inside the
// execution engine.
type LiveInstance interface {
	ID() string
	TemplateID() string
	Status() InstanceStatus
	State() *InstanceState
}

// InstanceState is the externally supplied snapshot of a live instance:
// the workflow-level exec block plus one entry per started task.
type InstanceState struct {
	Exec  *ExecState       `json:"exec"`
	Tasks []*TaskExecution `json:"tasks"`
}

// ExecState is the workflow-level execution block of an instance. Its ID is
// the instance id.
type ExecState struct {
	ID        string         `json:"id"`
	Status    InstanceStatus `json:"state"`
	Start     *time.Time     `json:"start"`
	End       *time.Time     `json:"end"`
	Requester string         `json:"requester,omitempty"`
	Track     string         `json:"track,omitempty"`
}

// TaskExecution is the per-task execution record read from the engine.
type TaskExecution struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"task_id"`
	Status    TaskStatus     `json:"state"`
	Start     *time.Time     `json:"start"`
	End       *time.Time     `json:"end"`
	Inputs    any            `json:"inputs"`
	Outputs   map[string]any `json:"outputs"`
	Reporting any            `json:"reporting"`
}

// ExecMetadata is the side-channel attached when a run is triggered. It is
// immutable once created; only the fields below ever reach a report.
type ExecMetadata struct {
	Requester string `json:"requester,omitempty"`
	Track     string `json:"track,omitempty"`
}

// InstanceRecord pairs a template with a live instance and its trigger
// metadata. Records live in the instance registry keyed by instance id.
type InstanceRecord struct {
	Template *WorkflowTemplate
	Instance LiveInstance
	Metadata *ExecMetadata
}

// InstanceID returns the id of the paired live instance.
func (r *InstanceRecord) InstanceID() string {
	if r == nil || r.Instance == nil {
		return ""
	}

	return r.Instance.ID()
}
