// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowtrack-io/flowtrack/pkg/models"
)

// CreateTestTask creates a test TaskTemplate with default values that can be
// overridden.
func CreateTestTask(overrides ...func(*models.TaskTemplate)) *models.TaskTemplate {
	task := &models.TaskTemplate{
		ID:     uuid.New().String(),
		Name:   "Test Task",
		Type:   "log",
		Config: map[string]any{"message": "test", "level": "info"},
	}

	for _, override := range overrides {
		override(task)
	}

	return task
}

// WithTaskID sets the task id.
func WithTaskID(id string) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.ID = id
	}
}

// WithTaskName sets the task name.
func WithTaskName(name string) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.Name = name
	}
}

// WithTaskConfig sets the task configuration.
func WithTaskConfig(config map[string]any) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.Config = config
	}
}

// CreateTestTemplate creates a test workflow template without tasks.
func CreateTestTemplate() *models.WorkflowTemplate {
	return &models.WorkflowTemplate{
		ID:       uuid.New().String(),
		Version:  1,
		Title:    "Test Workflow",
		Tags:     []string{"test"},
		Tasks:    []*models.TaskTemplate{},
		Metadata: map[string]any{"category": "test"},
	}
}

// CreateTestTemplateWithTasks creates a test template with two linked tasks.
func CreateTestTemplateWithTasks() *models.WorkflowTemplate {
	template := CreateTestTemplate()

	first := CreateTestTask(WithTaskID("task-1"), WithTaskName("Fetch"))
	second := CreateTestTask(WithTaskID("task-2"), WithTaskName("Transform"))

	template.Tasks = []*models.TaskTemplate{first, second}
	template.Graph = map[string][]string{
		"task-1": {"task-2"},
	}

	return template
}

// FakeInstance is a settable models.LiveInstance for tests. The zero value is
// not usable; build one with NewFakeInstance.
type FakeInstance struct {
	InstanceID     string
	Template       string
	InstanceStatus models.InstanceStatus
	InstanceState  *models.InstanceState
}

// NewFakeInstance creates a created-state instance for the given template.
func NewFakeInstance(templateID string) *FakeInstance {
	id := uuid.New().String()
	now := time.Now().UTC()

	return &FakeInstance{
		InstanceID:     id,
		Template:       templateID,
		InstanceStatus: models.InstanceStatusCreated,
		InstanceState: &models.InstanceState{
			Exec: &models.ExecState{
				ID:     id,
				Status: models.InstanceStatusCreated,
				Start:  &now,
			},
			Tasks: []*models.TaskExecution{},
		},
	}
}

func (f *FakeInstance) ID() string {
	return f.InstanceID
}

func (f *FakeInstance) TemplateID() string {
	return f.Template
}

func (f *FakeInstance) Status() models.InstanceStatus {
	return f.InstanceStatus
}

func (f *FakeInstance) State() *models.InstanceState {
	return f.InstanceState
}

// SetStatus updates both the instance status and its exec block.
func (f *FakeInstance) SetStatus(status models.InstanceStatus) {
	f.InstanceStatus = status
	f.InstanceState.Exec.Status = status
}

// StartTask appends a begin-state execution entry for the given declared task
// and returns it for further mutation.
func (f *FakeInstance) StartTask(taskID string) *models.TaskExecution {
	now := time.Now().UTC()
	execution := &models.TaskExecution{
		ID:     uuid.New().String(),
		TaskID: taskID,
		Status: models.TaskStatusBegin,
		Start:  &now,
	}

	f.InstanceState.Tasks = append(f.InstanceState.Tasks, execution)

	return execution
}

// FinishTask marks a started task as ended with the given outputs.
func (f *FakeInstance) FinishTask(taskID string, outputs map[string]any) {
	now := time.Now().UTC()

	for _, execution := range f.InstanceState.Tasks {
		if execution.TaskID == taskID {
			execution.Status = models.TaskStatusEnd
			execution.End = &now
			execution.Outputs = outputs
		}
	}
}

// CreateTestRecord pairs a template with a fresh fake instance.
func CreateTestRecord(template *models.WorkflowTemplate) (*models.InstanceRecord, *FakeInstance) {
	instance := NewFakeInstance(template.ID)

	record := &models.InstanceRecord{
		Template: template,
		Instance: instance,
		Metadata: &models.ExecMetadata{
			Requester: "test-user",
			Track:     "test-track",
		},
	}

	return record, instance
}
