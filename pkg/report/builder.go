package report

import (
	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/google/uuid"
)

// Options controls how much of the instance state a built report carries.
type Options struct {
	// IncludeTasks keeps the per-task list and graph. List views drop both.
	IncludeTasks bool
	// IncludeData keeps heavy exec fields (reporting, inputs, full outputs).
	// When false, outputs are reduced to OutputWhitelist.
	IncludeData bool
}

// Full returns options for a complete report.
func Full() Options {
	return Options{IncludeTasks: true, IncludeData: true}
}

// Light returns options for a list-view report without tasks.
func Light() Options {
	return Options{IncludeTasks: false, IncludeData: false}
}

// Build merges the record's template with the live instance state into a
// single report. The template is deep-copied first and never mutated. Only
// the requester and track metadata fields are merged into the exec block.
func Build(record *models.InstanceRecord, opts Options) *Report {
	template := record.Template.Clone()
	state := record.Instance.State()

	exec := mergeExec(state.Exec, record.Metadata)

	rep := &Report{
		TemplateID: template.ID,
		Version:    template.Version,
		Title:      template.Title,
		Tags:       template.Tags,
		Exec:       exec,
		Metadata:   template.Metadata,
	}

	if !opts.IncludeTasks {
		return rep
	}

	rep.Graph = template.Graph
	rep.Tasks = mergeTasks(template, state.Tasks, opts)

	return rep
}

func mergeExec(exec *models.ExecState, metadata *models.ExecMetadata) *models.ExecState {
	merged := &models.ExecState{}
	if exec != nil {
		*merged = *exec
	}

	if metadata != nil {
		merged.Requester = metadata.Requester
		merged.Track = metadata.Track
	}

	return merged
}

// mergeTasks walks the template's declared tasks in order, pairing each with
// its execution entry, then appends execution entries for task ids the
// template does not declare. Drift between template and engine state is
// tolerated, never an error.
func mergeTasks(template *models.WorkflowTemplate, executions []*models.TaskExecution, opts Options) []*TaskReport {
	byTask := make(map[string]*models.TaskExecution, len(executions))
	for _, exec := range executions {
		byTask[exec.TaskID] = exec
	}

	tasks := make([]*TaskReport, 0, len(template.Tasks))

	for _, taskTemplate := range template.Tasks {
		exec, started := byTask[taskTemplate.ID]
		if !started {
			exec = placeholderExecution(taskTemplate.ID)
		} else {
			delete(byTask, taskTemplate.ID)
			exec = prepareExecution(exec, opts)
		}

		tasks = append(tasks, &TaskReport{Template: taskTemplate, Exec: exec})
	}

	// Execution-only entries, preserving the engine's emission order.
	for _, exec := range executions {
		remaining, ok := byTask[exec.TaskID]
		if !ok || remaining != exec {
			continue
		}

		tasks = append(tasks, &TaskReport{
			Template: &models.TaskTemplate{ID: exec.TaskID},
			Exec:     prepareExecution(exec, opts),
		})
	}

	return tasks
}

func placeholderExecution(taskID string) *models.TaskExecution {
	return &models.TaskExecution{
		ID:     uuid.NewString(),
		TaskID: taskID,
		Status: models.TaskStatusNotStarted,
	}
}

func prepareExecution(exec *models.TaskExecution, opts Options) *models.TaskExecution {
	prepared := *exec

	if !opts.IncludeData {
		prepared.Reporting = nil
		prepared.Inputs = nil
		prepared.Outputs = FilterOutputs(prepared.Outputs)
	}

	return &prepared
}

// FilterOutputs reduces a task's outputs to the whitelisted fields.
func FilterOutputs(outputs map[string]any) map[string]any {
	if outputs == nil {
		return nil
	}

	filtered := make(map[string]any, len(OutputWhitelist))

	for _, field := range OutputWhitelist {
		if value, ok := outputs[field]; ok {
			filtered[field] = value
		}
	}

	return filtered
}
