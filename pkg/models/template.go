// Package models defines the core domain models for workflow instance tracking.
package models

// WorkflowTemplate is the immutable description of a workflow graph. Templates
// are owned by durable storage and loaded read-only when an instance is
// triggered; the tracker never mutates one after loading.
type WorkflowTemplate struct {
	ID       string              `json:"id"                 validate:"required"`
	Version  int                 `json:"version"`
	Draft    bool                `json:"draft"`
	Title    string              `json:"title"              validate:"required"`
	Tags     []string            `json:"tags,omitempty"`
	Tasks    []*TaskTemplate     `json:"tasks"`
	Graph    map[string][]string `json:"graph,omitempty"` // task id -> successor task ids
	Metadata map[string]any      `json:"metadata,omitempty"`
}

// TaskTemplate describes one task declared by a workflow template.
type TaskTemplate struct {
	ID     string         `json:"id"   validate:"required"`
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// Clone returns a deep copy of the template. Report building always works on
// a copy so the shared template object is never touched.
func (t *WorkflowTemplate) Clone() *WorkflowTemplate {
	if t == nil {
		return nil
	}

	clone := &WorkflowTemplate{
		ID:      t.ID,
		Version: t.Version,
		Draft:   t.Draft,
		Title:   t.Title,
	}

	if t.Tags != nil {
		clone.Tags = make([]string, len(t.Tags))
		copy(clone.Tags, t.Tags)
	}

	if t.Tasks != nil {
		clone.Tasks = make([]*TaskTemplate, 0, len(t.Tasks))
		for _, task := range t.Tasks {
			clone.Tasks = append(clone.Tasks, task.Clone())
		}
	}

	if t.Graph != nil {
		clone.Graph = make(map[string][]string, len(t.Graph))
		for id, next := range t.Graph {
			successors := make([]string, len(next))
			copy(successors, next)
			clone.Graph[id] = successors
		}
	}

	if t.Metadata != nil {
		clone.Metadata = deepCopyMap(t.Metadata)
	}

	return clone
}

// TaskByID returns the declared task template with the given id, or nil.
func (t *WorkflowTemplate) TaskByID(id string) *TaskTemplate {
	for _, task := range t.Tasks {
		if task.ID == id {
			return task
		}
	}

	return nil
}

// Clone returns a deep copy of the task template.
func (tt *TaskTemplate) Clone() *TaskTemplate {
	if tt == nil {
		return nil
	}

	return &TaskTemplate{
		ID:     tt.ID,
		Name:   tt.Name,
		Type:   tt.Type,
		Config: deepCopyMap(tt.Config),
	}
}

func deepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = deepCopyValue(value)
	}

	return dst
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return deepCopyMap(typed)
	case []any:
		copied := make([]any, len(typed))
		for i, item := range typed {
			copied[i] = deepCopyValue(item)
		}

		return copied
	default:
		return value
	}
}
