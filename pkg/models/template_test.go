package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/testutil"
)

func TestWorkflowTemplate_Clone(t *testing.T) {
	t.Parallel()

	template := testutil.CreateTestTemplateWithTasks()
	template.Metadata = map[string]any{
		"category": "test",
		"limits":   map[string]any{"retries": 3},
	}

	clone := template.Clone()

	require.NotSame(t, template, clone)
	assert.Equal(t, template.ID, clone.ID)
	assert.Equal(t, template.Title, clone.Title)
	assert.Equal(t, template.Graph, clone.Graph)

	// Mutating the clone must not leak into the original.
	clone.Tasks[0].Name = "Mutated"
	clone.Graph["task-1"][0] = "mutated"
	clone.Tags[0] = "mutated"
	clone.Metadata["limits"].(map[string]any)["retries"] = 99

	assert.Equal(t, "Fetch", template.Tasks[0].Name)
	assert.Equal(t, "task-2", template.Graph["task-1"][0])
	assert.Equal(t, "test", template.Tags[0])
	assert.Equal(t, 3, template.Metadata["limits"].(map[string]any)["retries"])
}

func TestWorkflowTemplate_CloneNil(t *testing.T) {
	t.Parallel()

	var template *models.WorkflowTemplate

	assert.Nil(t, template.Clone())
}

func TestWorkflowTemplate_TaskByID(t *testing.T) {
	t.Parallel()

	template := testutil.CreateTestTemplateWithTasks()

	task := template.TaskByID("task-2")
	require.NotNil(t, task)
	assert.Equal(t, "Transform", task.Name)

	assert.Nil(t, template.TaskByID("no-such-task"))
}
