package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
	"github.com/flowtrack-io/flowtrack/pkg/testutil"
)

func TestSanitize_KeepsSerializableValues(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name  string
		value any
	}{
		{name: "nil", value: nil},
		{name: "string", value: "hello"},
		{name: "bool", value: true},
		{name: "int", value: 42},
		{name: "int64", value: int64(42)},
		{name: "float", value: 4.2},
		{name: "time", value: now},
		{name: "time pointer", value: &now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.value, report.Sanitize(tt.value))
		})
	}
}

func TestSanitize_ReplacesUnserializableValues(t *testing.T) {
	t.Parallel()

	sanitized := report.Sanitize(make(chan int))

	text, ok := sanitized.(string)
	require.True(t, ok)
	assert.Contains(t, text, "<unserializable")
}

func TestSanitize_SiblingsSurviveOffendingLeaf(t *testing.T) {
	t.Parallel()

	value := map[string]any{
		"name": "batch-7",
		"nested": map[string]any{
			"count":    3,
			"callback": func() {},
		},
		"items": []any{"a", make(chan int), "c"},
	}

	sanitized, ok := report.Sanitize(value).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "batch-7", sanitized["name"])

	nested, ok := sanitized["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, nested["count"])
	assert.Contains(t, nested["callback"], "<unserializable")

	items, ok := sanitized["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0])
	assert.Contains(t, items[1], "<unserializable")
	assert.Equal(t, "c", items[2])
}

func TestSanitize_HandlesTypedMapsAndSlices(t *testing.T) {
	t.Parallel()

	sanitized, ok := report.Sanitize(map[string]string{"k": "v"}).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", sanitized["k"])

	items, ok := report.Sanitize([]string{"a", "b"}).([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, items)
}

func TestSanitizeReport(t *testing.T) {
	t.Parallel()

	template := testutil.CreateTestTemplateWithTasks()
	template.Metadata = map[string]any{
		"category": "test",
		"hook":     func() {},
	}

	record, instance := testutil.CreateTestRecord(template)
	instance.SetStatus(models.InstanceStatusEnd)

	execution := instance.StartTask("task-1")
	execution.Inputs = map[string]any{"conn": make(chan int), "url": "https://example.com"}
	execution.Reporting = []any{"contact-1"}
	instance.FinishTask("task-1", map[string]any{"status": "ok"})

	rep := report.SanitizeReport(report.Build(record, report.Full()))

	assert.Contains(t, rep.Metadata["hook"], "<unserializable")
	assert.Equal(t, "test", rep.Metadata["category"])

	require.NotEmpty(t, rep.Tasks)
	inputs, ok := rep.Tasks[0].Exec.Inputs.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, inputs["conn"], "<unserializable")
	assert.Equal(t, "https://example.com", inputs["url"])
	assert.Equal(t, []any{"contact-1"}, rep.Tasks[0].Exec.Reporting)
	assert.Equal(t, "ok", rep.Tasks[0].Exec.Outputs["status"])
}
