// Package engine defines the contract with the workflow execution engine. The
// engine itself is an external collaborator: it schedules tasks inside a
// workflow, mutates live instances and emits state-change events on the bus.
// The tracker only submits work to it and reads from the instances it owns.
package engine

import (
	"context"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// Engine is the black-box execution engine.
type Engine interface {
	// Submit hands a raw trigger payload to the engine, which starts every
	// workflow subscribed to the topic and returns the live instances it
	// created.
	Submit(ctx context.Context, trigger map[string]any, topic string) ([]models.LiveInstance, error)

	// Resume rebuilds a live instance from a previously built report. Used
	// when adopting an instance rescued from a failed node; execution
	// continues from the reported task states.
	Resume(ctx context.Context, rep *report.Report) (models.LiveInstance, error)
}
