package failover

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule registers a periodic sweep on the given cron runner: every tick
// the membership layer is polled for freshly failed nodes and their
// instances are rescued. Returns the cron entry id.
func (h *Handler) Schedule(ctx context.Context, runner *cron.Cron, spec string) (cron.EntryID, error) {
	entryID, err := runner.AddFunc(spec, func() {
		h.Sweep(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule failover sweep: %w", err)
	}

	return entryID, nil
}

// Sweep runs one failover pass over the nodes membership currently flags as
// failed.
func (h *Handler) Sweep(ctx context.Context) {
	failedNodes, err := h.membership.FailedNodes(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to poll membership for failed nodes", "error", err)

		return
	}

	if len(failedNodes) == 0 {
		return
	}

	h.RescueNodes(ctx, failedNodes)
}
