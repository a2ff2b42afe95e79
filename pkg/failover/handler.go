// Package failover rescues workflow instances orphaned by a failed tracker
// node: it enumerates what the dead node was tracking via the shared report
// store and resubmits each report to a surviving peer.
package failover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/flowtrack-io/flowtrack/pkg/cluster"
	"github.com/flowtrack-io/flowtrack/pkg/sharedstore"
)

// RescuePath is the peer endpoint rescued reports are submitted to.
const RescuePath = "/v1/workflow/instances"

const defaultRescueTimeout = 10 * time.Second

// Handler drives the rescue of instances tracked by failed nodes. Each
// instance's rescue is independent: it only touches that instance's shared
// keys, so rescues run concurrently without cross-instance locking.
type Handler struct {
	logger     *slog.Logger
	store      sharedstore.Store
	membership cluster.Membership
	client     *http.Client
}

func NewHandler(
	logger *slog.Logger,
	store sharedstore.Store,
	membership cluster.Membership,
	rescueTimeout time.Duration,
) *Handler {
	if rescueTimeout <= 0 {
		rescueTimeout = defaultRescueTimeout
	}

	return &Handler{
		logger:     logger.With("module", "failover"),
		store:      store,
		membership: membership,
		client: &http.Client{
			Timeout: rescueTimeout,
		},
	}
}

// RescueNodes processes a batch of failed node ids. A failed rescue for one
// instance never aborts the rest of the batch.
func (h *Handler) RescueNodes(ctx context.Context, failedNodes []string) {
	var wg sync.WaitGroup

	for _, nodeID := range failedNodes {
		instanceIDs, err := h.store.TrackedInstances(ctx, nodeID)
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to enumerate instances of failed node",
				"failed_node", nodeID,
				"error", err)

			continue
		}

		h.logger.InfoContext(ctx, "Rescuing instances of failed node",
			"failed_node", nodeID,
			"instances", len(instanceIDs))

		for _, instanceID := range instanceIDs {
			wg.Add(1)

			go func() {
				defer wg.Done()

				h.rescueInstance(ctx, nodeID, instanceID)
			}()
		}
	}

	wg.Wait()
}

// rescueInstance hands one orphaned instance to a surviving peer. Candidates
// are tried in shuffled order, one PUT in flight at a time; the first peer
// answering 200 owns the instance and no further candidate is contacted.
func (h *Handler) rescueInstance(ctx context.Context, nodeID, instanceID string) {
	logger := h.logger.With("failed_node", nodeID, "instance_id", instanceID)

	entry, err := h.store.GetReport(ctx, nodeID, instanceID)
	if err != nil {
		logger.ErrorContext(ctx, "Shared memory has been wiped out, cannot rescue instance",
			"error", err)

		return
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to serialize rescued report", "error", err)

		return
	}

	peers, err := h.membership.AlivePeers(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list alive peers", "error", err)

		return
	}

	rand.Shuffle(len(peers), func(i, j int) {
		peers[i], peers[j] = peers[j], peers[i]
	})

	rescued := false

	for _, peer := range peers {
		err := h.submitToPeer(ctx, peer, payload)
		if err != nil {
			logger.WarnContext(ctx, "Peer declined rescued instance",
				"peer", peer.ID,
				"error", err)

			continue
		}

		logger.InfoContext(ctx, "Instance rescued", "peer", peer.ID)

		rescued = true

		break
	}

	if !rescued {
		// Keep the shared entry so a later failover pass can retry.
		logger.ErrorContext(ctx, "Workflow instance hasn't been rescued properly, keeping shared entry")

		return
	}

	h.clearEntry(context.WithoutCancel(ctx), nodeID, instanceID)
}

func (h *Handler) submitToPeer(ctx context.Context, peer cluster.Peer, payload []byte) error {
	url := "http://" + peer.Address + RescuePath

	request, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build rescue request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")

	response, err := h.client.Do(request)
	if err != nil {
		return fmt.Errorf("rescue request failed: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("peer answered status %d", response.StatusCode)
	}

	return nil
}

func (h *Handler) clearEntry(ctx context.Context, nodeID, instanceID string) {
	err := h.store.ForgetInstance(ctx, nodeID, instanceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to remove rescued instance from shared index",
			"failed_node", nodeID,
			"instance_id", instanceID,
			"error", err)
	}

	err = h.store.DeleteReport(ctx, nodeID, instanceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to delete rescued shared report entry",
			"failed_node", nodeID,
			"instance_id", instanceID,
			"error", err)
	}
}
