// Package sharedstore mirrors in-flight instance reports into a replicated,
// expiring key/value layer so a peer node can rebuild them after a crash.
package sharedstore

import (
	"context"
	"errors"
	"time"

	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// SchemaVersion is bumped whenever the entry layout changes. Entries written
// by a different schema version are rejected on read; during rolling upgrades
// a node never tries to parse a layout it does not understand.
const SchemaVersion = 1

var (
	// ErrNotFound indicates no entry exists for the key.
	ErrNotFound = errors.New("shared report entry not found")

	// ErrSchemaVersion indicates the stored entry was written by an
	// incompatible schema version.
	ErrSchemaVersion = errors.New("shared report entry schema version mismatch")
)

// Entry is the replicated copy of one instance's report, keyed by
// (node id, instance id). Entries are full overwrites on every state-changing
// event, so duplicate delivery is harmless.
type Entry struct {
	SchemaVersion int            `json:"schema_version" validate:"required"`
	NodeID        string         `json:"node_id"        validate:"required"`
	InstanceID    string         `json:"instance_id"    validate:"required"`
	StoredAt      time.Time      `json:"stored_at"`
	Report        *report.Report `json:"report"         validate:"required"`
}

// NewEntry wraps a report in the current schema envelope.
func NewEntry(nodeID string, rep *report.Report) *Entry {
	return &Entry{
		SchemaVersion: SchemaVersion,
		NodeID:        nodeID,
		InstanceID:    rep.InstanceID(),
		StoredAt:      time.Now().UTC(),
		Report:        rep,
	}
}

// Store is the cross-node shared resource of the tracker. All operations are
// single-key and atomic; no cross-key transactions are assumed. Each node
// additionally maintains an index set node id -> tracked instance ids so a
// failover handler can enumerate what a dead node was tracking.
type Store interface {
	// PutReport overwrites the entry for (nodeID, instanceID) and refreshes
	// its TTL.
	PutReport(ctx context.Context, entry *Entry, ttl time.Duration) error

	// GetReport returns the entry for (nodeID, instanceID) or ErrNotFound.
	GetReport(ctx context.Context, nodeID, instanceID string) (*Entry, error)

	// DeleteReport removes the entry. Deleting an absent entry is a no-op.
	DeleteReport(ctx context.Context, nodeID, instanceID string) error

	// TrackInstance adds the instance to the node's tracked-set index and
	// refreshes the index TTL.
	TrackInstance(ctx context.Context, nodeID, instanceID string, ttl time.Duration) error

	// ForgetInstance removes the instance from the node's tracked-set index.
	ForgetInstance(ctx context.Context, nodeID, instanceID string) error

	// TrackedInstances returns the instance ids the node's index holds.
	TrackedInstances(ctx context.Context, nodeID string) ([]string, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

const keyPrefix = "flowtrack:"

// ReportKey builds the storage key for one instance's mirrored report.
func ReportKey(nodeID, instanceID string) string {
	return keyPrefix + "report:" + nodeID + ":" + instanceID
}

// IndexKey builds the storage key for a node's tracked-instances set.
func IndexKey(nodeID string) string {
	return keyPrefix + "node:" + nodeID + ":instances"
}
