// Package registry holds the authoritative local view of which workflow
// instances this node is tracking.
package registry

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/flowtrack-io/flowtrack/pkg/models"
)

var (
	// ErrNotFound indicates no record exists for the given instance id.
	ErrNotFound = errors.New("instance not found")

	// ErrDuplicateInstance indicates a record already existed for the
	// instance id. The registry overwrites anyway: a duplicate registration
	// is an ordering bug upstream, not a reason to lose the newer state.
	ErrDuplicateInstance = errors.New("instance already registered")
)

// Registry maps instance id -> InstanceRecord for this process. Reads may
// race with removal (the HTTP report API does); callers get ErrNotFound, not
// a crash. Per-instance event ordering is enforced by the reporter, not here.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*models.InstanceRecord
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		records: make(map[string]*models.InstanceRecord),
		logger:  logger.With("module", "registry"),
	}
}

// Register inserts a record pairing the template, live instance and trigger
// metadata. If a record already exists for the instance id it is overwritten
// and ErrDuplicateInstance is returned alongside the new record.
func (r *Registry) Register(
	template *models.WorkflowTemplate,
	instance models.LiveInstance,
	metadata *models.ExecMetadata,
) (*models.InstanceRecord, error) {
	record := &models.InstanceRecord{
		Template: template,
		Instance: instance,
		Metadata: metadata,
	}

	r.mu.Lock()
	_, exists := r.records[instance.ID()]
	r.records[instance.ID()] = record
	r.mu.Unlock()

	if exists {
		r.logger.Error("Duplicate instance registration, overwriting",
			"instance_id", instance.ID(),
			"template_id", template.ID,
		)

		return record, ErrDuplicateInstance
	}

	return record, nil
}

// Get returns the record for the given instance id or ErrNotFound.
func (r *Registry) Get(instanceID string) (*models.InstanceRecord, error) {
	r.mu.RLock()
	record, ok := r.records[instanceID]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	return record, nil
}

// Remove drops the record for the given instance id. Removing an absent id
// is a no-op.
func (r *Registry) Remove(instanceID string) {
	r.mu.Lock()
	delete(r.records, instanceID)
	r.mu.Unlock()
}

// Records returns a snapshot of all tracked records.
func (r *Registry) Records() []*models.InstanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*models.InstanceRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}

	return records
}

// IDs returns a snapshot of all tracked instance ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}

	return ids
}

// Len returns the number of tracked instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}
