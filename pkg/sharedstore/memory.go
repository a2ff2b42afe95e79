package sharedstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node development.
// TTLs are honored lazily: expired values are dropped when read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryValue
	sets    map[string]map[string]struct{}
}

type memoryValue struct {
	entry    *Entry
	deadline time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryValue),
		sets:    make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) PutReport(_ context.Context, entry *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[ReportKey(entry.NodeID, entry.InstanceID)] = memoryValue{
		entry:    entry,
		deadline: time.Now().Add(ttl),
	}

	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, nodeID, instanceID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ReportKey(nodeID, instanceID)

	value, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	if time.Now().After(value.deadline) {
		delete(s.entries, key)

		return nil, ErrNotFound
	}

	if value.entry.SchemaVersion != SchemaVersion {
		return nil, ErrSchemaVersion
	}

	return value.entry, nil
}

func (s *MemoryStore) DeleteReport(_ context.Context, nodeID, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, ReportKey(nodeID, instanceID))

	return nil
}

func (s *MemoryStore) TrackInstance(_ context.Context, nodeID, instanceID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := IndexKey(nodeID)

	if s.sets[key] == nil {
		s.sets[key] = make(map[string]struct{})
	}

	s.sets[key][instanceID] = struct{}{}

	return nil
}

func (s *MemoryStore) ForgetInstance(_ context.Context, nodeID, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets[IndexKey(nodeID)], instanceID)

	return nil
}

func (s *MemoryStore) TrackedInstances(_ context.Context, nodeID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]string, 0, len(s.sets[IndexKey(nodeID)]))
	for instanceID := range s.sets[IndexKey(nodeID)] {
		members = append(members, instanceID)
	}

	return members, nil
}

func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
