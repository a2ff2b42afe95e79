package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/flowtrack-io/flowtrack/pkg/sharedstore"
)

// MockSharedStore is a mock implementation of sharedstore.Store.
type MockSharedStore struct {
	mock.Mock
}

func (m *MockSharedStore) PutReport(ctx context.Context, entry *sharedstore.Entry, ttl time.Duration) error {
	args := m.Called(ctx, entry, ttl)

	return args.Error(0)
}

func (m *MockSharedStore) GetReport(ctx context.Context, nodeID, instanceID string) (*sharedstore.Entry, error) {
	args := m.Called(ctx, nodeID, instanceID)

	entry, _ := args.Get(0).(*sharedstore.Entry)

	return entry, args.Error(1)
}

func (m *MockSharedStore) DeleteReport(ctx context.Context, nodeID, instanceID string) error {
	args := m.Called(ctx, nodeID, instanceID)

	return args.Error(0)
}

func (m *MockSharedStore) TrackInstance(ctx context.Context, nodeID, instanceID string, ttl time.Duration) error {
	args := m.Called(ctx, nodeID, instanceID, ttl)

	return args.Error(0)
}

func (m *MockSharedStore) ForgetInstance(ctx context.Context, nodeID, instanceID string) error {
	args := m.Called(ctx, nodeID, instanceID)

	return args.Error(0)
}

func (m *MockSharedStore) TrackedInstances(ctx context.Context, nodeID string) ([]string, error) {
	args := m.Called(ctx, nodeID)

	ids, _ := args.Get(0).([]string)

	return ids, args.Error(1)
}

func (m *MockSharedStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockSharedStore) Close() error {
	args := m.Called()

	return args.Error(0)
}
