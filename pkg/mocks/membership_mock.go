package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/flowtrack-io/flowtrack/pkg/cluster"
)

// MockMembership is a mock implementation of cluster.Membership.
type MockMembership struct {
	mock.Mock
}

func (m *MockMembership) AlivePeers(ctx context.Context) ([]cluster.Peer, error) {
	args := m.Called(ctx)

	peers, _ := args.Get(0).([]cluster.Peer)

	return peers, args.Error(1)
}

func (m *MockMembership) FailedNodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	nodes, _ := args.Get(0).([]string)

	return nodes, args.Error(1)
}
