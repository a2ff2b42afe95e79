package cluster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtrack-io/flowtrack/pkg/cluster"
)

func TestNewStaticMembership(t *testing.T) {
	t.Parallel()

	membership, err := cluster.NewStaticMembership([]string{
		"tracker-a=10.0.0.1:9092",
		"tracker-b=10.0.0.2:9092",
	})
	require.NoError(t, err)

	peers, err := membership.AlivePeers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []cluster.Peer{
		{ID: "tracker-a", Address: "10.0.0.1:9092"},
		{ID: "tracker-b", Address: "10.0.0.2:9092"},
	}, peers)
}

func TestNewStaticMembership_InvalidSpec(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"tracker-a", "=10.0.0.1:9092", "tracker-a="} {
		_, err := cluster.NewStaticMembership([]string{spec})
		assert.Error(t, err, "spec %q should be rejected", spec)
	}
}

func TestStaticMembership_AlivePeersReturnsCopy(t *testing.T) {
	t.Parallel()

	membership, err := cluster.NewStaticMembership([]string{"tracker-a=10.0.0.1:9092"})
	require.NoError(t, err)

	peers, err := membership.AlivePeers(t.Context())
	require.NoError(t, err)

	peers[0].Address = "mutated"

	again, err := membership.AlivePeers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:9092", again[0].Address)
}

func TestStaticMembership_NeverFlagsFailures(t *testing.T) {
	t.Parallel()

	membership, err := cluster.NewStaticMembership([]string{"tracker-a=10.0.0.1:9092"})
	require.NoError(t, err)

	failed, err := membership.FailedNodes(t.Context())
	require.NoError(t, err)
	assert.Empty(t, failed)
}
