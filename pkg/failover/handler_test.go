package failover_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtrack-io/flowtrack/pkg/cluster"
	"github.com/flowtrack-io/flowtrack/pkg/failover"
	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
	"github.com/flowtrack-io/flowtrack/pkg/sharedstore"
	"github.com/flowtrack-io/flowtrack/pkg/testutil"
)

// testPeer is one fake surviving node: an HTTP server answering the rescue
// endpoint with a fixed status, counting submissions.
type testPeer struct {
	server   *httptest.Server
	requests atomic.Int32
	lastBody atomic.Pointer[sharedstore.Entry]
}

func newTestPeer(t *testing.T, status int) *testPeer {
	t.Helper()

	peer := &testPeer{}
	peer.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, failover.RescuePath, r.URL.Path)

		peer.requests.Add(1)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var entry sharedstore.Entry
		require.NoError(t, json.Unmarshal(body, &entry))
		peer.lastBody.Store(&entry)

		w.WriteHeader(status)
	}))

	t.Cleanup(peer.server.Close)

	return peer
}

func (p *testPeer) address() string {
	return strings.TrimPrefix(p.server.URL, "http://")
}

func setupFailover(t *testing.T, peers []*testPeer) (*failover.Handler, *sharedstore.MemoryStore, *sharedstore.Entry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sharedstore.NewMemoryStore()

	template := testutil.CreateTestTemplateWithTasks()
	record, instance := testutil.CreateTestRecord(template)
	instance.SetStatus(models.InstanceStatusBegin)
	instance.StartTask("task-1")

	entry := sharedstore.NewEntry("node-dead", report.Build(record, report.Full()))

	require.NoError(t, store.PutReport(t.Context(), entry, time.Minute))
	require.NoError(t, store.TrackInstance(t.Context(), "node-dead", entry.InstanceID, time.Minute))

	specs := make([]string, 0, len(peers))
	for i, peer := range peers {
		specs = append(specs, "peer-"+string(rune('a'+i))+"="+peer.address())
	}

	membership, err := cluster.NewStaticMembership(specs)
	require.NoError(t, err)

	return failover.NewHandler(logger, store, membership, time.Second), store, entry
}

func totalRequests(peers []*testPeer) int {
	total := 0
	for _, peer := range peers {
		total += int(peer.requests.Load())
	}

	return total
}

func TestHandler_RescueWithRefusingPeers(t *testing.T) {
	t.Parallel()

	// Two peers decline, one accepts; candidate order is shuffled so only
	// totals are deterministic.
	accepting := newTestPeer(t, http.StatusOK)
	peers := []*testPeer{
		newTestPeer(t, http.StatusServiceUnavailable),
		newTestPeer(t, http.StatusServiceUnavailable),
		accepting,
	}

	handler, store, entry := setupFailover(t, peers)

	handler.RescueNodes(t.Context(), []string{"node-dead"})

	assert.Equal(t, int32(1), accepting.requests.Load())
	assert.LessOrEqual(t, totalRequests(peers), 3)

	received := accepting.lastBody.Load()
	require.NotNil(t, received)
	assert.Equal(t, entry.InstanceID, received.InstanceID)
	assert.Equal(t, "node-dead", received.NodeID)

	// The accepted instance's shared state is cleaned up.
	_, err := store.GetReport(t.Context(), "node-dead", entry.InstanceID)
	assert.ErrorIs(t, err, sharedstore.ErrNotFound)

	tracked, err := store.TrackedInstances(t.Context(), "node-dead")
	require.NoError(t, err)
	assert.Empty(t, tracked)
}

func TestHandler_FirstAcceptingPeerWins(t *testing.T) {
	t.Parallel()

	peers := []*testPeer{
		newTestPeer(t, http.StatusOK),
		newTestPeer(t, http.StatusOK),
		newTestPeer(t, http.StatusOK),
	}

	handler, _, _ := setupFailover(t, peers)

	handler.RescueNodes(t.Context(), []string{"node-dead"})

	assert.Equal(t, 1, totalRequests(peers), "instance must be adopted exactly once")
}

func TestHandler_KeepsEntryWhenNoPeerAccepts(t *testing.T) {
	t.Parallel()

	peers := []*testPeer{
		newTestPeer(t, http.StatusServiceUnavailable),
		newTestPeer(t, http.StatusBadRequest),
	}

	handler, store, entry := setupFailover(t, peers)

	handler.RescueNodes(t.Context(), []string{"node-dead"})

	assert.Equal(t, 2, totalRequests(peers))

	// The entry stays so a later failover pass can retry.
	_, err := store.GetReport(t.Context(), "node-dead", entry.InstanceID)
	assert.NoError(t, err)

	tracked, err := store.TrackedInstances(t.Context(), "node-dead")
	require.NoError(t, err)
	assert.Equal(t, []string{entry.InstanceID}, tracked)
}

func TestHandler_SkipsInstanceWithWipedEntry(t *testing.T) {
	t.Parallel()

	peer := newTestPeer(t, http.StatusOK)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sharedstore.NewMemoryStore()

	// Index knows the instance but the report entry already expired.
	require.NoError(t, store.TrackInstance(t.Context(), "node-dead", "inst-gone", time.Minute))

	membership, err := cluster.NewStaticMembership([]string{"peer-a=" + peer.address()})
	require.NoError(t, err)

	handler := failover.NewHandler(logger, store, membership, time.Second)
	handler.RescueNodes(t.Context(), []string{"node-dead"})

	assert.Equal(t, int32(0), peer.requests.Load())
}

func TestHandler_RescuesMultipleInstances(t *testing.T) {
	t.Parallel()

	peer := newTestPeer(t, http.StatusOK)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sharedstore.NewMemoryStore()

	const instances = 5

	for range instances {
		template := testutil.CreateTestTemplateWithTasks()
		record, _ := testutil.CreateTestRecord(template)
		entry := sharedstore.NewEntry("node-dead", report.Build(record, report.Full()))

		require.NoError(t, store.PutReport(t.Context(), entry, time.Minute))
		require.NoError(t, store.TrackInstance(t.Context(), "node-dead", entry.InstanceID, time.Minute))
	}

	membership, err := cluster.NewStaticMembership([]string{"peer-a=" + peer.address()})
	require.NoError(t, err)

	handler := failover.NewHandler(logger, store, membership, time.Second)
	handler.RescueNodes(t.Context(), []string{"node-dead"})

	assert.Equal(t, int32(instances), peer.requests.Load())

	tracked, err := store.TrackedInstances(t.Context(), "node-dead")
	require.NoError(t, err)
	assert.Empty(t, tracked)
}
