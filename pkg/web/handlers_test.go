package web_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flowtrack-io/flowtrack/pkg/cluster"
	"github.com/flowtrack-io/flowtrack/pkg/failover"
	"github.com/flowtrack-io/flowtrack/pkg/mocks"
	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/registry"
	"github.com/flowtrack-io/flowtrack/pkg/report"
	"github.com/flowtrack-io/flowtrack/pkg/reporter"
	"github.com/flowtrack-io/flowtrack/pkg/sharedstore"
	"github.com/flowtrack-io/flowtrack/pkg/testutil"
	"github.com/flowtrack-io/flowtrack/pkg/web"
)

type webFixture struct {
	app      *fiber.App
	registry *registry.Registry
	engine   *mocks.MockEngine
	persist  *mocks.MockPersistence
}

func setupTestApp(t *testing.T) *webFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	instanceRegistry := registry.New(logger)
	store := sharedstore.NewMemoryStore()
	persist := &mocks.MockPersistence{}
	eng := &mocks.MockEngine{}
	notifier := &mocks.MockNotifier{}

	rep := reporter.New(
		t.Context(),
		reporter.Config{NodeID: "node-1", ServiceName: "tracker-test"},
		logger,
		instanceRegistry,
		store,
		persist,
		eng,
		notifier,
	)
	t.Cleanup(rep.Stop)

	membership, err := cluster.NewStaticMembership(nil)
	require.NoError(t, err)

	failoverHandler := failover.NewHandler(logger, store, membership, time.Second)
	handlers := web.NewAPIHandlers(logger, instanceRegistry, rep, failoverHandler)

	app := fiber.New()

	instances := app.Group("/v1/workflow/instances")
	instances.Get("/", handlers.GetInstances)
	instances.Get("/:id", handlers.GetInstance)
	instances.Put("/", handlers.RescueInstance)

	app.Post("/v1/cluster/failover", handlers.TriggerFailover)

	return &webFixture{
		app:      app,
		registry: instanceRegistry,
		engine:   eng,
		persist:  persist,
	}
}

func (f *webFixture) track(t *testing.T) *testutil.FakeInstance {
	t.Helper()

	template := testutil.CreateTestTemplateWithTasks()
	record, instance := testutil.CreateTestRecord(template)

	_, err := f.registry.Register(record.Template, record.Instance, record.Metadata)
	require.NoError(t, err)

	return instance
}

func TestGetInstances(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	f.track(t)
	f.track(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/workflow/instances", nil)

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Instances []*report.Report `json:"instances"`
		Count     int              `json:"count"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Instances, 2)

	// List views are lightweight: no task details.
	assert.Nil(t, payload.Instances[0].Tasks)
}

func TestGetInstance(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	instance := f.track(t)
	instance.SetStatus(models.InstanceStatusBegin)
	execution := instance.StartTask("task-1")
	execution.Inputs = map[string]any{"token": "secret"}

	req := httptest.NewRequest(http.MethodGet, "/v1/workflow/instances/"+instance.ID(), nil)

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep report.Report

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	assert.Equal(t, instance.ID(), rep.InstanceID())
	assert.Len(t, rep.Tasks, 2)
	assert.NotNil(t, rep.Tasks[0].Exec.Inputs)
}

func TestGetInstance_WithoutData(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	instance := f.track(t)
	execution := instance.StartTask("task-1")
	execution.Inputs = map[string]any{"token": "secret"}

	req := httptest.NewRequest(http.MethodGet, "/v1/workflow/instances/"+instance.ID()+"?data=false", nil)

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep report.Report

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	assert.Nil(t, rep.Tasks[0].Exec.Inputs)
}

func TestGetInstance_NotTracked(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/workflow/instances/no-such-instance", nil)

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetInstance_InvalidDataQuery(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	instance := f.track(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/workflow/instances/"+instance.ID()+"?data=banana", nil)

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func rescueEntry(t *testing.T) (*sharedstore.Entry, *testutil.FakeInstance, *models.WorkflowTemplate) {
	t.Helper()

	template := testutil.CreateTestTemplateWithTasks()
	record, instance := testutil.CreateTestRecord(template)
	instance.SetStatus(models.InstanceStatusBegin)
	instance.StartTask("task-1")

	return sharedstore.NewEntry("node-dead", report.Build(record, report.Full())), instance, template
}

func TestRescueInstance(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	entry, instance, template := rescueEntry(t)

	f.engine.On("Resume", mock.Anything, mock.Anything).Return(instance, nil)
	f.persist.On("TemplateByID", mock.Anything, template.ID, false).Return(template, nil)

	body, err := json.Marshal(entry)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/v1/workflow/instances", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		InstanceID string `json:"instance_id"`
		Adopted    bool   `json:"adopted"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, instance.ID(), result.InstanceID)
	assert.True(t, result.Adopted)

	_, err = f.registry.Get(instance.ID())
	assert.NoError(t, err)
}

func TestRescueInstance_InvalidJSON(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/workflow/instances", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRescueInstance_MissingFields(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	body, err := json.Marshal(map[string]any{"schema_version": sharedstore.SchemaVersion})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/v1/workflow/instances", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRescueInstance_ForeignSchemaVersion(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	entry, _, _ := rescueEntry(t)
	entry.SchemaVersion = sharedstore.SchemaVersion + 1

	body, err := json.Marshal(entry)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/v1/workflow/instances", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRescueInstance_EngineRefuses(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	entry, _, _ := rescueEntry(t)

	f.engine.On("Resume", mock.Anything, mock.Anything).
		Return(nil, errors.New("unknown template"))

	body, err := json.Marshal(entry)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/v1/workflow/instances", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestTriggerFailover(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	body, err := json.Marshal(web.FailoverRequest{FailedNodes: []string{"node-dead"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/cluster/failover", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTriggerFailover_EmptyNodeList(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	body, err := json.Marshal(web.FailoverRequest{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/cluster/failover", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
