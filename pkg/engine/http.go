package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

const defaultEngineTimeout = 30 * time.Second

// HTTPEngine talks to an execution broker over its HTTP API. Submitted
// instances are handed back as snapshots; State() refreshes the snapshot from
// the broker so report builds see current task data.
type HTTPEngine struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

func NewHTTPEngine(logger *slog.Logger, baseURL string, timeout time.Duration) *HTTPEngine {
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}

	return &HTTPEngine{
		logger:  logger.With("module", "engine"),
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type instanceSnapshot struct {
	ID         string                `json:"id"`
	TemplateID string                `json:"template_id"`
	State      *models.InstanceState `json:"state"`
}

type submitRequest struct {
	Topic string         `json:"topic"`
	Data  map[string]any `json:"data"`
}

type submitResponse struct {
	Instances []*instanceSnapshot `json:"instances"`
}

func (e *HTTPEngine) Submit(ctx context.Context, trigger map[string]any, topic string) ([]models.LiveInstance, error) {
	var response submitResponse

	err := e.post(ctx, "/v1/triggers", submitRequest{Topic: topic, Data: trigger}, &response)
	if err != nil {
		return nil, fmt.Errorf("failed to submit trigger to engine: %w", err)
	}

	instances := make([]models.LiveInstance, 0, len(response.Instances))
	for _, snapshot := range response.Instances {
		instances = append(instances, e.newInstance(snapshot))
	}

	return instances, nil
}

func (e *HTTPEngine) Resume(ctx context.Context, rep *report.Report) (models.LiveInstance, error) {
	var snapshot instanceSnapshot

	err := e.post(ctx, "/v1/instances/resume", rep, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to resume instance on engine: %w", err)
	}

	return e.newInstance(&snapshot), nil
}

func (e *HTTPEngine) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	response, err := e.client.Do(request)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("engine answered status %d", response.StatusCode)
	}

	return json.NewDecoder(response.Body).Decode(out)
}

func (e *HTTPEngine) newInstance(snapshot *instanceSnapshot) *remoteInstance {
	return &remoteInstance{
		engine:   e,
		snapshot: snapshot,
	}
}

// remoteInstance is a broker-owned instance seen through its HTTP API. The
// last fetched snapshot is kept so reads survive a momentarily unreachable
// broker.
type remoteInstance struct {
	engine *HTTPEngine

	mu       sync.Mutex
	snapshot *instanceSnapshot
}

func (i *remoteInstance) ID() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.snapshot.ID
}

func (i *remoteInstance) TemplateID() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.snapshot.TemplateID
}

func (i *remoteInstance) Status() models.InstanceStatus {
	state := i.State()
	if state == nil || state.Exec == nil {
		return models.InstanceStatusCreated
	}

	return state.Exec.Status
}

func (i *remoteInstance) State() *models.InstanceState {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.refresh()

	return i.snapshot.State
}

// refresh is called under mu.
func (i *remoteInstance) refresh() {
	request, err := http.NewRequest(http.MethodGet, i.engine.baseURL+"/v1/instances/"+i.snapshot.ID, nil)
	if err != nil {
		return
	}

	response, err := i.engine.client.Do(request)
	if err != nil {
		i.engine.logger.Warn("Failed to refresh instance snapshot, serving cached state",
			"instance_id", i.snapshot.ID,
			"error", err)

		return
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		i.engine.logger.Warn("Engine refused instance snapshot refresh, serving cached state",
			"instance_id", i.snapshot.ID,
			"status", response.StatusCode)

		return
	}

	var snapshot instanceSnapshot

	err = json.NewDecoder(response.Body).Decode(&snapshot)
	if err != nil {
		return
	}

	i.snapshot = &snapshot
}
