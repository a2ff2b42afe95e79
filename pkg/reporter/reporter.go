// Package reporter tracks in-flight workflow instances: it consumes engine
// state-change events, derives websocket notifications, mirrors live reports
// into the shared report store and archives finished instances.
package reporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowtrack-io/flowtrack/pkg/engine"
	"github.com/flowtrack-io/flowtrack/pkg/eventbus"
	"github.com/flowtrack-io/flowtrack/pkg/events"
	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/persistence"
	"github.com/flowtrack-io/flowtrack/pkg/registry"
	"github.com/flowtrack-io/flowtrack/pkg/report"
	"github.com/flowtrack-io/flowtrack/pkg/sharedstore"
)

const (
	defaultEntryTTL      = 24 * time.Hour
	defaultWriterWorkers = 4
	defaultWriterQueue   = 256
)

// Config carries the identity and tuning of one tracker node.
type Config struct {
	NodeID      string
	ServiceName string

	// EntryTTL bounds how long a mirrored report survives without refresh.
	EntryTTL time.Duration

	WriterWorkers int
	WriterQueue   int
}

func (c *Config) applyDefaults() {
	if c.EntryTTL <= 0 {
		c.EntryTTL = defaultEntryTTL
	}

	if c.WriterWorkers <= 0 {
		c.WriterWorkers = defaultWriterWorkers
	}

	if c.WriterQueue <= 0 {
		c.WriterQueue = defaultWriterQueue
	}
}

// Reporter is the event-driven state machine over the stream of engine
// events. Events for one instance are processed strictly sequentially;
// different instances proceed in parallel.
type Reporter struct {
	config      Config
	logger      *slog.Logger
	registry    *registry.Registry
	store       sharedstore.Store
	persistence persistence.Persistence
	engine      engine.Engine
	notifier    eventbus.Notifier
	locks       *keyedMutex
	writers     *writerPool
}

func New(
	ctx context.Context,
	config Config,
	logger *slog.Logger,
	instanceRegistry *registry.Registry,
	store sharedstore.Store,
	persist persistence.Persistence,
	eng engine.Engine,
	notifier eventbus.Notifier,
) *Reporter {
	config.applyDefaults()

	moduleLogger := logger.With("module", "reporter", "node_id", config.NodeID)

	return &Reporter{
		config:      config,
		logger:      moduleLogger,
		registry:    instanceRegistry,
		store:       store,
		persistence: persist,
		engine:      eng,
		notifier:    notifier,
		locks:       newKeyedMutex(),
		writers:     newWriterPool(ctx, config.WriterWorkers, config.WriterQueue, moduleLogger),
	}
}

// RegisterHandlers subscribes the reporter to every event type it consumes.
func (r *Reporter) RegisterHandlers(bus eventbus.EventSubscriber) error {
	err := bus.Handle(events.WorkflowTriggeredEvent, r.HandleWorkflowTriggered)
	if err != nil {
		return err
	}

	for _, eventType := range []events.EventType{
		events.WorkflowStartedEvent,
		events.WorkflowProgressEvent,
		events.WorkflowFinishedEvent,
		events.WorkflowFailedEvent,
		events.TaskStartedEvent,
		events.TaskProgressEvent,
		events.TaskFinishedEvent,
		events.TaskFailedEvent,
		events.TaskTimeoutEvent,
		events.ContactProgressEvent,
	} {
		err := bus.Handle(eventType, r.HandleEngineEvent)
		if err != nil {
			return err
		}
	}

	return nil
}

// Stop drains the background writer pool. Call after the event subscription
// is closed so no new mirror writes arrive.
func (r *Reporter) Stop() {
	r.writers.Stop()
}

// HandleWorkflowTriggered submits the trigger payload to the engine and
// starts tracking every instance it created.
func (r *Reporter) HandleWorkflowTriggered(ctx context.Context, event any) error {
	triggered, ok := event.(*events.WorkflowTriggered)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for WorkflowTriggered")

		return nil
	}

	instances, err := r.engine.Submit(ctx, triggered.TriggerData, triggered.Topic)
	if err != nil {
		r.logger.ErrorContext(ctx, "Engine rejected trigger payload",
			"topic", triggered.Topic, "error", err)

		return err
	}

	metadata := &models.ExecMetadata{
		Requester: triggered.Requester,
		Track:     triggered.Track,
	}

	for _, instance := range instances {
		template, err := r.persistence.TemplateByID(ctx, instance.TemplateID(), false)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to load template for triggered instance",
				"instance_id", instance.ID(),
				"template_id", instance.TemplateID(),
				"error", err)

			continue
		}

		record, err := r.registry.Register(template, instance, metadata)
		if err != nil && !errors.Is(err, registry.ErrDuplicateInstance) {
			return err
		}

		r.logger.InfoContext(ctx, "Tracking new workflow instance",
			"instance_id", instance.ID(),
			"template_id", template.ID)

		// Initial mirror is lightweight: no task data exists yet.
		r.mirrorAsync(record, report.Options{IncludeTasks: true, IncludeData: false})
	}

	return nil
}

// HandleEngineEvent applies one engine state-change event: notify, then
// mirror (non-terminal) or archive and clean up (terminal).
func (r *Reporter) HandleEngineEvent(ctx context.Context, event any) error {
	instanceID, ok := instanceIDOf(event)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid engine event payload")

		return nil
	}

	r.locks.Lock(instanceID)
	defer r.locks.Unlock(instanceID)

	record, err := r.registry.Get(instanceID)
	if errors.Is(err, registry.ErrNotFound) {
		// Late event for an instance already finished or rescued away.
		r.logger.DebugContext(ctx, "Dropping stale event for unknown instance",
			"instance_id", instanceID)

		return nil
	}

	notification, topic := r.buildNotification(record, event)
	if notification != nil {
		err = r.notifier.Notify(ctx, topic, notification)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to publish notification",
				"instance_id", instanceID,
				"topic", topic,
				"error", err)
		}
	}

	if isTerminal(event) {
		return r.finishInstance(ctx, record)
	}

	r.mirrorAsync(record, report.Full())

	return nil
}

// Adopt starts tracking an instance rescued from a failed node. The engine
// resumes execution from the reported task states; tracking continues under
// this node's identity with the same instance id.
func (r *Reporter) Adopt(ctx context.Context, entry *sharedstore.Entry) error {
	rep := entry.Report
	instanceID := rep.InstanceID()

	r.locks.Lock(instanceID)
	defer r.locks.Unlock(instanceID)

	instance, err := r.engine.Resume(ctx, rep)
	if err != nil {
		return fmt.Errorf("engine refused rescued instance %s: %w", instanceID, err)
	}

	template, err := r.persistence.TemplateByID(ctx, rep.TemplateID, false)
	if err != nil {
		return fmt.Errorf("failed to load template for rescued instance %s: %w", instanceID, err)
	}

	metadata := &models.ExecMetadata{}
	if rep.Exec != nil {
		metadata.Requester = rep.Exec.Requester
		metadata.Track = rep.Exec.Track
	}

	record, err := r.registry.Register(template, instance, metadata)
	if err != nil && !errors.Is(err, registry.ErrDuplicateInstance) {
		return err
	}

	r.logger.InfoContext(ctx, "Adopted rescued workflow instance",
		"instance_id", instanceID,
		"origin_node", entry.NodeID)

	r.mirrorAsync(record, report.Full())

	return nil
}

// finishInstance archives the sanitized final report, then removes local and
// shared state. Removal happens only after the archive write succeeds: on
// failure the record stays registered so the terminal event can be
// redelivered and retried.
func (r *Reporter) finishInstance(ctx context.Context, record *models.InstanceRecord) error {
	instanceID := record.InstanceID()

	finalReport := report.SanitizeReport(report.Build(record, report.Full()))

	err := r.persistence.InsertFinishedInstance(ctx, finalReport)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to archive finished instance, keeping it registered",
			"instance_id", instanceID,
			"error", err)

		return fmt.Errorf("failed to archive finished instance %s: %w", instanceID, err)
	}

	r.registry.Remove(instanceID)
	r.clearAsync(instanceID)

	r.logger.InfoContext(ctx, "Finished tracking workflow instance",
		"instance_id", instanceID,
		"state", finalReport.Status())

	return nil
}

// mirrorAsync schedules a write-through of the instance's current report to
// the shared store. The report is built synchronously, under the instance
// lock; only the store write leaves the event path. Writes are keyed by
// instance id so a later terminal cleanup never overtakes them. Best-effort:
// failures are logged and overwritten by the next state change.
func (r *Reporter) mirrorAsync(record *models.InstanceRecord, opts report.Options) {
	entry := sharedstore.NewEntry(r.config.NodeID, report.Build(record, opts))

	r.writers.Submit(entry.InstanceID, func(ctx context.Context) {
		err := r.store.PutReport(ctx, entry, r.config.EntryTTL)
		if err != nil {
			r.logger.Error("Failed to mirror report to shared store",
				"instance_id", entry.InstanceID,
				"error", err)

			return
		}

		err = r.store.TrackInstance(ctx, r.config.NodeID, entry.InstanceID, r.config.EntryTTL)
		if err != nil {
			r.logger.Error("Failed to index tracked instance in shared store",
				"instance_id", entry.InstanceID,
				"error", err)
		}
	})
}

func (r *Reporter) clearAsync(instanceID string) {
	r.writers.Submit(instanceID, func(ctx context.Context) {
		err := r.store.DeleteReport(ctx, r.config.NodeID, instanceID)
		if err != nil {
			r.logger.Error("Failed to delete shared report entry",
				"instance_id", instanceID,
				"error", err)
		}

		err = r.store.ForgetInstance(ctx, r.config.NodeID, instanceID)
		if err != nil {
			r.logger.Error("Failed to remove instance from shared index",
				"instance_id", instanceID,
				"error", err)
		}
	})
}

func instanceIDOf(event any) (string, bool) {
	switch e := event.(type) {
	case *events.WorkflowStarted:
		return e.InstanceID, true
	case *events.WorkflowProgress:
		return e.InstanceID, true
	case *events.WorkflowFinished:
		return e.InstanceID, true
	case *events.WorkflowFailed:
		return e.InstanceID, true
	case *events.TaskStarted:
		return e.InstanceID, true
	case *events.TaskProgress:
		return e.InstanceID, true
	case *events.TaskFinished:
		return e.InstanceID, true
	case *events.TaskFailed:
		return e.InstanceID, true
	case *events.TaskTimeout:
		return e.InstanceID, true
	case *events.ContactProgress:
		return e.InstanceID, true
	default:
		return "", false
	}
}

func isTerminal(event any) bool {
	switch event.(type) {
	case *events.WorkflowFinished, *events.WorkflowFailed:
		return true
	default:
		return false
	}
}
