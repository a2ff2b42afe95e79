// Package events defines the closed set of engine events the tracker consumes
// and the notification payloads it produces.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Bus topics.
const Topic = "flowtrack.engine.events"          // Inbound engine state-change events
const NotificationTopic = "flowtrack.notifications" // Outbound websocket-ready notifications

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"
const WebsocketTopicMetadataKey = "websocket_topic"

const (
	// Trigger events.
	WorkflowTriggeredEvent EventType = "workflow.triggered"

	// Workflow-level execution events.
	WorkflowStartedEvent  EventType = "workflow.execution.started"
	WorkflowProgressEvent EventType = "workflow.execution.progress"
	WorkflowFinishedEvent EventType = "workflow.execution.finished"
	WorkflowFailedEvent   EventType = "workflow.execution.failed"

	// Task-level execution events.
	TaskStartedEvent     EventType = "task.execution.started"
	TaskProgressEvent    EventType = "task.execution.progress"
	TaskFinishedEvent    EventType = "task.execution.finished"
	TaskFailedEvent      EventType = "task.execution.failed"
	TaskTimeoutEvent     EventType = "task.execution.timeout"
	ContactProgressEvent EventType = "task.execution.contact"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	InstanceID string    `json:"instance_id"`
}

func NewBaseEvent(instanceID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		InstanceID: instanceID,
	}
}

// WorkflowTriggered signals that a trigger payload matching a subscribed
// topic arrived and new instances should be started for it.
type WorkflowTriggered struct {
	BaseEvent

	Topic       string         `json:"topic"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
	Requester   string         `json:"requester,omitempty"`
	Track       string         `json:"track,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowStarted struct {
	BaseEvent
}

func (w WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type WorkflowProgress struct {
	BaseEvent

	Data map[string]any `json:"data,omitempty"`
}

func (w WorkflowProgress) GetType() EventType {
	return WorkflowProgressEvent
}

type WorkflowFinished struct {
	BaseEvent

	Result map[string]any `json:"result,omitempty"`
}

func (w WorkflowFinished) GetType() EventType {
	return WorkflowFinishedEvent
}

type WorkflowFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (w WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

type TaskStarted struct {
	BaseEvent

	TaskID string `json:"task_id"`
}

func (t TaskStarted) GetType() EventType {
	return TaskStartedEvent
}

// TaskProgress carries the free-form reporting payload a task emits while it
// runs (progress bars, counters, contact lists).
type TaskProgress struct {
	BaseEvent

	TaskID    string `json:"task_id"`
	Reporting any    `json:"reporting,omitempty"`
}

func (t TaskProgress) GetType() EventType {
	return TaskProgressEvent
}

// ContactProgress is the single-contact refinement of TaskProgress.
type ContactProgress struct {
	BaseEvent

	TaskID    string `json:"task_id"`
	ContactID string `json:"contact_id"`
	Reporting any    `json:"reporting,omitempty"`
}

func (c ContactProgress) GetType() EventType {
	return ContactProgressEvent
}

type TaskFinished struct {
	BaseEvent

	TaskID  string         `json:"task_id"`
	Outputs map[string]any `json:"outputs,omitempty"`
}

func (t TaskFinished) GetType() EventType {
	return TaskFinishedEvent
}

type TaskFailed struct {
	BaseEvent

	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

func (t TaskFailed) GetType() EventType {
	return TaskFailedEvent
}

type TaskTimeout struct {
	BaseEvent

	TaskID string `json:"task_id"`
}

func (t TaskTimeout) GetType() EventType {
	return TaskTimeoutEvent
}
