package reporter

import (
	"fmt"

	"github.com/flowtrack-io/flowtrack/pkg/events"
	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// buildNotification derives the outbound payload and websocket topic for one
// engine event. Workflow-scoped events carry the requester; task-scoped
// events carry a template reference; workflow start carries the full
// template document so consumers can render the graph without a second
// round-trip.
func (r *Reporter) buildNotification(record *models.InstanceRecord, event any) (*events.Notification, string) {
	instanceID := record.InstanceID()

	var (
		topic        string
		notification *events.Notification
	)

	switch e := event.(type) {
	case *events.WorkflowStarted:
		topic = events.ExecTopic(instanceID)
		notification = r.workflowNotification(record, e.GetType(), e.BaseEvent, nil)
		notification.Template = record.Template
	case *events.WorkflowProgress:
		topic = events.ExecTopic(instanceID)
		notification = r.workflowNotification(record, e.GetType(), e.BaseEvent, e.Data)
	case *events.WorkflowFinished:
		topic = events.ExecTopic(instanceID)
		notification = r.workflowNotification(record, e.GetType(), e.BaseEvent, e.Result)
	case *events.WorkflowFailed:
		topic = events.ExecTopic(instanceID)
		notification = r.workflowNotification(record, e.GetType(), e.BaseEvent, map[string]any{"error": e.Error})
	case *events.TaskStarted:
		topic = events.TaskTopic(instanceID, e.TaskID)
		notification = r.taskNotification(record, e.GetType(), e.BaseEvent, nil)
	case *events.TaskProgress:
		topic = events.TaskReportingTopic(instanceID, e.TaskID)
		notification = r.taskNotification(record, e.GetType(), e.BaseEvent, reportingData(e.Reporting))
	case *events.ContactProgress:
		topic = events.ContactTopic(instanceID, e.TaskID, e.ContactID)
		notification = r.taskNotification(record, e.GetType(), e.BaseEvent, reportingData(e.Reporting))
	case *events.TaskFinished:
		// Terminal task event: outputs are whitelisted like in light reports.
		topic = events.TaskTopic(instanceID, e.TaskID)
		notification = r.taskNotification(record, e.GetType(), e.BaseEvent, report.FilterOutputs(e.Outputs))
	case *events.TaskFailed:
		topic = events.TaskTopic(instanceID, e.TaskID)
		notification = r.taskNotification(record, e.GetType(), e.BaseEvent, map[string]any{"error": e.Error})
	case *events.TaskTimeout:
		topic = events.TaskTopic(instanceID, e.TaskID)
		notification = r.taskNotification(record, e.GetType(), e.BaseEvent, nil)
	default:
		r.logger.Error("No notification mapping for engine event",
			"instance_id", instanceID,
			"event", fmt.Sprintf("%T", event))

		return nil, ""
	}

	notification.Topic = topic

	return notification, topic
}

func (r *Reporter) workflowNotification(
	record *models.InstanceRecord,
	eventType events.EventType,
	base events.BaseEvent,
	data map[string]any,
) *events.Notification {
	notification := &events.Notification{
		Type:      eventType,
		Timestamp: base.Timestamp,
		Service:   r.config.ServiceName,
		Data:      data,
	}

	if record.Metadata != nil {
		notification.Requester = record.Metadata.Requester
	}

	return notification
}

func (r *Reporter) taskNotification(
	record *models.InstanceRecord,
	eventType events.EventType,
	base events.BaseEvent,
	data map[string]any,
) *events.Notification {
	return &events.Notification{
		Type:      eventType,
		Timestamp: base.Timestamp,
		Service:   r.config.ServiceName,
		Template:  events.TemplateRef{ID: record.Template.ID},
		Data:      data,
	}
}

func reportingData(reporting any) map[string]any {
	if reporting == nil {
		return nil
	}

	if data, ok := reporting.(map[string]any); ok {
		return data
	}

	return map[string]any{"reporting": reporting}
}
