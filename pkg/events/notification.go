package events

import "time"

// Notification is the payload published for downstream websocket consumers on
// every tracked state change. Template holds a TemplateRef for task-scoped
// events and the full template document on workflow start.
type Notification struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Topic     string         `json:"topic"`
	Service   string         `json:"service_name"`
	Requester string         `json:"requester,omitempty"`
	Template  any            `json:"template,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// TemplateRef identifies the template an event belongs to without carrying
// the whole document.
type TemplateRef struct {
	ID string `json:"id"`
}
