package events

// Websocket topic layout:
//
//	workflow/exec/{instance_id}
//	workflow/exec/{instance_id}/tasks/{task_id}
//	workflow/exec/{instance_id}/tasks/{task_id}/reporting
//	workflow/exec/{instance_id}/tasks/{task_id}/reporting/contacts/{contact_id}
//
// Downstream consumers subscribe by prefix, so segment order matters.

const execTopicPrefix = "workflow/exec/"
const websocketPrefix = "websocket/"

func ExecTopic(instanceID string) string {
	return execTopicPrefix + instanceID
}

func TaskTopic(instanceID, taskID string) string {
	return ExecTopic(instanceID) + "/tasks/" + taskID
}

func TaskReportingTopic(instanceID, taskID string) string {
	return TaskTopic(instanceID, taskID) + "/reporting"
}

func ContactTopic(instanceID, taskID, contactID string) string {
	return TaskReportingTopic(instanceID, taskID) + "/contacts/" + contactID
}

// WebsocketTopic prefixes a workflow topic with the websocket namespace the
// push gateway routes on.
func WebsocketTopic(topic string) string {
	return websocketPrefix + topic
}
