// Package queue defines message payloads exchanged over the message broker
// plus the publisher and the background consumer that turns task events
// into persisted notifications.
package queue

// TaskStatusQueueName is the durable queue carrying lifecycle events.
const TaskStatusQueueName = "task.status"

// TaskStatusEvent is published whenever a task changes status. It carries
// enough context for consumers to build user-facing notifications without
// querying the task store.
type TaskStatusEvent struct {
	TaskID         string `json:"task_id"`
	CitizenID      string `json:"citizen_id"`
	CollectorID    string `json:"collector_id,omitempty"`
	WasteType      string `json:"waste_type"`
	Location       string `json:"location"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
	PointsAwarded  int    `json:"points_awarded"`
	OccurredAt     string `json:"occurred_at"`
}
