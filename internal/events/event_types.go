package events

import (
	"time"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated         EventType = "request_created"
	EventRequestStatusChanged   EventType = "request_status_changed"
	EventRequestPriorityChanged EventType = "request_priority_changed"
	EventRequestAssigned        EventType = "request_assigned"
	EventRequestArchived        EventType = "request_archived"
	EventWorkflowAdvanced       EventType = "workflow_advanced"
	EventNotificationAppended   EventType = "notification_appended"
	EventCourierSent            EventType = "courier_sent"
	EventBulkCompleted          EventType = "bulk_completed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind domain.ActorKind `json:"kind"`
	Name string           `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Type     string                 `json:"type"`
	Category string                 `json:"category"`
	Priority domain.RequestPriority `json:"priority"`
	Subject  string                 `json:"subject"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// RequestPriorityChangedPayload payload.
type RequestPriorityChangedPayload struct {
	OldPriority domain.RequestPriority `json:"old_priority"`
	NewPriority domain.RequestPriority `json:"new_priority"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	AgentID *string `json:"agent_id,omitempty"`
}

// WorkflowAdvancedPayload payload.
type WorkflowAdvancedPayload struct {
	OldStep string `json:"old_step"`
	NewStep string `json:"new_step"`
}

// NotificationAppendedPayload payload.
type NotificationAppendedPayload struct {
	NotificationID string                  `json:"notification_id"`
	ParentKind     domain.ParentKind       `json:"parent_kind"`
	Type           domain.NotificationType `json:"type"`
	Title          string                  `json:"title"`
}

// CourierSentPayload payload.
type CourierSentPayload struct {
	Destinataire string `json:"destinataire"`
	Objet        string `json:"objet"`
}

// BulkCompletedPayload payload.
type BulkCompletedPayload struct {
	EntityKind string `json:"entity_kind"`
	Action     string `json:"action"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
}
