package dto

import (
	"time"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// AppendNotificationPayload is the log append body.
type AppendNotificationPayload struct {
	Type     domain.NotificationType `json:"type"`
	Title    string                  `json:"title"`
	Message  string                  `json:"message"`
	Metadata map[string]any          `json:"metadata"`
}

// NotificationResponse response.
type NotificationResponse struct {
	ID         string                  `json:"id"`
	ParentKind domain.ParentKind       `json:"parent_kind"`
	ParentID   string                  `json:"parent_id"`
	Type       domain.NotificationType `json:"type"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message,omitempty"`
	Actor      ActorPayload            `json:"actor"`
	Metadata   map[string]any          `json:"metadata,omitempty"`
	IsRead     bool                    `json:"is_read"`
	CreatedAt  time.Time               `json:"created_at"`
}

// ActorPayload identifies who produced a log entry.
type ActorPayload struct {
	Name string           `json:"name"`
	Kind domain.ActorKind `json:"kind"`
}
