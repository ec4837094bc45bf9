package domain

import "time"

// NotificationType captures what kind of event a log entry records.
type NotificationType string

const (
	NotificationComment      NotificationType = "COMMENT"
	NotificationAttachment   NotificationType = "ATTACHMENT"
	NotificationStatusChange NotificationType = "STATUS_CHANGE"
	NotificationAssignment   NotificationType = "ASSIGNMENT"
	NotificationReminder     NotificationType = "REMINDER"
	NotificationResponse     NotificationType = "RESPONSE"
)

// ActorKind indicates who produced a notification.
type ActorKind string

const (
	ActorCitizen ActorKind = "CITIZEN"
	ActorAgent   ActorKind = "AGENT"
	ActorSystem  ActorKind = "SYSTEM"
)

// Actor identifies the notification author.
type Actor struct {
	Name string
	Kind ActorKind
}

// ParentKind names the entity a notification is attached to.
type ParentKind string

const (
	ParentRequest ParentKind = "REQUEST"
	ParentCourier ParentKind = "COURIER"
)

// Notification is an append-only audit trail entry attached to exactly one
// parent. Only IsRead is mutable after creation.
type Notification struct {
	ID         string
	ParentKind ParentKind
	ParentID   string
	Type       NotificationType
	Title      string
	Message    string
	Actor      Actor
	Metadata   map[string]any
	IsRead     bool
	CreatedAt  time.Time
}
