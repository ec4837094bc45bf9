package domain

import "time"

// LinkKind names the entity side of a request association.
type LinkKind string

const (
	LinkKindCourier  LinkKind = "COURIER"
	LinkKindAudience LinkKind = "AUDIENCE"
)

// Link associates a request with a courier or an audience. Links are
// many-to-many and never imply cascading deletes in either direction.
type Link struct {
	RequestID string
	Kind      LinkKind
	EntityID  string
	CreatedAt time.Time
}

// RequestLinks groups the linked entity IDs for one request.
type RequestLinks struct {
	Couriers  []string
	Audiences []string
}
