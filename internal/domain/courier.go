package domain

import "time"

// CourierType distinguishes correspondence direction.
type CourierType string

const (
	CourierInbound  CourierType = "INBOUND"
	CourierOutbound CourierType = "OUTBOUND"
	CourierInternal CourierType = "INTERNAL"
)

// CourierStatus enumerates correspondence states.
type CourierStatus string

const (
	CourierStatusDraft    CourierStatus = "DRAFT"
	CourierStatusPending  CourierStatus = "PENDING"
	CourierStatusSent     CourierStatus = "SENT"
	CourierStatusArchived CourierStatus = "ARCHIVED"
)

// Courier is an official correspondence record, optionally linked to
// requests through the link registry.
type Courier struct {
	ID           string
	Objet        string
	Type         CourierType
	Destinataire string
	Expediteur   string
	Date         time.Time
	Statut       CourierStatus
	Priority     RequestPriority
	Category     string
	Description  string
	PieceJointe  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
