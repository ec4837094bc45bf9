package domain

import "time"

// AudienceStatus enumerates appointment states.
type AudienceStatus string

const (
	AudienceScheduled AudienceStatus = "SCHEDULED"
	AudienceConfirmed AudienceStatus = "CONFIRMED"
	AudienceCompleted AudienceStatus = "COMPLETED"
	AudienceCancelled AudienceStatus = "CANCELLED"
)

// Audience is a scheduled citizen appointment or hearing.
type Audience struct {
	ID              string
	Sujet           string
	Date            time.Time
	Citoyen         string
	ChargeDuDossier *string
	Status          AudienceStatus
	PieceJointe     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Settled reports whether the audience reached a final state.
func (s AudienceStatus) Settled() bool {
	return s == AudienceCompleted || s == AudienceCancelled
}
