package dto

import (
	"time"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// CreateAudiencePayload is the audience creation body.
type CreateAudiencePayload struct {
	Sujet           string     `json:"sujet"`
	Date            *time.Time `json:"date"`
	Citoyen         string     `json:"citoyen"`
	ChargeDuDossier *string    `json:"charge_du_dossier"`
	PieceJointe     *string    `json:"piece_jointe"`
}

// ReschedulePayload carries the new appointment date.
type ReschedulePayload struct {
	Date *time.Time `json:"date"`
}

// AudienceResponse response.
type AudienceResponse struct {
	ID              string                `json:"id"`
	Sujet           string                `json:"sujet"`
	Date            time.Time             `json:"date"`
	Citoyen         string                `json:"citoyen"`
	ChargeDuDossier *string               `json:"charge_du_dossier"`
	Status          domain.AudienceStatus `json:"status"`
	PieceJointe     *string               `json:"piece_jointe"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}
