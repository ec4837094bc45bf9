package dto

import (
	"time"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// CreateCourierPayload is the courier creation body.
type CreateCourierPayload struct {
	Objet        string                 `json:"objet"`
	Type         domain.CourierType     `json:"type"`
	Destinataire string                 `json:"destinataire"`
	Expediteur   string                 `json:"expediteur"`
	Date         *time.Time             `json:"date"`
	Priority     domain.RequestPriority `json:"priority"`
	Category     string                 `json:"category"`
	Description  string                 `json:"description"`
	PieceJointe  *string                `json:"piece_jointe"`
}

// UpdateCourierPayload is the partial courier update body.
type UpdateCourierPayload struct {
	Objet        *string                 `json:"objet"`
	Destinataire *string                 `json:"destinataire"`
	Expediteur   *string                 `json:"expediteur"`
	Date         *time.Time              `json:"date"`
	Priority     *domain.RequestPriority `json:"priority"`
	Category     *string                 `json:"category"`
	Description  *string                 `json:"description"`
	PieceJointe  *string                 `json:"piece_jointe"`
}

// CourierResponse response.
type CourierResponse struct {
	ID           string                 `json:"id"`
	Objet        string                 `json:"objet"`
	Type         domain.CourierType     `json:"type"`
	Destinataire string                 `json:"destinataire"`
	Expediteur   string                 `json:"expediteur"`
	Date         time.Time              `json:"date"`
	Statut       domain.CourierStatus   `json:"statut"`
	Priority     domain.RequestPriority `json:"priority"`
	Category     string                 `json:"category"`
	Description  string                 `json:"description,omitempty"`
	PieceJointe  *string                `json:"piece_jointe"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
