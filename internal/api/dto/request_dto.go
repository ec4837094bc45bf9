package dto

import (
	"time"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// CreateRequestPayload is the creation body for citizen requests.
type CreateRequestPayload struct {
	Citizen          CitizenPayload         `json:"citizen"`
	Type             string                 `json:"type"`
	Category         string                 `json:"category"`
	Subject          string                 `json:"subject"`
	Description      string                 `json:"description"`
	Priority         domain.RequestPriority `json:"priority"`
	Attachments      []string               `json:"attachments"`
	AIClassification string                 `json:"ai_classification"`
	Sentiment        string                 `json:"sentiment"`
}

// CitizenPayload embeds submitter identity.
type CitizenPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateRequestPayload is the partial update body. Absent fields are left
// untouched.
type UpdateRequestPayload struct {
	Status           *domain.RequestStatus   `json:"status"`
	Priority         *domain.RequestPriority `json:"priority"`
	AssignedAgentID  *string                 `json:"assigned_agent_id"`
	Unassign         bool                    `json:"unassign"`
	Attachments      *[]string               `json:"attachments"`
	AIClassification *string                 `json:"ai_classification"`
	Sentiment        *string                 `json:"sentiment"`
}

// RequestSummary response.
type RequestSummary struct {
	ID            string                 `json:"id"`
	Citizen       CitizenPayload         `json:"citizen"`
	Type          string                 `json:"type"`
	Category      string                 `json:"category"`
	Subject       string                 `json:"subject"`
	Status        domain.RequestStatus   `json:"status"`
	Priority      domain.RequestPriority `json:"priority"`
	SLAStatus     domain.SLAStatus       `json:"sla_status"`
	CurrentStep   string                 `json:"current_step"`
	AssignedAgent *string                `json:"assigned_agent_id"`
	Archived      bool                   `json:"archived"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// RequestDetail provides full request info.
type RequestDetail struct {
	ID               string                 `json:"id"`
	Citizen          CitizenPayload         `json:"citizen"`
	Type             string                 `json:"type"`
	Category         string                 `json:"category"`
	Subject          string                 `json:"subject"`
	Description      string                 `json:"description"`
	Status           domain.RequestStatus   `json:"status"`
	Priority         domain.RequestPriority `json:"priority"`
	SLAStatus        domain.SLAStatus       `json:"sla_status"`
	AIClassification string                 `json:"ai_classification,omitempty"`
	Sentiment        string                 `json:"sentiment,omitempty"`
	Workflow         WorkflowPayload        `json:"workflow"`
	AssignedAgent    *string                `json:"assigned_agent_id"`
	Archived         bool                   `json:"archived"`
	Attachments      []string               `json:"attachments"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	ResolvedAt       *time.Time             `json:"resolved_at"`
}

// WorkflowPayload exposes the processing steps.
type WorkflowPayload struct {
	CurrentStep string   `json:"current_step"`
	Steps       []string `json:"steps"`
	CanAdvance  bool     `json:"can_advance"`
}

// RequestLinksResponse groups linked entity IDs.
type RequestLinksResponse struct {
	Couriers  []string `json:"couriers"`
	Audiences []string `json:"audiences"`
}

// LinkPayload names the entity to link or unlink.
type LinkPayload struct {
	Kind     domain.LinkKind `json:"kind"`
	EntityID string          `json:"entity_id"`
}
