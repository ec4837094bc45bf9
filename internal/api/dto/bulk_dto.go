package dto

import (
	"time"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// BulkActionPayload describes one batch invocation.
type BulkActionPayload struct {
	Action string            `json:"action"`
	IDs    []string          `json:"ids"`
	Params BulkParamsPayload `json:"params"`
}

// BulkParamsPayload carries action-specific arguments.
type BulkParamsPayload struct {
	AgentID  *string                 `json:"agent_id"`
	Priority *domain.RequestPriority `json:"priority"`
	Date     *time.Time              `json:"date"`
	Title    string                  `json:"title"`
	Message  string                  `json:"message"`
}

// BulkResultResponse partitions the targeted IDs into outcomes.
type BulkResultResponse struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
}
