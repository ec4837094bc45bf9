package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/citizen-request-service/internal/api/dto"
	"github.com/spec-kit/citizen-request-service/internal/auth"
	"github.com/spec-kit/citizen-request-service/internal/service"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// BulkHandler manages batch action endpoints.
type BulkHandler struct {
	bulk *service.BulkService
}

// NewBulkHandler constructs handler.
func NewBulkHandler(bulk *service.BulkService) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

// ApplyToRequests POST /bulk/requests.
func (h *BulkHandler) ApplyToRequests(c *fiber.Ctx) error {
	return h.apply(c, service.BulkRequests)
}

// ApplyToCouriers POST /bulk/couriers.
func (h *BulkHandler) ApplyToCouriers(c *fiber.Ctx) error {
	return h.apply(c, service.BulkCouriers)
}

// ApplyToAudiences POST /bulk/audiences.
func (h *BulkHandler) ApplyToAudiences(c *fiber.Ctx) error {
	return h.apply(c, service.BulkAudiences)
}

func (h *BulkHandler) apply(c *fiber.Ctx, entity service.BulkEntity) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.BulkActionPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.bulk.Apply(c.UserContext(), principal.Actor(), service.BulkInput{
		Entity: entity,
		Action: service.BulkAction(req.Action),
		IDs:    req.IDs,
		Params: service.BulkParams{
			AgentID:  req.Params.AgentID,
			Priority: req.Params.Priority,
			Date:     req.Params.Date,
			Title:    req.Params.Title,
			Message:  req.Params.Message,
		},
	})
	if err != nil {
		return err
	}

	failed := make(map[string]string, len(result.Failed))
	for id, ferr := range result.Failed {
		failed[id] = apperrors.Code(ferr)
	}
	return c.JSON(fiber.Map{"data": dto.BulkResultResponse{
		Succeeded: result.Succeeded,
		Failed:    failed,
	}})
}
