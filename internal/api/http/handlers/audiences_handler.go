package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/citizen-request-service/internal/api/dto"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/service"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// AudiencesHandler manages appointment endpoints.
type AudiencesHandler struct {
	audiences *service.AudienceService
	links     *service.LinkService
}

// NewAudiencesHandler constructs handler.
func NewAudiencesHandler(audiences *service.AudienceService, links *service.LinkService) *AudiencesHandler {
	return &AudiencesHandler{audiences: audiences, links: links}
}

// CreateAudience POST /audiences.
func (h *AudiencesHandler) CreateAudience(c *fiber.Ctx) error {
	var req dto.CreateAudiencePayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.AudienceCreateInput{
		Sujet:           req.Sujet,
		Citoyen:         req.Citoyen,
		ChargeDuDossier: req.ChargeDuDossier,
		PieceJointe:     req.PieceJointe,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	audience, err := h.audiences.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": audienceResponse(audience)})
}

// ListAudiences GET /audiences.
func (h *AudiencesHandler) ListAudiences(c *fiber.Ctx) error {
	query := service.AudienceQuery{Search: c.Query("search")}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			query.Statuses = append(query.Statuses, domain.AudienceStatus(strings.TrimSpace(part)))
		}
	}
	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	query.Offset = (page - 1) * pageSize
	query.Limit = pageSize

	audiences, err := h.audiences.Query(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.AudienceResponse, 0, len(audiences))
	for i := range audiences {
		items = append(items, audienceResponse(&audiences[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAudience GET /audiences/:id.
func (h *AudiencesHandler) GetAudience(c *fiber.Ctx) error {
	audience, err := h.audiences.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": audienceResponse(audience)})
}

// ConfirmAudience POST /audiences/:id/confirm.
func (h *AudiencesHandler) ConfirmAudience(c *fiber.Ctx) error {
	audience, err := h.audiences.Confirm(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": audienceResponse(audience)})
}

// RescheduleAudience POST /audiences/:id/reschedule.
func (h *AudiencesHandler) RescheduleAudience(c *fiber.Ctx) error {
	var req dto.ReschedulePayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}
	audience, err := h.audiences.Reschedule(c.UserContext(), c.Params("id"), date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": audienceResponse(audience)})
}

// CancelAudience POST /audiences/:id/cancel.
func (h *AudiencesHandler) CancelAudience(c *fiber.Ctx) error {
	audience, err := h.audiences.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": audienceResponse(audience)})
}

// CompleteAudience POST /audiences/:id/complete.
func (h *AudiencesHandler) CompleteAudience(c *fiber.Ctx) error {
	audience, err := h.audiences.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": audienceResponse(audience)})
}

// DeleteAudience DELETE /audiences/:id.
func (h *AudiencesHandler) DeleteAudience(c *fiber.Ctx) error {
	if err := h.audiences.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LinkedRequests GET /audiences/:id/requests.
func (h *AudiencesHandler) LinkedRequests(c *fiber.Ctx) error {
	ids, err := h.links.RequestsFor(c.UserContext(), domain.LinkKindAudience, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ids})
}

func audienceResponse(audience *domain.Audience) dto.AudienceResponse {
	return dto.AudienceResponse{
		ID:              audience.ID,
		Sujet:           audience.Sujet,
		Date:            audience.Date,
		Citoyen:         audience.Citoyen,
		ChargeDuDossier: audience.ChargeDuDossier,
		Status:          audience.Status,
		PieceJointe:     audience.PieceJointe,
		CreatedAt:       audience.CreatedAt,
		UpdatedAt:       audience.UpdatedAt,
	}
}
