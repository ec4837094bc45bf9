package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/citizen-request-service/internal/api/dto"
	"github.com/spec-kit/citizen-request-service/internal/auth"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/service"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// CouriersHandler manages correspondence endpoints.
type CouriersHandler struct {
	couriers *service.CourierService
	links    *service.LinkService
}

// NewCouriersHandler constructs handler.
func NewCouriersHandler(couriers *service.CourierService, links *service.LinkService) *CouriersHandler {
	return &CouriersHandler{couriers: couriers, links: links}
}

// CreateCourier POST /couriers.
func (h *CouriersHandler) CreateCourier(c *fiber.Ctx) error {
	var req dto.CreateCourierPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.CourierCreateInput{
		Objet:        req.Objet,
		Type:         req.Type,
		Destinataire: req.Destinataire,
		Expediteur:   req.Expediteur,
		Priority:     req.Priority,
		Category:     req.Category,
		Description:  req.Description,
		PieceJointe:  req.PieceJointe,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	courier, err := h.couriers.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": courierResponse(courier)})
}

// ListCouriers GET /couriers.
func (h *CouriersHandler) ListCouriers(c *fiber.Ctx) error {
	query := service.CourierQuery{Search: c.Query("search")}
	if statutStr := c.Query("statut"); statutStr != "" {
		for _, part := range strings.Split(statutStr, ",") {
			query.Statuts = append(query.Statuts, domain.CourierStatus(strings.TrimSpace(part)))
		}
	}
	if typeStr := c.Query("type"); typeStr != "" {
		for _, part := range strings.Split(typeStr, ",") {
			query.Types = append(query.Types, domain.CourierType(strings.TrimSpace(part)))
		}
	}
	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	query.Offset = (page - 1) * pageSize
	query.Limit = pageSize

	couriers, err := h.couriers.Query(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.CourierResponse, 0, len(couriers))
	for i := range couriers {
		items = append(items, courierResponse(&couriers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCourier GET /couriers/:id.
func (h *CouriersHandler) GetCourier(c *fiber.Ctx) error {
	courier, err := h.couriers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": courierResponse(courier)})
}

// UpdateCourier PATCH /couriers/:id.
func (h *CouriersHandler) UpdateCourier(c *fiber.Ctx) error {
	var req dto.UpdateCourierPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	courier, err := h.couriers.Update(c.UserContext(), c.Params("id"), service.CourierPatch{
		Objet:        req.Objet,
		Destinataire: req.Destinataire,
		Expediteur:   req.Expediteur,
		Date:         req.Date,
		Priority:     req.Priority,
		Category:     req.Category,
		Description:  req.Description,
		PieceJointe:  req.PieceJointe,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": courierResponse(courier)})
}

// SubmitCourier POST /couriers/:id/submit.
func (h *CouriersHandler) SubmitCourier(c *fiber.Ctx) error {
	courier, err := h.couriers.Submit(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": courierResponse(courier)})
}

// SendCourier POST /couriers/:id/send.
func (h *CouriersHandler) SendCourier(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	courier, err := h.couriers.Send(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": courierResponse(courier)})
}

// ArchiveCourier POST /couriers/:id/archive.
func (h *CouriersHandler) ArchiveCourier(c *fiber.Ctx) error {
	courier, err := h.couriers.Archive(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": courierResponse(courier)})
}

// DeleteCourier DELETE /couriers/:id.
func (h *CouriersHandler) DeleteCourier(c *fiber.Ctx) error {
	if err := h.couriers.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LinkedRequests GET /couriers/:id/requests.
func (h *CouriersHandler) LinkedRequests(c *fiber.Ctx) error {
	ids, err := h.links.RequestsFor(c.UserContext(), domain.LinkKindCourier, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ids})
}

func courierResponse(courier *domain.Courier) dto.CourierResponse {
	return dto.CourierResponse{
		ID:           courier.ID,
		Objet:        courier.Objet,
		Type:         courier.Type,
		Destinataire: courier.Destinataire,
		Expediteur:   courier.Expediteur,
		Date:         courier.Date,
		Statut:       courier.Statut,
		Priority:     courier.Priority,
		Category:     courier.Category,
		Description:  courier.Description,
		PieceJointe:  courier.PieceJointe,
		CreatedAt:    courier.CreatedAt,
		UpdatedAt:    courier.UpdatedAt,
	}
}
