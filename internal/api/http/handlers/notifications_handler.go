package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/citizen-request-service/internal/api/dto"
	"github.com/spec-kit/citizen-request-service/internal/auth"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/service"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// NotificationsHandler manages notification log endpoints.
type NotificationsHandler struct {
	notifications *service.NotificationService
	requests      *service.RequestService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService, requests *service.RequestService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, requests: requests}
}

// ListForRequest GET /requests/:id/notifications.
func (h *NotificationsHandler) ListForRequest(c *fiber.Ctx) error {
	return h.list(c, domain.ParentRequest)
}

// AppendForRequest POST /requests/:id/notifications.
func (h *NotificationsHandler) AppendForRequest(c *fiber.Ctx) error {
	return h.append(c, domain.ParentRequest)
}

// MarkAllReadForRequest POST /requests/:id/notifications/read-all.
func (h *NotificationsHandler) MarkAllReadForRequest(c *fiber.Ctx) error {
	return h.markAllRead(c, domain.ParentRequest)
}

// ListForCourier GET /couriers/:id/notifications.
func (h *NotificationsHandler) ListForCourier(c *fiber.Ctx) error {
	return h.list(c, domain.ParentCourier)
}

// AppendForCourier POST /couriers/:id/notifications.
func (h *NotificationsHandler) AppendForCourier(c *fiber.Ctx) error {
	return h.append(c, domain.ParentCourier)
}

// MarkAllReadForCourier POST /couriers/:id/notifications/read-all.
func (h *NotificationsHandler) MarkAllReadForCourier(c *fiber.Ctx) error {
	return h.markAllRead(c, domain.ParentCourier)
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// checkRequestAccess blocks citizen principals from touching the notification
// log of a request another account submitted.
func (h *NotificationsHandler) checkRequestAccess(c *fiber.Ctx, parentKind domain.ParentKind) error {
	if parentKind != domain.ParentRequest {
		return nil
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.Citizen == nil {
		return nil
	}
	_, err := h.requests.GetForCitizen(c.UserContext(), c.Params("id"), principal.Citizen.ID)
	return err
}

func (h *NotificationsHandler) list(c *fiber.Ctx, parentKind domain.ParentKind) error {
	if err := h.checkRequestAccess(c, parentKind); err != nil {
		return err
	}
	entries, err := h.notifications.ListFor(c.UserContext(), parentKind, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(entries))
	for i := range entries {
		items = append(items, notificationResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *NotificationsHandler) append(c *fiber.Ctx, parentKind domain.ParentKind) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.checkRequestAccess(c, parentKind); err != nil {
		return err
	}
	var req dto.AppendNotificationPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.notifications.Append(c.UserContext(), parentKind, c.Params("id"), service.NotificationInput{
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Actor:    principal.Actor(),
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": notificationResponse(entry)})
}

func (h *NotificationsHandler) markAllRead(c *fiber.Ctx, parentKind domain.ParentKind) error {
	if err := h.notifications.MarkAllRead(c.UserContext(), parentKind, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func notificationResponse(entry *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:         entry.ID,
		ParentKind: entry.ParentKind,
		ParentID:   entry.ParentID,
		Type:       entry.Type,
		Title:      entry.Title,
		Message:    entry.Message,
		Actor:      dto.ActorPayload{Name: entry.Actor.Name, Kind: entry.Actor.Kind},
		Metadata:   entry.Metadata,
		IsRead:     entry.IsRead,
		CreatedAt:  entry.CreatedAt,
	}
}
