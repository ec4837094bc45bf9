package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/citizen-request-service/internal/api/dto"
	"github.com/spec-kit/citizen-request-service/internal/auth"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/service"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// RequestsHandler manages citizen request endpoints.
type RequestsHandler struct {
	requests  *service.RequestService
	workflows *service.WorkflowService
	links     *service.LinkService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, workflows *service.WorkflowService, links *service.LinkService) *RequestsHandler {
	return &RequestsHandler{requests: requests, workflows: workflows, links: links}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RequestCreateInput{
		Citizen: domain.Citizen{
			Name:    req.Citizen.Name,
			Email:   req.Citizen.Email,
			Phone:   req.Citizen.Phone,
			Address: req.Citizen.Address,
		},
		Type:             req.Type,
		Category:         req.Category,
		Subject:          req.Subject,
		Description:      req.Description,
		Priority:         req.Priority,
		Attachments:      req.Attachments,
		AIClassification: req.AIClassification,
		Sentiment:        req.Sentiment,
	}
	if principal.Citizen != nil {
		input.OwnerAccountID = &principal.Citizen.ID
		if input.Citizen.Name == "" {
			input.Citizen.Name = principal.Citizen.Name
			input.Citizen.Email = principal.Citizen.Email
		}
	}
	request, err := h.requests.Create(c.UserContext(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": requestDetail(request)})
}

// ListRequests GET /requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	query := parseRequestQuery(c)
	requests, err := h.requests.Query(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRequest GET /requests/:id. Citizens only see their own submissions.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var request *domain.Request
	var err error
	if principal.Citizen != nil {
		request, err = h.requests.GetForCitizen(c.UserContext(), c.Params("id"), principal.Citizen.ID)
	} else {
		request, err = h.requests.Get(c.UserContext(), c.Params("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(request)})
}

// UpdateRequest PATCH /requests/:id.
func (h *RequestsHandler) UpdateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := service.RequestPatch{
		Status:           req.Status,
		Priority:         req.Priority,
		AssignedAgentID:  req.AssignedAgentID,
		Unassign:         req.Unassign,
		Attachments:      req.Attachments,
		AIClassification: req.AIClassification,
		Sentiment:        req.Sentiment,
	}
	request, err := h.requests.Update(c.UserContext(), principal.Actor(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(request)})
}

// ArchiveRequest POST /requests/:id/archive.
func (h *RequestsHandler) ArchiveRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.requests.Archive(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// AdvanceWorkflow POST /requests/:id/advance.
func (h *RequestsHandler) AdvanceWorkflow(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, err := h.workflows.Advance(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(request)})
}

// GetLinks GET /requests/:id/links.
func (h *RequestsHandler) GetLinks(c *fiber.Ctx) error {
	links, err := h.links.LinksFor(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RequestLinksResponse{
		Couriers:  links.Couriers,
		Audiences: links.Audiences,
	}})
}

// AddLink POST /requests/:id/links.
func (h *RequestsHandler) AddLink(c *fiber.Ctx) error {
	var req dto.LinkPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.links.Link(c.UserContext(), c.Params("id"), req.Kind, req.EntityID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveLink DELETE /requests/:id/links/:kind/:entityId.
func (h *RequestsHandler) RemoveLink(c *fiber.Ctx) error {
	kind := domain.LinkKind(strings.ToUpper(c.Params("kind")))
	if err := h.links.Unlink(c.UserContext(), c.Params("id"), kind, c.Params("entityId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseRequestQuery(c *fiber.Ctx) service.RequestQuery {
	query := service.RequestQuery{Search: c.Query("search")}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			query.Statuses = append(query.Statuses, domain.RequestStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			query.Priorities = append(query.Priorities, domain.RequestPriority(strings.TrimSpace(part)))
		}
	}
	if agentID := c.Query("assigned_agent_id"); agentID != "" {
		query.AssignedAgentID = &agentID
	}
	query.IncludeArchived = c.QueryBool("include_archived")
	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	query.Offset = (page - 1) * pageSize
	query.Limit = pageSize
	return query
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func requestSummary(request *domain.Request) dto.RequestSummary {
	return dto.RequestSummary{
		ID:            request.ID,
		Citizen:       citizenPayload(request.Citizen),
		Type:          request.Type,
		Category:      request.Category,
		Subject:       request.Subject,
		Status:        request.Status,
		Priority:      request.Priority,
		SLAStatus:     request.SLAStatus,
		CurrentStep:   request.Workflow.CurrentStep,
		AssignedAgent: request.AssignedAgent,
		Archived:      request.Archived,
		CreatedAt:     request.CreatedAt,
		UpdatedAt:     request.UpdatedAt,
	}
}

func requestDetail(request *domain.Request) dto.RequestDetail {
	return dto.RequestDetail{
		ID:               request.ID,
		Citizen:          citizenPayload(request.Citizen),
		Type:             request.Type,
		Category:         request.Category,
		Subject:          request.Subject,
		Description:      request.Description,
		Status:           request.Status,
		Priority:         request.Priority,
		SLAStatus:        request.SLAStatus,
		AIClassification: request.AIClassification,
		Sentiment:        request.Sentiment,
		Workflow: dto.WorkflowPayload{
			CurrentStep: request.Workflow.CurrentStep,
			Steps:       request.Workflow.Steps,
			CanAdvance:  !request.Workflow.AtTerminalStep(),
		},
		AssignedAgent: request.AssignedAgent,
		Archived:      request.Archived,
		Attachments:   request.Attachments,
		CreatedAt:     request.CreatedAt,
		UpdatedAt:     request.UpdatedAt,
		ResolvedAt:    request.ResolvedAt,
	}
}

func citizenPayload(citizen domain.Citizen) dto.CitizenPayload {
	return dto.CitizenPayload{
		Name:    citizen.Name,
		Email:   citizen.Email,
		Phone:   citizen.Phone,
		Address: citizen.Address,
	}
}
