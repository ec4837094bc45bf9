package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/citizen-request-service/internal/api/dto"
	"github.com/spec-kit/citizen-request-service/internal/auth"
	"github.com/spec-kit/citizen-request-service/internal/service"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// AgentsHandler exposes auth endpoints for municipal agents.
type AgentsHandler struct {
	auth *service.AuthService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(authService *service.AuthService) *AgentsHandler {
	return &AgentsHandler{auth: authService}
}

// Login handles POST /auth/agents/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	agent, token, exp, err := h.auth.LoginAgent(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"agent": fiber.Map{
				"id":      agent.ID,
				"name":    agent.Name,
				"email":   agent.Email,
				"role":    agent.Role,
				"service": agent.Service,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ListAgents handles GET /agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active_only", true)
	agents, err := h.auth.ListAgents(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}

	result := make([]fiber.Map, 0, len(agents))
	for _, agent := range agents {
		result = append(result, fiber.Map{
			"id":      agent.ID,
			"name":    agent.Name,
			"email":   agent.Email,
			"role":    agent.Role,
			"service": agent.Service,
			"active":  agent.Active,
		})
	}
	return c.JSON(fiber.Map{"data": result})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AgentsHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	token, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	// Token surfaced in the response until an email channel exists.
	return c.JSON(fiber.Map{"data": fiber.Map{
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
	}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AgentsHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new_password required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePassword handles POST /auth/password/change.
func (h *AgentsHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}

	subject := service.AuthSubject{Type: principal.SubjectType}
	switch {
	case principal.Citizen != nil:
		subject.ID = principal.Citizen.ID
	case principal.Agent != nil:
		subject.ID = principal.Agent.ID
	default:
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.auth.ChangePassword(c.UserContext(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
