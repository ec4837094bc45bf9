package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/citizen-request-service/internal/api/http/handlers"
	"github.com/spec-kit/citizen-request-service/internal/auth"
	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Agents         *handlers.AgentsHandler
	Requests       *handlers.RequestsHandler
	Couriers       *handlers.CouriersHandler
	Audiences      *handlers.AudiencesHandler
	Notifications  *handlers.NotificationsHandler
	Bulk           *handlers.BulkHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/citizens/register", cfg.Accounts.Register)
	authGroup.Post("/citizens/login", cfg.Accounts.Login)
	authGroup.Post("/agents/login", cfg.Agents.Login)
	authGroup.Post("/password/reset/request", cfg.Agents.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Agents.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authProtected.Post("/password/change", cfg.Agents.ChangePassword)

	agentOnly := auth.RequireAgentRole()
	supervisorUp := auth.RequireAgentRole(domain.AgentRoleSupervisor, domain.AgentRoleAdmin)

	app.Get("/agents", cfg.AuthMiddleware.Handle, agentOnly, cfg.Agents.ListAgents)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle)
	requests.Post("", auth.RequireAnyRole(), cfg.Requests.CreateRequest)
	requests.Get("", agentOnly, cfg.Requests.ListRequests)
	requests.Get("/:id", auth.RequireAnyRole(), cfg.Requests.GetRequest)
	requests.Patch("/:id", agentOnly, cfg.Requests.UpdateRequest)
	requests.Post("/:id/archive", supervisorUp, cfg.Requests.ArchiveRequest)
	requests.Post("/:id/advance", agentOnly, cfg.Requests.AdvanceWorkflow)
	requests.Get("/:id/links", agentOnly, cfg.Requests.GetLinks)
	requests.Post("/:id/links", agentOnly, cfg.Requests.AddLink)
	requests.Delete("/:id/links/:kind/:entityId", agentOnly, cfg.Requests.RemoveLink)
	requests.Get("/:id/notifications", auth.RequireAnyRole(), cfg.Notifications.ListForRequest)
	requests.Post("/:id/notifications", auth.RequireAnyRole(), cfg.Notifications.AppendForRequest)
	requests.Post("/:id/notifications/read-all", agentOnly, cfg.Notifications.MarkAllReadForRequest)

	couriers := app.Group("/couriers", cfg.AuthMiddleware.Handle, agentOnly)
	couriers.Post("", cfg.Couriers.CreateCourier)
	couriers.Get("", cfg.Couriers.ListCouriers)
	couriers.Get("/:id", cfg.Couriers.GetCourier)
	couriers.Patch("/:id", cfg.Couriers.UpdateCourier)
	couriers.Post("/:id/submit", cfg.Couriers.SubmitCourier)
	couriers.Post("/:id/send", cfg.Couriers.SendCourier)
	couriers.Post("/:id/archive", cfg.Couriers.ArchiveCourier)
	couriers.Delete("/:id", supervisorUp, cfg.Couriers.DeleteCourier)
	couriers.Get("/:id/requests", cfg.Couriers.LinkedRequests)
	couriers.Get("/:id/notifications", cfg.Notifications.ListForCourier)
	couriers.Post("/:id/notifications", cfg.Notifications.AppendForCourier)
	couriers.Post("/:id/notifications/read-all", cfg.Notifications.MarkAllReadForCourier)

	audiences := app.Group("/audiences", cfg.AuthMiddleware.Handle, agentOnly)
	audiences.Post("", cfg.Audiences.CreateAudience)
	audiences.Get("", cfg.Audiences.ListAudiences)
	audiences.Get("/:id", cfg.Audiences.GetAudience)
	audiences.Post("/:id/confirm", cfg.Audiences.ConfirmAudience)
	audiences.Post("/:id/reschedule", cfg.Audiences.RescheduleAudience)
	audiences.Post("/:id/cancel", cfg.Audiences.CancelAudience)
	audiences.Post("/:id/complete", cfg.Audiences.CompleteAudience)
	audiences.Delete("/:id", supervisorUp, cfg.Audiences.DeleteAudience)
	audiences.Get("/:id/requests", cfg.Audiences.LinkedRequests)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	bulk := app.Group("/bulk", cfg.AuthMiddleware.Handle, supervisorUp)
	bulk.Post("/requests", cfg.Bulk.ApplyToRequests)
	bulk.Post("/couriers", cfg.Bulk.ApplyToCouriers)
	bulk.Post("/audiences", cfg.Bulk.ApplyToAudiences)
}
