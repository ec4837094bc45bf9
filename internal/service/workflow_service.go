package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/citizen-request-service/internal/cache"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/events"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// WorkflowService moves requests along their processing steps.
type WorkflowService struct {
	requests      repository.RequestRepository
	notifications *NotificationService
	dispatcher    events.Dispatcher
	cache         *cache.RequestCache
	now           func() time.Time
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	RequestRepo     repository.RequestRepository
	NotificationSvc *NotificationService
	Dispatcher      events.Dispatcher
	Cache           *cache.RequestCache
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		requests:      deps.RequestRepo,
		notifications: deps.NotificationSvc,
		dispatcher:    deps.Dispatcher,
		cache:         deps.Cache,
		now:           time.Now,
	}
}

// Advance moves the request to the next workflow step. Advancing past the
// final step is rejected.
func (s *WorkflowService) Advance(ctx context.Context, actor domain.Actor, requestID string) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	if request.Workflow.AtTerminalStep() {
		return nil, apperrors.NewTerminalState("workflow already at final step", map[string]any{
			"request_id": requestID,
			"step":       request.Workflow.CurrentStep,
		})
	}
	idx := request.Workflow.StepIndex()
	if idx < 0 {
		return nil, apperrors.NewInternalError(fmt.Errorf("request %s: current step %q not in workflow", requestID, request.Workflow.CurrentStep))
	}

	oldStep := request.Workflow.CurrentStep
	request.Workflow.CurrentStep = request.Workflow.Steps[idx+1]
	if request.Status == domain.RequestStatusNew {
		request.Status = domain.RequestStatusInProgress
	}

	if err := s.requests.Update(ctx, request, request.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleUpdate):
			return nil, apperrors.NewConflict("request modified concurrently", map[string]any{"request_id": requestID})
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		default:
			return nil, apperrors.MapError(err)
		}
	}
	s.cache.Invalidate(ctx, requestID)

	if s.notifications != nil {
		_, err := s.notifications.Append(ctx, domain.ParentRequest, requestID, NotificationInput{
			Type:    domain.NotificationStatusChange,
			Title:   "Étape de traitement franchie",
			Message: fmt.Sprintf("%s → %s", oldStep, request.Workflow.CurrentStep),
			// The log entry is recorded as an automated transition; the
			// triggering agent stays on the workflow_advanced event.
			Actor: domain.Actor{Name: "system", Kind: domain.ActorSystem},
			Metadata: map[string]any{
				"old_step": oldStep,
				"new_step": request.Workflow.CurrentStep,
			},
		})
		if err != nil {
			return nil, err
		}
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventWorkflowAdvanced,
			EntityID:  requestID,
			Actor:     events.Actor{Kind: actor.Kind, Name: actor.Name},
			Timestamp: s.now(),
			Payload: events.WorkflowAdvancedPayload{
				OldStep: oldStep,
				NewStep: request.Workflow.CurrentStep,
			},
		})
	}
	return request, nil
}

// CanAdvance reports whether the request has a next step.
func (s *WorkflowService) CanAdvance(ctx context.Context, requestID string) (bool, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return false, apperrors.MapError(err)
	}
	return !request.Workflow.AtTerminalStep(), nil
}
