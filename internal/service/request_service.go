package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/citizen-request-service/internal/cache"
	"github.com/spec-kit/citizen-request-service/internal/config"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/events"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// RequestService owns the citizen request lifecycle.
type RequestService struct {
	requests      repository.RequestRepository
	agents        repository.AgentRepository
	sequences     repository.SequenceRepository
	notifications *NotificationService
	dispatcher    events.Dispatcher
	cache         *cache.RequestCache
	workflows     config.WorkflowConfig
	sla           config.SLAConfig
	now           func() time.Time
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo     repository.RequestRepository
	AgentRepo       repository.AgentRepository
	SequenceRepo    repository.SequenceRepository
	NotificationSvc *NotificationService
	Dispatcher      events.Dispatcher
	Cache           *cache.RequestCache
	Workflows       config.WorkflowConfig
	SLA             config.SLAConfig
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	Citizen domain.Citizen
	// OwnerAccountID is set when a citizen submits through the portal; it
	// scopes later reads to the submitting account.
	OwnerAccountID   *string
	Type             string
	Category         string
	Subject          string
	Description      string
	Priority         domain.RequestPriority
	Attachments      []string
	AIClassification string
	Sentiment        string
}

// RequestPatch describes a partial update. Nil fields are left untouched.
type RequestPatch struct {
	Status           *domain.RequestStatus
	Priority         *domain.RequestPriority
	AssignedAgentID  *string
	Unassign         bool
	Attachments      *[]string
	AIClassification *string
	Sentiment        *string
}

// RequestQuery describes listing filters.
type RequestQuery struct {
	Search          string
	Statuses        []domain.RequestStatus
	Priorities      []domain.RequestPriority
	AssignedAgentID *string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:      deps.RequestRepo,
		agents:        deps.AgentRepo,
		sequences:     deps.SequenceRepo,
		notifications: deps.NotificationSvc,
		dispatcher:    deps.Dispatcher,
		cache:         deps.Cache,
		workflows:     deps.Workflows,
		sla:           deps.SLA,
		now:           time.Now,
	}
}

// Create registers a new citizen request at the first workflow step.
func (s *RequestService) Create(ctx context.Context, actor domain.Actor, input RequestCreateInput) (*domain.Request, error) {
	missing := map[string]any{}
	if strings.TrimSpace(input.Citizen.Name) == "" {
		missing["citizen.name"] = "required"
	}
	if strings.TrimSpace(input.Subject) == "" {
		missing["subject"] = "required"
	}
	if strings.TrimSpace(input.Description) == "" {
		missing["description"] = "required"
	}
	if strings.TrimSpace(input.Type) == "" {
		missing["type"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", missing)
	}

	seq, err := s.sequences.Next(ctx, repository.SeqRequests)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	steps := s.workflows.StepsFor(input.Type)
	if len(steps) == 0 {
		return nil, apperrors.NewValidationError("no workflow steps configured for request type", map[string]any{"type": input.Type})
	}
	// The attachments column is NOT NULL; a nil slice would reach it as SQL NULL.
	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	request := &domain.Request{
		ID:             fmt.Sprintf("REQ-%d-%06d", s.now().Year(), seq),
		OwnerAccountID: input.OwnerAccountID,
		Citizen:        input.Citizen,
		Type:           strings.TrimSpace(input.Type),
		Category:       strings.TrimSpace(input.Category),
		Subject:        strings.TrimSpace(input.Subject),
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.RequestStatusNew,
		Priority:       input.Priority,
		Workflow: domain.Workflow{
			CurrentStep: steps[0],
			Steps:       steps,
		},
		Attachments:      attachments,
		AIClassification: input.AIClassification,
		Sentiment:        input.Sentiment,
	}
	if request.Priority == "" {
		request.Priority = domain.PriorityMedium
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}
	request.SLAStatus = EvaluateSLA(request, s.sla, s.now())

	s.publish(ctx, events.Event{
		Type:     events.EventRequestCreated,
		EntityID: request.ID,
		Actor:    eventActor(actor),
		Payload: events.RequestCreatedPayload{
			Type:     request.Type,
			Category: request.Category,
			Priority: request.Priority,
			Subject:  request.Subject,
		},
	})
	return request, nil
}

// Get fetches one request, serving warm entries from the cache.
func (s *RequestService) Get(ctx context.Context, id string) (*domain.Request, error) {
	if cached := s.cache.Get(ctx, id); cached != nil {
		cached.SLAStatus = EvaluateSLA(cached, s.sla, s.now())
		return cached, nil
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	request.SLAStatus = EvaluateSLA(request, s.sla, s.now())
	s.cache.Set(ctx, request)
	return request, nil
}

// GetForCitizen fetches one request on behalf of a citizen account.
// Citizens only see requests their own account submitted.
func (s *RequestService) GetForCitizen(ctx context.Context, id, accountID string) (*domain.Request, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.OwnerAccountID == nil || *request.OwnerAccountID != accountID {
		return nil, apperrors.NewForbidden("request belongs to another account")
	}
	return request, nil
}

// Query lists requests matching the filter, oldest first.
func (s *RequestService) Query(ctx context.Context, query RequestQuery) ([]domain.Request, error) {
	filter := repository.RequestFilter{
		Statuses:        query.Statuses,
		Priorities:      query.Priorities,
		AssignedAgentID: query.AssignedAgentID,
		IncludeArchived: query.IncludeArchived,
		Limit:           query.Limit,
		Offset:          query.Offset,
	}
	if strings.TrimSpace(query.Search) != "" {
		search := query.Search
		filter.Search = &search
	}
	result, err := s.requests.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	for i := range result {
		result[i].SLAStatus = EvaluateSLA(&result[i], s.sla, now)
	}
	return result, nil
}

// Update applies a partial update to mutable request fields.
func (s *RequestService) Update(ctx context.Context, actor domain.Actor, id string, patch RequestPatch) (*domain.Request, error) {
	request, err := s.getForWrite(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := request.Status
	oldPriority := request.Priority
	oldAssignee := request.AssignedAgent

	if patch.Status != nil {
		if !validStatus(*patch.Status) {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *patch.Status})
		}
		request.Status = *patch.Status
		if request.Status.IsTerminal() {
			if request.ResolvedAt == nil {
				now := s.now()
				request.ResolvedAt = &now
			}
		} else {
			request.ResolvedAt = nil
		}
	}
	if patch.Priority != nil {
		if !validPriority(*patch.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
		}
		request.Priority = *patch.Priority
	}
	if patch.Unassign {
		request.AssignedAgent = nil
	} else if patch.AssignedAgentID != nil {
		agent, err := s.agents.GetByID(ctx, *patch.AssignedAgentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": *patch.AssignedAgentID})
			}
			return nil, apperrors.MapError(err)
		}
		if !agent.Active {
			return nil, apperrors.NewConflict("agent inactive", map[string]any{"agent_id": agent.ID})
		}
		request.AssignedAgent = &agent.ID
	}
	if patch.Attachments != nil {
		request.Attachments = *patch.Attachments
		if request.Attachments == nil {
			request.Attachments = []string{}
		}
	}
	if patch.AIClassification != nil {
		request.AIClassification = *patch.AIClassification
	}
	if patch.Sentiment != nil {
		request.Sentiment = *patch.Sentiment
	}

	if err := s.persist(ctx, request); err != nil {
		return nil, err
	}

	if patch.Status != nil && oldStatus != request.Status {
		if err := s.recordStatusChange(ctx, actor, request, oldStatus); err != nil {
			return nil, err
		}
		s.publish(ctx, events.Event{
			Type:     events.EventRequestStatusChanged,
			EntityID: request.ID,
			Actor:    eventActor(actor),
			Payload: events.RequestStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: request.Status,
			},
		})
	}
	if patch.Priority != nil && oldPriority != request.Priority {
		s.publish(ctx, events.Event{
			Type:     events.EventRequestPriorityChanged,
			EntityID: request.ID,
			Actor:    eventActor(actor),
			Payload: events.RequestPriorityChangedPayload{
				OldPriority: oldPriority,
				NewPriority: request.Priority,
			},
		})
	}
	if (patch.AssignedAgentID != nil || patch.Unassign) && !sameAssignee(oldAssignee, request.AssignedAgent) {
		if err := s.recordAssignment(ctx, actor, request); err != nil {
			return nil, err
		}
		s.publish(ctx, events.Event{
			Type:     events.EventRequestAssigned,
			EntityID: request.ID,
			Actor:    eventActor(actor),
			Payload:  events.RequestAssignedPayload{AgentID: request.AssignedAgent},
		})
	}

	request.SLAStatus = EvaluateSLA(request, s.sla, s.now())
	return request, nil
}

// Archive soft-archives a request; archived requests leave default listings.
func (s *RequestService) Archive(ctx context.Context, actor domain.Actor, id string) (*domain.Request, error) {
	request, err := s.getForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Archived {
		return request, nil
	}
	request.Archived = true
	if err := s.persist(ctx, request); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventRequestArchived,
		EntityID: request.ID,
		Actor:    eventActor(actor),
	})
	return request, nil
}

// getForWrite always reads from the repository so the update guard sees the
// latest committed timestamp.
func (s *RequestService) getForWrite(ctx context.Context, id string) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

func (s *RequestService) persist(ctx context.Context, request *domain.Request) error {
	err := s.requests.Update(ctx, request, request.UpdatedAt)
	switch {
	case err == nil:
		s.cache.Invalidate(ctx, request.ID)
		return nil
	case errors.Is(err, repository.ErrStaleUpdate):
		return apperrors.NewConflict("request modified concurrently", map[string]any{"request_id": request.ID})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("request", map[string]any{"request_id": request.ID})
	default:
		return apperrors.MapError(err)
	}
}

func (s *RequestService) recordStatusChange(ctx context.Context, actor domain.Actor, request *domain.Request, oldStatus domain.RequestStatus) error {
	if s.notifications == nil {
		return nil
	}
	_, err := s.notifications.Append(ctx, domain.ParentRequest, request.ID, NotificationInput{
		Type:    domain.NotificationStatusChange,
		Title:   "Statut de la requête mis à jour",
		Message: fmt.Sprintf("%s → %s", oldStatus, request.Status),
		Actor:   actor,
		Metadata: map[string]any{
			"old_status": string(oldStatus),
			"new_status": string(request.Status),
		},
	})
	return err
}

func (s *RequestService) recordAssignment(ctx context.Context, actor domain.Actor, request *domain.Request) error {
	if s.notifications == nil {
		return nil
	}
	metadata := map[string]any{}
	title := "Requête désassignée"
	if request.AssignedAgent != nil {
		metadata["assigned_to"] = *request.AssignedAgent
		title = "Requête assignée"
	}
	_, err := s.notifications.Append(ctx, domain.ParentRequest, request.ID, NotificationInput{
		Type:     domain.NotificationAssignment,
		Title:    title,
		Actor:    actor,
		Metadata: metadata,
	})
	return err
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{Kind: actor.Kind, Name: actor.Name}
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func validStatus(status domain.RequestStatus) bool {
	switch status {
	case domain.RequestStatusNew, domain.RequestStatusInProgress, domain.RequestStatusResolved, domain.RequestStatusClosed:
		return true
	}
	return false
}

func validPriority(priority domain.RequestPriority) bool {
	switch priority {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		return true
	}
	return false
}
