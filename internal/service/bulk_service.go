package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/events"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// BulkEntity names the collection a bulk action targets.
type BulkEntity string

const (
	BulkRequests  BulkEntity = "REQUESTS"
	BulkCouriers  BulkEntity = "COURIERS"
	BulkAudiences BulkEntity = "AUDIENCES"
)

// BulkAction names the operation applied to each targeted ID.
type BulkAction string

const (
	BulkArchive     BulkAction = "ARCHIVE"
	BulkAssign      BulkAction = "ASSIGN"
	BulkSetPriority BulkAction = "SET_PRIORITY"
	BulkNotify      BulkAction = "NOTIFY"
	BulkSend        BulkAction = "SEND"
	BulkDelete      BulkAction = "DELETE"
	BulkConfirm     BulkAction = "CONFIRM"
	BulkReschedule  BulkAction = "RESCHEDULE"
	BulkCancel      BulkAction = "CANCEL"
)

// bulkActions lists the actions each entity kind accepts.
var bulkActions = map[BulkEntity]map[BulkAction]bool{
	BulkRequests: {
		BulkArchive:     true,
		BulkAssign:      true,
		BulkSetPriority: true,
		BulkNotify:      true,
	},
	BulkCouriers: {
		BulkSend:    true,
		BulkArchive: true,
		BulkDelete:  true,
		BulkNotify:  true,
	},
	BulkAudiences: {
		BulkConfirm:    true,
		BulkReschedule: true,
		BulkCancel:     true,
		BulkDelete:     true,
	},
}

// BulkParams carries the action-specific arguments.
type BulkParams struct {
	AgentID  *string
	Priority *domain.RequestPriority
	Date     *time.Time
	Title    string
	Message  string
}

// BulkInput describes one bulk invocation.
type BulkInput struct {
	Entity BulkEntity
	Action BulkAction
	IDs    []string
	Params BulkParams
}

// BulkResult partitions the input IDs into outcomes. Every targeted ID
// lands in exactly one of the two sets.
type BulkResult struct {
	Succeeded []string
	Failed    map[string]error
}

// BulkService applies one action across many entities, isolating per-ID
// failures. IDs are deduplicated and processed in sorted order; there is no
// rollback across IDs.
type BulkService struct {
	requests      *RequestService
	couriers      *CourierService
	audiences     *AudienceService
	notifications *NotificationService
	dispatcher    events.Dispatcher
	now           func() time.Time
}

// BulkDependencies bundles collaborators for the bulk service.
type BulkDependencies struct {
	RequestSvc      *RequestService
	CourierSvc      *CourierService
	AudienceSvc     *AudienceService
	NotificationSvc *NotificationService
	Dispatcher      events.Dispatcher
}

// NewBulkService constructs the service.
func NewBulkService(deps BulkDependencies) *BulkService {
	return &BulkService{
		requests:      deps.RequestSvc,
		couriers:      deps.CourierSvc,
		audiences:     deps.AudienceSvc,
		notifications: deps.NotificationSvc,
		dispatcher:    deps.Dispatcher,
		now:           time.Now,
	}
}

// Apply runs the action against every ID. An empty ID list is a no-op.
func (s *BulkService) Apply(ctx context.Context, actor domain.Actor, input BulkInput) (*BulkResult, error) {
	allowed, ok := bulkActions[input.Entity]
	if !ok {
		return nil, apperrors.NewValidationError("invalid bulk entity", map[string]any{"entity": input.Entity})
	}
	if !allowed[input.Action] {
		return nil, apperrors.NewValidationError("action not supported for entity", map[string]any{
			"entity": input.Entity,
			"action": input.Action,
		})
	}
	if err := s.validateParams(input); err != nil {
		return nil, err
	}

	result := &BulkResult{Succeeded: []string{}, Failed: map[string]error{}}
	ids := dedupSorted(input.IDs)
	if len(ids) == 0 {
		return result, nil
	}

	for _, id := range ids {
		if err := s.applyOne(ctx, actor, input, id); err != nil {
			result.Failed[id] = err
		} else {
			result.Succeeded = append(result.Succeeded, id)
		}
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventBulkCompleted,
			EntityID:  string(input.Entity),
			Actor:     events.Actor{Kind: actor.Kind, Name: actor.Name},
			Timestamp: s.now(),
			Payload: events.BulkCompletedPayload{
				EntityKind: string(input.Entity),
				Action:     string(input.Action),
				Succeeded:  len(result.Succeeded),
				Failed:     len(result.Failed),
			},
		})
	}
	return result, nil
}

func (s *BulkService) validateParams(input BulkInput) error {
	switch input.Action {
	case BulkAssign:
		if input.Params.AgentID == nil {
			return apperrors.NewValidationError("agent_id required for ASSIGN", nil)
		}
	case BulkSetPriority:
		if input.Params.Priority == nil {
			return apperrors.NewValidationError("priority required for SET_PRIORITY", nil)
		}
		if !validPriority(*input.Params.Priority) {
			return apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Params.Priority})
		}
	case BulkReschedule:
		if input.Params.Date == nil || input.Params.Date.IsZero() {
			return apperrors.NewValidationError("date required for RESCHEDULE", nil)
		}
	case BulkNotify:
		if input.Params.Title == "" {
			return apperrors.NewValidationError("title required for NOTIFY", nil)
		}
	}
	return nil
}

func (s *BulkService) applyOne(ctx context.Context, actor domain.Actor, input BulkInput, id string) error {
	switch input.Entity {
	case BulkRequests:
		return s.applyRequest(ctx, actor, input, id)
	case BulkCouriers:
		return s.applyCourier(ctx, actor, input, id)
	case BulkAudiences:
		return s.applyAudience(ctx, input, id)
	}
	return apperrors.NewValidationError("invalid bulk entity", map[string]any{"entity": input.Entity})
}

func (s *BulkService) applyRequest(ctx context.Context, actor domain.Actor, input BulkInput, id string) error {
	switch input.Action {
	case BulkArchive:
		_, err := s.requests.Archive(ctx, actor, id)
		return err
	case BulkAssign:
		_, err := s.requests.Update(ctx, actor, id, RequestPatch{AssignedAgentID: input.Params.AgentID})
		return err
	case BulkSetPriority:
		_, err := s.requests.Update(ctx, actor, id, RequestPatch{Priority: input.Params.Priority})
		return err
	case BulkNotify:
		_, err := s.notifications.Append(ctx, domain.ParentRequest, id, NotificationInput{
			Type:    domain.NotificationReminder,
			Title:   input.Params.Title,
			Message: input.Params.Message,
			Actor:   actor,
		})
		return err
	}
	return apperrors.NewValidationError("action not supported for entity", nil)
}

func (s *BulkService) applyCourier(ctx context.Context, actor domain.Actor, input BulkInput, id string) error {
	switch input.Action {
	case BulkSend:
		_, err := s.couriers.Send(ctx, actor, id)
		return err
	case BulkArchive:
		_, err := s.couriers.Archive(ctx, id)
		return err
	case BulkDelete:
		return s.couriers.Delete(ctx, id)
	case BulkNotify:
		_, err := s.notifications.Append(ctx, domain.ParentCourier, id, NotificationInput{
			Type:    domain.NotificationReminder,
			Title:   input.Params.Title,
			Message: input.Params.Message,
			Actor:   actor,
		})
		return err
	}
	return apperrors.NewValidationError("action not supported for entity", nil)
}

func (s *BulkService) applyAudience(ctx context.Context, input BulkInput, id string) error {
	switch input.Action {
	case BulkConfirm:
		_, err := s.audiences.Confirm(ctx, id)
		return err
	case BulkReschedule:
		_, err := s.audiences.Reschedule(ctx, id, *input.Params.Date)
		return err
	case BulkCancel:
		_, err := s.audiences.Cancel(ctx, id)
		return err
	case BulkDelete:
		return s.audiences.Delete(ctx, id)
	}
	return apperrors.NewValidationError("action not supported for entity", nil)
}

func dedupSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
