package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/citizen-request-service/internal/config"
	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/events"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// NotificationService maintains the append-only notification log attached
// to requests and couriers.
type NotificationService struct {
	notifications repository.NotificationRepository
	requests      repository.RequestRepository
	couriers      repository.CourierRepository
	sequences     repository.SequenceRepository
	dispatcher    events.Dispatcher
	cfg           config.NotificationConfig
	now           func() time.Time
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	RequestRepo      repository.RequestRepository
	CourierRepo      repository.CourierRepository
	SequenceRepo     repository.SequenceRepository
	Dispatcher       events.Dispatcher
	Config           config.NotificationConfig
}

// NotificationInput describes one log entry to append.
type NotificationInput struct {
	Type     domain.NotificationType
	Title    string
	Message  string
	Actor    domain.Actor
	Metadata map[string]any
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		requests:      deps.RequestRepo,
		couriers:      deps.CourierRepo,
		sequences:     deps.SequenceRepo,
		dispatcher:    deps.Dispatcher,
		cfg:           deps.Config,
		now:           time.Now,
	}
}

// Append records one entry on the parent's log. Entries are immutable once
// written; only the read flag mutates afterwards.
func (s *NotificationService) Append(ctx context.Context, parentKind domain.ParentKind, parentID string, input NotificationInput) (*domain.Notification, error) {
	if !validNotificationType(input.Type) {
		return nil, apperrors.NewValidationError("invalid notification type", map[string]any{"type": input.Type})
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"title": "required"})
	}
	if err := s.ensureParent(ctx, parentKind, parentID); err != nil {
		return nil, err
	}

	seq, err := s.sequences.Next(ctx, repository.SeqNotifications)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	actor := input.Actor
	if actor.Kind == "" {
		actor = domain.Actor{Name: "system", Kind: domain.ActorSystem}
	}
	notification := &domain.Notification{
		ID:         fmt.Sprintf("NOTIF-%03d", seq),
		ParentKind: parentKind,
		ParentID:   parentID,
		Type:       input.Type,
		Title:      strings.TrimSpace(input.Title),
		Message:    input.Message,
		Actor:      actor,
		Metadata:   input.Metadata,
		IsRead:     s.cfg.MarkSystemRead && actor.Kind == domain.ActorSystem,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventNotificationAppended,
			EntityID:  parentID,
			Actor:     events.Actor{Kind: actor.Kind, Name: actor.Name},
			Timestamp: s.now(),
			Payload: events.NotificationAppendedPayload{
				NotificationID: notification.ID,
				ParentKind:     parentKind,
				Type:           notification.Type,
				Title:          notification.Title,
			},
		})
	}
	return notification, nil
}

// ListFor returns the parent's log, newest entries first.
func (s *NotificationService) ListFor(ctx context.Context, parentKind domain.ParentKind, parentID string) ([]domain.Notification, error) {
	if err := s.ensureParent(ctx, parentKind, parentID); err != nil {
		return nil, err
	}
	list, err := s.notifications.ListByParent(ctx, parentKind, parentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// MarkRead flags one entry as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// MarkAllRead flags every entry on the parent's log as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, parentKind domain.ParentKind, parentID string) error {
	if err := s.ensureParent(ctx, parentKind, parentID); err != nil {
		return err
	}
	if err := s.notifications.MarkAllRead(ctx, parentKind, parentID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *NotificationService) ensureParent(ctx context.Context, parentKind domain.ParentKind, parentID string) error {
	var (
		exists bool
		err    error
	)
	switch parentKind {
	case domain.ParentRequest:
		exists, err = s.requests.Exists(ctx, parentID)
	case domain.ParentCourier:
		exists, err = s.couriers.Exists(ctx, parentID)
	default:
		return apperrors.NewValidationError("invalid parent kind", map[string]any{"parent_kind": parentKind})
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	if !exists {
		return apperrors.NewNotFound(strings.ToLower(string(parentKind)), map[string]any{"parent_id": parentID})
	}
	return nil
}

func validNotificationType(t domain.NotificationType) bool {
	switch t {
	case domain.NotificationComment, domain.NotificationAttachment, domain.NotificationStatusChange,
		domain.NotificationAssignment, domain.NotificationReminder, domain.NotificationResponse:
		return true
	}
	return false
}
