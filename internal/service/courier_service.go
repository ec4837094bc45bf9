package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/events"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// CourierService manages correspondence records.
type CourierService struct {
	couriers      repository.CourierRepository
	links         repository.LinkRepository
	sequences     repository.SequenceRepository
	notifications *NotificationService
	dispatcher    events.Dispatcher
	now           func() time.Time
}

// CourierDependencies bundles collaborators for the courier service.
type CourierDependencies struct {
	CourierRepo     repository.CourierRepository
	LinkRepo        repository.LinkRepository
	SequenceRepo    repository.SequenceRepository
	NotificationSvc *NotificationService
	Dispatcher      events.Dispatcher
}

// CourierCreateInput describes courier creation payload.
type CourierCreateInput struct {
	Objet        string
	Type         domain.CourierType
	Destinataire string
	Expediteur   string
	Date         time.Time
	Priority     domain.RequestPriority
	Category     string
	Description  string
	PieceJointe  *string
}

// CourierPatch describes a partial courier update. Nil fields are left
// untouched; status transitions go through Send and Archive.
type CourierPatch struct {
	Objet        *string
	Destinataire *string
	Expediteur   *string
	Date         *time.Time
	Priority     *domain.RequestPriority
	Category     *string
	Description  *string
	PieceJointe  *string
}

// CourierQuery describes listing filters.
type CourierQuery struct {
	Search  string
	Statuts []domain.CourierStatus
	Types   []domain.CourierType
	Limit   int
	Offset  int
}

// NewCourierService constructs the service.
func NewCourierService(deps CourierDependencies) *CourierService {
	return &CourierService{
		couriers:      deps.CourierRepo,
		links:         deps.LinkRepo,
		sequences:     deps.SequenceRepo,
		notifications: deps.NotificationSvc,
		dispatcher:    deps.Dispatcher,
		now:           time.Now,
	}
}

// Create registers a new courier in draft state.
func (s *CourierService) Create(ctx context.Context, input CourierCreateInput) (*domain.Courier, error) {
	missing := map[string]any{}
	if strings.TrimSpace(input.Objet) == "" {
		missing["objet"] = "required"
	}
	if !validCourierType(input.Type) {
		missing["type"] = "must be INBOUND, OUTBOUND or INTERNAL"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", missing)
	}

	seq, err := s.sequences.Next(ctx, repository.SeqCouriers)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	courier := &domain.Courier{
		ID:           fmt.Sprintf("COU-%03d", seq),
		Objet:        strings.TrimSpace(input.Objet),
		Type:         input.Type,
		Destinataire: input.Destinataire,
		Expediteur:   input.Expediteur,
		Date:         input.Date,
		Statut:       domain.CourierStatusDraft,
		Priority:     input.Priority,
		Category:     input.Category,
		Description:  input.Description,
		PieceJointe:  input.PieceJointe,
	}
	if courier.Priority == "" {
		courier.Priority = domain.PriorityMedium
	}
	if courier.Date.IsZero() {
		courier.Date = s.now()
	}
	if err := s.couriers.Create(ctx, courier); err != nil {
		return nil, apperrors.MapError(err)
	}
	return courier, nil
}

// Get fetches one courier.
func (s *CourierService) Get(ctx context.Context, id string) (*domain.Courier, error) {
	courier, err := s.couriers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("courier", map[string]any{"courier_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return courier, nil
}

// Query lists couriers matching the filter.
func (s *CourierService) Query(ctx context.Context, query CourierQuery) ([]domain.Courier, error) {
	filter := repository.CourierFilter{
		Statuts: query.Statuts,
		Types:   query.Types,
		Limit:   query.Limit,
		Offset:  query.Offset,
	}
	if strings.TrimSpace(query.Search) != "" {
		search := query.Search
		filter.Search = &search
	}
	result, err := s.couriers.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// Update applies a partial update to courier content fields.
func (s *CourierService) Update(ctx context.Context, id string, patch CourierPatch) (*domain.Courier, error) {
	courier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Objet != nil {
		if strings.TrimSpace(*patch.Objet) == "" {
			return nil, apperrors.NewValidationError("objet cannot be empty", nil)
		}
		courier.Objet = strings.TrimSpace(*patch.Objet)
	}
	if patch.Destinataire != nil {
		courier.Destinataire = *patch.Destinataire
	}
	if patch.Expediteur != nil {
		courier.Expediteur = *patch.Expediteur
	}
	if patch.Date != nil {
		courier.Date = *patch.Date
	}
	if patch.Priority != nil {
		if !validPriority(*patch.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
		}
		courier.Priority = *patch.Priority
	}
	if patch.Category != nil {
		courier.Category = *patch.Category
	}
	if patch.Description != nil {
		courier.Description = *patch.Description
	}
	if patch.PieceJointe != nil {
		courier.PieceJointe = patch.PieceJointe
	}
	if err := s.couriers.Update(ctx, courier); err != nil {
		return nil, apperrors.MapError(err)
	}
	return courier, nil
}

// Submit queues a draft courier for sending.
func (s *CourierService) Submit(ctx context.Context, id string) (*domain.Courier, error) {
	courier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if courier.Statut != domain.CourierStatusDraft {
		return nil, apperrors.NewConflict("only draft couriers can be submitted", map[string]any{"courier_id": id, "statut": courier.Statut})
	}
	courier.Statut = domain.CourierStatusPending
	if err := s.couriers.Update(ctx, courier); err != nil {
		return nil, apperrors.MapError(err)
	}
	return courier, nil
}

// Send marks the courier as sent and records a response entry on every
// linked request's log.
func (s *CourierService) Send(ctx context.Context, actor domain.Actor, id string) (*domain.Courier, error) {
	courier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch courier.Statut {
	case domain.CourierStatusSent:
		return nil, apperrors.NewConflict("courier already sent", map[string]any{"courier_id": id})
	case domain.CourierStatusArchived:
		return nil, apperrors.NewConflict("courier archived", map[string]any{"courier_id": id})
	}
	courier.Statut = domain.CourierStatusSent
	if err := s.couriers.Update(ctx, courier); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.notifications != nil {
		links, err := s.links.ListByEntity(ctx, domain.LinkKindCourier, id)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, link := range links {
			_, err := s.notifications.Append(ctx, domain.ParentRequest, link.RequestID, NotificationInput{
				Type:    domain.NotificationResponse,
				Title:   "Courrier envoyé",
				Message: courier.Objet,
				Actor:   actor,
				Metadata: map[string]any{
					"courier_id":   courier.ID,
					"destinataire": courier.Destinataire,
				},
			})
			if err != nil {
				return nil, err
			}
		}
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCourierSent,
			EntityID:  courier.ID,
			Actor:     events.Actor{Kind: actor.Kind, Name: actor.Name},
			Timestamp: s.now(),
			Payload: events.CourierSentPayload{
				Destinataire: courier.Destinataire,
				Objet:        courier.Objet,
			},
		})
	}
	return courier, nil
}

// Archive moves the courier to the archived state.
func (s *CourierService) Archive(ctx context.Context, id string) (*domain.Courier, error) {
	courier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if courier.Statut == domain.CourierStatusArchived {
		return courier, nil
	}
	courier.Statut = domain.CourierStatusArchived
	if err := s.couriers.Update(ctx, courier); err != nil {
		return nil, apperrors.MapError(err)
	}
	return courier, nil
}

// Delete removes the courier. Couriers still linked to a request are kept.
func (s *CourierService) Delete(ctx context.Context, id string) error {
	linked, err := s.links.EntityLinked(ctx, domain.LinkKindCourier, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if linked {
		return apperrors.NewConflict("courier still linked to a request", map[string]any{"courier_id": id})
	}
	if err := s.couriers.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("courier", map[string]any{"courier_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func validCourierType(t domain.CourierType) bool {
	switch t {
	case domain.CourierInbound, domain.CourierOutbound, domain.CourierInternal:
		return true
	}
	return false
}
