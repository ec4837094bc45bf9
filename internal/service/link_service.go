package service

import (
	"context"

	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// LinkService manages request ↔ courier/audience associations.
type LinkService struct {
	links     repository.LinkRepository
	requests  repository.RequestRepository
	couriers  repository.CourierRepository
	audiences repository.AudienceRepository
}

// LinkDependencies bundles collaborators for the link service.
type LinkDependencies struct {
	LinkRepo     repository.LinkRepository
	RequestRepo  repository.RequestRepository
	CourierRepo  repository.CourierRepository
	AudienceRepo repository.AudienceRepository
}

// NewLinkService constructs the service.
func NewLinkService(deps LinkDependencies) *LinkService {
	return &LinkService{
		links:     deps.LinkRepo,
		requests:  deps.RequestRepo,
		couriers:  deps.CourierRepo,
		audiences: deps.AudienceRepo,
	}
}

// Link associates an entity with a request. Linking an already-linked pair
// is a no-op.
func (s *LinkService) Link(ctx context.Context, requestID string, kind domain.LinkKind, entityID string) error {
	if err := s.ensureRequest(ctx, requestID); err != nil {
		return err
	}
	if err := s.ensureEntity(ctx, kind, entityID); err != nil {
		return err
	}
	if err := s.links.Link(ctx, &domain.Link{
		RequestID: requestID,
		Kind:      kind,
		EntityID:  entityID,
	}); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Unlink removes the association. Removing a link that does not exist is a
// no-op; the target entity may already be deleted.
func (s *LinkService) Unlink(ctx context.Context, requestID string, kind domain.LinkKind, entityID string) error {
	if !validLinkKind(kind) {
		return apperrors.NewValidationError("invalid link kind", map[string]any{"kind": kind})
	}
	if err := s.ensureRequest(ctx, requestID); err != nil {
		return err
	}
	if err := s.links.Unlink(ctx, requestID, kind, entityID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// LinksFor returns the couriers and audiences attached to a request.
func (s *LinkService) LinksFor(ctx context.Context, requestID string) (*domain.RequestLinks, error) {
	if err := s.ensureRequest(ctx, requestID); err != nil {
		return nil, err
	}
	links, err := s.links.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := &domain.RequestLinks{Couriers: []string{}, Audiences: []string{}}
	for _, link := range links {
		switch link.Kind {
		case domain.LinkKindCourier:
			result.Couriers = append(result.Couriers, link.EntityID)
		case domain.LinkKindAudience:
			result.Audiences = append(result.Audiences, link.EntityID)
		}
	}
	return result, nil
}

// RequestsFor returns the IDs of requests linked to an entity.
func (s *LinkService) RequestsFor(ctx context.Context, kind domain.LinkKind, entityID string) ([]string, error) {
	if !validLinkKind(kind) {
		return nil, apperrors.NewValidationError("invalid link kind", map[string]any{"kind": kind})
	}
	links, err := s.links.ListByEntity(ctx, kind, entityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ids := make([]string, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.RequestID)
	}
	return ids, nil
}

func (s *LinkService) ensureRequest(ctx context.Context, requestID string) error {
	exists, err := s.requests.Exists(ctx, requestID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !exists {
		return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
	}
	return nil
}

func (s *LinkService) ensureEntity(ctx context.Context, kind domain.LinkKind, entityID string) error {
	var (
		exists bool
		err    error
	)
	switch kind {
	case domain.LinkKindCourier:
		exists, err = s.couriers.Exists(ctx, entityID)
		if err == nil && !exists {
			return apperrors.NewNotFound("courier", map[string]any{"courier_id": entityID})
		}
	case domain.LinkKindAudience:
		exists, err = s.audiences.Exists(ctx, entityID)
		if err == nil && !exists {
			return apperrors.NewNotFound("audience", map[string]any{"audience_id": entityID})
		}
	default:
		return apperrors.NewValidationError("invalid link kind", map[string]any{"kind": kind})
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func validLinkKind(kind domain.LinkKind) bool {
	return kind == domain.LinkKindCourier || kind == domain.LinkKindAudience
}
