package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	apperrors "github.com/spec-kit/citizen-request-service/pkg/util"
)

// AudienceService manages citizen appointment records.
type AudienceService struct {
	audiences repository.AudienceRepository
	links     repository.LinkRepository
	sequences repository.SequenceRepository
}

// AudienceDependencies bundles collaborators for the audience service.
type AudienceDependencies struct {
	AudienceRepo repository.AudienceRepository
	LinkRepo     repository.LinkRepository
	SequenceRepo repository.SequenceRepository
}

// AudienceCreateInput describes audience creation payload.
type AudienceCreateInput struct {
	Sujet           string
	Date            time.Time
	Citoyen         string
	ChargeDuDossier *string
	PieceJointe     *string
}

// AudienceQuery describes listing filters.
type AudienceQuery struct {
	Search   string
	Statuses []domain.AudienceStatus
	Limit    int
	Offset   int
}

// NewAudienceService constructs the service.
func NewAudienceService(deps AudienceDependencies) *AudienceService {
	return &AudienceService{
		audiences: deps.AudienceRepo,
		links:     deps.LinkRepo,
		sequences: deps.SequenceRepo,
	}
}

// Create schedules a new audience.
func (s *AudienceService) Create(ctx context.Context, input AudienceCreateInput) (*domain.Audience, error) {
	missing := map[string]any{}
	if strings.TrimSpace(input.Sujet) == "" {
		missing["sujet"] = "required"
	}
	if strings.TrimSpace(input.Citoyen) == "" {
		missing["citoyen"] = "required"
	}
	if input.Date.IsZero() {
		missing["date"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", missing)
	}

	seq, err := s.sequences.Next(ctx, repository.SeqAudiences)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	audience := &domain.Audience{
		ID:              fmt.Sprintf("AUD-%03d", seq),
		Sujet:           strings.TrimSpace(input.Sujet),
		Date:            input.Date,
		Citoyen:         strings.TrimSpace(input.Citoyen),
		ChargeDuDossier: input.ChargeDuDossier,
		Status:          domain.AudienceScheduled,
		PieceJointe:     input.PieceJointe,
	}
	if err := s.audiences.Create(ctx, audience); err != nil {
		return nil, apperrors.MapError(err)
	}
	return audience, nil
}

// Get fetches one audience.
func (s *AudienceService) Get(ctx context.Context, id string) (*domain.Audience, error) {
	audience, err := s.audiences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("audience", map[string]any{"audience_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return audience, nil
}

// Query lists audiences matching the filter, soonest first.
func (s *AudienceService) Query(ctx context.Context, query AudienceQuery) ([]domain.Audience, error) {
	filter := repository.AudienceFilter{
		Statuses: query.Statuses,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if strings.TrimSpace(query.Search) != "" {
		search := query.Search
		filter.Search = &search
	}
	result, err := s.audiences.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// Confirm moves a scheduled audience to confirmed.
func (s *AudienceService) Confirm(ctx context.Context, id string) (*domain.Audience, error) {
	audience, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if audience.Status != domain.AudienceScheduled {
		return nil, apperrors.NewConflict("audience not in scheduled state", map[string]any{
			"audience_id": id,
			"status":      audience.Status,
		})
	}
	audience.Status = domain.AudienceConfirmed
	return s.save(ctx, audience)
}

// Reschedule moves the audience to a new date and back to scheduled.
func (s *AudienceService) Reschedule(ctx context.Context, id string, date time.Time) (*domain.Audience, error) {
	if date.IsZero() {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"date": "required"})
	}
	audience, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if audience.Status.Settled() {
		return nil, apperrors.NewConflict("audience already settled", map[string]any{
			"audience_id": id,
			"status":      audience.Status,
		})
	}
	audience.Date = date
	audience.Status = domain.AudienceScheduled
	return s.save(ctx, audience)
}

// Cancel cancels a pending audience.
func (s *AudienceService) Cancel(ctx context.Context, id string) (*domain.Audience, error) {
	audience, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if audience.Status.Settled() {
		return nil, apperrors.NewConflict("audience already settled", map[string]any{
			"audience_id": id,
			"status":      audience.Status,
		})
	}
	audience.Status = domain.AudienceCancelled
	return s.save(ctx, audience)
}

// Complete marks a pending audience as held.
func (s *AudienceService) Complete(ctx context.Context, id string) (*domain.Audience, error) {
	audience, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if audience.Status.Settled() {
		return nil, apperrors.NewConflict("audience already settled", map[string]any{
			"audience_id": id,
			"status":      audience.Status,
		})
	}
	audience.Status = domain.AudienceCompleted
	return s.save(ctx, audience)
}

// Delete removes the audience. Audiences still linked to a request are kept.
func (s *AudienceService) Delete(ctx context.Context, id string) error {
	linked, err := s.links.EntityLinked(ctx, domain.LinkKindAudience, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if linked {
		return apperrors.NewConflict("audience still linked to a request", map[string]any{"audience_id": id})
	}
	if err := s.audiences.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("audience", map[string]any{"audience_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AudienceService) save(ctx context.Context, audience *domain.Audience) (*domain.Audience, error) {
	if err := s.audiences.Update(ctx, audience); err != nil {
		return nil, apperrors.MapError(err)
	}
	return audience, nil
}
