package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// ErrStaleUpdate signals that a guarded update lost against a concurrent
// writer. Services surface it as a conflict.
var ErrStaleUpdate = errors.New("stale update")

// RequestFilter captures query parameters for request listings.
type RequestFilter struct {
	Search          *string
	Statuses        []domain.RequestStatus
	Priorities      []domain.RequestPriority
	AssignedAgentID *string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	// Update applies the full mutable state. The expectedUpdatedAt guard
	// serializes concurrent writers per record; a mismatch returns
	// ErrStaleUpdate, an unknown id returns pgx.ErrNoRows.
	Update(ctx context.Context, request *domain.Request, expectedUpdatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, owner_account_id, citizen_name, citizen_email, citizen_phone, citizen_address,
type, category, subject, description, status, priority, ai_classification, sentiment,
workflow_current_step, workflow_steps, assigned_agent_id, archived, attachments,
created_at, updated_at, resolved_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (id, owner_account_id, citizen_name, citizen_email, citizen_phone, citizen_address,
            type, category, subject, description, status, priority, ai_classification, sentiment,
            workflow_current_step, workflow_steps, assigned_agent_id, archived, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.ID,
		request.OwnerAccountID,
		request.Citizen.Name,
		request.Citizen.Email,
		request.Citizen.Phone,
		request.Citizen.Address,
		request.Type,
		request.Category,
		request.Subject,
		request.Description,
		request.Status,
		request.Priority,
		request.AIClassification,
		request.Sentiment,
		request.Workflow.CurrentStep,
		request.Workflow.Steps,
		request.AssignedAgent,
		request.Archived,
		request.Attachments,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.Request, expectedUpdatedAt time.Time) error {
	const query = `
        UPDATE requests SET status=$1, priority=$2, ai_classification=$3, sentiment=$4,
            workflow_current_step=$5, assigned_agent_id=$6, archived=$7, attachments=$8,
            resolved_at=$9, updated_at=NOW()
        WHERE id=$10 AND updated_at=$11
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		request.Status,
		request.Priority,
		request.AIClassification,
		request.Sentiment,
		request.Workflow.CurrentStep,
		request.AssignedAgent,
		request.Archived,
		request.Attachments,
		request.ResolvedAt,
		request.ID,
		expectedUpdatedAt,
	).Scan(&request.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	exists, existsErr := r.Exists(ctx, request.ID)
	if existsErr != nil {
		return existsErr
	}
	if exists {
		return ErrStaleUpdate
	}
	return pgx.ErrNoRows
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id=$1`, requestColumns)
	var request domain.Request
	if err := scanRequest(r.pool.QueryRow(ctx, query, id), &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeArchived {
		clauses = append(clauses, "archived=FALSE")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, priority := range filter.Priorities {
			args = append(args, priority)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedAgentID != nil {
		args = append(args, *filter.AssignedAgentID)
		clauses = append(clauses, fmt.Sprintf("assigned_agent_id=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(subject) LIKE %s OR LOWER(description) LIKE %s OR LOWER(id) LIKE %s OR LOWER(citizen_name) LIKE %s)",
			placeholder, placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		requestColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		var request domain.Request
		if err := scanRequest(rows, &request); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row, request *domain.Request) error {
	return row.Scan(
		&request.ID,
		&request.OwnerAccountID,
		&request.Citizen.Name,
		&request.Citizen.Email,
		&request.Citizen.Phone,
		&request.Citizen.Address,
		&request.Type,
		&request.Category,
		&request.Subject,
		&request.Description,
		&request.Status,
		&request.Priority,
		&request.AIClassification,
		&request.Sentiment,
		&request.Workflow.CurrentStep,
		&request.Workflow.Steps,
		&request.AssignedAgent,
		&request.Archived,
		&request.Attachments,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.ResolvedAt,
	)
}
