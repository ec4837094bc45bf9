package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// AudienceFilter captures audience listing parameters.
type AudienceFilter struct {
	Search   *string
	Statuses []domain.AudienceStatus
	Limit    int
	Offset   int
}

// AudienceRepository encapsulates audience persistence.
type AudienceRepository interface {
	Create(ctx context.Context, audience *domain.Audience) error
	Update(ctx context.Context, audience *domain.Audience) error
	GetByID(ctx context.Context, id string) (*domain.Audience, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter AudienceFilter) ([]domain.Audience, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type audienceRepository struct {
	pool *pgxpool.Pool
}

// NewAudienceRepository instantiates the repository.
func NewAudienceRepository(pool *pgxpool.Pool) AudienceRepository {
	return &audienceRepository{pool: pool}
}

const audienceColumns = `id, sujet, date, citoyen, charge_du_dossier, status, piece_jointe, created_at, updated_at`

func (r *audienceRepository) Create(ctx context.Context, audience *domain.Audience) error {
	const query = `
        INSERT INTO audiences (id, sujet, date, citoyen, charge_du_dossier, status, piece_jointe)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		audience.ID,
		audience.Sujet,
		audience.Date,
		audience.Citoyen,
		audience.ChargeDuDossier,
		audience.Status,
		audience.PieceJointe,
	).Scan(&audience.CreatedAt, &audience.UpdatedAt)
}

func (r *audienceRepository) Update(ctx context.Context, audience *domain.Audience) error {
	const query = `
        UPDATE audiences SET sujet=$1, date=$2, citoyen=$3, charge_du_dossier=$4,
            status=$5, piece_jointe=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		audience.Sujet,
		audience.Date,
		audience.Citoyen,
		audience.ChargeDuDossier,
		audience.Status,
		audience.PieceJointe,
		audience.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *audienceRepository) GetByID(ctx context.Context, id string) (*domain.Audience, error) {
	query := fmt.Sprintf(`SELECT %s FROM audiences WHERE id=$1`, audienceColumns)
	var audience domain.Audience
	if err := scanAudience(r.pool.QueryRow(ctx, query, id), &audience); err != nil {
		return nil, err
	}
	return &audience, nil
}

func (r *audienceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM audiences WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *audienceRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM audiences WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *audienceRepository) ListWithFilter(ctx context.Context, filter AudienceFilter) ([]domain.Audience, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(sujet) LIKE %s OR LOWER(citoyen) LIKE %s OR LOWER(id) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM audiences WHERE %s ORDER BY date ASC LIMIT %d OFFSET %d`,
		audienceColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Audience
	for rows.Next() {
		var audience domain.Audience
		if err := scanAudience(rows, &audience); err != nil {
			return nil, err
		}
		result = append(result, audience)
	}
	return result, rows.Err()
}

func scanAudience(row pgx.Row, audience *domain.Audience) error {
	return row.Scan(
		&audience.ID,
		&audience.Sujet,
		&audience.Date,
		&audience.Citoyen,
		&audience.ChargeDuDossier,
		&audience.Status,
		&audience.PieceJointe,
		&audience.CreatedAt,
		&audience.UpdatedAt,
	)
}
