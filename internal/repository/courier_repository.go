package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// CourierFilter captures courier listing parameters.
type CourierFilter struct {
	Search  *string
	Statuts []domain.CourierStatus
	Types   []domain.CourierType
	Limit   int
	Offset  int
}

// CourierRepository encapsulates courier persistence.
type CourierRepository interface {
	Create(ctx context.Context, courier *domain.Courier) error
	Update(ctx context.Context, courier *domain.Courier) error
	GetByID(ctx context.Context, id string) (*domain.Courier, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter CourierFilter) ([]domain.Courier, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type courierRepository struct {
	pool *pgxpool.Pool
}

// NewCourierRepository instantiates the repository.
func NewCourierRepository(pool *pgxpool.Pool) CourierRepository {
	return &courierRepository{pool: pool}
}

const courierColumns = `id, objet, type, destinataire, expediteur, date, statut,
priority, category, description, piece_jointe, created_at, updated_at`

func (r *courierRepository) Create(ctx context.Context, courier *domain.Courier) error {
	const query = `
        INSERT INTO couriers (id, objet, type, destinataire, expediteur, date, statut,
            priority, category, description, piece_jointe)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		courier.ID,
		courier.Objet,
		courier.Type,
		courier.Destinataire,
		courier.Expediteur,
		courier.Date,
		courier.Statut,
		courier.Priority,
		courier.Category,
		courier.Description,
		courier.PieceJointe,
	).Scan(&courier.CreatedAt, &courier.UpdatedAt)
}

func (r *courierRepository) Update(ctx context.Context, courier *domain.Courier) error {
	const query = `
        UPDATE couriers SET objet=$1, type=$2, destinataire=$3, expediteur=$4, date=$5,
            statut=$6, priority=$7, category=$8, description=$9, piece_jointe=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		courier.Objet,
		courier.Type,
		courier.Destinataire,
		courier.Expediteur,
		courier.Date,
		courier.Statut,
		courier.Priority,
		courier.Category,
		courier.Description,
		courier.PieceJointe,
		courier.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *courierRepository) GetByID(ctx context.Context, id string) (*domain.Courier, error) {
	query := fmt.Sprintf(`SELECT %s FROM couriers WHERE id=$1`, courierColumns)
	var courier domain.Courier
	if err := scanCourier(r.pool.QueryRow(ctx, query, id), &courier); err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *courierRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM couriers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *courierRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM couriers WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *courierRepository) ListWithFilter(ctx context.Context, filter CourierFilter) ([]domain.Courier, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuts) > 0 {
		placeholders := make([]string, len(filter.Statuts))
		for i, statut := range filter.Statuts {
			args = append(args, statut)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("statut IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(objet) LIKE %s OR LOWER(destinataire) LIKE %s OR LOWER(id) LIKE %s)",
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

	query := fmt.Sprintf(`SELECT %s FROM couriers WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		courierColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Courier
	for rows.Next() {
		var courier domain.Courier
		if err := scanCourier(rows, &courier); err != nil {
			return nil, err
		}
		result = append(result, courier)
	}
	return result, rows.Err()
}

func scanCourier(row pgx.Row, courier *domain.Courier) error {
	return row.Scan(
		&courier.ID,
		&courier.Objet,
		&courier.Type,
		&courier.Destinataire,
		&courier.Expediteur,
		&courier.Date,
		&courier.Statut,
		&courier.Priority,
		&courier.Category,
		&courier.Description,
		&courier.PieceJointe,
		&courier.CreatedAt,
		&courier.UpdatedAt,
	)
}
