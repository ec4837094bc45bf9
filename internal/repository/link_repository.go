package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// LinkRepository stores request↔courier/audience associations.
type LinkRepository interface {
	// Link inserts the association; linking an already-linked pair is a no-op.
	Link(ctx context.Context, link *domain.Link) error
	// Unlink removes the association; removing a non-existent link is a no-op.
	Unlink(ctx context.Context, requestID string, kind domain.LinkKind, entityID string) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.Link, error)
	ListByEntity(ctx context.Context, kind domain.LinkKind, entityID string) ([]domain.Link, error)
	EntityLinked(ctx context.Context, kind domain.LinkKind, entityID string) (bool, error)
}

type linkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository instantiates the repository.
func NewLinkRepository(pool *pgxpool.Pool) LinkRepository {
	return &linkRepository{pool: pool}
}

func (r *linkRepository) Link(ctx context.Context, link *domain.Link) error {
	const query = `
        INSERT INTO request_links (request_id, entity_kind, entity_id)
        VALUES ($1,$2,$3)
        ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, link.RequestID, link.Kind, link.EntityID)
	return err
}

func (r *linkRepository) Unlink(ctx context.Context, requestID string, kind domain.LinkKind, entityID string) error {
	const query = `
        DELETE FROM request_links WHERE request_id=$1 AND entity_kind=$2 AND entity_id=$3`
	_, err := r.pool.Exec(ctx, query, requestID, kind, entityID)
	return err
}

func (r *linkRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Link, error) {
	const query = `
        SELECT request_id, entity_kind, entity_id, created_at
        FROM request_links WHERE request_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (r *linkRepository) ListByEntity(ctx context.Context, kind domain.LinkKind, entityID string) ([]domain.Link, error) {
	const query = `
        SELECT request_id, entity_kind, entity_id, created_at
        FROM request_links WHERE entity_kind=$1 AND entity_id=$2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (r *linkRepository) EntityLinked(ctx context.Context, kind domain.LinkKind, entityID string) (bool, error) {
	var linked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM request_links WHERE entity_kind=$1 AND entity_id=$2)`,
		kind, entityID,
	).Scan(&linked)
	return linked, err
}

func scanLinks(rows pgx.Rows) ([]domain.Link, error) {
	var result []domain.Link
	for rows.Next() {
		var link domain.Link
		if err := rows.Scan(&link.RequestID, &link.Kind, &link.EntityID, &link.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, link)
	}
	return result, rows.Err()
}
