package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sequence names for display identifiers.
const (
	SeqRequests      = "request_display_seq"
	SeqCouriers      = "courier_display_seq"
	SeqAudiences     = "audience_display_seq"
	SeqNotifications = "notification_display_seq"
)

// SequenceRepository allocates monotonic counters for display IDs.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository builds a Postgres-backed allocator.
func NewSequenceRepository(pool *pgxpool.Pool) SequenceRepository {
	return &sequenceRepository{pool: pool}
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval($1)`, name).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
