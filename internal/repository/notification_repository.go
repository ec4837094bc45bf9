package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// NotificationRepository stores the append-only notification log.
// Entry content is immutable once created; only is_read mutates.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, parentKind domain.ParentKind, parentID string) error
	ListByParent(ctx context.Context, parentKind domain.ParentKind, parentID string) ([]domain.Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (id, parent_kind, parent_id, type, title, message,
            actor_name, actor_kind, metadata, is_read)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		notification.ID,
		notification.ParentKind,
		notification.ParentID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Actor.Name,
		notification.Actor.Kind,
		notification.Metadata,
		notification.IsRead,
	).Scan(&notification.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `
        SELECT id, parent_kind, parent_id, type, title, message,
               actor_name, actor_kind, metadata, is_read, created_at
        FROM notifications WHERE id=$1`
	var notification domain.Notification
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&notification.ID,
		&notification.ParentKind,
		&notification.ParentID,
		&notification.Type,
		&notification.Title,
		&notification.Message,
		&notification.Actor.Name,
		&notification.Actor.Kind,
		&notification.Metadata,
		&notification.IsRead,
		&notification.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, parentKind domain.ParentKind, parentID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE parent_kind=$1 AND parent_id=$2`,
		parentKind, parentID)
	return err
}

func (r *notificationRepository) ListByParent(ctx context.Context, parentKind domain.ParentKind, parentID string) ([]domain.Notification, error) {
	const query = `
        SELECT id, parent_kind, parent_id, type, title, message,
               actor_name, actor_kind, metadata, is_read, created_at
        FROM notifications WHERE parent_kind=$1 AND parent_id=$2
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, parentKind, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.ParentKind,
			&notification.ParentID,
			&notification.Type,
			&notification.Title,
			&notification.Message,
			&notification.Actor.Name,
			&notification.Actor.Kind,
			&notification.Metadata,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}
