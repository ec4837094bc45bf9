package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// CitizenAccountRepository defines persistence access for portal accounts.
type CitizenAccountRepository interface {
	Create(ctx context.Context, account *domain.CitizenAccount) error
	Update(ctx context.Context, account *domain.CitizenAccount) error
	GetByID(ctx context.Context, id string) (*domain.CitizenAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.CitizenAccount, error)
}

type citizenAccountRepository struct {
	pool *pgxpool.Pool
}

// NewCitizenAccountRepository returns a Postgres-backed implementation.
func NewCitizenAccountRepository(pool *pgxpool.Pool) CitizenAccountRepository {
	return &citizenAccountRepository{pool: pool}
}

func (r *citizenAccountRepository) Create(ctx context.Context, account *domain.CitizenAccount) error {
	const query = `
        INSERT INTO citizen_accounts (name, email, password_hash, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Status,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *citizenAccountRepository) Update(ctx context.Context, account *domain.CitizenAccount) error {
	const query = `
        UPDATE citizen_accounts SET name=$1, email=$2, password_hash=$3, status=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Status,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *citizenAccountRepository) GetByID(ctx context.Context, id string) (*domain.CitizenAccount, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at
        FROM citizen_accounts WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *citizenAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.CitizenAccount, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at
        FROM citizen_accounts WHERE email=$1`
	return r.fetch(ctx, query, email)
}

func (r *citizenAccountRepository) fetch(ctx context.Context, query string, arg any) (*domain.CitizenAccount, error) {
	var account domain.CitizenAccount
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
