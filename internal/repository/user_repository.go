package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// UserRepository defines persistence access for accounts and balances.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// DebitBalance atomically subtracts amount when the account is ACTIVE and
	// funded, returning the new balance. Misses are classified into
	// pgx.ErrNoRows, ErrAccountNotActive or ErrInsufficientFunds.
	DebitBalance(ctx context.Context, tx pgx.Tx, id string, amount decimal.Decimal) (decimal.Decimal, error)
	// CreditBalance atomically adds amount, returning the new balance.
	CreditBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, status, balance, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, status, balance)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.Balance,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, role=$4, status=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) DebitBalance(ctx context.Context, tx pgx.Tx, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	q := querier(r.pool, tx)
	const query = `
        UPDATE users SET balance = balance - $2, updated_at = NOW()
        WHERE id = $1 AND status = 'ACTIVE' AND balance >= $2
        RETURNING balance`

	var balance decimal.Decimal
	err := q.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if err != pgx.ErrNoRows {
		return decimal.Zero, err
	}

	// The guarded update matched nothing; read the row to tell why.
	var status domain.UserStatus
	var current decimal.Decimal
	if err := q.QueryRow(ctx, `SELECT status, balance FROM users WHERE id=$1`, id).Scan(&status, &current); err != nil {
		return decimal.Zero, err
	}
	if status != domain.UserStatusActive {
		return decimal.Zero, ErrAccountNotActive
	}
	return decimal.Zero, ErrInsufficientFunds
}

func (r *userRepository) CreditBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	const query = `
        UPDATE users SET balance = balance + $2, updated_at = NOW()
        WHERE id = $1
        RETURNING balance`
	var balance decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, id, amount).Scan(&balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
