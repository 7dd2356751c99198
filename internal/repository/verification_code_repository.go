package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/parking-service/internal/domain"
)

// VerificationCodeRepository encapsulates verification code persistence.
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *domain.VerificationCode) error
	// LatestUnverified returns the most recently issued unverified code
	// matching (user, code), or pgx.ErrNoRows.
	LatestUnverified(ctx context.Context, userID, code string) (*domain.VerificationCode, error)
	// MarkVerified consumes a code exactly once; a second call on the same id
	// matches nothing and reports false.
	MarkVerified(ctx context.Context, id string) (bool, error)
}

type verificationCodeRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationCodeRepository returns a Postgres-backed implementation.
func NewVerificationCodeRepository(pool *pgxpool.Pool) VerificationCodeRepository {
	return &verificationCodeRepository{pool: pool}
}

func (r *verificationCodeRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	const query = `
        INSERT INTO verification_codes (user_id, code, transaction_id, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		code.UserID,
		code.Code,
		code.TransactionID,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
}

func (r *verificationCodeRepository) LatestUnverified(ctx context.Context, userID, code string) (*domain.VerificationCode, error) {
	const query = `
        SELECT id, user_id, code, transaction_id, created_at, expires_at, verified
        FROM verification_codes
        WHERE user_id=$1 AND code=$2 AND verified=FALSE
        ORDER BY created_at DESC
        LIMIT 1`
	var vc domain.VerificationCode
	if err := r.pool.QueryRow(ctx, query, userID, code).Scan(
		&vc.ID,
		&vc.UserID,
		&vc.Code,
		&vc.TransactionID,
		&vc.CreatedAt,
		&vc.ExpiresAt,
		&vc.Verified,
	); err != nil {
		return nil, err
	}
	return &vc, nil
}

func (r *verificationCodeRepository) MarkVerified(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE verification_codes SET verified=TRUE WHERE id=$1 AND verified=FALSE`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
