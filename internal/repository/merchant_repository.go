package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/parking-service/internal/domain"
)

// MerchantRepository defines persistence access for merchants.
type MerchantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	GetByCode(ctx context.Context, code string) (*domain.Merchant, error)
}

type merchantRepository struct {
	pool *pgxpool.Pool
}

// NewMerchantRepository returns a Postgres-backed implementation.
func NewMerchantRepository(pool *pgxpool.Pool) MerchantRepository {
	return &merchantRepository{pool: pool}
}

const merchantColumns = `id, code, name, hourly_rate, active, created_at, updated_at`

func (r *merchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	return r.fetchSingle(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE id=$1`, id)
}

func (r *merchantRepository) GetByCode(ctx context.Context, code string) (*domain.Merchant, error) {
	return r.fetchSingle(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE code=$1`, code)
}

func (r *merchantRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Merchant, error) {
	var m domain.Merchant
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&m.ID,
		&m.Code,
		&m.Name,
		&m.HourlyRate,
		&m.Active,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
