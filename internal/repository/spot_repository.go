package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/parking-service/internal/domain"
)

// SpotFilter narrows spot searches.
type SpotFilter struct {
	MerchantID string
	Type       *domain.SpotType
	Floor      *string
	Status     *domain.SpotStatus
}

// SpotRepository defines persistence access for parking spots.
type SpotRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error)
	GetByNumber(ctx context.Context, merchantID, spotNumber string) (*domain.ParkingSpot, error)
	// FindFirstAvailable returns the lowest-numbered AVAILABLE spot matching
	// the filter, or pgx.ErrNoRows.
	FindFirstAvailable(ctx context.Context, filter SpotFilter) (*domain.ParkingSpot, error)
	List(ctx context.Context, filter SpotFilter) ([]domain.ParkingSpot, error)
	// UpdateStatusIf transitions status from one state to another in a single
	// guarded update, reporting whether a row changed.
	UpdateStatusIf(ctx context.Context, tx pgx.Tx, id string, from, to domain.SpotStatus) (bool, error)
	// SetStatus overwrites status unconditionally (operator overrides).
	SetStatus(ctx context.Context, id string, status domain.SpotStatus) error
}

type spotRepository struct {
	pool *pgxpool.Pool
}

// NewSpotRepository returns a Postgres-backed implementation.
func NewSpotRepository(pool *pgxpool.Pool) SpotRepository {
	return &spotRepository{pool: pool}
}

const spotColumns = `id, merchant_id, spot_number, spot_type, status, floor, created_at, updated_at`

func (r *spotRepository) GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	return r.fetchSingle(ctx, `SELECT `+spotColumns+` FROM parking_spots WHERE id=$1`, id)
}

func (r *spotRepository) GetByNumber(ctx context.Context, merchantID, spotNumber string) (*domain.ParkingSpot, error) {
	const query = `SELECT ` + spotColumns + ` FROM parking_spots WHERE merchant_id=$1 AND spot_number=$2`
	var spot domain.ParkingSpot
	if err := r.pool.QueryRow(ctx, query, merchantID, spotNumber).Scan(
		&spot.ID,
		&spot.MerchantID,
		&spot.SpotNumber,
		&spot.Type,
		&spot.Status,
		&spot.Floor,
		&spot.CreatedAt,
		&spot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &spot, nil
}

func (r *spotRepository) FindFirstAvailable(ctx context.Context, filter SpotFilter) (*domain.ParkingSpot, error) {
	available := domain.SpotStatusAvailable
	filter.Status = &available
	query, args := buildSpotQuery(filter)
	query += ` ORDER BY spot_number ASC LIMIT 1`
	return r.fetchSingle(ctx, query, args...)
}

func (r *spotRepository) List(ctx context.Context, filter SpotFilter) ([]domain.ParkingSpot, error) {
	query, args := buildSpotQuery(filter)
	query += ` ORDER BY spot_number ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ParkingSpot
	for rows.Next() {
		var spot domain.ParkingSpot
		if err := rows.Scan(
			&spot.ID,
			&spot.MerchantID,
			&spot.SpotNumber,
			&spot.Type,
			&spot.Status,
			&spot.Floor,
			&spot.CreatedAt,
			&spot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, spot)
	}
	return result, rows.Err()
}

func buildSpotQuery(filter SpotFilter) (string, []any) {
	clauses := []string{"merchant_id=$1"}
	args := []any{filter.MerchantID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("spot_type=$%d", len(args)))
	}
	if filter.Floor != nil {
		args = append(args, *filter.Floor)
		clauses = append(clauses, fmt.Sprintf("floor=$%d", len(args)))
	}

	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE ` + strings.Join(clauses, " AND ")
	return query, args
}

func (r *spotRepository) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id string, from, to domain.SpotStatus) (bool, error) {
	q := querier(r.pool, tx)
	const query = `UPDATE parking_spots SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	cmd, err := q.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *spotRepository) SetStatus(ctx context.Context, id string, status domain.SpotStatus) error {
	const query = `UPDATE parking_spots SET status=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *spotRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.ParkingSpot, error) {
	var spot domain.ParkingSpot
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&spot.ID,
		&spot.MerchantID,
		&spot.SpotNumber,
		&spot.Type,
		&spot.Status,
		&spot.Floor,
		&spot.CreatedAt,
		&spot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &spot, nil
}
