package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/parking-service/internal/domain"
)

// VehicleRepository defines persistence access for vehicles.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	Update(ctx context.Context, vehicle *domain.Vehicle) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
}

type vehicleRepository struct {
	pool *pgxpool.Pool
}

// NewVehicleRepository returns a Postgres-backed implementation.
func NewVehicleRepository(pool *pgxpool.Pool) VehicleRepository {
	return &vehicleRepository{pool: pool}
}

const vehicleColumns = `id, license_plate, vehicle_type, owner_user_id, created_at, updated_at`

func (r *vehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `
        INSERT INTO vehicles (license_plate, vehicle_type, owner_user_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		vehicle.LicensePlate,
		vehicle.Type,
		vehicle.OwnerUserID,
	).Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicatePlate
	}
	return err
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `
        UPDATE vehicles SET license_plate=$1, vehicle_type=$2, owner_user_id=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		vehicle.LicensePlate,
		vehicle.Type,
		vehicle.OwnerUserID,
		vehicle.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePlate
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return r.fetchSingle(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1`, id)
}

func (r *vehicleRepository) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	return r.fetchSingle(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE license_plate=$1`, plate)
}

func (r *vehicleRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&v.ID,
		&v.LicensePlate,
		&v.Type,
		&v.OwnerUserID,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}
