package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/mocks"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

func newAuthService(users *mocks.UserRepository, vehicles *mocks.VehicleRepository) *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}}
	return NewAuthService(cfg, AuthDependencies{UserRepo: users, VehicleRepo: vehicles})
}

func TestRegisterCreatesUserAndVehicle(t *testing.T) {
	var createdUser *domain.User
	users := &mocks.UserRepository{
		GetByEmailFn: func(_ context.Context, _ string) (*domain.User, error) { return nil, pgx.ErrNoRows },
		CreateFn: func(_ context.Context, user *domain.User) error {
			user.ID = "user-1"
			createdUser = user
			return nil
		},
	}
	var createdVehicle *domain.Vehicle
	vehicles := &mocks.VehicleRepository{
		CreateFn: func(_ context.Context, vehicle *domain.Vehicle) error {
			vehicle.ID = "veh-1"
			createdVehicle = vehicle
			return nil
		},
	}

	svc := newAuthService(users, vehicles)
	user, token, _, err := svc.Register(context.Background(), RegisterInput{
		Name:         "Driver",
		Email:        "Driver@Example.COM ",
		Password:     "secret123",
		LicensePlate: "b1234xyz",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.Equal(t, "driver@example.com", user.Email)
	assert.Equal(t, domain.RoleEndUser, user.Role)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.True(t, decimal.Zero.Equal(user.Balance))
	require.NotNil(t, createdUser)
	assert.NoError(t, auth.ComparePassword(createdUser.PasswordHash, "secret123"))

	require.NotNil(t, createdVehicle)
	assert.Equal(t, "B1234XYZ", createdVehicle.LicensePlate)
	assert.Equal(t, domain.VehicleTypeCar, createdVehicle.Type)
	assert.Equal(t, "user-1", createdVehicle.OwnerUserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := &mocks.UserRepository{
		GetByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: email}, nil
		},
	}

	svc := newAuthService(users, &mocks.VehicleRepository{})
	_, _, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Driver", Email: "driver@example.com", Password: "secret123",
	})
	// A taken email is a conflict, not an internal failure.
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestUpdateVehicleChangesPlateAndType(t *testing.T) {
	stored := &domain.Vehicle{ID: "veh-1", LicensePlate: "B1234XYZ", Type: domain.VehicleTypeCar, OwnerUserID: "user-1"}
	var updated *domain.Vehicle
	vehicles := &mocks.VehicleRepository{
		GetByIDFn: func(_ context.Context, _ string) (*domain.Vehicle, error) { return stored, nil },
		UpdateFn: func(_ context.Context, vehicle *domain.Vehicle) error {
			updated = vehicle
			return nil
		},
	}

	svc := newAuthService(&mocks.UserRepository{}, vehicles)
	plate := "  d5678abc "
	vehicleType := domain.VehicleTypeMotorcycle
	vehicle, err := svc.UpdateVehicle(context.Background(), "veh-1", "user-1", UpdateVehicleInput{
		LicensePlate: &plate,
		Type:         &vehicleType,
	})
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.Equal(t, "D5678ABC", vehicle.LicensePlate)
	assert.Equal(t, domain.VehicleTypeMotorcycle, vehicle.Type)
	assert.Equal(t, "user-1", vehicle.OwnerUserID)
}

func TestUpdateVehicleForeignOwnerForbidden(t *testing.T) {
	vehicles := &mocks.VehicleRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.Vehicle, error) {
			return &domain.Vehicle{ID: id, LicensePlate: "B1234XYZ", OwnerUserID: "user-1"}, nil
		},
	}

	svc := newAuthService(&mocks.UserRepository{}, vehicles)
	plate := "D5678ABC"
	_, err := svc.UpdateVehicle(context.Background(), "veh-1", "user-2", UpdateVehicleInput{LicensePlate: &plate})
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
}

func TestUpdateVehicleDuplicatePlate(t *testing.T) {
	vehicles := &mocks.VehicleRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.Vehicle, error) {
			return &domain.Vehicle{ID: id, LicensePlate: "B1234XYZ", OwnerUserID: "user-1"}, nil
		},
		UpdateFn: func(_ context.Context, _ *domain.Vehicle) error {
			return repository.ErrDuplicatePlate
		},
	}

	svc := newAuthService(&mocks.UserRepository{}, vehicles)
	plate := "D5678ABC"
	_, err := svc.UpdateVehicle(context.Background(), "veh-1", "user-1", UpdateVehicleInput{LicensePlate: &plate})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestSetUserStatusSuspendsAccount(t *testing.T) {
	var updated *domain.User
	users := &mocks.UserRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Status: domain.UserStatusActive}, nil
		},
		UpdateFn: func(_ context.Context, user *domain.User) error {
			updated = user
			return nil
		},
	}

	svc := newAuthService(users, &mocks.VehicleRepository{})
	user, err := svc.SetUserStatus(context.Background(), "user-1", domain.UserStatusSuspended)
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.Equal(t, domain.UserStatusSuspended, user.Status)
}

func TestSetUserStatusNoChangeSkipsWrite(t *testing.T) {
	users := &mocks.UserRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Status: domain.UserStatusActive}, nil
		},
	}

	svc := newAuthService(users, &mocks.VehicleRepository{})
	user, err := svc.SetUserStatus(context.Background(), "user-1", domain.UserStatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, user.Status)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("right-password", 4)
	require.NoError(t, err)
	users := &mocks.UserRepository{
		GetByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
		},
	}

	svc := newAuthService(users, &mocks.VehicleRepository{})
	_, _, _, err = svc.Login(context.Background(), "driver@example.com", "wrong-password")
	assert.True(t, apperrors.HasCode(err, "UNAUTHORIZED"))
}

func TestLoginIssuesParsableToken(t *testing.T) {
	hash, err := auth.HashPassword("secret123", 4)
	require.NoError(t, err)
	users := &mocks.UserRepository{
		GetByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: email, PasswordHash: hash, Role: domain.RoleEndUser}, nil
		},
	}

	svc := newAuthService(users, &mocks.VehicleRepository{})
	_, token, _, err := svc.Login(context.Background(), "driver@example.com", "secret123")
	require.NoError(t, err)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleEndUser, claims.Role)
}
