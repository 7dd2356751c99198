package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	vehicles   repository.VehicleRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	VehicleRepo repository.VehicleRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		vehicles:   deps.VehicleRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterInput describes a registration payload.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	LicensePlate string
	VehicleType  domain.VehicleType
}

// Register creates an end-user account with a zero balance and, when a plate
// is supplied, its first vehicle.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         domain.RoleEndUser,
		Status:       domain.UserStatusActive,
		Balance:      decimal.Zero,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	if plate := strings.TrimSpace(input.LicensePlate); plate != "" {
		vehicleType := input.VehicleType
		if vehicleType == "" {
			vehicleType = domain.VehicleTypeCar
		}
		vehicle := &domain.Vehicle{
			LicensePlate: strings.ToUpper(plate),
			Type:         vehicleType,
			OwnerUserID:  user.ID,
		}
		if err := s.vehicles.Create(ctx, vehicle); err != nil {
			return nil, "", time.Time{}, err
		}
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates an account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// UpdateVehicleInput carries the mutable vehicle fields; everything else is
// fixed at registration.
type UpdateVehicleInput struct {
	LicensePlate *string
	Type         *domain.VehicleType
}

// UpdateVehicle changes a vehicle's plate or type on behalf of its owner.
func (s *AuthService) UpdateVehicle(ctx context.Context, vehicleID, ownerUserID string, input UpdateVehicleInput) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"vehicle_id": vehicleID})
		}
		return nil, err
	}
	if vehicle.OwnerUserID != ownerUserID {
		return nil, apperrors.NewForbidden("vehicle belongs to another user")
	}

	if input.LicensePlate != nil {
		plate := strings.ToUpper(strings.TrimSpace(*input.LicensePlate))
		if plate == "" {
			return nil, apperrors.NewValidationError("license plate cannot be empty", nil)
		}
		vehicle.LicensePlate = plate
	}
	if input.Type != nil {
		vehicle.Type = *input.Type
	}

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		if err == repository.ErrDuplicatePlate {
			return nil, apperrors.NewConflict("license plate already registered", map[string]any{
				"license_plate": vehicle.LicensePlate,
			})
		}
		return nil, err
	}
	return vehicle, nil
}

// SetUserStatus suspends or reactivates an account. Suspended accounts keep
// their balance but fail every debit until reactivated.
func (s *AuthService) SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, err
	}
	if user.Status == status {
		return user, nil
	}
	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
