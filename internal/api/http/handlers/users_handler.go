package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// UsersHandler exposes auth and account endpoints for end-users.
type UsersHandler struct {
	auth     *service.AuthService
	balances *service.BalanceService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, balances *service.BalanceService) *UsersHandler {
	return &UsersHandler{auth: authService, balances: balances}
}

// Register handles POST /auth/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	input := service.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		LicensePlate: req.LicensePlate,
	}
	if req.VehicleType != "" {
		vehicleType, err := domain.ParseVehicleType(req.VehicleType)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.VehicleType = vehicleType
	}

	user, token, exp, err := h.auth.Register(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// UpdateVehicle handles PATCH /users/me/vehicles/:id.
func (h *UsersHandler) UpdateVehicle(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.VehicleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.LicensePlate == nil && req.VehicleType == nil {
		return apperrors.NewValidationError("nothing to update", nil)
	}

	input := service.UpdateVehicleInput{LicensePlate: req.LicensePlate}
	if req.VehicleType != nil {
		vehicleType, err := domain.ParseVehicleType(*req.VehicleType)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.Type = &vehicleType
	}

	vehicle, err := h.auth.UpdateVehicle(c.Context(), c.Params("id"), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VehicleResponse{
		ID:           vehicle.ID,
		LicensePlate: vehicle.LicensePlate,
		VehicleType:  string(vehicle.Type),
		OwnerUserID:  vehicle.OwnerUserID,
		CreatedAt:    vehicle.CreatedAt,
		UpdatedAt:    vehicle.UpdatedAt,
	}})
}

// Balance handles GET /users/me/balance.
func (h *UsersHandler) Balance(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	balance, err := h.balances.Balance(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BalanceResponse{UserID: principal.User.ID, Balance: balance}})
}
