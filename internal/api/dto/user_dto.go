package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	LicensePlate string `json:"license_plate,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BalanceResponse reports an account balance.
type BalanceResponse struct {
	UserID  string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

// CreditBalanceRequest payload for operator top-ups.
type CreditBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// VehicleUpdateRequest payload for plate or type changes. Absent fields are
// left untouched.
type VehicleUpdateRequest struct {
	LicensePlate *string `json:"license_plate,omitempty"`
	VehicleType  *string `json:"vehicle_type,omitempty"`
}

// VehicleResponse mirrors a vehicle.
type VehicleResponse struct {
	ID           string    `json:"id"`
	LicensePlate string    `json:"license_plate"`
	VehicleType  string    `json:"vehicle_type"`
	OwnerUserID  string    `json:"owner_user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStatusRequest payload for operator account suspension.
type UserStatusRequest struct {
	Status string `json:"status"`
}
