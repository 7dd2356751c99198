package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// ParkingEntryRequest payload.
type ParkingEntryRequest struct {
	LicensePlate string  `json:"license_plate"`
	MerchantCode string  `json:"merchant_code"`
	SpotNumber   *string `json:"spot_number,omitempty"`
	SpotType     *string `json:"spot_type,omitempty"`
	Floor        *string `json:"floor,omitempty"`
}

// ParkingExitRequest payload.
type ParkingExitRequest struct {
	LicensePlate     string `json:"license_plate"`
	MerchantCode     string `json:"merchant_code"`
	VerificationCode string `json:"verification_code"`
}

// TransactionResponse represents one parking session.
type TransactionResponse struct {
	ID            string               `json:"id"`
	VehicleID     string               `json:"vehicle_id"`
	SpotID        *string              `json:"spot_id"`
	EntryTime     time.Time            `json:"entry_time"`
	ExitTime      *time.Time           `json:"exit_time"`
	TotalCost     *decimal.Decimal     `json:"total_cost"`
	ParkingStatus domain.ParkingStatus `json:"parking_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// CancelSessionRequest payload for operator cancellation.
type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

// PaymentStatusOverrideRequest payload for operator overrides.
type PaymentStatusOverrideRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// SpotResponse represents one parking spot.
type SpotResponse struct {
	ID         string            `json:"id"`
	MerchantID string            `json:"merchant_id"`
	SpotNumber string            `json:"spot_number"`
	Type       domain.SpotType   `json:"type"`
	Status     domain.SpotStatus `json:"status"`
	Floor      *string           `json:"floor"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SpotStatusRequest payload for operator spot overrides.
type SpotStatusRequest struct {
	Status string `json:"status"`
}
