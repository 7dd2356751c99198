package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ParkingStatus enumerates session lifecycle states.
type ParkingStatus string

const (
	ParkingStatusActive    ParkingStatus = "ACTIVE"
	ParkingStatusCompleted ParkingStatus = "COMPLETED"
	ParkingStatusCancelled ParkingStatus = "CANCELLED"
)

// PaymentStatus enumerates settlement states of a session.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// ParkingTransaction is one parking session from entry to completion or
// cancellation. Rows are append-only; a transaction is never deleted.
// At most one ACTIVE transaction exists per vehicle and per spot.
type ParkingTransaction struct {
	ID            string
	VehicleID     string
	SpotID        *string
	EntryTime     time.Time
	ExitTime      *time.Time
	TotalCost     *decimal.Decimal
	ParkingStatus ParkingStatus
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ParseParkingStatus validates a free-text parking status value.
func ParseParkingStatus(s string) (ParkingStatus, error) {
	switch ParkingStatus(s) {
	case ParkingStatusActive, ParkingStatusCompleted, ParkingStatusCancelled:
		return ParkingStatus(s), nil
	}
	return "", fmt.Errorf("unknown parking status %q", s)
}

// ParsePaymentStatus validates a free-text payment status value.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}
