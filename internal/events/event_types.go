package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionOpened    EventType = "session_opened"
	EventSessionCancelled EventType = "session_cancelled"
	EventCodeIssued       EventType = "code_issued"
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// SessionOpenedPayload payload.
type SessionOpenedPayload struct {
	VehicleID    string    `json:"vehicle_id"`
	LicensePlate string    `json:"license_plate"`
	SpotID       string    `json:"spot_id"`
	SpotNumber   string    `json:"spot_number"`
	MerchantCode string    `json:"merchant_code"`
	EntryTime    time.Time `json:"entry_time"`
}

// SessionCancelledPayload payload.
type SessionCancelledPayload struct {
	VehicleID    string  `json:"vehicle_id"`
	SpotID       *string `json:"spot_id,omitempty"`
	SpotNumber   string  `json:"spot_number,omitempty"`
	MerchantCode string  `json:"merchant_code,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// CodeIssuedPayload payload. RecipientEmail is the out-of-band delivery
// target for the notification collaborator.
type CodeIssuedPayload struct {
	UserID         string    `json:"user_id"`
	RecipientEmail string    `json:"recipient_email"`
	Code           string    `json:"code"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// PaymentSucceededPayload payload.
type PaymentSucceededPayload struct {
	UserID         string          `json:"user_id"`
	RecipientEmail string          `json:"recipient_email"`
	LicensePlate   string          `json:"license_plate"`
	Amount         decimal.Decimal `json:"amount"`
	NewBalance     decimal.Decimal `json:"new_balance"`
}

// PaymentFailedPayload payload.
type PaymentFailedPayload struct {
	UserID       string               `json:"user_id"`
	LicensePlate string               `json:"license_plate"`
	Reason       string               `json:"reason"`
	Status       domain.PaymentStatus `json:"status"`
}
