package dto

import "time"

// GenerateCodeRequest payload for code issuance.
type GenerateCodeRequest struct {
	UserID               string `json:"user_id"`
	ParkingTransactionID string `json:"parking_transaction_id"`
}

// ValidateCodeRequest payload for code validation.
type ValidateCodeRequest struct {
	UserID               string `json:"user_id"`
	Code                 string `json:"code"`
	ParkingTransactionID string `json:"parking_transaction_id"`
}

// CodeIssuedResponse acknowledges issuance. The code itself is delivered
// out of band.
type CodeIssuedResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}
