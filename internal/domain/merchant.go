package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Merchant operates one or more parking lots. HourlyRate is the flat rate
// applied to every transaction at its spots.
type Merchant struct {
	ID         string
	Code       string
	Name       string
	HourlyRate decimal.Decimal
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
