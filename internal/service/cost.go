package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillableHours converts a stay into billed hours. The stay is measured in
// whole minutes and rounded up to the next hour; an exactly zero-minute stay
// is free. Any positive stay under an hour bills as one hour.
func BillableHours(entry, exit time.Time) int64 {
	minutes := int64(exit.Sub(entry) / time.Minute)
	if minutes <= 0 {
		return 0
	}
	return (minutes + 59) / 60
}

// SessionCost applies the merchant's flat hourly rate to the billable hours.
func SessionCost(entry, exit time.Time, hourlyRate decimal.Decimal) decimal.Decimal {
	return hourlyRate.Mul(decimal.NewFromInt(BillableHours(entry, exit)))
}
