package domain

import (
	"fmt"
	"time"
)

// SpotStatus enumerates the states of a physical spot. Transitions between
// AVAILABLE and OCCUPIED are driven exclusively by session open/close/cancel;
// MAINTENANCE and RESERVED are operator-managed.
type SpotStatus string

const (
	SpotStatusAvailable   SpotStatus = "AVAILABLE"
	SpotStatusOccupied    SpotStatus = "OCCUPIED"
	SpotStatusMaintenance SpotStatus = "MAINTENANCE"
	SpotStatusReserved    SpotStatus = "RESERVED"
)

// SpotType enumerates physical spot categories.
type SpotType string

const (
	SpotTypeRegular  SpotType = "REGULAR"
	SpotTypeCompact  SpotType = "COMPACT"
	SpotTypeLarge    SpotType = "LARGE"
	SpotTypeHandicap SpotType = "HANDICAP"
)

// ParkingSpot is a single slot belonging to one merchant. SpotNumber is
// unique within the merchant.
type ParkingSpot struct {
	ID         string
	MerchantID string
	SpotNumber string
	Type       SpotType
	Status     SpotStatus
	Floor      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParseSpotStatus validates a free-text spot status value.
func ParseSpotStatus(s string) (SpotStatus, error) {
	switch SpotStatus(s) {
	case SpotStatusAvailable, SpotStatusOccupied, SpotStatusMaintenance, SpotStatusReserved:
		return SpotStatus(s), nil
	}
	return "", fmt.Errorf("unknown spot status %q", s)
}

// ParseSpotType validates a free-text spot type value.
func ParseSpotType(s string) (SpotType, error) {
	switch SpotType(s) {
	case SpotTypeRegular, SpotTypeCompact, SpotTypeLarge, SpotTypeHandicap:
		return SpotType(s), nil
	}
	return "", fmt.Errorf("unknown spot type %q", s)
}
