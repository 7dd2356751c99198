package domain

import (
	"fmt"
	"time"
)

// VehicleType enumerates supported vehicle categories.
type VehicleType string

const (
	VehicleTypeCar        VehicleType = "CAR"
	VehicleTypeMotorcycle VehicleType = "MOTORCYCLE"
	VehicleTypeTruck      VehicleType = "TRUCK"
)

// Vehicle belongs to a user; the license plate is globally unique.
type Vehicle struct {
	ID           string
	LicensePlate string
	Type         VehicleType
	OwnerUserID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParseVehicleType validates a free-text vehicle type value.
func ParseVehicleType(s string) (VehicleType, error) {
	switch VehicleType(s) {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeTruck:
		return VehicleType(s), nil
	}
	return "", fmt.Errorf("unknown vehicle type %q", s)
}
