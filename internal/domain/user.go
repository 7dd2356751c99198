package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// UserRole separates end-users from operators.
type UserRole string

const (
	RoleEndUser UserRole = "END_USER"
	RoleAdmin   UserRole = "ADMIN"
)

// User is the domain model for account holders. Balance is the prepaid
// amount debited at exit; it is mutated only through the balance service.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	Balance      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParseUserStatus validates a free-text account status value.
func ParseUserStatus(s string) (UserStatus, error) {
	switch UserStatus(s) {
	case UserStatusActive, UserStatusSuspended:
		return UserStatus(s), nil
	}
	return "", fmt.Errorf("unknown user status %q", s)
}

// ParseUserRole validates a free-text role value.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleEndUser, RoleAdmin:
		return UserRole(s), nil
	}
	return "", fmt.Errorf("unknown user role %q", s)
}
