package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewStateError signals an illegal lifecycle transition.
func NewStateError(message string, details map[string]any) error {
	return NewDomainError("STATE_ERROR", message, http.StatusConflict, details)
}

// NewInsufficientFunds signals a debit exceeding the stored balance.
func NewInsufficientFunds(details map[string]any) error {
	return NewDomainError("INSUFFICIENT_FUNDS", "insufficient balance", http.StatusBadRequest, details)
}

// NewAccountNotActive signals a money operation against a suspended account.
func NewAccountNotActive(details map[string]any) error {
	return NewDomainError("ACCOUNT_NOT_ACTIVE", "account is not active", http.StatusBadRequest, details)
}

// NewInvalidCode signals a verification code that matched no usable row.
func NewInvalidCode() error {
	return NewDomainError("INVALID_CODE", "verification code invalid", http.StatusBadRequest, nil)
}

// NewCodeExpired signals a verification code past its expiry.
func NewCodeExpired() error {
	return NewDomainError("CODE_EXPIRED", "verification code expired", http.StatusBadRequest, nil)
}

// NewCodeTransactionMismatch signals a code bound to a different transaction.
func NewCodeTransactionMismatch() error {
	return NewDomainError("CODE_TRANSACTION_MISMATCH", "verification code does not belong to this transaction", http.StatusBadRequest, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
