package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// BalanceService is the debit engine. Every mutation is a single guarded
// update against the stored balance; there is no partial debit.
type BalanceService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewBalanceService constructs the service.
func NewBalanceService(users repository.UserRepository, logger *zap.Logger) *BalanceService {
	return &BalanceService{users: users, logger: logger}
}

// Debit subtracts amount from the user's balance, optionally inside the
// caller's transaction. It requires a positive amount, an ACTIVE account and
// sufficient funds; otherwise the balance is untouched.
func (s *BalanceService) Debit(ctx context.Context, tx pgx.Tx, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.NewValidationError("amount must be positive", map[string]any{"amount": amount.String()})
	}
	balance, err := s.users.DebitBalance(ctx, tx, userID, amount)
	if err != nil {
		switch err {
		case repository.ErrInsufficientFunds:
			return decimal.Zero, apperrors.NewInsufficientFunds(map[string]any{"amount": amount.String()})
		case repository.ErrAccountNotActive:
			return decimal.Zero, apperrors.NewAccountNotActive(map[string]any{"user_id": userID})
		case pgx.ErrNoRows:
			return decimal.Zero, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return decimal.Zero, err
	}
	s.logger.Info("balance debited",
		zap.String("user_id", userID),
		zap.String("amount", amount.String()),
		zap.String("new_balance", balance.String()))
	return balance, nil
}

// Credit adds amount to the user's balance; the only requirements are a
// positive amount and an existing account.
func (s *BalanceService) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.NewValidationError("amount must be positive", map[string]any{"amount": amount.String()})
	}
	balance, err := s.users.CreditBalance(ctx, userID, amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return decimal.Zero, err
	}
	s.logger.Info("balance credited",
		zap.String("user_id", userID),
		zap.String("amount", amount.String()),
		zap.String("new_balance", balance.String()))
	return balance, nil
}

// Balance reads the current balance.
func (s *BalanceService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return decimal.Zero, err
	}
	return user.Balance, nil
}
