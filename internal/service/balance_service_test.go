package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/mocks"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	touched := false
	users := &mocks.UserRepository{
		DebitBalanceFn: func(_ context.Context, _ pgx.Tx, _ string, _ decimal.Decimal) (decimal.Decimal, error) {
			touched = true
			return decimal.Zero, nil
		},
	}
	svc := NewBalanceService(users, zap.NewNop())

	_, err := svc.Debit(context.Background(), nil, "user-1", decimal.Zero)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
	_, err = svc.Debit(context.Background(), nil, "user-1", decimal.NewFromInt(-100))
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
	assert.False(t, touched)
}

func TestDebitClassifiesRepositoryErrors(t *testing.T) {
	cases := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"insufficient funds", repository.ErrInsufficientFunds, "INSUFFICIENT_FUNDS"},
		{"suspended account", repository.ErrAccountNotActive, "ACCOUNT_NOT_ACTIVE"},
		{"unknown user", pgx.ErrNoRows, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &mocks.UserRepository{
				DebitBalanceFn: func(_ context.Context, _ pgx.Tx, _ string, _ decimal.Decimal) (decimal.Decimal, error) {
					return decimal.Zero, tc.repoErr
				},
			}
			svc := NewBalanceService(users, zap.NewNop())
			_, err := svc.Debit(context.Background(), nil, "user-1", decimal.NewFromInt(5000))
			assert.True(t, apperrors.HasCode(err, tc.wantCode))
		})
	}
}

func TestDebitReturnsNewBalance(t *testing.T) {
	users := &mocks.UserRepository{
		DebitBalanceFn: func(_ context.Context, _ pgx.Tx, id string, amount decimal.Decimal) (decimal.Decimal, error) {
			assert.Equal(t, "user-1", id)
			assert.True(t, decimal.NewFromInt(10000).Equal(amount))
			return decimal.NewFromInt(10000), nil
		},
	}
	svc := NewBalanceService(users, zap.NewNop())

	balance, err := svc.Debit(context.Background(), nil, "user-1", decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(balance))
}

func TestCreditUnknownUser(t *testing.T) {
	users := &mocks.UserRepository{
		CreditBalanceFn: func(_ context.Context, _ string, _ decimal.Decimal) (decimal.Decimal, error) {
			return decimal.Zero, pgx.ErrNoRows
		},
	}
	svc := NewBalanceService(users, zap.NewNop())

	_, err := svc.Credit(context.Background(), "missing", decimal.NewFromInt(1000))
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestBalanceReadsStoredValue(t *testing.T) {
	users := &mocks.UserRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Balance: decimal.NewFromInt(20000)}, nil
		},
	}
	svc := NewBalanceService(users, zap.NewNop())

	balance, err := svc.Balance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20000).Equal(balance))
}
