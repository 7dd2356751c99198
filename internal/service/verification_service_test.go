package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/mocks"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

func newVerificationService(codes *mocks.VerificationCodeRepository, txns *mocks.TransactionRepository, users *mocks.UserRepository) *VerificationService {
	return NewVerificationService(VerificationDependencies{
		CodeRepo:        codes,
		TransactionRepo: txns,
		UserRepo:        users,
		PaymentCodeTTL:  24 * time.Hour,
		AccountCodeTTL:  5 * time.Minute,
		CodeLength:      6,
		Logger:          zap.NewNop(),
	})
}

func activeTxn(id string) *domain.ParkingTransaction {
	return &domain.ParkingTransaction{
		ID:            id,
		VehicleID:     "veh-1",
		EntryTime:     time.Now().Add(-time.Hour),
		ParkingStatus: domain.ParkingStatusActive,
		PaymentStatus: domain.PaymentStatusPending,
	}
}

func TestIssuePaymentCode(t *testing.T) {
	var created *domain.VerificationCode
	codes := &mocks.VerificationCodeRepository{
		CreateFn: func(_ context.Context, vc *domain.VerificationCode) error {
			vc.ID = "code-1"
			created = vc
			return nil
		},
	}
	txns := &mocks.TransactionRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.ParkingTransaction, error) {
			return activeTxn(id), nil
		},
	}
	users := &mocks.UserRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "driver@example.com", Status: domain.UserStatusActive}, nil
		},
	}

	svc := newVerificationService(codes, txns, users)
	before := time.Now()
	vc, err := svc.Issue(context.Background(), "user-1", "txn-1")
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Len(t, vc.Code, 6)
	for _, r := range vc.Code {
		assert.True(t, r >= '0' && r <= '9')
	}
	require.NotNil(t, vc.TransactionID)
	assert.Equal(t, "txn-1", *vc.TransactionID)
	assert.WithinDuration(t, before.Add(24*time.Hour), vc.ExpiresAt, 5*time.Second)
}

func TestIssueRejectsInactiveTransaction(t *testing.T) {
	txns := &mocks.TransactionRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.ParkingTransaction, error) {
			txn := activeTxn(id)
			txn.ParkingStatus = domain.ParkingStatusCompleted
			return txn, nil
		},
	}
	users := &mocks.UserRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Status: domain.UserStatusActive}, nil
		},
	}

	svc := newVerificationService(&mocks.VerificationCodeRepository{}, txns, users)
	_, err := svc.Issue(context.Background(), "user-1", "txn-1")
	assert.True(t, apperrors.HasCode(err, "STATE_ERROR"))
}

func TestIssueAccountCodeUsesShortWindow(t *testing.T) {
	codes := &mocks.VerificationCodeRepository{
		CreateFn: func(_ context.Context, vc *domain.VerificationCode) error {
			vc.ID = "code-1"
			return nil
		},
	}
	users := &mocks.UserRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "driver@example.com", Status: domain.UserStatusActive}, nil
		},
	}

	svc := newVerificationService(codes, &mocks.TransactionRepository{}, users)
	before := time.Now()
	vc, err := svc.IssueAccountCode(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Nil(t, vc.TransactionID)
	assert.WithinDuration(t, before.Add(5*time.Minute), vc.ExpiresAt, 5*time.Second)
}

func TestValidateUnknownCode(t *testing.T) {
	codes := &mocks.VerificationCodeRepository{
		LatestUnverifiedFn: func(_ context.Context, _, _ string) (*domain.VerificationCode, error) {
			return nil, pgx.ErrNoRows
		},
	}

	svc := newVerificationService(codes, &mocks.TransactionRepository{}, &mocks.UserRepository{})
	err := svc.Validate(context.Background(), "user-1", "123456", "txn-1")
	assert.True(t, apperrors.HasCode(err, "INVALID_CODE"))
}

func TestValidateExpiredCode(t *testing.T) {
	txnID := "txn-1"
	codes := &mocks.VerificationCodeRepository{
		LatestUnverifiedFn: func(_ context.Context, userID, code string) (*domain.VerificationCode, error) {
			return &domain.VerificationCode{
				ID: "code-1", UserID: userID, Code: code,
				TransactionID: &txnID,
				ExpiresAt:     time.Now().Add(-time.Minute),
			}, nil
		},
	}

	svc := newVerificationService(codes, &mocks.TransactionRepository{}, &mocks.UserRepository{})
	err := svc.Validate(context.Background(), "user-1", "123456", txnID)
	assert.True(t, apperrors.HasCode(err, "CODE_EXPIRED"))
}

func TestValidateTransactionMismatch(t *testing.T) {
	otherTxn := "txn-other"
	codes := &mocks.VerificationCodeRepository{
		LatestUnverifiedFn: func(_ context.Context, userID, code string) (*domain.VerificationCode, error) {
			return &domain.VerificationCode{
				ID: "code-1", UserID: userID, Code: code,
				TransactionID: &otherTxn,
				ExpiresAt:     time.Now().Add(time.Hour),
			}, nil
		},
	}

	svc := newVerificationService(codes, &mocks.TransactionRepository{}, &mocks.UserRepository{})
	err := svc.Validate(context.Background(), "user-1", "123456", "txn-1")
	assert.True(t, apperrors.HasCode(err, "CODE_TRANSACTION_MISMATCH"))
}

func TestValidateConsumesCodeOnce(t *testing.T) {
	txnID := "txn-1"
	consumed := map[string]bool{}
	codes := &mocks.VerificationCodeRepository{
		LatestUnverifiedFn: func(_ context.Context, userID, code string) (*domain.VerificationCode, error) {
			if consumed["code-1"] {
				return nil, pgx.ErrNoRows
			}
			return &domain.VerificationCode{
				ID: "code-1", UserID: userID, Code: code,
				TransactionID: &txnID,
				ExpiresAt:     time.Now().Add(time.Hour),
			}, nil
		},
		MarkVerifiedFn: func(_ context.Context, id string) (bool, error) {
			if consumed[id] {
				return false, nil
			}
			consumed[id] = true
			return true, nil
		},
	}

	svc := newVerificationService(codes, &mocks.TransactionRepository{}, &mocks.UserRepository{})
	require.NoError(t, svc.Validate(context.Background(), "user-1", "123456", txnID))

	err := svc.Validate(context.Background(), "user-1", "123456", txnID)
	assert.True(t, apperrors.HasCode(err, "INVALID_CODE"))
}

func TestValidateConcurrentLoserRejected(t *testing.T) {
	txnID := "txn-1"
	codes := &mocks.VerificationCodeRepository{
		LatestUnverifiedFn: func(_ context.Context, userID, code string) (*domain.VerificationCode, error) {
			return &domain.VerificationCode{
				ID: "code-1", UserID: userID, Code: code,
				TransactionID: &txnID,
				ExpiresAt:     time.Now().Add(time.Hour),
			}, nil
		},
		MarkVerifiedFn: func(_ context.Context, _ string) (bool, error) {
			return false, nil
		},
	}

	svc := newVerificationService(codes, &mocks.TransactionRepository{}, &mocks.UserRepository{})
	err := svc.Validate(context.Background(), "user-1", "123456", txnID)
	assert.True(t, apperrors.HasCode(err, "INVALID_CODE"))
}
