package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// VerificationService issues and validates one-time payment codes. Payment
// codes and account-verification codes carry independent expiry policies;
// validation always checks the expiry stamped at issuance.
type VerificationService struct {
	codes        repository.VerificationCodeRepository
	transactions repository.TransactionRepository
	users        repository.UserRepository
	dispatcher   events.Dispatcher
	paymentTTL   time.Duration
	accountTTL   time.Duration
	codeLength   int
	logger       *zap.Logger
}

// VerificationDependencies bundles requirements for the code issuer.
type VerificationDependencies struct {
	CodeRepo        repository.VerificationCodeRepository
	TransactionRepo repository.TransactionRepository
	UserRepo        repository.UserRepository
	Dispatcher      events.Dispatcher
	PaymentCodeTTL  time.Duration
	AccountCodeTTL  time.Duration
	CodeLength      int
	Logger          *zap.Logger
}

// NewVerificationService constructs the service.
func NewVerificationService(deps VerificationDependencies) *VerificationService {
	length := deps.CodeLength
	if length <= 0 {
		length = 6
	}
	return &VerificationService{
		codes:        deps.CodeRepo,
		transactions: deps.TransactionRepo,
		users:        deps.UserRepo,
		dispatcher:   deps.Dispatcher,
		paymentTTL:   deps.PaymentCodeTTL,
		accountTTL:   deps.AccountCodeTTL,
		codeLength:   length,
		logger:       deps.Logger,
	}
}

// Issue creates a payment code bound to an ACTIVE transaction and hands it
// to the notification collaborator for out-of-band delivery.
func (s *VerificationService) Issue(ctx context.Context, userID, transactionID string) (*domain.VerificationCode, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, err
	}
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("transaction", map[string]any{"transaction_id": transactionID})
		}
		return nil, err
	}
	if txn.ParkingStatus != domain.ParkingStatusActive {
		return nil, apperrors.NewStateError("transaction is not active", map[string]any{
			"transaction_id": transactionID,
			"parking_status": txn.ParkingStatus,
		})
	}

	code, err := generateNumericCode(s.codeLength)
	if err != nil {
		return nil, err
	}
	vc := &domain.VerificationCode{
		UserID:        user.ID,
		Code:          code,
		TransactionID: &txn.ID,
		ExpiresAt:     time.Now().Add(s.paymentTTL),
	}
	if err := s.codes.Create(ctx, vc); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.EventCodeIssued,
		TransactionID: txn.ID,
		Payload: events.CodeIssuedPayload{
			UserID:         user.ID,
			RecipientEmail: user.Email,
			Code:           vc.Code,
			ExpiresAt:      vc.ExpiresAt,
		},
	})
	return vc, nil
}

// IssueAccountCode creates an account-verification code. It shares the
// storage and delivery path of payment codes but carries the short account
// staleness window and no transaction link.
func (s *VerificationService) IssueAccountCode(ctx context.Context, userID string) (*domain.VerificationCode, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, err
	}

	code, err := generateNumericCode(s.codeLength)
	if err != nil {
		return nil, err
	}
	vc := &domain.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.accountTTL),
	}
	if err := s.codes.Create(ctx, vc); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type: events.EventCodeIssued,
		Payload: events.CodeIssuedPayload{
			UserID:         user.ID,
			RecipientEmail: user.Email,
			Code:           vc.Code,
			ExpiresAt:      vc.ExpiresAt,
		},
	})
	return vc, nil
}

// Validate consumes the most recent unverified (user, code) pair for the
// given transaction. A consumed code never validates again.
func (s *VerificationService) Validate(ctx context.Context, userID, code, transactionID string) error {
	vc, err := s.codes.LatestUnverified(ctx, userID, code)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewInvalidCode()
		}
		return err
	}
	if vc.Expired(time.Now()) {
		return apperrors.NewCodeExpired()
	}
	if vc.TransactionID == nil || *vc.TransactionID != transactionID {
		return apperrors.NewCodeTransactionMismatch()
	}

	consumed, err := s.codes.MarkVerified(ctx, vc.ID)
	if err != nil {
		return err
	}
	if !consumed {
		// Lost a race with a concurrent validation of the same code.
		return apperrors.NewInvalidCode()
	}
	return nil
}

func (s *VerificationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateNumericCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
