package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/observability"
	"github.com/spec-kit/parking-service/internal/persistence"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// PaymentService sequences exit settlement: code validation, balance debit,
// session finalization and spot release. Debit through release run inside a
// single database transaction so money never moves without the session
// closing. Failures leave the session ACTIVE with payment status FAILED; the
// vehicle failed to pay, not to leave.
type PaymentService struct {
	vehicles     repository.VehicleRepository
	merchants    repository.MerchantRepository
	transactions repository.TransactionRepository
	users        repository.UserRepository
	spots        *SpotService
	verification *VerificationService
	balances     *BalanceService
	txm          repository.TxManager
	locker       *persistence.Locker
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	lockTTL      time.Duration
	logger       *zap.Logger
}

// PaymentDependencies bundles requirements for the orchestrator.
type PaymentDependencies struct {
	VehicleRepo     repository.VehicleRepository
	MerchantRepo    repository.MerchantRepository
	TransactionRepo repository.TransactionRepository
	UserRepo        repository.UserRepository
	Spots           *SpotService
	Verification    *VerificationService
	Balances        *BalanceService
	TxManager       repository.TxManager
	Locker          *persistence.Locker
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	PaymentLockTTL  time.Duration
	Logger          *zap.Logger
}

// NewPaymentService constructs the orchestrator.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		vehicles:     deps.VehicleRepo,
		merchants:    deps.MerchantRepo,
		transactions: deps.TransactionRepo,
		users:        deps.UserRepo,
		spots:        deps.Spots,
		verification: deps.Verification,
		balances:     deps.Balances,
		txm:          deps.TxManager,
		locker:       deps.Locker,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		lockTTL:      deps.PaymentLockTTL,
		logger:       deps.Logger,
	}
}

// ProcessExit settles the vehicle's active session with a verification code.
// On success the session becomes PAID/COMPLETED and the spot is released; on
// any payment failure the session stays ACTIVE with payment status FAILED
// and the spot stays OCCUPIED.
func (s *PaymentService) ProcessExit(ctx context.Context, plate, merchantCode, code string) (*domain.ParkingTransaction, error) {
	vehicle, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"license_plate": plate})
		}
		return nil, err
	}
	merchant, err := s.merchants.GetByCode(ctx, merchantCode)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("merchant", map[string]any{"merchant_code": merchantCode})
		}
		return nil, err
	}

	txn, err := s.transactions.GetActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("active transaction", map[string]any{"license_plate": plate})
		}
		return nil, err
	}
	if txn.SpotID == nil {
		return nil, apperrors.NewStateError("session has no spot attached", map[string]any{"transaction_id": txn.ID})
	}
	spot, err := s.spots.Get(ctx, *txn.SpotID)
	if err != nil {
		return nil, err
	}
	if spot.MerchantID != merchant.ID {
		return nil, apperrors.NewConflict("session does not belong to this merchant", map[string]any{
			"transaction_id": txn.ID,
			"merchant_code":  merchantCode,
		})
	}

	release, acquired := s.locker.TryAcquire(ctx, "payment:attempt:"+txn.ID, s.lockTTL)
	if !acquired {
		return nil, apperrors.NewConflict("payment already in progress for this transaction", nil)
	}
	defer release()

	exitTime := time.Now()
	cost := SessionCost(txn.EntryTime, exitTime, merchant.HourlyRate)

	if err := s.verification.Validate(ctx, vehicle.OwnerUserID, code, txn.ID); err != nil {
		s.failPayment(ctx, txn, vehicle, err)
		return nil, err
	}

	// A stay inside the free window owes nothing; there is no debit to make.
	charged := cost.IsPositive()

	var newBalance decimal.Decimal
	err = s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		if charged {
			balance, err := s.balances.Debit(ctx, tx, vehicle.OwnerUserID, cost)
			if err != nil {
				return err
			}
			newBalance = balance
		}
		if err := s.transactions.RecordExit(ctx, tx, txn.ID, exitTime, cost); err != nil {
			return err
		}
		if err := s.transactions.CompletePayment(ctx, tx, txn.ID); err != nil {
			return err
		}
		return s.spots.Release(ctx, tx, *txn.SpotID)
	})
	if err != nil {
		s.failPayment(ctx, txn, vehicle, err)
		return nil, err
	}

	s.metrics.RecordPaymentOutcome("paid")
	s.logger.Info("exit settled",
		zap.String("transaction_id", txn.ID),
		zap.String("license_plate", vehicle.LicensePlate),
		zap.String("cost", cost.String()))

	if owner, err := s.users.GetByID(ctx, vehicle.OwnerUserID); err == nil {
		if !charged {
			newBalance = owner.Balance
		}
		s.publish(ctx, events.Event{
			Type:          events.EventPaymentSucceeded,
			TransactionID: txn.ID,
			Payload: events.PaymentSucceededPayload{
				UserID:         owner.ID,
				RecipientEmail: owner.Email,
				LicensePlate:   vehicle.LicensePlate,
				Amount:         cost,
				NewBalance:     newBalance,
			},
		})
	} else {
		s.logger.Warn("owner lookup for confirmation failed",
			zap.String("user_id", vehicle.OwnerUserID), zap.Error(err))
	}

	return s.reload(ctx, txn)
}

// failPayment records the FAILED payment status and emits the failure event.
// The session stays ACTIVE and the spot stays OCCUPIED.
func (s *PaymentService) failPayment(ctx context.Context, txn *domain.ParkingTransaction, vehicle *domain.Vehicle, cause error) {
	if err := s.transactions.SetPaymentStatus(ctx, txn.ID, domain.PaymentStatusFailed); err != nil {
		s.logger.Error("failed to record FAILED payment status",
			zap.String("transaction_id", txn.ID), zap.Error(err))
	}

	reason := outcomeCode(cause)
	s.metrics.RecordPaymentOutcome(reason)
	s.logger.Warn("exit settlement failed",
		zap.String("transaction_id", txn.ID),
		zap.String("license_plate", vehicle.LicensePlate),
		zap.String("reason", reason))

	s.publish(ctx, events.Event{
		Type:          events.EventPaymentFailed,
		TransactionID: txn.ID,
		Payload: events.PaymentFailedPayload{
			UserID:       vehicle.OwnerUserID,
			LicensePlate: vehicle.LicensePlate,
			Reason:       reason,
			Status:       domain.PaymentStatusFailed,
		},
	})
}

func (s *PaymentService) reload(ctx context.Context, txn *domain.ParkingTransaction) (*domain.ParkingTransaction, error) {
	fresh, err := s.transactions.GetByID(ctx, txn.ID)
	if err != nil {
		// The settlement committed; surface the stale copy rather than an error.
		s.logger.Warn("reload after settlement failed", zap.String("transaction_id", txn.ID), zap.Error(err))
		return txn, nil
	}
	return fresh, nil
}

func (s *PaymentService) publish(ctx context.Context, event events.Event) {
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

func outcomeCode(err error) string {
	domainErr := apperrors.ToDomainError(err)
	if domainErr == nil {
		return "internal_error"
	}
	return strings.ToLower(domainErr.Code)
}
