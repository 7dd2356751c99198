package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/persistence"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// SessionService is the session ledger: it owns the entry/exit/cancel
// lifecycle of parking transactions.
type SessionService struct {
	transactions repository.TransactionRepository
	vehicles     repository.VehicleRepository
	merchants    repository.MerchantRepository
	spots        *SpotService
	locker       *persistence.Locker
	dispatcher   events.Dispatcher
	entryLockTTL time.Duration
	logger       *zap.Logger
}

// SessionDependencies bundles requirements for the session ledger.
type SessionDependencies struct {
	TransactionRepo repository.TransactionRepository
	VehicleRepo     repository.VehicleRepository
	MerchantRepo    repository.MerchantRepository
	Spots           *SpotService
	Locker          *persistence.Locker
	Dispatcher      events.Dispatcher
	EntryLockTTL    time.Duration
	Logger          *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	return &SessionService{
		transactions: deps.TransactionRepo,
		vehicles:     deps.VehicleRepo,
		merchants:    deps.MerchantRepo,
		spots:        deps.Spots,
		locker:       deps.Locker,
		dispatcher:   deps.Dispatcher,
		entryLockTTL: deps.EntryLockTTL,
		logger:       deps.Logger,
	}
}

// EnterInput describes an entry request.
type EnterInput struct {
	LicensePlate string
	MerchantCode string
	SpotNumber   *string
	SpotType     *domain.SpotType
	Floor        *string
}

// Enter allocates a spot and opens a session for the vehicle. Concurrent
// entries for one plate are serialized by a keyed lock; the partial unique
// index on (vehicle_id, ACTIVE) is the storage-level backstop either way.
func (s *SessionService) Enter(ctx context.Context, input EnterInput) (*domain.ParkingTransaction, error) {
	vehicle, err := s.vehicles.GetByPlate(ctx, input.LicensePlate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"license_plate": input.LicensePlate})
		}
		return nil, err
	}
	merchant, err := s.merchants.GetByCode(ctx, input.MerchantCode)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("merchant", map[string]any{"merchant_code": input.MerchantCode})
		}
		return nil, err
	}
	if !merchant.Active {
		return nil, apperrors.NewConflict("merchant inactive", map[string]any{"merchant_code": merchant.Code})
	}

	release, acquired := s.locker.TryAcquire(ctx, "entry:lock:"+vehicle.LicensePlate, s.entryLockTTL)
	if !acquired {
		return nil, apperrors.NewConflict("entry already in progress for this vehicle", nil)
	}
	defer release()

	if _, err := s.transactions.GetActiveByVehicle(ctx, vehicle.ID); err == nil {
		return nil, apperrors.NewConflict("vehicle already has an active session", map[string]any{
			"license_plate": vehicle.LicensePlate,
		})
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	var spot *domain.ParkingSpot
	if input.SpotNumber != nil {
		spot, err = s.spots.RequireSpecific(ctx, merchant.ID, *input.SpotNumber)
	} else {
		spot, err = s.spots.FindAvailable(ctx, merchant.ID, input.SpotType, input.Floor)
	}
	if err != nil {
		return nil, err
	}

	if err := s.spots.Occupy(ctx, nil, spot.ID); err != nil {
		return nil, err
	}

	spotID := spot.ID
	txn := &domain.ParkingTransaction{
		VehicleID:     vehicle.ID,
		SpotID:        &spotID,
		EntryTime:     time.Now(),
		ParkingStatus: domain.ParkingStatusActive,
		PaymentStatus: domain.PaymentStatusPending,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		// The spot was already occupied for this session; put it back.
		if relErr := s.spots.Release(ctx, nil, spot.ID); relErr != nil {
			s.logger.Error("failed to release spot after open failure",
				zap.String("spot_id", spot.ID), zap.Error(relErr))
		}
		if err == repository.ErrDuplicateActive {
			return nil, apperrors.NewConflict("vehicle already has an active session", map[string]any{
				"license_plate": vehicle.LicensePlate,
			})
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.EventSessionOpened,
		TransactionID: txn.ID,
		Payload: events.SessionOpenedPayload{
			VehicleID:    vehicle.ID,
			LicensePlate: vehicle.LicensePlate,
			SpotID:       spot.ID,
			SpotNumber:   spot.SpotNumber,
			MerchantCode: merchant.Code,
			EntryTime:    txn.EntryTime,
		},
	})
	return txn, nil
}

// AuthorizePlate checks that the plate's vehicle belongs to the given user.
func (s *SessionService) AuthorizePlate(ctx context.Context, plate, userID string) error {
	vehicle, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("vehicle", map[string]any{"license_plate": plate})
		}
		return err
	}
	if vehicle.OwnerUserID != userID {
		return apperrors.NewForbidden("vehicle belongs to another user")
	}
	return nil
}

// Get fetches one transaction.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.ParkingTransaction, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("transaction", map[string]any{"transaction_id": id})
		}
		return nil, err
	}
	return txn, nil
}

// ActiveByPlate returns the vehicle's ACTIVE session, or nil when it has none.
func (s *SessionService) ActiveByPlate(ctx context.Context, plate string) (*domain.ParkingTransaction, error) {
	vehicle, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"license_plate": plate})
		}
		return nil, err
	}
	txn, err := s.transactions.GetActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return txn, nil
}

// HistoryByPlate lists the vehicle's past (non-ACTIVE) sessions.
func (s *SessionService) HistoryByPlate(ctx context.Context, plate string, limit, offset int) ([]domain.ParkingTransaction, error) {
	vehicle, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"license_plate": plate})
		}
		return nil, err
	}
	return s.transactions.ListWithFilter(ctx, repository.TransactionFilter{
		VehicleID:     &vehicle.ID,
		ExcludeActive: true,
		Limit:         limit,
		Offset:        offset,
	})
}

// Cancel aborts an ACTIVE session and frees its spot. COMPLETED sessions are
// immutable; an already-CANCELLED session is a conflict.
func (s *SessionService) Cancel(ctx context.Context, id, reason string) (*domain.ParkingTransaction, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch txn.ParkingStatus {
	case domain.ParkingStatusCompleted:
		return nil, apperrors.NewStateError("completed transaction cannot be cancelled", map[string]any{"transaction_id": id})
	case domain.ParkingStatusCancelled:
		return nil, apperrors.NewConflict("transaction already cancelled", map[string]any{"transaction_id": id})
	}

	changed, err := s.transactions.CancelIfActive(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperrors.NewConflict("transaction no longer active", map[string]any{"transaction_id": id})
	}

	if txn.SpotID != nil {
		if err := s.spots.Release(ctx, nil, *txn.SpotID); err != nil {
			s.logger.Error("failed to release spot on cancel",
				zap.String("transaction_id", id), zap.String("spot_id", *txn.SpotID), zap.Error(err))
		}
	}

	txn.ParkingStatus = domain.ParkingStatusCancelled
	payload := events.SessionCancelledPayload{
		VehicleID: txn.VehicleID,
		SpotID:    txn.SpotID,
		Reason:    reason,
	}
	if s.dispatcher != nil && txn.SpotID != nil {
		// Name the lot in the audit event; best effort, the cancel already
		// happened.
		if spot, err := s.spots.Get(ctx, *txn.SpotID); err == nil {
			payload.SpotNumber = spot.SpotNumber
			if merchant, err := s.merchants.GetByID(ctx, spot.MerchantID); err == nil {
				payload.MerchantCode = merchant.Code
			}
		}
	}
	s.publish(ctx, events.Event{
		Type:          events.EventSessionCancelled,
		TransactionID: txn.ID,
		Payload:       payload,
	})
	return txn, nil
}

// OverridePaymentStatus is the operator escape hatch for stuck settlements.
func (s *SessionService) OverridePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.ParkingTransaction, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.transactions.SetPaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.logger.Info("payment status overridden",
		zap.String("transaction_id", id), zap.String("payment_status", string(status)))
	return s.Get(ctx, id)
}

// ListForAdmin returns transactions filtered by merchant and statuses.
func (s *SessionService) ListForAdmin(ctx context.Context, merchantCode *string, parkingStatus *domain.ParkingStatus, paymentStatus *domain.PaymentStatus, limit, offset int) ([]domain.ParkingTransaction, error) {
	filter := repository.TransactionFilter{
		ParkingStatus: parkingStatus,
		PaymentStatus: paymentStatus,
		Limit:         limit,
		Offset:        offset,
	}
	if merchantCode != nil {
		merchant, err := s.merchants.GetByCode(ctx, *merchantCode)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewNotFound("merchant", map[string]any{"merchant_code": *merchantCode})
			}
			return nil, err
		}
		filter.MerchantID = &merchant.ID
	}
	return s.transactions.ListWithFilter(ctx, filter)
}

func (s *SessionService) publish(ctx context.Context, event events.Event) {
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
