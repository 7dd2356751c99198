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
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/mocks"
	"github.com/spec-kit/parking-service/internal/persistence"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

type sessionFixture struct {
	vehicles  *mocks.VehicleRepository
	merchants *mocks.MerchantRepository
	spots     *mocks.SpotRepository
	txns      *mocks.TransactionRepository
	svc       *SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		vehicles:  &mocks.VehicleRepository{},
		merchants: &mocks.MerchantRepository{},
		spots:     &mocks.SpotRepository{},
		txns:      &mocks.TransactionRepository{},
	}
	logger := zap.NewNop()
	spotService := NewSpotService(f.spots, f.merchants, logger)
	f.svc = NewSessionService(SessionDependencies{
		TransactionRepo: f.txns,
		VehicleRepo:     f.vehicles,
		MerchantRepo:    f.merchants,
		Spots:           spotService,
		Locker:          persistence.NewLocker(nil, logger),
		EntryLockTTL:    10 * time.Second,
		Logger:          logger,
	})
	return f
}

func (f *sessionFixture) withVehicle() {
	f.vehicles.GetByPlateFn = func(_ context.Context, plate string) (*domain.Vehicle, error) {
		return &domain.Vehicle{ID: "veh-1", LicensePlate: plate, Type: domain.VehicleTypeCar, OwnerUserID: "user-1"}, nil
	}
}

func (f *sessionFixture) withMerchant(active bool) {
	f.merchants.GetByCodeFn = func(_ context.Context, code string) (*domain.Merchant, error) {
		return &domain.Merchant{ID: "mer-1", Code: code, Active: active}, nil
	}
}

func (f *sessionFixture) withNoActiveSession() {
	f.txns.GetActiveByVehicleFn = func(_ context.Context, _ string) (*domain.ParkingTransaction, error) {
		return nil, pgx.ErrNoRows
	}
}

func availableSpot() *domain.ParkingSpot {
	return &domain.ParkingSpot{
		ID:         "spot-1",
		MerchantID: "mer-1",
		SpotNumber: "A-01",
		Type:       domain.SpotTypeRegular,
		Status:     domain.SpotStatusAvailable,
	}
}

func TestEnterAllocatesFirstAvailableSpot(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()
	f.withMerchant(true)
	f.withNoActiveSession()

	f.spots.FindFirstAvailableFn = func(_ context.Context, filter repository.SpotFilter) (*domain.ParkingSpot, error) {
		assert.Equal(t, "mer-1", filter.MerchantID)
		return availableSpot(), nil
	}
	f.spots.UpdateStatusIfFn = func(_ context.Context, _ pgx.Tx, id string, from, to domain.SpotStatus) (bool, error) {
		assert.Equal(t, "spot-1", id)
		assert.Equal(t, domain.SpotStatusAvailable, from)
		assert.Equal(t, domain.SpotStatusOccupied, to)
		return true, nil
	}
	f.txns.CreateFn = func(_ context.Context, txn *domain.ParkingTransaction) error {
		txn.ID = "txn-1"
		return nil
	}

	txn, err := f.svc.Enter(context.Background(), EnterInput{LicensePlate: "B1234XYZ", MerchantCode: "MALL-A"})
	require.NoError(t, err)

	assert.Equal(t, "txn-1", txn.ID)
	require.NotNil(t, txn.SpotID)
	assert.Equal(t, "spot-1", *txn.SpotID)
	assert.Equal(t, domain.ParkingStatusActive, txn.ParkingStatus)
	assert.Equal(t, domain.PaymentStatusPending, txn.PaymentStatus)
	assert.Nil(t, txn.ExitTime)
	assert.Nil(t, txn.TotalCost)
}

func TestEnterRequestedSpotMustBeAvailable(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()
	f.withMerchant(true)
	f.withNoActiveSession()

	f.spots.GetByNumberFn = func(_ context.Context, _, spotNumber string) (*domain.ParkingSpot, error) {
		spot := availableSpot()
		spot.SpotNumber = spotNumber
		spot.Status = domain.SpotStatusMaintenance
		return spot, nil
	}

	spotNumber := "A-01"
	_, err := f.svc.Enter(context.Background(), EnterInput{
		LicensePlate: "B1234XYZ", MerchantCode: "MALL-A", SpotNumber: &spotNumber,
	})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestEnterRejectsSecondActiveSession(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()
	f.withMerchant(true)
	f.txns.GetActiveByVehicleFn = func(_ context.Context, _ string) (*domain.ParkingTransaction, error) {
		return &domain.ParkingTransaction{ID: "txn-open", ParkingStatus: domain.ParkingStatusActive}, nil
	}

	_, err := f.svc.Enter(context.Background(), EnterInput{LicensePlate: "B1234XYZ", MerchantCode: "MALL-A"})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestEnterRejectsInactiveMerchant(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()
	f.withMerchant(false)

	_, err := f.svc.Enter(context.Background(), EnterInput{LicensePlate: "B1234XYZ", MerchantCode: "MALL-A"})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestEnterDuplicateActiveRaceReleasesSpot(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()
	f.withMerchant(true)
	f.withNoActiveSession()

	f.spots.FindFirstAvailableFn = func(_ context.Context, _ repository.SpotFilter) (*domain.ParkingSpot, error) {
		return availableSpot(), nil
	}
	var transitions []domain.SpotStatus
	f.spots.UpdateStatusIfFn = func(_ context.Context, _ pgx.Tx, _ string, _, to domain.SpotStatus) (bool, error) {
		transitions = append(transitions, to)
		return true, nil
	}
	f.txns.CreateFn = func(_ context.Context, _ *domain.ParkingTransaction) error {
		return repository.ErrDuplicateActive
	}

	_, err := f.svc.Enter(context.Background(), EnterInput{LicensePlate: "B1234XYZ", MerchantCode: "MALL-A"})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
	assert.Equal(t, []domain.SpotStatus{domain.SpotStatusOccupied, domain.SpotStatusAvailable}, transitions)
}

func TestEnterUnknownVehicle(t *testing.T) {
	f := newSessionFixture()
	f.vehicles.GetByPlateFn = func(_ context.Context, _ string) (*domain.Vehicle, error) {
		return nil, pgx.ErrNoRows
	}

	_, err := f.svc.Enter(context.Background(), EnterInput{LicensePlate: "ZZ999", MerchantCode: "MALL-A"})
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestCancelActiveSessionFreesSpot(t *testing.T) {
	f := newSessionFixture()
	spotID := "spot-1"
	f.txns.GetByIDFn = func(_ context.Context, id string) (*domain.ParkingTransaction, error) {
		return &domain.ParkingTransaction{
			ID: id, VehicleID: "veh-1", SpotID: &spotID,
			ParkingStatus: domain.ParkingStatusActive,
			PaymentStatus: domain.PaymentStatusPending,
		}, nil
	}
	cancelled := false
	f.txns.CancelIfActiveFn = func(_ context.Context, _ pgx.Tx, _ string) (bool, error) {
		cancelled = true
		return true, nil
	}
	released := false
	f.spots.UpdateStatusIfFn = func(_ context.Context, _ pgx.Tx, id string, from, to domain.SpotStatus) (bool, error) {
		released = true
		assert.Equal(t, spotID, id)
		assert.Equal(t, domain.SpotStatusOccupied, from)
		assert.Equal(t, domain.SpotStatusAvailable, to)
		return true, nil
	}

	txn, err := f.svc.Cancel(context.Background(), "txn-1", "operator request")
	require.NoError(t, err)

	assert.True(t, cancelled)
	assert.True(t, released)
	assert.Equal(t, domain.ParkingStatusCancelled, txn.ParkingStatus)
}

type capturingDispatcher struct {
	published []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func TestCancelEventNamesMerchantAndSpot(t *testing.T) {
	f := newSessionFixture()
	dispatcher := &capturingDispatcher{}
	f.svc.dispatcher = dispatcher

	spotID := "spot-1"
	f.txns.GetByIDFn = func(_ context.Context, id string) (*domain.ParkingTransaction, error) {
		return &domain.ParkingTransaction{
			ID: id, VehicleID: "veh-1", SpotID: &spotID,
			ParkingStatus: domain.ParkingStatusActive,
		}, nil
	}
	f.txns.CancelIfActiveFn = func(_ context.Context, _ pgx.Tx, _ string) (bool, error) { return true, nil }
	f.spots.UpdateStatusIfFn = func(_ context.Context, _ pgx.Tx, _ string, _, _ domain.SpotStatus) (bool, error) {
		return true, nil
	}
	f.spots.GetByIDFn = func(_ context.Context, id string) (*domain.ParkingSpot, error) {
		return &domain.ParkingSpot{ID: id, MerchantID: "mer-1", SpotNumber: "A-01", Status: domain.SpotStatusAvailable}, nil
	}
	f.merchants.GetByIDFn = func(_ context.Context, id string) (*domain.Merchant, error) {
		return &domain.Merchant{ID: id, Code: "MALL-A", Active: true}, nil
	}

	_, err := f.svc.Cancel(context.Background(), "txn-1", "operator request")
	require.NoError(t, err)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventSessionCancelled, dispatcher.published[0].Type)
	payload, ok := dispatcher.published[0].Payload.(events.SessionCancelledPayload)
	require.True(t, ok)
	assert.Equal(t, "MALL-A", payload.MerchantCode)
	assert.Equal(t, "A-01", payload.SpotNumber)
	assert.Equal(t, "operator request", payload.Reason)
}

func TestCancelCompletedSessionRejected(t *testing.T) {
	f := newSessionFixture()
	f.txns.GetByIDFn = func(_ context.Context, id string) (*domain.ParkingTransaction, error) {
		return &domain.ParkingTransaction{ID: id, ParkingStatus: domain.ParkingStatusCompleted}, nil
	}

	_, err := f.svc.Cancel(context.Background(), "txn-1", "operator request")
	assert.True(t, apperrors.HasCode(err, "STATE_ERROR"))
}

func TestCancelTwiceRejected(t *testing.T) {
	f := newSessionFixture()
	f.txns.GetByIDFn = func(_ context.Context, id string) (*domain.ParkingTransaction, error) {
		return &domain.ParkingTransaction{ID: id, ParkingStatus: domain.ParkingStatusCancelled}, nil
	}

	_, err := f.svc.Cancel(context.Background(), "txn-1", "operator request")
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestActiveByPlateNoSession(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()
	f.withNoActiveSession()

	txn, err := f.svc.ActiveByPlate(context.Background(), "B1234XYZ")
	require.NoError(t, err)
	assert.Nil(t, txn)
}

func TestHistoryExcludesActiveSession(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()
	f.txns.ListWithFilterFn = func(_ context.Context, filter repository.TransactionFilter) ([]domain.ParkingTransaction, error) {
		require.NotNil(t, filter.VehicleID)
		assert.Equal(t, "veh-1", *filter.VehicleID)
		// The open session is filtered in SQL so pages keep their full size.
		assert.True(t, filter.ExcludeActive)
		assert.Equal(t, 50, filter.Limit)
		return []domain.ParkingTransaction{
			{ID: "txn-1", ParkingStatus: domain.ParkingStatusCompleted},
			{ID: "txn-3", ParkingStatus: domain.ParkingStatusCancelled},
		}, nil
	}

	history, err := f.svc.HistoryByPlate(context.Background(), "B1234XYZ", 50, 0)
	require.NoError(t, err)

	require.Len(t, history, 2)
	assert.Equal(t, "txn-1", history[0].ID)
	assert.Equal(t, "txn-3", history[1].ID)
}

func TestAuthorizePlateRejectsForeignVehicle(t *testing.T) {
	f := newSessionFixture()
	f.withVehicle()

	assert.NoError(t, f.svc.AuthorizePlate(context.Background(), "B1234XYZ", "user-1"))
	err := f.svc.AuthorizePlate(context.Background(), "B1234XYZ", "user-2")
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
}
