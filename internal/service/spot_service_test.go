package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/mocks"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

func TestFindAvailableNoSpots(t *testing.T) {
	spots := &mocks.SpotRepository{
		FindFirstAvailableFn: func(_ context.Context, _ repository.SpotFilter) (*domain.ParkingSpot, error) {
			return nil, pgx.ErrNoRows
		},
	}
	svc := NewSpotService(spots, &mocks.MerchantRepository{}, zap.NewNop())

	_, err := svc.FindAvailable(context.Background(), "mer-1", nil, nil)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestOccupyLostRace(t *testing.T) {
	spots := &mocks.SpotRepository{
		UpdateStatusIfFn: func(_ context.Context, _ pgx.Tx, _ string, _, _ domain.SpotStatus) (bool, error) {
			return false, nil
		},
	}
	svc := NewSpotService(spots, &mocks.MerchantRepository{}, zap.NewNop())

	err := svc.Occupy(context.Background(), nil, "spot-1")
	assert.True(t, apperrors.HasCode(err, "STATE_ERROR"))
}

func TestReleaseOnFreeSpotIsNotAnError(t *testing.T) {
	spots := &mocks.SpotRepository{
		UpdateStatusIfFn: func(_ context.Context, _ pgx.Tx, _ string, _, _ domain.SpotStatus) (bool, error) {
			return false, nil
		},
	}
	svc := NewSpotService(spots, &mocks.MerchantRepository{}, zap.NewNop())

	assert.NoError(t, svc.Release(context.Background(), nil, "spot-1"))
}

func TestSetStatusRejectsDirectOccupied(t *testing.T) {
	svc := NewSpotService(&mocks.SpotRepository{}, &mocks.MerchantRepository{}, zap.NewNop())

	_, err := svc.SetStatus(context.Background(), "spot-1", domain.SpotStatusOccupied)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestSetStatusProtectsHeldSpot(t *testing.T) {
	spots := &mocks.SpotRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.ParkingSpot, error) {
			return &domain.ParkingSpot{ID: id, Status: domain.SpotStatusOccupied}, nil
		},
	}
	svc := NewSpotService(spots, &mocks.MerchantRepository{}, zap.NewNop())

	_, err := svc.SetStatus(context.Background(), "spot-1", domain.SpotStatusMaintenance)
	assert.True(t, apperrors.HasCode(err, "STATE_ERROR"))
}

func TestSetStatusMaintenance(t *testing.T) {
	spots := &mocks.SpotRepository{
		GetByIDFn: func(_ context.Context, id string) (*domain.ParkingSpot, error) {
			return &domain.ParkingSpot{ID: id, Status: domain.SpotStatusAvailable}, nil
		},
		SetStatusFn: func(_ context.Context, _ string, status domain.SpotStatus) error {
			assert.Equal(t, domain.SpotStatusMaintenance, status)
			return nil
		},
	}
	svc := NewSpotService(spots, &mocks.MerchantRepository{}, zap.NewNop())

	spot, err := svc.SetStatus(context.Background(), "spot-1", domain.SpotStatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotStatusMaintenance, spot.Status)
}

func TestListByMerchantCodeUnknownMerchant(t *testing.T) {
	merchants := &mocks.MerchantRepository{
		GetByCodeFn: func(_ context.Context, _ string) (*domain.Merchant, error) {
			return nil, pgx.ErrNoRows
		},
	}
	svc := NewSpotService(&mocks.SpotRepository{}, merchants, zap.NewNop())

	_, err := svc.ListByMerchantCode(context.Background(), "NOPE", nil)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}
