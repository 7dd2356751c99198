package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/repository"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// SpotService is the spot allocator: it owns spot status transitions.
// AVAILABLE<->OCCUPIED moves happen only through Occupy/Release, driven by
// session open/close/cancel; operators manage MAINTENANCE and RESERVED.
type SpotService struct {
	spots     repository.SpotRepository
	merchants repository.MerchantRepository
	logger    *zap.Logger
}

// NewSpotService constructs the service.
func NewSpotService(spots repository.SpotRepository, merchants repository.MerchantRepository, logger *zap.Logger) *SpotService {
	return &SpotService{spots: spots, merchants: merchants, logger: logger}
}

// Get fetches a spot by id.
func (s *SpotService) Get(ctx context.Context, spotID string) (*domain.ParkingSpot, error) {
	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("spot", map[string]any{"spot_id": spotID})
		}
		return nil, err
	}
	return spot, nil
}

// FindAvailable returns the first AVAILABLE spot matching the optional type
// and floor filters, ordered by spot number.
func (s *SpotService) FindAvailable(ctx context.Context, merchantID string, spotType *domain.SpotType, floor *string) (*domain.ParkingSpot, error) {
	spot, err := s.spots.FindFirstAvailable(ctx, repository.SpotFilter{
		MerchantID: merchantID,
		Type:       spotType,
		Floor:      floor,
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("available spot", nil)
		}
		return nil, err
	}
	return spot, nil
}

// RequireSpecific looks up an explicitly requested spot number and requires
// it to be AVAILABLE.
func (s *SpotService) RequireSpecific(ctx context.Context, merchantID, spotNumber string) (*domain.ParkingSpot, error) {
	spot, err := s.spots.GetByNumber(ctx, merchantID, spotNumber)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("spot", map[string]any{"spot_number": spotNumber})
		}
		return nil, err
	}
	if spot.Status != domain.SpotStatusAvailable {
		return nil, apperrors.NewConflict("spot not available", map[string]any{
			"spot_number": spotNumber,
			"status":      spot.Status,
		})
	}
	return spot, nil
}

// Occupy transitions AVAILABLE -> OCCUPIED in a single guarded update.
func (s *SpotService) Occupy(ctx context.Context, tx pgx.Tx, spotID string) error {
	changed, err := s.spots.UpdateStatusIf(ctx, tx, spotID, domain.SpotStatusAvailable, domain.SpotStatusOccupied)
	if err != nil {
		return err
	}
	if !changed {
		return apperrors.NewStateError("spot is not available", map[string]any{"spot_id": spotID})
	}
	return nil
}

// Release transitions OCCUPIED -> AVAILABLE. Releasing a spot that is not
// OCCUPIED is a logged anomaly, never an error that aborts the caller.
func (s *SpotService) Release(ctx context.Context, tx pgx.Tx, spotID string) error {
	changed, err := s.spots.UpdateStatusIf(ctx, tx, spotID, domain.SpotStatusOccupied, domain.SpotStatusAvailable)
	if err != nil {
		return err
	}
	if !changed {
		s.logger.Warn("release on spot not in OCCUPIED", zap.String("spot_id", spotID))
	}
	return nil
}

// ListByMerchant returns spots for operator views.
func (s *SpotService) ListByMerchant(ctx context.Context, merchantID string, status *domain.SpotStatus) ([]domain.ParkingSpot, error) {
	return s.spots.List(ctx, repository.SpotFilter{MerchantID: merchantID, Status: status})
}

// ListByMerchantCode resolves a merchant code and lists its spots.
func (s *SpotService) ListByMerchantCode(ctx context.Context, merchantCode string, status *domain.SpotStatus) ([]domain.ParkingSpot, error) {
	merchant, err := s.merchants.GetByCode(ctx, merchantCode)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("merchant", map[string]any{"merchant_code": merchantCode})
		}
		return nil, err
	}
	return s.ListByMerchant(ctx, merchant.ID, status)
}

// SetStatus applies an operator status override. OCCUPIED cannot be set
// directly, and a spot currently OCCUPIED (an active session holds it) cannot
// be overridden out from under the session.
func (s *SpotService) SetStatus(ctx context.Context, spotID string, status domain.SpotStatus) (*domain.ParkingSpot, error) {
	if status == domain.SpotStatusOccupied {
		return nil, apperrors.NewValidationError("OCCUPIED is driven by sessions and cannot be set directly", nil)
	}
	spot, err := s.Get(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.Status == domain.SpotStatusOccupied {
		return nil, apperrors.NewStateError("spot is held by an active session", map[string]any{"spot_id": spotID})
	}
	if err := s.spots.SetStatus(ctx, spotID, status); err != nil {
		return nil, err
	}
	spot.Status = status
	return spot, nil
}
