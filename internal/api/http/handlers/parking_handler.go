package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// ParkingHandler manages end-user session endpoints.
type ParkingHandler struct {
	sessions *service.SessionService
	payments *service.PaymentService
}

// NewParkingHandler constructs handler.
func NewParkingHandler(sessions *service.SessionService, payments *service.PaymentService) *ParkingHandler {
	return &ParkingHandler{sessions: sessions, payments: payments}
}

// Entry POST /parking/entry.
func (h *ParkingHandler) Entry(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ParkingEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.LicensePlate == "" || req.MerchantCode == "" {
		return apperrors.NewValidationError("license_plate and merchant_code required", nil)
	}
	if err := h.authorizePlate(c, principal, req.LicensePlate); err != nil {
		return err
	}

	input := service.EnterInput{
		LicensePlate: req.LicensePlate,
		MerchantCode: req.MerchantCode,
		SpotNumber:   req.SpotNumber,
		Floor:        req.Floor,
	}
	if req.SpotType != nil {
		spotType, err := domain.ParseSpotType(*req.SpotType)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.SpotType = &spotType
	}

	txn, err := h.sessions.Enter(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": transactionResponse(txn)})
}

// Exit POST /parking/exit.
func (h *ParkingHandler) Exit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ParkingExitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.LicensePlate == "" || req.MerchantCode == "" || req.VerificationCode == "" {
		return apperrors.NewValidationError("license_plate, merchant_code, verification_code required", nil)
	}
	if err := h.authorizePlate(c, principal, req.LicensePlate); err != nil {
		return err
	}

	txn, err := h.payments.ProcessExit(c.Context(), req.LicensePlate, req.MerchantCode, req.VerificationCode)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transactionResponse(txn)})
}

// Active GET /parking/active.
func (h *ParkingHandler) Active(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	plate := c.Query("license_plate")
	if plate == "" {
		return apperrors.NewValidationError("license_plate required", nil)
	}
	if err := h.authorizePlate(c, principal, plate); err != nil {
		return err
	}

	txn, err := h.sessions.ActiveByPlate(c.Context(), plate)
	if err != nil {
		return err
	}
	if txn == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": transactionResponse(txn)})
}

// History GET /parking/history.
func (h *ParkingHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	plate := c.Query("license_plate")
	if plate == "" {
		return apperrors.NewValidationError("license_plate required", nil)
	}
	if err := h.authorizePlate(c, principal, plate); err != nil {
		return err
	}

	limit, offset := parsePagination(c)
	txns, err := h.sessions.HistoryByPlate(c.Context(), plate, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, transactionResponse(&txns[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *ParkingHandler) authorizePlate(c *fiber.Ctx, principal *auth.Principal, plate string) error {
	if principal.User.Role == domain.RoleAdmin {
		return nil
	}
	return h.sessions.AuthorizePlate(c.Context(), plate, principal.User.ID)
}

func parsePagination(c *fiber.Ctx) (int, int) {
	limit := 50
	offset := 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func transactionResponse(t *domain.ParkingTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            t.ID,
		VehicleID:     t.VehicleID,
		SpotID:        t.SpotID,
		EntryTime:     t.EntryTime,
		ExitTime:      t.ExitTime,
		TotalCost:     t.TotalCost,
		ParkingStatus: t.ParkingStatus,
		PaymentStatus: t.PaymentStatus,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func spotResponse(s *domain.ParkingSpot) dto.SpotResponse {
	return dto.SpotResponse{
		ID:         s.ID,
		MerchantID: s.MerchantID,
		SpotNumber: s.SpotNumber,
		Type:       s.Type,
		Status:     s.Status,
		Floor:      s.Floor,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
