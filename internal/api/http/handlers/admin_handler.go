package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// AdminHandler exposes operator endpoints.
type AdminHandler struct {
	sessions *service.SessionService
	spots    *service.SpotService
	balances *service.BalanceService
	accounts *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(sessions *service.SessionService, spots *service.SpotService, balances *service.BalanceService, accounts *service.AuthService) *AdminHandler {
	return &AdminHandler{sessions: sessions, spots: spots, balances: balances, accounts: accounts}
}

// CancelSession POST /admin/parking/:id/cancel.
func (h *AdminHandler) CancelSession(c *fiber.Ctx) error {
	var req dto.CancelSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Reason == "" {
		return apperrors.NewValidationError("reason required", nil)
	}
	txn, err := h.sessions.Cancel(c.Context(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transactionResponse(txn)})
}

// OverridePaymentStatus PATCH /admin/parking/:id/payment-status.
func (h *AdminHandler) OverridePaymentStatus(c *fiber.Ctx) error {
	var req dto.PaymentStatusOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := domain.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	txn, err := h.sessions.OverridePaymentStatus(c.Context(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transactionResponse(txn)})
}

// ListSessions GET /admin/parking.
func (h *AdminHandler) ListSessions(c *fiber.Ctx) error {
	var merchantCode *string
	if raw := c.Query("merchant_code"); raw != "" {
		merchantCode = &raw
	}
	var parkingStatus *domain.ParkingStatus
	if raw := c.Query("parking_status"); raw != "" {
		status, err := domain.ParseParkingStatus(raw)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		parkingStatus = &status
	}
	var paymentStatus *domain.PaymentStatus
	if raw := c.Query("payment_status"); raw != "" {
		status, err := domain.ParsePaymentStatus(raw)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		paymentStatus = &status
	}

	limit, offset := parsePagination(c)
	txns, err := h.sessions.ListForAdmin(c.Context(), merchantCode, parkingStatus, paymentStatus, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, transactionResponse(&txns[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListSpots GET /admin/spots.
func (h *AdminHandler) ListSpots(c *fiber.Ctx) error {
	merchantCode := c.Query("merchant_code")
	if merchantCode == "" {
		return apperrors.NewValidationError("merchant_code required", nil)
	}
	var status *domain.SpotStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := domain.ParseSpotStatus(raw)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		status = &parsed
	}

	spots, err := h.spots.ListByMerchantCode(c.Context(), merchantCode, status)
	if err != nil {
		return err
	}
	items := make([]dto.SpotResponse, 0, len(spots))
	for i := range spots {
		items = append(items, spotResponse(&spots[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetSpotStatus PATCH /admin/spots/:id/status.
func (h *AdminHandler) SetSpotStatus(c *fiber.Ctx) error {
	var req dto.SpotStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := domain.ParseSpotStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	spot, err := h.spots.SetStatus(c.Context(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": spotResponse(spot)})
}

// SetUserStatus PATCH /admin/users/:id/status.
func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	var req dto.UserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := domain.ParseUserStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	user, err := h.accounts.SetUserStatus(c.Context(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":     user.ID,
		"email":  user.Email,
		"status": user.Status,
	}})
}

// CreditBalance POST /admin/users/:id/balance/credit.
func (h *AdminHandler) CreditBalance(c *fiber.Ctx) error {
	var req dto.CreditBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError("amount must be positive", nil)
	}
	userID := c.Params("id")
	balance, err := h.balances.Credit(c.Context(), userID, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BalanceResponse{UserID: userID, Balance: balance}})
}
