package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/dto"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

// VerificationHandler manages payment code issuance and validation.
type VerificationHandler struct {
	verifications *service.VerificationService
}

// NewVerificationHandler constructs handler.
func NewVerificationHandler(verifications *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verifications: verifications}
}

// Generate POST /verification/generate.
func (h *VerificationHandler) Generate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.GenerateCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.ParkingTransactionID == "" {
		return apperrors.NewValidationError("user_id and parking_transaction_id required", nil)
	}
	if principal.User.Role != domain.RoleAdmin && req.UserID != principal.User.ID {
		return apperrors.NewForbidden("cannot issue codes for another user")
	}

	vc, err := h.verifications.Issue(c.Context(), req.UserID, req.ParkingTransactionID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.CodeIssuedResponse{ID: vc.ID, ExpiresAt: vc.ExpiresAt},
	})
}

// Validate POST /verification/validate. Validation consumes the code.
func (h *VerificationHandler) Validate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ValidateCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.Code == "" || req.ParkingTransactionID == "" {
		return apperrors.NewValidationError("user_id, code, parking_transaction_id required", nil)
	}
	if principal.User.Role != domain.RoleAdmin && req.UserID != principal.User.ID {
		return apperrors.NewForbidden("cannot validate codes for another user")
	}

	if err := h.verifications.Validate(c.Context(), req.UserID, req.Code, req.ParkingTransactionID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"valid": true}})
}
