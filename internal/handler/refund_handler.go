package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
)

// RefundServiceInterface defines the interface for refund reversal.
type RefundServiceInterface interface {
	OnRefund(ctx context.Context, orderID string) error
}

// RefundHandler receives the payments collaborator's refund webhook. The
// gateway retries deliveries, so replays must (and do) return 200.
type RefundHandler struct {
	service   RefundServiceInterface
	validator *validator.Validate
}

// NewRefundHandler creates a new RefundHandler with the given service and validator.
func NewRefundHandler(svc RefundServiceInterface, v *validator.Validate) *RefundHandler {
	return &RefundHandler{service: svc, validator: v}
}

// OnRefund handles POST /api/refunds requests.
func (h *RefundHandler) OnRefund(c *fiber.Ctx) error {
	var req model.RefundRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.OnRefund(c.Context(), req.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("order_id", req.OrderID).
			Msg("refund reversal failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("order_id", req.OrderID).
		Msg("refund processed")
	return c.SendStatus(fiber.StatusOK)
}
