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

// CheckoutServiceInterface defines the interface for checkout business logic.
type CheckoutServiceInterface interface {
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.Purchase, error)
}

// CheckoutHandler handles HTTP requests for order settlement.
type CheckoutHandler struct {
	service   CheckoutServiceInterface
	validator *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler with the given service and validator.
func NewCheckoutHandler(svc CheckoutServiceInterface, v *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{service: svc, validator: v}
}

// couponRejection maps a coupon rejection to its stable reason code shown
// to the cart UI. Returns "" for errors that are not coupon rejections.
func couponRejection(err error) string {
	switch {
	case errors.Is(err, service.ErrCouponNotFound):
		return "coupon_not_found"
	case errors.Is(err, service.ErrCouponOutOfWindow):
		return "coupon_out_of_window"
	case errors.Is(err, service.ErrBelowMinimum):
		return "below_minimum_order_value"
	case errors.Is(err, service.ErrScopeMismatch):
		return "coupon_scope_mismatch"
	case errors.Is(err, service.ErrGlobalLimitReached):
		return "coupon_limit_reached"
	case errors.Is(err, service.ErrUserLimitReached):
		return "coupon_user_limit_reached"
	}
	return ""
}

// Checkout handles POST /api/checkout requests to settle an order.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req model.CheckoutRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	purchase, err := h.service.Checkout(c.Context(), &req)
	if err != nil {
		if reason := couponRejection(err); reason != "" {
			status := fiber.StatusUnprocessableEntity
			if errors.Is(err, service.ErrCouponNotFound) {
				status = fiber.StatusNotFound
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error(), "reason": reason})
		}
		if errors.Is(err, service.ErrInvalidRequest) || errors.Is(err, service.ErrInvalidAmount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("order_id", req.OrderID).
			Msg("checkout failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(model.CheckoutResponse{
		OrderID:             purchase.OrderID,
		Subtotal:            purchase.Subtotal,
		Discount:            purchase.Discount,
		PricePaid:           purchase.PricePaid,
		Commission:          purchase.Commission,
		SellerEarning:       purchase.SellerEarning,
		RefundEligibleUntil: purchase.RefundEligibleUntil,
	})
}
