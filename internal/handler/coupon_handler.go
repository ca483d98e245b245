package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
)

// CouponEvaluatorInterface defines the interface for coupon evaluation.
type CouponEvaluatorInterface interface {
	Evaluate(ctx context.Context, code, userID string, order model.OrderContext) (int64, error)
}

// CouponHandler handles HTTP requests for coupon evaluation. Evaluation is
// side-effect free; the cart UI uses it to preview a discount before
// checkout commits the redemption.
type CouponHandler struct {
	service   CouponEvaluatorInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponEvaluatorInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// Evaluate handles POST /api/coupons/evaluate requests.
func (h *CouponHandler) Evaluate(c *fiber.Ctx) error {
	var req model.EvaluateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	order := model.OrderContext{Lines: req.Lines}
	discount, err := h.service.Evaluate(c.Context(), req.Code, req.UserID, order)
	if err != nil {
		if reason := couponRejection(err); reason != "" {
			status := fiber.StatusUnprocessableEntity
			if reason == "coupon_not_found" {
				status = fiber.StatusNotFound
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error(), "reason": reason})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("code", req.Code).
			Msg("coupon evaluation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.EvaluateCouponResponse{
		Code:           service.NormalizeCode(req.Code),
		DiscountAmount: discount,
	})
}
