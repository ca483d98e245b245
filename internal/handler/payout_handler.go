package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
)

// PayoutServiceInterface defines the interface for payout business logic.
type PayoutServiceInterface interface {
	RequestPayout(ctx context.Context, sellerID string, amount int64, destination string) (*model.PayoutRequest, error)
	Complete(ctx context.Context, payoutID uuid.UUID) error
	Fail(ctx context.Context, payoutID uuid.UUID) error
	ListBySeller(ctx context.Context, sellerID string) ([]model.PayoutRequest, error)
}

// PayoutHandler handles HTTP requests for withdrawals: the seller-facing
// request endpoint and the payment rail's asynchronous result callback.
type PayoutHandler struct {
	service   PayoutServiceInterface
	validator *validator.Validate
}

// NewPayoutHandler creates a new PayoutHandler with the given service and validator.
func NewPayoutHandler(svc PayoutServiceInterface, v *validator.Validate) *PayoutHandler {
	return &PayoutHandler{service: svc, validator: v}
}

func payoutResponse(p *model.PayoutRequest) model.PayoutResponse {
	return model.PayoutResponse{
		ID:          p.ID.String(),
		SellerID:    p.SellerID,
		Amount:      p.Amount,
		Destination: p.Destination,
		State:       string(p.State),
		CreatedAt:   p.CreatedAt,
		ResolvedAt:  p.ResolvedAt,
	}
}

// RequestPayout handles POST /api/payouts requests.
func (h *PayoutHandler) RequestPayout(c *fiber.Ctx) error {
	var req model.RequestPayoutRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	payout, err := h.service.RequestPayout(c.Context(), req.SellerID, *req.Amount, req.Destination)
	if err != nil {
		if errors.Is(err, service.ErrBelowMinimumWithdrawal) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(), "reason": "below_minimum_withdrawal",
			})
		}
		if errors.Is(err, service.ErrInsufficientAvailable) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(), "reason": "insufficient_available_balance",
			})
		}
		if errors.Is(err, service.ErrInvalidAmount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("seller_id", req.SellerID).
			Msg("payout request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(payoutResponse(payout))
}

// Result handles POST /api/payouts/:id/result, the rail's outcome
// callback. Replayed callbacks for the already-applied outcome return 200;
// a callback contradicting the recorded terminal state returns 409.
func (h *PayoutHandler) Result(c *fiber.Ctx) error {
	payoutID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: payout id is invalid"})
	}

	var req model.PayoutResultRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if req.Status == "completed" {
		err = h.service.Complete(c.Context(), payoutID)
	} else {
		err = h.service.Fail(c.Context(), payoutID)
	}
	if err != nil {
		if errors.Is(err, service.ErrPayoutNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "payout not found"})
		}
		if errors.Is(err, service.ErrPayoutResolved) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "payout already resolved"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("payout_id", payoutID.String()).
			Str("status", req.Status).
			Msg("payout result failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.SendStatus(fiber.StatusOK)
}

// ListBySeller handles GET /api/sellers/:sellerId/payouts requests.
func (h *PayoutHandler) ListBySeller(c *fiber.Ctx) error {
	sellerID := c.Params("sellerId")
	if sellerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: seller_id is required",
		})
	}

	payouts, err := h.service.ListBySeller(c.Context(), sellerID)
	if err != nil {
		log.Error().Err(err).Str("seller_id", sellerID).Msg("failed to list payouts")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]model.PayoutResponse, 0, len(payouts))
	for i := range payouts {
		out = append(out, payoutResponse(&payouts[i]))
	}
	return c.JSON(out)
}
