package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
)

// WalletSnapshotInterface defines the interface for wallet reads.
type WalletSnapshotInterface interface {
	Snapshot(ctx context.Context, sellerID string) (*model.WalletSnapshot, error)
}

// WalletHandler serves the seller dashboard's wallet view.
type WalletHandler struct {
	service WalletSnapshotInterface
}

// NewWalletHandler creates a new WalletHandler with the given service.
func NewWalletHandler(svc WalletSnapshotInterface) *WalletHandler {
	return &WalletHandler{service: svc}
}

// Snapshot handles GET /api/wallets/:sellerId requests. Sellers without a
// wallet yet get an all-zero snapshot rather than a 404.
func (h *WalletHandler) Snapshot(c *fiber.Ctx) error {
	sellerID := c.Params("sellerId")
	if sellerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: seller_id is required",
		})
	}

	snap, err := h.service.Snapshot(c.Context(), sellerID)
	if err != nil {
		log.Error().Err(err).Str("seller_id", sellerID).Msg("failed to load wallet snapshot")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(snap)
}
