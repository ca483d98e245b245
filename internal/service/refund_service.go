package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
)

// RefundService reverses an order's settled earning when the payments
// collaborator confirms a refund. The gateway retries its webhook, so the
// whole flow is at-most-once per order: the purchase row lock serializes
// concurrent deliveries and the ledger's idempotency key backs the stamp.
type RefundService struct {
	pool      TxBeginner
	wallet    *WalletService
	ledger    LedgerRepositoryInterface
	purchases PurchaseRepositoryInterface
	now       func() time.Time
}

// NewRefundService creates a new RefundService.
func NewRefundService(pool TxBeginner, wallet *WalletService, ledger LedgerRepositoryInterface, purchases PurchaseRepositoryInterface) *RefundService {
	return &RefundService{pool: pool, wallet: wallet, ledger: ledger, purchases: purchases, now: time.Now}
}

// OnRefund pulls the order's stamped seller earning back out of the wallet
// and marks the purchase refunded. Replays return nil without touching the
// wallet. Returns ErrOrderNotFound for unknown orders.
func (s *RefundService) OnRefund(ctx context.Context, orderID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	p, err := s.purchases.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if p.RefundedAt != nil {
		return nil
	}

	if p.SellerEarning > 0 {
		// Checked before reverseTx so a reversal recorded by an earlier
		// partial run doesn't abort this transaction on the unique key.
		reversed, err := s.ledger.HasEntry(ctx, tx, p.SellerID, model.EntryReverse, orderID)
		if err != nil {
			return err
		}
		if !reversed {
			if err := s.wallet.reverseTx(ctx, tx, p.SellerID, p.SellerEarning, orderID); err != nil {
				return err
			}
		}
	}

	if err := s.purchases.MarkRefunded(ctx, tx, orderID, s.now()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit refund: %w", err)
	}

	log.Info().
		Str("order_id", orderID).
		Str("seller_id", p.SellerID).
		Int64("amount", p.SellerEarning).
		Msg("order earning reversed")
	return nil
}
