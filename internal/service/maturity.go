package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// MaturityScheduler is the recurring background task that moves pending
// earnings to available once an order's refund window elapses. It is the
// only component that mutates wallets without a synchronous user action.
// Each scan is a bounded batch processed order by order: one failed order
// is logged and skipped, and re-running after a crash cannot double-mature
// thanks to the ledger idempotency key.
type MaturityScheduler struct {
	pool      TxBeginner
	db        database.TxQuerier
	wallet    *WalletService
	purchases PurchaseRepositoryInterface
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewMaturityScheduler creates a new MaturityScheduler. pool and db are
// the same pgx pool in production; they are split so tests can fake the
// transaction path and the plain-query path independently.
func NewMaturityScheduler(pool TxBeginner, db database.TxQuerier, wallet *WalletService, purchases PurchaseRepositoryInterface, interval time.Duration, batchSize int) *MaturityScheduler {
	return &MaturityScheduler{
		pool:      pool,
		db:        db,
		wallet:    wallet,
		purchases: purchases,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run scans on the configured interval until ctx is cancelled. Intended to
// be started as a goroutine from main.
func (s *MaturityScheduler) Run(ctx context.Context) {
	log.Info().
		Dur("interval", s.interval).
		Int("batch_size", s.batchSize).
		Msg("maturity scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("maturity scheduler stopped")
			return
		case <-ticker.C:
			matured, err := s.ScanOnce(ctx)
			if err != nil {
				log.Error().Err(err).Msg("maturity scan failed")
				continue
			}
			if matured > 0 {
				log.Info().Int("matured", matured).Msg("maturity scan complete")
			}
		}
	}
}

// ScanOnce matures one batch of due orders and returns how many matured.
// Per-order failures are logged and skipped so the rest of the batch still
// progresses; only the batch query itself is a hard error.
func (s *MaturityScheduler) ScanOnce(ctx context.Context) (int, error) {
	due, err := s.purchases.ListMaturable(ctx, s.now(), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list maturable: %w", err)
	}

	matured := 0
	for _, p := range due {
		if err := s.matureOne(ctx, p.SellerID, p.SellerEarning, p.OrderID); err != nil {
			log.Error().
				Err(err).
				Str("order_id", p.OrderID).
				Str("seller_id", p.SellerID).
				Msg("failed to mature order")
			continue
		}
		matured++
	}
	return matured, nil
}

// matureOne moves one order's earning and stamps the purchase in a single
// transaction. When the ledger says the order already matured (a crash
// landed between commit and a previous stamp attempt), only the stamp is
// repaired.
func (s *MaturityScheduler) matureOne(ctx context.Context, sellerID string, earning int64, orderID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// Checked up front: a crash-retry has already drained this order's
	// pending credit, so matureTx would report insufficient pending before
	// ever reaching the ledger's unique key.
	matured, err := s.wallet.ledger.HasEntry(ctx, tx, sellerID, model.EntryMature, orderID)
	if err != nil {
		return err
	}
	if matured {
		_ = tx.Rollback(ctx)
		return s.purchases.MarkMatured(ctx, s.db, orderID, s.now())
	}

	err = s.wallet.matureTx(ctx, tx, sellerID, earning, orderID)
	if errors.Is(err, ErrEntryExists) {
		// Lost a race with a concurrent scheduler instance.
		_ = tx.Rollback(ctx)
		return s.purchases.MarkMatured(ctx, s.db, orderID, s.now())
	}
	if err != nil {
		return err
	}

	if err := s.purchases.MarkMatured(ctx, tx, orderID, s.now()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
