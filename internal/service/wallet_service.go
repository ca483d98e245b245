package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// WalletRepositoryInterface defines the interface for wallet data access.
type WalletRepositoryInterface interface {
	Get(ctx context.Context, sellerID string) (*model.Wallet, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, sellerID string) (*model.Wallet, error)
	Create(ctx context.Context, tx database.TxQuerier, sellerID string) error
	UpdateBalances(ctx context.Context, tx database.TxQuerier, w *model.Wallet) error
}

// LedgerRepositoryInterface defines the interface for ledger-entry access.
type LedgerRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, e *model.LedgerEntry) error
	HasEntry(ctx context.Context, q database.TxQuerier, walletID string, kind model.EntryKind, refID string) (bool, error)
	SumByKind(ctx context.Context, walletID string, kind model.EntryKind) (int64, error)
}

// WalletService is the authoritative mutator of seller wallets. Every
// mutation is one transaction: lock the wallet row, append exactly one
// ledger entry, update the balances, commit. The ledger's unique
// (wallet_id, kind, ref_id) key makes each operation idempotent per
// order/payout reference: a replay hits the constraint and the public
// operations treat that as success.
type WalletService struct {
	pool    TxBeginner
	wallets WalletRepositoryInterface
	ledger  LedgerRepositoryInterface
}

// NewWalletService creates a new WalletService.
func NewWalletService(pool TxBeginner, wallets WalletRepositoryInterface, ledger LedgerRepositoryInterface) *WalletService {
	return &WalletService{pool: pool, wallets: wallets, ledger: ledger}
}

// CreditPending adds a new sale's seller earning to the pending balance.
// Idempotent per orderID.
func (s *WalletService) CreditPending(ctx context.Context, sellerID string, amount int64, orderID string) error {
	return s.runIdempotent(ctx, func(tx pgx.Tx) error {
		return s.creditPendingTx(ctx, tx, sellerID, amount, orderID)
	})
}

// Mature moves an order's earning from pending to available once its
// refund window has elapsed. Idempotent per orderID.
func (s *WalletService) Mature(ctx context.Context, sellerID string, amount int64, orderID string) error {
	return s.runIdempotent(ctx, func(tx pgx.Tx) error {
		return s.matureTx(ctx, tx, sellerID, amount, orderID)
	})
}

// Reverse pulls an order's earning back out of the wallet on refund.
// Idempotent per orderID.
func (s *WalletService) Reverse(ctx context.Context, sellerID string, amount int64, orderID string) error {
	return s.runIdempotent(ctx, func(tx pgx.Tx) error {
		return s.reverseTx(ctx, tx, sellerID, amount, orderID)
	})
}

// Debit holds a withdrawal amount out of the available balance.
// Idempotent per payoutID.
func (s *WalletService) Debit(ctx context.Context, sellerID string, amount int64, payoutID string) error {
	return s.runIdempotent(ctx, func(tx pgx.Tx) error {
		return s.debitTx(ctx, tx, sellerID, amount, payoutID)
	})
}

// CreditAvailable returns a failed payout's amount to the available
// balance. Narrowly scoped: payout compensation only. Idempotent per
// payoutID.
func (s *WalletService) CreditAvailable(ctx context.Context, sellerID string, amount int64, payoutID string) error {
	return s.runIdempotent(ctx, func(tx pgx.Tx) error {
		return s.creditAvailableTx(ctx, tx, sellerID, amount, payoutID)
	})
}

// Snapshot returns the read-only dashboard view of a wallet. Sellers who
// have never earned get a zero-valued snapshot.
func (s *WalletService) Snapshot(ctx context.Context, sellerID string) (*model.WalletSnapshot, error) {
	w, err := s.wallets.Get(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	snap := &model.WalletSnapshot{SellerID: sellerID}
	if w == nil {
		return snap, nil
	}

	reversed, err := s.ledger.SumByKind(ctx, sellerID, model.EntryReverse)
	if err != nil {
		return nil, fmt.Errorf("sum reversals: %w", err)
	}

	snap.PendingBalance = w.PendingBalance
	snap.AvailableBalance = w.AvailableBalance
	snap.LifetimeEarned = w.LifetimeEarned
	snap.LifetimeWithdrawn = w.LifetimeWithdrawn
	snap.LifetimeReversed = reversed
	return snap, nil
}

// runIdempotent wraps one wallet mutation in its own transaction and maps
// an idempotency-key collision to a successful no-op.
func (s *WalletService) runIdempotent(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := fn(tx); err != nil {
		if errors.Is(err, ErrEntryExists) {
			// Replay of an already-applied operation. The constraint
			// aborted the tx; rolling back discards nothing.
			return nil
		}
		return err
	}
	return tx.Commit(ctx)
}

// lockWallet acquires the row lock for a seller's wallet, creating it
// lazily on first use. A concurrent first-credit race is resolved by the
// ON CONFLICT insert plus re-lock.
func (s *WalletService) lockWallet(ctx context.Context, tx database.TxQuerier, sellerID string) (*model.Wallet, error) {
	w, err := s.wallets.GetForUpdate(ctx, tx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	if w == nil {
		if err := s.wallets.Create(ctx, tx, sellerID); err != nil {
			return nil, err
		}
		w, err = s.wallets.GetForUpdate(ctx, tx, sellerID)
		if err != nil {
			return nil, fmt.Errorf("lock wallet after create: %w", err)
		}
		if w == nil {
			return nil, fmt.Errorf("wallet %s missing after create", sellerID)
		}
	}
	return w, nil
}

// appendEntry writes the audit row with the post-mutation balances and,
// when the mutation changed them, the wallet row itself. Returns
// ErrEntryExists unmapped so callers can decide replay semantics.
func (s *WalletService) appendEntry(ctx context.Context, tx database.TxQuerier, w *model.Wallet, kind model.EntryKind, amount int64, refID string, balancesChanged bool) error {
	err := s.ledger.Insert(ctx, tx, &model.LedgerEntry{
		WalletID:       w.SellerID,
		Kind:           kind,
		Amount:         amount,
		RefID:          refID,
		PendingAfter:   w.PendingBalance,
		AvailableAfter: w.AvailableBalance,
	})
	if err != nil {
		return err
	}
	if !balancesChanged {
		return nil
	}
	return s.wallets.UpdateBalances(ctx, tx, w)
}

func (s *WalletService) creditPendingTx(ctx context.Context, tx database.TxQuerier, sellerID string, amount int64, orderID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w, err := s.lockWallet(ctx, tx, sellerID)
	if err != nil {
		return err
	}
	w.PendingBalance += amount
	w.LifetimeEarned += amount
	return s.appendEntry(ctx, tx, w, model.EntryCreditPending, amount, orderID, true)
}

func (s *WalletService) matureTx(ctx context.Context, tx database.TxQuerier, sellerID string, amount int64, orderID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w, err := s.lockWallet(ctx, tx, sellerID)
	if err != nil {
		return err
	}
	if amount > w.PendingBalance {
		// A maturation that exceeds pending means the scheduler credited
		// or matured out of order. Never clamped.
		log.Error().
			Str("seller_id", sellerID).
			Str("order_id", orderID).
			Int64("amount", amount).
			Int64("pending_balance", w.PendingBalance).
			Msg("maturation exceeds pending balance")
		return ErrInsufficientPending
	}
	w.PendingBalance -= amount
	w.AvailableBalance += amount
	return s.appendEntry(ctx, tx, w, model.EntryMature, amount, orderID, true)
}

func (s *WalletService) reverseTx(ctx context.Context, tx database.TxQuerier, sellerID string, amount int64, orderID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w, err := s.lockWallet(ctx, tx, sellerID)
	if err != nil {
		return err
	}

	// The order's earning comes out of pending while its credit is still
	// held there; once a mature entry exists for the order, the money
	// moved on and the reversal debits available instead.
	matured, err := s.ledger.HasEntry(ctx, tx, sellerID, model.EntryMature, orderID)
	if err != nil {
		return err
	}

	if !matured && w.PendingBalance >= amount {
		w.PendingBalance -= amount
	} else {
		w.AvailableBalance -= amount
		if w.AvailableBalance < 0 {
			// Earnings already withdrawn; the shortfall becomes a
			// receivable against the seller's next earnings. The one
			// place available may go negative.
			log.Warn().
				Str("seller_id", sellerID).
				Str("order_id", orderID).
				Int64("amount", amount).
				Int64("available_balance", w.AvailableBalance).
				Msg("deficit reversal: available balance driven negative")
		}
	}
	return s.appendEntry(ctx, tx, w, model.EntryReverse, amount, orderID, true)
}

func (s *WalletService) debitTx(ctx context.Context, tx database.TxQuerier, sellerID string, amount int64, payoutID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w, err := s.lockWallet(ctx, tx, sellerID)
	if err != nil {
		return err
	}
	if amount > w.AvailableBalance {
		return ErrInsufficientAvailable
	}
	w.AvailableBalance -= amount
	w.LifetimeWithdrawn += amount
	return s.appendEntry(ctx, tx, w, model.EntryWithdrawHold, amount, payoutID, true)
}

func (s *WalletService) creditAvailableTx(ctx context.Context, tx database.TxQuerier, sellerID string, amount int64, payoutID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w, err := s.lockWallet(ctx, tx, sellerID)
	if err != nil {
		return err
	}
	w.AvailableBalance += amount
	w.LifetimeWithdrawn -= amount
	return s.appendEntry(ctx, tx, w, model.EntryWithdrawFail, amount, payoutID, true)
}

// recordCompletionTx appends the audit entry for a successfully paid-out
// withdrawal. Balances were already moved by the hold debit.
func (s *WalletService) recordCompletionTx(ctx context.Context, tx database.TxQuerier, sellerID string, amount int64, payoutID string) error {
	w, err := s.lockWallet(ctx, tx, sellerID)
	if err != nil {
		return err
	}
	return s.appendEntry(ctx, tx, w, model.EntryWithdrawComplete, amount, payoutID, false)
}
