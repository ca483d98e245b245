package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// LedgerRepository provides append-only access to wallet ledger entries.
// The UNIQUE (wallet_id, kind, ref_id) index is the idempotency key for
// every wallet mutation; rows are never updated or deleted.
type LedgerRepository struct {
	pool PoolInterface
}

// NewLedgerRepository creates a new LedgerRepository with the given pool.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// NewLedgerRepositoryWithPool creates a LedgerRepository with a custom pool
// interface. This is primarily used for testing.
func NewLedgerRepositoryWithPool(pool PoolInterface) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Insert appends one ledger entry inside the caller's transaction.
// Returns service.ErrEntryExists when the idempotency key fires, meaning
// the same operation already ran for this wallet and reference.
func (r *LedgerRepository) Insert(ctx context.Context, tx database.TxQuerier, e *model.LedgerEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries
		 (wallet_id, kind, amount, ref_id, pending_after, available_after)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.WalletID, e.Kind, e.Amount, e.RefID, e.PendingAfter, e.AvailableAfter)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrEntryExists
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// HasEntry reports whether an entry of the given kind exists for the
// wallet and reference. Used by the reverse path to decide whether an
// order's earnings already matured.
func (r *LedgerRepository) HasEntry(ctx context.Context, q database.TxQuerier, walletID string, kind model.EntryKind, refID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM ledger_entries WHERE wallet_id = $1 AND kind = $2 AND ref_id = $3
		 )`,
		walletID, kind, refID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger entry %s/%s/%s: %w", walletID, kind, refID, err)
	}
	return exists, nil
}

// SumByKind returns the total amount of all entries of one kind for a
// wallet. The reverse-kind sum is the wallet's derived lifetime_reversed
// audit figure.
func (r *LedgerRepository) SumByKind(ctx context.Context, walletID string, kind model.EntryKind) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE wallet_id = $1 AND kind = $2`,
		walletID, kind).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum ledger entries %s/%s: %w", walletID, kind, err)
	}
	return sum, nil
}
