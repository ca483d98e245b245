package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// WalletRepository provides data access for seller wallets using pgx.
// All mutations go through a SELECT ... FOR UPDATE row lock held by the
// service-owned transaction; this repository never starts transactions.
type WalletRepository struct {
	pool PoolInterface
}

// NewWalletRepository creates a new WalletRepository with the given pool.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// NewWalletRepositoryWithPool creates a WalletRepository with a custom pool
// interface. This is primarily used for testing.
func NewWalletRepositoryWithPool(pool PoolInterface) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `seller_id, pending_balance, available_balance,
	lifetime_earned, lifetime_withdrawn, created_at, updated_at`

// Get retrieves a wallet without locking, for read-only snapshots.
// Returns nil, nil if no wallet exists yet for the seller.
func (r *WalletRepository) Get(ctx context.Context, sellerID string) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE seller_id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, sellerID))
}

// GetForUpdate retrieves a wallet with a row lock (SELECT FOR UPDATE).
// Returns nil, nil if the wallet doesn't exist; callers create it lazily
// and lock again.
func (r *WalletRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, sellerID string) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE seller_id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, sellerID))
}

// Create inserts a zero-balance wallet for the seller. Safe to race: a
// concurrent insert is absorbed by ON CONFLICT DO NOTHING and the caller's
// follow-up GetForUpdate blocks on the winner's lock.
func (r *WalletRepository) Create(ctx context.Context, tx database.TxQuerier, sellerID string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO wallets (seller_id) VALUES ($1) ON CONFLICT (seller_id) DO NOTHING`,
		sellerID)
	if err != nil {
		return fmt.Errorf("create wallet for %s: %w", sellerID, err)
	}
	return nil
}

// UpdateBalances writes the wallet's balance fields. Must be called within
// the transaction that holds the row lock.
func (r *WalletRepository) UpdateBalances(ctx context.Context, tx database.TxQuerier, w *model.Wallet) error {
	_, err := tx.Exec(ctx,
		`UPDATE wallets
		 SET pending_balance = $1, available_balance = $2,
		     lifetime_earned = $3, lifetime_withdrawn = $4, updated_at = now()
		 WHERE seller_id = $5`,
		w.PendingBalance, w.AvailableBalance, w.LifetimeEarned, w.LifetimeWithdrawn, w.SellerID)
	if err != nil {
		return fmt.Errorf("update wallet %s: %w", w.SellerID, err)
	}
	return nil
}

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	var w model.Wallet
	err := row.Scan(
		&w.SellerID,
		&w.PendingBalance,
		&w.AvailableBalance,
		&w.LifetimeEarned,
		&w.LifetimeWithdrawn,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return &w, nil
}
