package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

const payoutColumns = `id, seller_id, amount, destination, state, created_at, resolved_at`

// PayoutRepository provides data access for withdrawal requests.
type PayoutRepository struct {
	pool QueryPoolInterface
}

// NewPayoutRepository creates a new PayoutRepository with the given pool.
func NewPayoutRepository(pool *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{pool: pool}
}

// NewPayoutRepositoryWithPool creates a PayoutRepository with a custom pool
// interface. This is primarily used for testing.
func NewPayoutRepositoryWithPool(pool QueryPoolInterface) *PayoutRepository {
	return &PayoutRepository{pool: pool}
}

// Insert records a payout request inside the transaction that debits the
// wallet, so the hold and the request row commit or roll back together.
func (r *PayoutRepository) Insert(ctx context.Context, tx database.TxQuerier, p *model.PayoutRequest) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO payout_requests (id, seller_id, amount, destination, state)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.SellerID, p.Amount, p.Destination, p.State)
	if err != nil {
		return fmt.Errorf("insert payout request %s: %w", p.ID, err)
	}
	return nil
}

// GetForUpdate retrieves a payout request with a row lock, serializing
// concurrent rail callbacks for the same payout.
// Returns service.ErrPayoutNotFound if the payout doesn't exist.
func (r *PayoutRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.PayoutRequest, error) {
	query := `SELECT ` + payoutColumns + ` FROM payout_requests WHERE id = $1 FOR UPDATE`

	var p model.PayoutRequest
	err := tx.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SellerID, &p.Amount, &p.Destination, &p.State, &p.CreatedAt, &p.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("get payout %s for update: %w", id, err)
	}
	return &p, nil
}

// UpdateState transitions a payout request. resolvedAt is nil for the
// non-terminal processing transition.
func (r *PayoutRepository) UpdateState(ctx context.Context, tx database.TxQuerier, id uuid.UUID, state model.PayoutState, resolvedAt *time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE payout_requests SET state = $1, resolved_at = $2 WHERE id = $3`,
		state, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("update payout %s to %s: %w", id, state, err)
	}
	return nil
}

// ListBySeller returns a seller's payout requests, newest first.
// On success, returns an empty slice (not nil) when no payouts exist.
func (r *PayoutRepository) ListBySeller(ctx context.Context, sellerID string) ([]model.PayoutRequest, error) {
	query := `SELECT ` + payoutColumns + ` FROM payout_requests
		WHERE seller_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list payouts for %s: %w", sellerID, err)
	}
	defer rows.Close()

	payouts := []model.PayoutRequest{}
	for rows.Next() {
		var p model.PayoutRequest
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Amount, &p.Destination,
			&p.State, &p.CreatedAt, &p.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}
	return payouts, nil
}
