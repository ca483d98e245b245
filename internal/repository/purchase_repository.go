package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// QueryPoolInterface defines the pool operations needed by repositories
// that run multi-row queries.
type QueryPoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const purchaseColumns = `order_id, buyer_id, seller_id, subtotal, discount,
	price_paid, commission, seller_earning, coupon_code,
	refund_eligible_until, matured_at, refunded_at, created_at`

// PurchaseRepository provides data access for settlement-stamped purchases.
type PurchaseRepository struct {
	pool QueryPoolInterface
}

// NewPurchaseRepository creates a new PurchaseRepository with the given pool.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// NewPurchaseRepositoryWithPool creates a PurchaseRepository with a custom
// pool interface. This is primarily used for testing.
func NewPurchaseRepositoryWithPool(pool QueryPoolInterface) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Insert records a purchase inside the checkout transaction.
// Returns service.ErrOrderExists for a replayed order id.
func (r *PurchaseRepository) Insert(ctx context.Context, tx database.TxQuerier, p *model.Purchase) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO purchases
		 (order_id, buyer_id, seller_id, subtotal, discount, price_paid,
		  commission, seller_earning, coupon_code, refund_eligible_until)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.OrderID, p.BuyerID, p.SellerID, p.Subtotal, p.Discount, p.PricePaid,
		p.Commission, p.SellerEarning, p.CouponCode, p.RefundEligibleUntil)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrOrderExists
		}
		return fmt.Errorf("insert purchase %s: %w", p.OrderID, err)
	}
	return nil
}

// Get retrieves a purchase by order id. Returns nil, nil when not found.
func (r *PurchaseRepository) Get(ctx context.Context, orderID string) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE order_id = $1`
	return scanPurchase(r.pool.QueryRow(ctx, query, orderID))
}

// GetForUpdate retrieves a purchase with a row lock, serializing the refund
// flow against the scheduler for the same order.
// Returns service.ErrOrderNotFound if the purchase doesn't exist.
func (r *PurchaseRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, orderID string) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE order_id = $1 FOR UPDATE`
	p, err := scanPurchase(tx.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, service.ErrOrderNotFound
	}
	return p, nil
}

// ListMaturable returns a bounded batch of purchases whose refund window
// has elapsed and whose earnings are still pending. Zero-earning orders
// (fully discounted) never enter the wallet and are excluded.
func (r *PurchaseRepository) ListMaturable(ctx context.Context, now time.Time, limit int) ([]model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE refund_eligible_until <= $1
		  AND matured_at IS NULL
		  AND refunded_at IS NULL
		  AND seller_earning > 0
		ORDER BY refund_eligible_until
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list maturable purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		p, err := scanPurchaseRow(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate maturable purchases: %w", err)
	}
	return purchases, nil
}

// MarkMatured stamps the maturation time. Accepts either the maturing
// transaction or the pool (for the crash-recovery repair path where the
// ledger entry exists but the stamp is missing).
func (r *PurchaseRepository) MarkMatured(ctx context.Context, q database.TxQuerier, orderID string, at time.Time) error {
	_, err := q.Exec(ctx,
		`UPDATE purchases SET matured_at = $1 WHERE order_id = $2 AND matured_at IS NULL`,
		at, orderID)
	if err != nil {
		return fmt.Errorf("mark purchase %s matured: %w", orderID, err)
	}
	return nil
}

// MarkRefunded stamps the refund time within the reversing transaction.
func (r *PurchaseRepository) MarkRefunded(ctx context.Context, tx database.TxQuerier, orderID string, at time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE purchases SET refunded_at = $1 WHERE order_id = $2 AND refunded_at IS NULL`,
		at, orderID)
	if err != nil {
		return fmt.Errorf("mark purchase %s refunded: %w", orderID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	p, err := scanPurchaseRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanPurchaseRow(row rowScanner) (*model.Purchase, error) {
	var p model.Purchase
	err := row.Scan(
		&p.OrderID,
		&p.BuyerID,
		&p.SellerID,
		&p.Subtotal,
		&p.Discount,
		&p.PricePaid,
		&p.Commission,
		&p.SellerEarning,
		&p.CouponCode,
		&p.RefundEligibleUntil,
		&p.MaturedAt,
		&p.RefundedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
