package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/service"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const couponColumns = `id, code, kind, value, min_order_value, max_discount,
	starts_at, ends_at, usage_limit_global, usage_limit_per_user,
	scope, scope_ids, active, created_at`

// CouponRepository provides data access for coupons and their redemptions.
// Redemptions are part of the coupon aggregate: the usage-count queries and
// the redemption insert run against the same locked coupon row.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a CouponRepository with a custom pool
// interface. This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon. Returns service.ErrInvalidRequest wrapped on
// a duplicate code.
func (r *CouponRepository) Insert(ctx context.Context, c *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons
		 (id, code, kind, value, min_order_value, max_discount, starts_at, ends_at,
		  usage_limit_global, usage_limit_per_user, scope, scope_ids, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Code, c.Kind, c.Value, c.MinOrderValue, c.MaxDiscount,
		c.StartsAt, c.EndsAt, c.UsageLimitGlobal, c.UsageLimitPerUser,
		c.Scope, c.ScopeIDs, c.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("coupon code %s: %w", c.Code, service.ErrInvalidRequest)
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its normalized code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	return scanCoupon(r.pool.QueryRow(ctx, query, code))
}

// GetByCodeForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE),
// serializing concurrent redemptions of the same coupon.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`
	c, err := scanCoupon(tx.QueryRow(ctx, query, code))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, service.ErrCouponNotFound
	}
	return c, nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Kind,
		&c.Value,
		&c.MinOrderValue,
		&c.MaxDiscount,
		&c.StartsAt,
		&c.EndsAt,
		&c.UsageLimitGlobal,
		&c.UsageLimitPerUser,
		&c.Scope,
		&c.ScopeIDs,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan coupon: %w", err)
	}
	return &c, nil
}

// CountRedemptions returns the number of redemptions recorded for a coupon.
// Pass the redeeming transaction to count under the coupon row lock.
func (r *CouponRepository) CountRedemptions(ctx context.Context, q database.TxQuerier, couponID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1`,
		couponID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions for coupon %s: %w", couponID, err)
	}
	return n, nil
}

// CountRedemptionsByUser returns the number of redemptions one user has
// recorded for a coupon.
func (r *CouponRepository) CountRedemptionsByUser(ctx context.Context, q database.TxQuerier, couponID uuid.UUID, userID string) (int, error) {
	var n int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions for coupon %s user %s: %w", couponID, userID, err)
	}
	return n, nil
}

// InsertRedemption records a redemption inside the caller's transaction.
// Returns service.ErrRedemptionExists when the (coupon_id, order_id) unique
// key fires, i.e. the order already redeemed this coupon.
func (r *CouponRepository) InsertRedemption(ctx context.Context, tx database.TxQuerier, red *model.CouponRedemption) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO coupon_redemptions (coupon_id, user_id, order_id, discount_amount)
		 VALUES ($1, $2, $3, $4)`,
		red.CouponID, red.UserID, red.OrderID, red.DiscountAmount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrRedemptionExists
		}
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}
