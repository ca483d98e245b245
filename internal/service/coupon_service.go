package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	CountRedemptions(ctx context.Context, q database.TxQuerier, couponID uuid.UUID) (int, error)
	CountRedemptionsByUser(ctx context.Context, q database.TxQuerier, couponID uuid.UUID, userID string) (int, error)
	InsertRedemption(ctx context.Context, tx database.TxQuerier, red *model.CouponRedemption) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService evaluates and redeems coupons. Evaluate is a pure check
// with no side effects; the redemption insert happens inside the caller's
// checkout transaction via Redeem, under the coupon row lock.
type CouponService struct {
	db   database.TxQuerier
	repo CouponRepositoryInterface
	now  func() time.Time
}

// NewCouponService creates a new CouponService. db is used for the
// read-only evaluation path; redemption runs on the caller's transaction.
func NewCouponService(db database.TxQuerier, repo CouponRepositoryInterface) *CouponService {
	return &CouponService{db: db, repo: repo, now: time.Now}
}

// NormalizeCode maps a user-supplied coupon code to its stored form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate validates a coupon code against the order context and returns
// the discount amount in minor units. Rejections come back as the typed
// sentinel errors in errors.go. Evaluate performs no writes and can be
// retried freely; the usage counts it reads are re-checked under the row
// lock at redemption time.
func (s *CouponService) Evaluate(ctx context.Context, code, userID string, order model.OrderContext) (int64, error) {
	c, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return 0, fmt.Errorf("get coupon: %w", err)
	}
	if c == nil {
		return 0, ErrCouponNotFound
	}

	if err := s.checkRedeemable(ctx, s.db, c, userID, order); err != nil {
		return 0, err
	}
	return discountFor(c, eligibleSubtotal(c, order)), nil
}

// Redeem re-runs the usage checks under a SELECT ... FOR UPDATE on the
// coupon row and inserts the redemption, all inside the caller's checkout
// transaction. Two concurrent checkouts of the same coupon serialize here;
// the loser sees the definitive limit rejection, never a joint overrun.
// A replayed order id is treated as success.
func (s *CouponService) Redeem(ctx context.Context, tx database.TxQuerier, code, userID, orderID string, discount int64) error {
	c, err := s.repo.GetByCodeForUpdate(ctx, tx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("get coupon for update: %w", err)
	}

	if err := s.checkUsage(ctx, tx, c, userID); err != nil {
		return err
	}

	err = s.repo.InsertRedemption(ctx, tx, &model.CouponRedemption{
		CouponID:       c.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
	})
	if errors.Is(err, ErrRedemptionExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

// checkRedeemable runs the validations in a fixed rejection order:
// window, minimum, scope, usage. Callers rely on the order being stable
// so rejection reasons don't flap between retries.
func (s *CouponService) checkRedeemable(ctx context.Context, q database.TxQuerier, c *model.Coupon, userID string, order model.OrderContext) error {
	now := s.now()
	if !c.Active || now.Before(c.StartsAt) || !now.Before(c.EndsAt) {
		return ErrCouponOutOfWindow
	}
	if c.MinOrderValue != nil && order.Subtotal() < *c.MinOrderValue {
		return ErrBelowMinimum
	}
	if c.Scope != model.ScopeGlobal && !scopeMatches(c, order) {
		return ErrScopeMismatch
	}
	return s.checkUsage(ctx, q, c, userID)
}

// checkUsage enforces the global and per-user redemption limits.
func (s *CouponService) checkUsage(ctx context.Context, q database.TxQuerier, c *model.Coupon, userID string) error {
	if c.UsageLimitGlobal > 0 {
		n, err := s.repo.CountRedemptions(ctx, q, c.ID)
		if err != nil {
			return fmt.Errorf("count redemptions: %w", err)
		}
		if n >= c.UsageLimitGlobal {
			return ErrGlobalLimitReached
		}
	}
	if c.UsageLimitPerUser > 0 {
		n, err := s.repo.CountRedemptionsByUser(ctx, q, c.ID, userID)
		if err != nil {
			return fmt.Errorf("count user redemptions: %w", err)
		}
		if n >= c.UsageLimitPerUser {
			return ErrUserLimitReached
		}
	}
	return nil
}

// scopeMatches reports whether at least one cart line falls inside a
// category- or seller-scoped coupon's target set.
func scopeMatches(c *model.Coupon, order model.OrderContext) bool {
	targets := make(map[string]struct{}, len(c.ScopeIDs))
	for _, id := range c.ScopeIDs {
		targets[id] = struct{}{}
	}
	for _, l := range order.Lines {
		switch c.Scope {
		case model.ScopeCategory:
			if _, ok := targets[l.CategoryID]; ok {
				return true
			}
		case model.ScopeSeller:
			if _, ok := targets[l.SellerID]; ok {
				return true
			}
		}
	}
	return false
}

// eligibleSubtotal returns the subtotal the discount applies against: the
// whole cart for global coupons, the matching lines only for scoped ones.
func eligibleSubtotal(c *model.Coupon, order model.OrderContext) int64 {
	if c.Scope == model.ScopeGlobal {
		return order.Subtotal()
	}
	targets := make(map[string]struct{}, len(c.ScopeIDs))
	for _, id := range c.ScopeIDs {
		targets[id] = struct{}{}
	}
	var sum int64
	for _, l := range order.Lines {
		key := l.CategoryID
		if c.Scope == model.ScopeSeller {
			key = l.SellerID
		}
		if _, ok := targets[key]; ok {
			sum += l.Total()
		}
	}
	return sum
}

// discountFor computes the discount against the eligible subtotal: flat
// coupons cap at the subtotal, percentage coupons floor to the minor unit
// and cap at MaxDiscount when set. Never negative.
func discountFor(c *model.Coupon, eligible int64) int64 {
	var d int64
	switch c.Kind {
	case model.DiscountFlat:
		d = c.Value
	case model.DiscountPercentage:
		d = decimal.NewFromInt(eligible).
			Mul(decimal.NewFromInt(c.Value)).
			Div(oneHundred).
			Floor().
			IntPart()
		if c.MaxDiscount != nil && d > *c.MaxDiscount {
			d = *c.MaxDiscount
		}
	}
	if d > eligible {
		d = eligible
	}
	if d < 0 {
		d = 0
	}
	return d
}
