package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// PurchaseRepositoryInterface defines the interface for purchase data
// access shared by checkout, refund and the maturity scheduler.
type PurchaseRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, p *model.Purchase) error
	Get(ctx context.Context, orderID string) (*model.Purchase, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, orderID string) (*model.Purchase, error)
	ListMaturable(ctx context.Context, now time.Time, limit int) ([]model.Purchase, error)
	MarkMatured(ctx context.Context, q database.TxQuerier, orderID string, at time.Time) error
	MarkRefunded(ctx context.Context, tx database.TxQuerier, orderID string, at time.Time) error
}

// CheckoutService runs the order-creation settlement flow: price the
// coupon, split the charge, then persist the purchase, the redemption and
// the pending wallet credit as one transaction. Replaying an order id
// returns the already-stamped purchase unchanged.
type CheckoutService struct {
	pool           TxBeginner
	coupons        *CouponService
	wallet         *WalletService
	purchases      PurchaseRepositoryInterface
	commissionRate decimal.Decimal
	refundWindow   time.Duration
	now            func() time.Time
}

// NewCheckoutService creates a new CheckoutService. commissionRate is the
// platform's cut in whole percent; refundWindow is how long earnings stay
// pending.
func NewCheckoutService(pool TxBeginner, coupons *CouponService, wallet *WalletService, purchases PurchaseRepositoryInterface, commissionRate decimal.Decimal, refundWindow time.Duration) *CheckoutService {
	return &CheckoutService{
		pool:           pool,
		coupons:        coupons,
		wallet:         wallet,
		purchases:      purchases,
		commissionRate: commissionRate,
		refundWindow:   refundWindow,
		now:            time.Now,
	}
}

// Checkout prices and settles one order. Coupon rejections surface as the
// typed sentinel errors. Everything the order writes (purchase row,
// redemption, pending credit) commits or rolls back together.
func (s *CheckoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.Purchase, error) {
	if req == nil || len(req.Lines) == 0 {
		return nil, ErrInvalidRequest
	}

	order := model.OrderContext{Lines: req.Lines}
	subtotal := order.Subtotal()

	var discount int64
	var couponCode *string
	if req.CouponCode != "" {
		d, err := s.coupons.Evaluate(ctx, req.CouponCode, req.BuyerID, order)
		if err != nil {
			return nil, err
		}
		discount = d
		code := NormalizeCode(req.CouponCode)
		couponCode = &code
	}

	pricePaid := subtotal - discount
	commission, earning, err := Split(pricePaid, s.commissionRate)
	if err != nil {
		return nil, err
	}

	purchase := &model.Purchase{
		OrderID:             req.OrderID,
		BuyerID:             req.BuyerID,
		SellerID:            req.SellerID,
		Subtotal:            subtotal,
		Discount:            discount,
		PricePaid:           pricePaid,
		Commission:          commission,
		SellerEarning:       earning,
		CouponCode:          couponCode,
		RefundEligibleUntil: s.now().Add(s.refundWindow),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.purchases.Insert(ctx, tx, purchase); err != nil {
		if errors.Is(err, ErrOrderExists) {
			// Replayed checkout. The first run's stamps are authoritative.
			_ = tx.Rollback(ctx)
			existing, getErr := s.purchases.Get(ctx, req.OrderID)
			if getErr != nil {
				return nil, fmt.Errorf("load existing purchase: %w", getErr)
			}
			if existing == nil {
				return nil, ErrOrderNotFound
			}
			return existing, nil
		}
		return nil, err
	}

	if couponCode != nil {
		if err := s.coupons.Redeem(ctx, tx, *couponCode, req.BuyerID, req.OrderID, discount); err != nil {
			return nil, err
		}
	}

	// A fully discounted order leaves nothing to settle into the wallet.
	if earning > 0 {
		if err := s.wallet.creditPendingTx(ctx, tx, req.SellerID, earning, req.OrderID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	log.Info().
		Str("order_id", req.OrderID).
		Str("seller_id", req.SellerID).
		Int64("price_paid", pricePaid).
		Int64("discount", discount).
		Int64("commission", commission).
		Int64("seller_earning", earning).
		Msg("order settled")

	return purchase, nil
}
