package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

func newTestCheckoutService(couponRepo *mockCouponRepository, purchases *mockPurchaseRepository, store *memStore) *CheckoutService {
	coupons := NewCouponService(nil, couponRepo)
	coupons.now = func() time.Time { return testNow }
	wallet := newTestWalletService(store)
	svc := NewCheckoutService(&mockTxBeginner{}, coupons, wallet, purchases,
		decimal.NewFromInt(20), 168*time.Hour)
	svc.now = func() time.Time { return testNow }
	return svc
}

func checkoutRequest(price int64) *model.CheckoutRequest {
	return &model.CheckoutRequest{
		OrderID:  "order_001",
		BuyerID:  "buyer_001",
		SellerID: "seller_001",
		Lines: []model.OrderLine{
			{ProductID: "note_001", CategoryID: "cat_math", SellerID: "seller_001", UnitPrice: price, Quantity: 1},
		},
	}
}

func TestCheckoutService_Checkout_NoCoupon(t *testing.T) {
	var captured *model.Purchase
	purchases := &mockPurchaseRepository{
		insertFn: func(ctx context.Context, tx database.TxQuerier, p *model.Purchase) error {
			captured = p
			return nil
		},
	}
	store := newMemStore()
	svc := newTestCheckoutService(&mockCouponRepository{}, purchases, store)

	p, err := svc.Checkout(context.Background(), checkoutRequest(1000))

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, int64(1000), p.Subtotal)
	assert.Equal(t, int64(0), p.Discount)
	assert.Equal(t, int64(1000), p.PricePaid)
	assert.Equal(t, int64(200), p.Commission)
	assert.Equal(t, int64(800), p.SellerEarning)
	assert.Nil(t, p.CouponCode)
	assert.Equal(t, testNow.Add(168*time.Hour), p.RefundEligibleUntil)

	w, _ := store.Get(context.Background(), "seller_001")
	require.NotNil(t, w, "checkout must credit the seller's pending balance")
	assert.Equal(t, int64(800), w.PendingBalance)
}

func TestCheckoutService_Checkout_WithCoupon(t *testing.T) {
	var redeemed *model.CouponRedemption
	couponRepo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return testCoupon(model.DiscountFlat, 500), nil
		},
		getByCodeForUpdateFn: func(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
			return testCoupon(model.DiscountFlat, 500), nil
		},
		insertRedemptionFn: func(ctx context.Context, tx database.TxQuerier, red *model.CouponRedemption) error {
			redeemed = red
			return nil
		},
	}
	store := newMemStore()
	svc := newTestCheckoutService(couponRepo, &mockPurchaseRepository{}, store)

	req := checkoutRequest(2000)
	req.CouponCode = "save20"
	p, err := svc.Checkout(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, int64(500), p.Discount)
	assert.Equal(t, int64(1500), p.PricePaid)
	assert.Equal(t, int64(300), p.Commission) // 20% of the discounted price
	assert.Equal(t, int64(1200), p.SellerEarning)
	require.NotNil(t, p.CouponCode)
	assert.Equal(t, "SAVE20", *p.CouponCode)

	require.NotNil(t, redeemed, "checkout must record the redemption")
	assert.Equal(t, "order_001", redeemed.OrderID)
	assert.Equal(t, int64(500), redeemed.DiscountAmount)

	w, _ := store.Get(context.Background(), "seller_001")
	assert.Equal(t, int64(1200), w.PendingBalance, "seller absorbs the coupon discount")
}

func TestCheckoutService_Checkout_CouponRejectionStopsOrder(t *testing.T) {
	couponRepo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return nil, nil // Not found
		},
	}
	inserted := false
	purchases := &mockPurchaseRepository{
		insertFn: func(ctx context.Context, tx database.TxQuerier, p *model.Purchase) error {
			inserted = true
			return nil
		},
	}
	store := newMemStore()
	svc := newTestCheckoutService(couponRepo, purchases, store)

	req := checkoutRequest(2000)
	req.CouponCode = "NOPE"
	_, err := svc.Checkout(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCouponNotFound))
	assert.False(t, inserted, "a rejected coupon must fail the checkout before any write")
}

func TestCheckoutService_Checkout_ReplayReturnsExistingOrder(t *testing.T) {
	stamped := &model.Purchase{
		OrderID:       "order_001",
		SellerID:      "seller_001",
		Subtotal:      1000,
		PricePaid:     1000,
		Commission:    200,
		SellerEarning: 800,
	}
	purchases := &mockPurchaseRepository{
		insertFn: func(ctx context.Context, tx database.TxQuerier, p *model.Purchase) error {
			return ErrOrderExists
		},
		getFn: func(ctx context.Context, orderID string) (*model.Purchase, error) {
			return stamped, nil
		},
	}
	store := newMemStore()
	svc := newTestCheckoutService(&mockCouponRepository{}, purchases, store)

	p, err := svc.Checkout(context.Background(), checkoutRequest(1000))

	require.NoError(t, err)
	assert.Equal(t, stamped, p, "replay must return the first run's stamps")

	w, _ := store.Get(context.Background(), "seller_001")
	assert.Nil(t, w, "replay must not credit the wallet again")
}

func TestCheckoutService_Checkout_FullyDiscountedOrderSkipsWallet(t *testing.T) {
	couponRepo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return testCoupon(model.DiscountFlat, 5000), nil
		},
		getByCodeForUpdateFn: func(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
			return testCoupon(model.DiscountFlat, 5000), nil
		},
	}
	store := newMemStore()
	svc := newTestCheckoutService(couponRepo, &mockPurchaseRepository{}, store)

	req := checkoutRequest(2000)
	req.CouponCode = "SAVE20"
	p, err := svc.Checkout(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, int64(0), p.PricePaid)
	assert.Equal(t, int64(0), p.SellerEarning)

	w, _ := store.Get(context.Background(), "seller_001")
	assert.Nil(t, w, "nothing to settle, so no wallet should be created")
}

func TestCheckoutService_Checkout_InvalidRequest(t *testing.T) {
	store := newMemStore()
	svc := newTestCheckoutService(&mockCouponRepository{}, &mockPurchaseRepository{}, store)

	_, err := svc.Checkout(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = svc.Checkout(context.Background(), &model.CheckoutRequest{OrderID: "order_001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest), "empty cart is invalid")
}

func TestCheckoutService_Checkout_RollbackOnRedemptionFailure(t *testing.T) {
	rollbackCalled := false
	tx := &mockTx{
		rollbackFn: func(ctx context.Context) error {
			rollbackCalled = true
			return nil
		},
	}
	pool := &mockTxBeginner{
		beginFn: func(ctx context.Context) (pgx.Tx, error) {
			return tx, nil
		},
	}

	couponRepo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return testCoupon(model.DiscountFlat, 500), nil
		},
		getByCodeForUpdateFn: func(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
			return nil, errors.New("database query timeout")
		},
	}
	coupons := NewCouponService(nil, couponRepo)
	coupons.now = func() time.Time { return testNow }
	store := newMemStore()
	svc := NewCheckoutService(pool, coupons, newTestWalletService(store), &mockPurchaseRepository{},
		decimal.NewFromInt(20), 168*time.Hour)

	req := checkoutRequest(2000)
	req.CouponCode = "SAVE20"
	_, err := svc.Checkout(context.Background(), req)

	require.Error(t, err)
	assert.True(t, rollbackCalled, "rollback should be called on failure")
}
