package service

import "errors"

// Coupon rejection reasons. These are validation outcomes surfaced to the
// caller as-is; they are never retried.
var (
	// ErrCouponNotFound is returned when no coupon matches the given code.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponOutOfWindow is returned when a coupon is inactive or outside
	// its validity window, regardless of remaining usage.
	ErrCouponOutOfWindow = errors.New("coupon not currently redeemable")

	// ErrBelowMinimum is returned when the order subtotal is below the
	// coupon's minimum order value.
	ErrBelowMinimum = errors.New("order subtotal below coupon minimum")

	// ErrScopeMismatch is returned when no cart line matches a scoped
	// coupon's category or seller targets.
	ErrScopeMismatch = errors.New("coupon does not apply to any cart line")

	// ErrGlobalLimitReached is returned when the coupon's global usage
	// limit is exhausted.
	ErrGlobalLimitReached = errors.New("coupon usage limit reached")

	// ErrUserLimitReached is returned when the user's per-coupon usage
	// limit is exhausted.
	ErrUserLimitReached = errors.New("coupon usage limit reached for user")
)

// Wallet and payout errors.
var (
	// ErrInvalidAmount is returned for zero or negative money amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientPending is returned when a maturation exceeds the
	// pending balance. It signals a scheduling bug upstream and is never
	// silently clamped.
	ErrInsufficientPending = errors.New("maturation exceeds pending balance")

	// ErrInsufficientAvailable is returned when a withdrawal exceeds the
	// available balance.
	ErrInsufficientAvailable = errors.New("insufficient available balance")

	// ErrBelowMinimumWithdrawal is returned when a payout request is below
	// the configured minimum. Checked before the balance.
	ErrBelowMinimumWithdrawal = errors.New("amount below minimum withdrawal")

	// ErrPayoutNotFound is returned when no payout matches the given id.
	ErrPayoutNotFound = errors.New("payout not found")

	// ErrPayoutResolved is returned when a rail callback targets a payout
	// already in the opposite terminal state.
	ErrPayoutResolved = errors.New("payout already resolved")

	// ErrOrderNotFound is returned when no purchase matches the given
	// order id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidRequest is returned when request data is invalid or
	// incomplete.
	ErrInvalidRequest = errors.New("invalid request")
)

// Internal sentinels mapped from database constraints. They are consumed
// inside the service layer to implement idempotent replays and are not
// surfaced to callers.
var (
	// ErrEntryExists marks a ledger-entry insert that hit the
	// (wallet_id, kind, ref_id) unique key: the operation already ran.
	ErrEntryExists = errors.New("ledger entry already recorded")

	// ErrRedemptionExists marks a redemption insert that hit the
	// (coupon_id, order_id) unique key: the order already redeemed it.
	ErrRedemptionExists = errors.New("coupon already redeemed for order")

	// ErrOrderExists marks a purchase insert for an already-created order.
	ErrOrderExists = errors.New("order already exists")
)
