package model

import "time"

// Purchase is the settlement view of one completed order: the price split
// stamped at checkout plus the refund-window bookkeeping the scheduler and
// refund flow operate on. File access to the purchased notes is owned by
// the download collaborator, not this core.
//
// MaturedAt/RefundedAt are scan optimizations; the ledger's unique entry
// key remains the idempotency authority for both transitions.
type Purchase struct {
	OrderID             string
	BuyerID             string
	SellerID            string
	Subtotal            int64
	Discount            int64
	PricePaid           int64
	Commission          int64
	SellerEarning       int64
	CouponCode          *string
	RefundEligibleUntil time.Time
	MaturedAt           *time.Time
	RefundedAt          *time.Time
	CreatedAt           time.Time
}

// CheckoutRequest is the DTO for POST /api/checkout. Multi-seller carts are
// split into one order per earning seller upstream; Lines still carry
// per-line category/seller ids for coupon scoping.
type CheckoutRequest struct {
	OrderID    string      `json:"order_id" validate:"required,notblank,max=64"`
	BuyerID    string      `json:"buyer_id" validate:"required,notblank,max=255"`
	SellerID   string      `json:"seller_id" validate:"required,notblank,max=255"`
	CouponCode string      `json:"coupon_code" validate:"omitempty,max=64"`
	Lines      []OrderLine `json:"lines" validate:"required,min=1,dive"`
}

// CheckoutResponse echoes the stamped settlement split back to the caller.
type CheckoutResponse struct {
	OrderID             string    `json:"order_id"`
	Subtotal            int64     `json:"subtotal"`
	Discount            int64     `json:"discount"`
	PricePaid           int64     `json:"price_paid"`
	Commission          int64     `json:"commission"`
	SellerEarning       int64     `json:"seller_earning"`
	RefundEligibleUntil time.Time `json:"refund_eligible_until"`
}

// RefundRequest is the DTO for the payments collaborator's refund webhook.
type RefundRequest struct {
	OrderID string `json:"order_id" validate:"required,notblank,max=64"`
}
