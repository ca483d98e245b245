package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscountKind determines how a coupon's value is applied to a subtotal.
type DiscountKind string

const (
	// DiscountFlat subtracts a fixed amount, capped at the subtotal.
	DiscountFlat DiscountKind = "flat"
	// DiscountPercentage subtracts value% of the subtotal, floored to the
	// minor unit and capped at MaxDiscount when set.
	DiscountPercentage DiscountKind = "percentage"
)

// CouponScope restricts which cart lines a coupon may apply to.
type CouponScope string

const (
	ScopeGlobal   CouponScope = "global"
	ScopeCategory CouponScope = "category"
	ScopeSeller   CouponScope = "seller"
)

// Coupon represents a discount coupon. Codes are stored upper-case and
// matched case-insensitively. Money fields are minor currency units.
type Coupon struct {
	ID                uuid.UUID
	Code              string
	Kind              DiscountKind
	Value             int64 // minor units for flat, whole percent for percentage
	MinOrderValue     *int64
	MaxDiscount       *int64 // percentage kind only
	StartsAt          time.Time
	EndsAt            time.Time // validity window is [StartsAt, EndsAt)
	UsageLimitGlobal  int
	UsageLimitPerUser int
	Scope             CouponScope
	ScopeIDs          []string
	Active            bool
	CreatedAt         time.Time
}

// CouponRedemption records one successful use of a coupon on an order.
// Rows are inserted in the order-creation transaction and never mutated.
type CouponRedemption struct {
	ID             int64
	CouponID       uuid.UUID
	UserID         string
	OrderID        string
	DiscountAmount int64
	CreatedAt      time.Time
}

// OrderLine is a single cart line as seen by the coupon engine.
type OrderLine struct {
	ProductID  string `json:"product_id" validate:"required,notblank"`
	CategoryID string `json:"category_id"`
	SellerID   string `json:"seller_id"`
	UnitPrice  int64  `json:"unit_price" validate:"gte=0"`
	Quantity   int    `json:"quantity" validate:"gte=1"`
}

// Total returns the line total in minor units.
func (l OrderLine) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// OrderContext carries the cart contents a coupon is evaluated against.
type OrderContext struct {
	Lines []OrderLine
}

// Subtotal returns the sum of all line totals.
func (o OrderContext) Subtotal() int64 {
	var sum int64
	for _, l := range o.Lines {
		sum += l.Total()
	}
	return sum
}

// EvaluateCouponRequest is the DTO for POST /api/coupons/evaluate.
type EvaluateCouponRequest struct {
	Code   string      `json:"code" validate:"required,notblank,max=64"`
	UserID string      `json:"user_id" validate:"required,notblank,max=255"`
	Lines  []OrderLine `json:"lines" validate:"required,min=1,dive"`
}

// EvaluateCouponResponse is the success DTO for coupon evaluation.
type EvaluateCouponResponse struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
}
