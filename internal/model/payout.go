package model

import (
	"time"

	"github.com/google/uuid"
)

// PayoutState is the lifecycle state of a withdrawal request.
type PayoutState string

const (
	PayoutRequested  PayoutState = "requested"
	PayoutProcessing PayoutState = "processing"
	PayoutCompleted  PayoutState = "completed" // terminal
	PayoutFailed     PayoutState = "failed"    // terminal, funds credited back
)

// Terminal reports whether the state accepts no further transitions.
func (s PayoutState) Terminal() bool {
	return s == PayoutCompleted || s == PayoutFailed
}

// PayoutRequest is one withdrawal of available earnings to an external
// bank account. It is created in the same transaction as the wallet debit
// so a debit can never exist without its request row, or vice versa.
type PayoutRequest struct {
	ID          uuid.UUID
	SellerID    string
	Amount      int64
	Destination string // external bank account reference
	State       PayoutState
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// RequestPayoutRequest is the DTO for POST /api/payouts.
type RequestPayoutRequest struct {
	SellerID    string `json:"seller_id" validate:"required,notblank,max=255"`
	Amount      *int64 `json:"amount" validate:"required,gte=1"`
	Destination string `json:"destination" validate:"required,notblank,max=255"`
}

// PayoutResultRequest is the DTO for the payment rail's asynchronous
// outcome callback, POST /api/payouts/:id/result.
type PayoutResultRequest struct {
	Status string `json:"status" validate:"required,oneof=completed failed"`
}

// PayoutResponse is the API view of a payout request.
type PayoutResponse struct {
	ID          string     `json:"id"`
	SellerID    string     `json:"seller_id"`
	Amount      int64      `json:"amount"`
	Destination string     `json:"destination"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}
