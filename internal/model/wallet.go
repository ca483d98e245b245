package model

import "time"

// Wallet is the authoritative balance store for one seller. All amounts are
// minor currency units. The identity
//
//	lifetime_earned == pending + available + lifetime_withdrawn + reversed
//
// (reversed being the sum of the wallet's reverse ledger entries) holds
// after every operation. AvailableBalance may go negative only through a
// deficit reversal of already-withdrawn earnings.
type Wallet struct {
	SellerID          string
	PendingBalance    int64
	AvailableBalance  int64
	LifetimeEarned    int64
	LifetimeWithdrawn int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryCreditPending    EntryKind = "credit_pending"
	EntryMature           EntryKind = "mature"
	EntryReverse          EntryKind = "reverse"
	EntryWithdrawHold     EntryKind = "withdraw_hold"
	EntryWithdrawComplete EntryKind = "withdraw_complete"
	EntryWithdrawFail     EntryKind = "withdraw_fail"
)

// LedgerEntry is one append-only audit row per wallet mutation. The unique
// key (wallet_id, kind, ref_id) is the idempotency guard: replaying an
// operation for the same order or payout hits the constraint and becomes a
// no-op. PendingAfter/AvailableAfter snapshot the balances the mutation
// left behind.
type LedgerEntry struct {
	ID             int64
	WalletID       string
	Kind           EntryKind
	Amount         int64
	RefID          string // order id or payout id
	PendingAfter   int64
	AvailableAfter int64
	CreatedAt      time.Time
}

// WalletSnapshot is the read-only view served to the seller dashboard.
// LifetimeReversed is derived from the ledger, not stored on the wallet.
type WalletSnapshot struct {
	SellerID          string `json:"seller_id"`
	PendingBalance    int64  `json:"pending_balance"`
	AvailableBalance  int64  `json:"available_balance"`
	LifetimeEarned    int64  `json:"lifetime_earned"`
	LifetimeWithdrawn int64  `json:"lifetime_withdrawn"`
	LifetimeReversed  int64  `json:"lifetime_reversed"`
}
