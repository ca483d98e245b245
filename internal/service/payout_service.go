package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// PayoutRepositoryInterface defines the interface for payout data access.
type PayoutRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, p *model.PayoutRequest) error
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.PayoutRequest, error)
	UpdateState(ctx context.Context, tx database.TxQuerier, id uuid.UUID, state model.PayoutState, resolvedAt *time.Time) error
	ListBySeller(ctx context.Context, sellerID string) ([]model.PayoutRequest, error)
}

// PayoutService drives withdrawal requests. The hold debit and the request
// row are one transaction, so neither can exist without the other; the
// asynchronous rail outcome is applied later as its own transaction, never
// while a wallet lock is held across network I/O.
type PayoutService struct {
	pool          TxBeginner
	wallet        *WalletService
	payouts       PayoutRepositoryInterface
	minWithdrawal int64
	now           func() time.Time
	newID         func() uuid.UUID
}

// NewPayoutService creates a new PayoutService. minWithdrawal is the
// smallest accepted payout in minor units.
func NewPayoutService(pool TxBeginner, wallet *WalletService, payouts PayoutRepositoryInterface, minWithdrawal int64) *PayoutService {
	return &PayoutService{
		pool:          pool,
		wallet:        wallet,
		payouts:       payouts,
		minWithdrawal: minWithdrawal,
		now:           time.Now,
		newID:         uuid.New,
	}
}

// RequestPayout validates and opens a withdrawal. The minimum check runs
// before the balance is ever read. Returns the created request in state
// REQUESTED.
func (s *PayoutService) RequestPayout(ctx context.Context, sellerID string, amount int64, destination string) (*model.PayoutRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount < s.minWithdrawal {
		return nil, ErrBelowMinimumWithdrawal
	}

	payout := &model.PayoutRequest{
		ID:          s.newID(),
		SellerID:    sellerID,
		Amount:      amount,
		Destination: destination,
		State:       model.PayoutRequested,
		CreatedAt:   s.now(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.wallet.debitTx(ctx, tx, sellerID, amount, payout.ID.String()); err != nil {
		return nil, err
	}
	if err := s.payouts.Insert(ctx, tx, payout); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payout request: %w", err)
	}

	log.Info().
		Str("payout_id", payout.ID.String()).
		Str("seller_id", sellerID).
		Int64("amount", amount).
		Msg("payout requested")
	return payout, nil
}

// MarkProcessing records the hand-off to the external payment rail.
// Repeated calls while processing are no-ops; terminal states reject.
func (s *PayoutService) MarkProcessing(ctx context.Context, payoutID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
	if err != nil {
		return err
	}
	switch p.State {
	case model.PayoutProcessing:
		return nil
	case model.PayoutCompleted, model.PayoutFailed:
		return ErrPayoutResolved
	}

	if err := s.payouts.UpdateState(ctx, tx, payoutID, model.PayoutProcessing, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Complete resolves a payout the rail confirmed. The wallet already gave
// the money up at hold time; this appends the audit entry and closes the
// request. Replays return nil.
func (s *PayoutService) Complete(ctx context.Context, payoutID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
	if err != nil {
		return err
	}
	switch p.State {
	case model.PayoutCompleted:
		return nil
	case model.PayoutFailed:
		return ErrPayoutResolved
	}

	if err := s.wallet.recordCompletionTx(ctx, tx, p.SellerID, p.Amount, payoutID.String()); err != nil {
		return err
	}
	resolvedAt := s.now()
	if err := s.payouts.UpdateState(ctx, tx, payoutID, model.PayoutCompleted, &resolvedAt); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit payout completion: %w", err)
	}

	log.Info().
		Str("payout_id", payoutID.String()).
		Str("seller_id", p.SellerID).
		Int64("amount", p.Amount).
		Msg("payout completed")
	return nil
}

// Fail resolves a payout the rail rejected: the held amount is credited
// back to the available balance in the same transaction that closes the
// request, so funds are never left in limbo. Replays return nil.
func (s *PayoutService) Fail(ctx context.Context, payoutID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := s.payouts.GetForUpdate(ctx, tx, payoutID)
	if err != nil {
		return err
	}
	switch p.State {
	case model.PayoutFailed:
		return nil
	case model.PayoutCompleted:
		return ErrPayoutResolved
	}

	if err := s.wallet.creditAvailableTx(ctx, tx, p.SellerID, p.Amount, payoutID.String()); err != nil {
		return err
	}
	resolvedAt := s.now()
	if err := s.payouts.UpdateState(ctx, tx, payoutID, model.PayoutFailed, &resolvedAt); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit payout failure: %w", err)
	}

	log.Warn().
		Str("payout_id", payoutID.String()).
		Str("seller_id", p.SellerID).
		Int64("amount", p.Amount).
		Msg("payout failed, funds returned to available balance")
	return nil
}

// ListBySeller returns a seller's payout history for the withdrawal UI.
func (s *PayoutService) ListBySeller(ctx context.Context, sellerID string) ([]model.PayoutRequest, error) {
	return s.payouts.ListBySeller(ctx, sellerID)
}
