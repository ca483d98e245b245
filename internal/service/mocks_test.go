package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Girish12277/NoteVault-GodMode-sub004/internal/model"
	"github.com/Girish12277/NoteVault-GodMode-sub004/pkg/database"
)

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

// mockCouponRepository is a mock implementation of CouponRepositoryInterface.
type mockCouponRepository struct {
	getByCodeFn              func(ctx context.Context, code string) (*model.Coupon, error)
	getByCodeForUpdateFn     func(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	countRedemptionsFn       func(ctx context.Context, q database.TxQuerier, couponID uuid.UUID) (int, error)
	countRedemptionsByUserFn func(ctx context.Context, q database.TxQuerier, couponID uuid.UUID, userID string) (int, error)
	insertRedemptionFn       func(ctx context.Context, tx database.TxQuerier, red *model.CouponRedemption) error
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockCouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	if m.getByCodeForUpdateFn != nil {
		return m.getByCodeForUpdateFn(ctx, tx, code)
	}
	return nil, ErrCouponNotFound
}

func (m *mockCouponRepository) CountRedemptions(ctx context.Context, q database.TxQuerier, couponID uuid.UUID) (int, error) {
	if m.countRedemptionsFn != nil {
		return m.countRedemptionsFn(ctx, q, couponID)
	}
	return 0, nil
}

func (m *mockCouponRepository) CountRedemptionsByUser(ctx context.Context, q database.TxQuerier, couponID uuid.UUID, userID string) (int, error) {
	if m.countRedemptionsByUserFn != nil {
		return m.countRedemptionsByUserFn(ctx, q, couponID, userID)
	}
	return 0, nil
}

func (m *mockCouponRepository) InsertRedemption(ctx context.Context, tx database.TxQuerier, red *model.CouponRedemption) error {
	if m.insertRedemptionFn != nil {
		return m.insertRedemptionFn(ctx, tx, red)
	}
	return nil
}

// mockPurchaseRepository is a mock implementation of PurchaseRepositoryInterface.
type mockPurchaseRepository struct {
	insertFn        func(ctx context.Context, tx database.TxQuerier, p *model.Purchase) error
	getFn           func(ctx context.Context, orderID string) (*model.Purchase, error)
	getForUpdateFn  func(ctx context.Context, tx database.TxQuerier, orderID string) (*model.Purchase, error)
	listMaturableFn func(ctx context.Context, now time.Time, limit int) ([]model.Purchase, error)
	markMaturedFn   func(ctx context.Context, q database.TxQuerier, orderID string, at time.Time) error
	markRefundedFn  func(ctx context.Context, tx database.TxQuerier, orderID string, at time.Time) error
}

func (m *mockPurchaseRepository) Insert(ctx context.Context, tx database.TxQuerier, p *model.Purchase) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, p)
	}
	return nil
}

func (m *mockPurchaseRepository) Get(ctx context.Context, orderID string) (*model.Purchase, error) {
	if m.getFn != nil {
		return m.getFn(ctx, orderID)
	}
	return nil, nil
}

func (m *mockPurchaseRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, orderID string) (*model.Purchase, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, orderID)
	}
	return nil, ErrOrderNotFound
}

func (m *mockPurchaseRepository) ListMaturable(ctx context.Context, now time.Time, limit int) ([]model.Purchase, error) {
	if m.listMaturableFn != nil {
		return m.listMaturableFn(ctx, now, limit)
	}
	return nil, nil
}

func (m *mockPurchaseRepository) MarkMatured(ctx context.Context, q database.TxQuerier, orderID string, at time.Time) error {
	if m.markMaturedFn != nil {
		return m.markMaturedFn(ctx, q, orderID, at)
	}
	return nil
}

func (m *mockPurchaseRepository) MarkRefunded(ctx context.Context, tx database.TxQuerier, orderID string, at time.Time) error {
	if m.markRefundedFn != nil {
		return m.markRefundedFn(ctx, tx, orderID, at)
	}
	return nil
}

// mockPayoutRepository is a mock implementation of PayoutRepositoryInterface.
type mockPayoutRepository struct {
	insertFn       func(ctx context.Context, tx database.TxQuerier, p *model.PayoutRequest) error
	getForUpdateFn func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.PayoutRequest, error)
	updateStateFn  func(ctx context.Context, tx database.TxQuerier, id uuid.UUID, state model.PayoutState, resolvedAt *time.Time) error
	listBySellerFn func(ctx context.Context, sellerID string) ([]model.PayoutRequest, error)
}

func (m *mockPayoutRepository) Insert(ctx context.Context, tx database.TxQuerier, p *model.PayoutRequest) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, p)
	}
	return nil
}

func (m *mockPayoutRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.PayoutRequest, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrPayoutNotFound
}

func (m *mockPayoutRepository) UpdateState(ctx context.Context, tx database.TxQuerier, id uuid.UUID, state model.PayoutState, resolvedAt *time.Time) error {
	if m.updateStateFn != nil {
		return m.updateStateFn(ctx, tx, id, state, resolvedAt)
	}
	return nil
}

func (m *mockPayoutRepository) ListBySeller(ctx context.Context, sellerID string) ([]model.PayoutRequest, error) {
	if m.listBySellerFn != nil {
		return m.listBySellerFn(ctx, sellerID)
	}
	return []model.PayoutRequest{}, nil
}

// memStore is an in-memory wallet and ledger backing for wallet-flow tests.
// It enforces the same (wallet_id, kind, ref_id) uniqueness the database
// does, so replay behavior can be exercised without Postgres.
type memStore struct {
	wallets map[string]*model.Wallet
	entries []model.LedgerEntry
	keys    map[string]struct{}
}

func newMemStore() *memStore {
	return &memStore{
		wallets: make(map[string]*model.Wallet),
		keys:    make(map[string]struct{}),
	}
}

func (m *memStore) Get(ctx context.Context, sellerID string) (*model.Wallet, error) {
	w, ok := m.wallets[sellerID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (m *memStore) GetForUpdate(ctx context.Context, tx database.TxQuerier, sellerID string) (*model.Wallet, error) {
	return m.Get(ctx, sellerID)
}

func (m *memStore) Create(ctx context.Context, tx database.TxQuerier, sellerID string) error {
	if _, ok := m.wallets[sellerID]; ok {
		return nil
	}
	m.wallets[sellerID] = &model.Wallet{SellerID: sellerID}
	return nil
}

func (m *memStore) UpdateBalances(ctx context.Context, tx database.TxQuerier, w *model.Wallet) error {
	cp := *w
	m.wallets[w.SellerID] = &cp
	return nil
}

func (m *memStore) Insert(ctx context.Context, tx database.TxQuerier, e *model.LedgerEntry) error {
	key := fmt.Sprintf("%s|%s|%s", e.WalletID, e.Kind, e.RefID)
	if _, ok := m.keys[key]; ok {
		return ErrEntryExists
	}
	m.keys[key] = struct{}{}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memStore) HasEntry(ctx context.Context, q database.TxQuerier, walletID string, kind model.EntryKind, refID string) (bool, error) {
	key := fmt.Sprintf("%s|%s|%s", walletID, kind, refID)
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memStore) SumByKind(ctx context.Context, walletID string, kind model.EntryKind) (int64, error) {
	var sum int64
	for _, e := range m.entries {
		if e.WalletID == walletID && e.Kind == kind {
			sum += e.Amount
		}
	}
	return sum, nil
}

// countByKind returns the number of recorded entries of a kind for a wallet.
func (m *memStore) countByKind(walletID string, kind model.EntryKind) int {
	n := 0
	for _, e := range m.entries {
		if e.WalletID == walletID && e.Kind == kind {
			n++
		}
	}
	return n
}

func int64Ptr(v int64) *int64 {
	return &v
}
