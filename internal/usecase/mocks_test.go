//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/adapter"
	"course-payment-engine/internal/domain/ports/repository"
	"course-payment-engine/internal/domain/query"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// -----------------------------
// Payment repository
// -----------------------------

// MockPaymentRepo is an in-memory PaymentRepository that preserves the real
// store's contracts: transaction-id uniqueness, copy-on-read, and the
// documented default ordering for listings.
type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment

	SaveFunc                func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc            func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	FindByTransactionIDFunc func(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error)
	StatsFunc               func(ctx context.Context, tx repository.Tx, start, end time.Time) (*query.PaymentStats, error)
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.TransactionID != nil {
		for _, other := range m.data {
			if other.ID != p.ID && other.TransactionID != nil && *other.TransactionID == *p.TransactionID {
				return domain.ErrDuplicateTransaction
			}
		}
	}
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	if m.FindByTransactionIDFunc != nil {
		return m.FindByTransactionIDFunc(ctx, tx, transactionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) List(ctx context.Context, tx repository.Tx, filter repository.PaymentFilter, page repository.PageRequest) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []*model.Payment{}
	for _, p := range m.data {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && p.UserID != *filter.UserID {
			continue
		}
		if filter.ProductID != nil && p.ProductID != *filter.ProductID {
			continue
		}
		if filter.Gateway != nil && p.Gateway != *filter.Gateway {
			continue
		}
		if filter.StartDate != nil && p.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && p.CreatedAt.After(*filter.EndDate) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}

	asc := page.SortDirection == query.SortAsc
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var cmp int
		switch page.SortBy {
		case "amount":
			cmp = a.Amount.Cmp(b.Amount)
		case "id":
			cmp = strings.Compare(a.ID, b.ID)
		default: // created_at
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				cmp = -1
			case a.CreatedAt.After(b.CreatedAt):
				cmp = 1
			}
		}
		if cmp == 0 {
			// id tiebreaker keeps pages stable, as the SQL repo does
			cmp = strings.Compare(a.ID, b.ID)
		}
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})

	if page.Skip >= len(matched) {
		return []*model.Payment{}, nil
	}
	matched = matched[page.Skip:]
	if page.Take > 0 && page.Take < len(matched) {
		matched = matched[:page.Take]
	}
	return matched, nil
}

func (m *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	return m.List(ctx, tx, repository.PaymentFilter{UserID: &userID}, repository.PageRequest{Take: 1000})
}

func (m *MockPaymentRepo) Stats(ctx context.Context, tx repository.Tx, start, end time.Time) (*query.PaymentStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, tx, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	st := &query.PaymentStats{TotalRevenue: decimal.Zero, AveragePaymentAmount: decimal.Zero}
	for _, p := range m.data {
		if p.CreatedAt.Before(start) || p.CreatedAt.After(end) {
			continue
		}
		st.TotalPayments++
		switch p.Status {
		case model.PaymentStatusCompleted:
			st.CompletedPayments++
			st.TotalRevenue = st.TotalRevenue.Add(p.Amount)
		case model.PaymentStatusFailed:
			st.FailedPayments++
		case model.PaymentStatusPending:
			st.PendingPayments++
		case model.PaymentStatusRefunded:
			st.RefundedPayments++
		}
	}
	if st.CompletedPayments > 0 {
		st.AveragePaymentAmount = st.TotalRevenue.Div(decimal.NewFromInt(int64(st.CompletedPayments)))
	}
	return st, nil
}

func (m *MockPaymentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// -----------------------------
// Enrollment repository
// -----------------------------

type MockEnrollmentRepo struct {
	mu     sync.Mutex
	grants map[string]*model.EnrollmentGrant // key: userID|programID

	SaveFunc func(ctx context.Context, tx repository.Tx, g *model.EnrollmentGrant) error
}

func NewMockEnrollmentRepo() *MockEnrollmentRepo {
	return &MockEnrollmentRepo{grants: make(map[string]*model.EnrollmentGrant)}
}

func (m *MockEnrollmentRepo) Save(ctx context.Context, tx repository.Tx, g *model.EnrollmentGrant) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, g)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := g.UserID + "|" + g.ProgramID
	if _, ok := m.grants[key]; ok {
		return nil // upsert no-op, as ON CONFLICT DO NOTHING
	}
	cp := *g
	m.grants[key] = &cp
	return nil
}

func (m *MockEnrollmentRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.EnrollmentGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.EnrollmentGrant{}
	for _, g := range m.grants {
		if g.PaymentID == paymentID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramID < out[j].ProgramID })
	return out, nil
}

func (m *MockEnrollmentRepo) ExistsForUserProgram(ctx context.Context, tx repository.Tx, userID, programID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.grants[userID+"|"+programID]
	return ok, nil
}

func (m *MockEnrollmentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.grants)
}

// -----------------------------
// Catalog and user directory
// -----------------------------

type MockCatalogRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func NewMockCatalogRepo() *MockCatalogRepo {
	return &MockCatalogRepo{products: make(map[string]*model.Product)}
}

func (m *MockCatalogRepo) Add(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MockCatalogRepo) FindProduct(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	cp.ProgramIDs = append([]string(nil), p.ProgramIDs...)
	return &cp, nil
}

type MockUserDirectory struct {
	mu    sync.Mutex
	users map[string]bool
}

func NewMockUserDirectory(ids ...string) *MockUserDirectory {
	m := &MockUserDirectory{users: make(map[string]bool)}
	for _, id := range ids {
		m.users[id] = true
	}
	return m
}

func (m *MockUserDirectory) Exists(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID], nil
}

// -----------------------------
// Gateway
// -----------------------------

type MockGateway struct {
	mu          sync.Mutex
	chargeCalls int

	ChargeFunc func(ctx context.Context, req adapter.ChargeRequest) (adapter.ChargeResult, error)
	RefundFunc func(ctx context.Context, req adapter.RefundRequest) (adapter.RefundResult, error)
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) Charge(ctx context.Context, req adapter.ChargeRequest) (adapter.ChargeResult, error) {
	g.mu.Lock()
	g.chargeCalls++
	g.mu.Unlock()
	if g.ChargeFunc != nil {
		return g.ChargeFunc(ctx, req)
	}
	txID := req.TransactionID
	if txID == "" {
		txID = "mock-txn-" + req.PaymentID
	}
	return adapter.ChargeResult{Approved: true, TransactionID: txID, Status: "captured"}, nil
}

func (g *MockGateway) Refund(ctx context.Context, req adapter.RefundRequest) (adapter.RefundResult, error) {
	if g.RefundFunc != nil {
		return g.RefundFunc(ctx, req)
	}
	return adapter.RefundResult{Approved: true, RefundID: "refund-" + req.PaymentID, Status: "done"}, nil
}

func (g *MockGateway) ChargeCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chargeCalls
}

// -----------------------------
// Transaction manager
// -----------------------------

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	// By default, execute the function immediately with NoTX.
	return fn(ctx, repository.NoTX)
}
