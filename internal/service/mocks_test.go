package service

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/shopspring/decimal"
)

// MockItems implements ItemReader over a fixed catalog.
type MockItems struct {
	mu    sync.Mutex
	Items map[int64]*domain.Item
	Err   error
	Calls int
}

func (m *MockItems) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	it, ok := m.Items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

// MockSettler implements Settler and captures what it was asked to settle.
type MockSettler struct {
	Result  *domain.SettlementResult
	Err     error
	Settled []domain.Settlement
}

func (m *MockSettler) SettleCheckout(_ context.Context, s domain.Settlement) (*domain.SettlementResult, error) {
	m.Settled = append(m.Settled, s)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return &domain.SettlementResult{}, nil
	}
	return m.Result, nil
}

// MockGateway implements payment.Gateway.
type MockGateway struct {
	Session      *payment.Session
	CreateErr    error
	Requests     []payment.SessionRequest
	Notification *payment.Notification
	VerifyErr    error
}

func (m *MockGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	m.Requests = append(m.Requests, req)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Session, nil
}

func (m *MockGateway) VerifyNotification(_ []byte, _ string) (*payment.Notification, error) {
	if m.VerifyErr != nil {
		return nil, m.VerifyErr
	}
	return m.Notification, nil
}

// MockLedger implements Ledger.
type MockLedger struct {
	Orders      []domain.Order
	History     []domain.HistoryRecord
	Filters     []domain.OrderFilter
	Collected   *domain.HistoryRecord
	Cancelled   *domain.Order
	CancelledBy *domain.Principal
	Err         error
}

func (m *MockLedger) ListOrders(_ context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	m.Filters = append(m.Filters, f)
	return m.Orders, m.Err
}

func (m *MockLedger) ListHistory(_ context.Context, f domain.OrderFilter) ([]domain.HistoryRecord, error) {
	m.Filters = append(m.Filters, f)
	return m.History, m.Err
}

func (m *MockLedger) CollectOrder(_ context.Context, _ int64) (*domain.HistoryRecord, error) {
	return m.Collected, m.Err
}

func (m *MockLedger) CancelOrder(_ context.Context, _ int64, p domain.Principal) (*domain.Order, error) {
	m.CancelledBy = &p
	return m.Cancelled, m.Err
}

// MockAccounts implements AccountStore in memory.
type MockAccounts struct {
	Accounts map[string]*domain.Account
	nextID   int64
}

func (m *MockAccounts) CreateAccount(_ context.Context, username string, hash []byte, role domain.Role) (*domain.Principal, error) {
	if m.Accounts == nil {
		m.Accounts = make(map[string]*domain.Account)
	}
	if _, ok := m.Accounts[username]; ok {
		return nil, domain.Invalid("username %q is taken", username)
	}
	m.nextID++
	a := &domain.Account{
		Principal:    domain.Principal{ID: m.nextID, Username: username, Role: role},
		PasswordHash: hash,
	}
	m.Accounts[username] = a
	p := a.Principal
	return &p, nil
}

func (m *MockAccounts) GetAccountByUsername(_ context.Context, username string) (*domain.Account, error) {
	a, ok := m.Accounts[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

var (
	admin    = domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdmin}
	customer = domain.Principal{ID: 7, Username: "alice", Role: domain.RoleCustomer}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
