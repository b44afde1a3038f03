package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type CheckoutMock struct {
	Redirect  *service.CheckoutRedirect
	CreateErr error
	CartSeen  *domain.Cart
	SettleErr error
	Payload   []byte
	Signature string
}

func (m *CheckoutMock) CreateCheckout(_ context.Context, _ domain.Principal, cart *domain.Cart) (*service.CheckoutRedirect, error) {
	m.CartSeen = cart
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Redirect, nil
}

func (m *CheckoutMock) HandleCompletionNotification(_ context.Context, payload []byte, sig string) (*service.SettlementOutcome, error) {
	m.Payload = payload
	m.Signature = sig
	if m.SettleErr != nil {
		return nil, m.SettleErr
	}
	return &service.SettlementOutcome{EventID: "evt_1", Result: &domain.SettlementResult{}}, nil
}

type FulfillmentMock struct {
	List      []domain.Order
	Record    *domain.HistoryRecord
	Order     *domain.Order
	Err       error
	Principal domain.Principal
	UserID    *int64
}

func (m *FulfillmentMock) Collect(_ context.Context, p domain.Principal, _ int64) (*domain.HistoryRecord, error) {
	m.Principal = p
	return m.Record, m.Err
}

func (m *FulfillmentMock) Cancel(_ context.Context, p domain.Principal, _ int64) (*domain.Order, error) {
	m.Principal = p
	return m.Order, m.Err
}

func (m *FulfillmentMock) Orders(_ context.Context, p domain.Principal, userID *int64) ([]domain.Order, error) {
	m.Principal = p
	m.UserID = userID
	return m.List, m.Err
}

func (m *FulfillmentMock) History(_ context.Context, p domain.Principal, userID *int64) ([]domain.HistoryRecord, error) {
	m.Principal = p
	m.UserID = userID
	return nil, m.Err
}

type AccountsMock struct {
	Principal *domain.Principal
	Err       error
}

func (m *AccountsMock) Authenticate(_ context.Context, username, _ string, role domain.Role) (*domain.Principal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p := *m.Principal
	p.Username = username
	p.Role = role
	return &p, nil
}

func (m *AccountsMock) AddUser(_ context.Context, _ domain.Principal, username, _ string) (*domain.Principal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.Principal{ID: 9, Username: username, Role: domain.RoleCustomer}, nil
}

type ItemsMock map[int64]*domain.Item

func (m ItemsMock) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	it, ok := m[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

// CatalogMock embeds the interface so tests only implement what they call.
type CatalogMock struct {
	Catalog
	Stock decimal.Decimal
	Err   error
}

func (m *CatalogMock) AddStock(_ context.Context, _ domain.Principal, _ int64, q decimal.Decimal) (decimal.Decimal, error) {
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	return m.Stock.Add(q), nil
}

var (
	adminP    = domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdmin}
	customerP = domain.Principal{ID: 7, Username: "alice", Role: domain.RoleCustomer}
)

type testEnv struct {
	router      http.Handler
	store       *cache.RedisCache
	checkout    *CheckoutMock
	fulfillment *FulfillmentMock
	accounts    *AccountsMock
	catalog     *CatalogMock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		store:       cache.NewRedisCache(client, time.Hour),
		checkout:    &CheckoutMock{},
		fulfillment: &FulfillmentMock{},
		accounts:    &AccountsMock{Principal: &domain.Principal{ID: 7}},
		catalog:     &CatalogMock{},
	}
	items := ItemsMock{
		1: {ID: 1, Name: "Apples", PricePerUnit: decimal.RequireFromString("2.00"), Stock: decimal.NewFromInt(10)},
	}
	h := NewHandler(env.catalog, service.NewCartService(items), env.checkout, env.fulfillment, env.accounts,
		NewSessionManager(env.store, false, time.Hour))
	env.router = NewRouter(h, RouterConfig{
		Logger:             zap.NewNop(),
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	})
	return env
}

// login stores a session for p and returns its id.
func (e *testEnv) login(t *testing.T, p domain.Principal, lines ...domain.CartLine) string {
	t.Helper()
	sess := domain.NewSession("sess-" + p.Username)
	sess.Principal = &p
	for _, l := range lines {
		sess.Cart.Put(l)
	}
	require.NoError(t, e.store.Set(context.Background(), sess))
	return sess.ID
}

func (e *testEnv) session(t *testing.T, id string) *domain.Session {
	t.Helper()
	s, err := e.store.Get(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (e *testEnv) do(req *http.Request, sessionID string) *httptest.ResponseRecorder {
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
