package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	repo, err := NewRepository(&Credentials{
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.RunMigrations())
	// second run is a no-op
	require.NoError(t, repo.RunMigrations())
	return repo
}

type fixture struct {
	user  *domain.Principal
	apple *domain.Item
	pear  *domain.Item
}

func seed(t *testing.T, repo *Repository, appleStock, pearStock string) fixture {
	t.Helper()
	ctx := context.Background()

	user, err := repo.CreateAccount(ctx, "alice", []byte("hash"), domain.RoleCustomer)
	require.NoError(t, err)
	cat, err := repo.CreateCategory(ctx, "Fruit")
	require.NoError(t, err)
	apple, err := repo.CreateItem(ctx, domain.Item{
		Name: "Apples", CategoryID: cat.ID,
		PricePerUnit: decimal.RequireFromString("2.00"), Stock: decimal.RequireFromString(appleStock),
	})
	require.NoError(t, err)
	pear, err := repo.CreateItem(ctx, domain.Item{
		Name: "Pears", CategoryID: cat.ID,
		PricePerUnit: decimal.RequireFromString("1.25"), Stock: decimal.RequireFromString(pearStock),
	})
	require.NoError(t, err)
	return fixture{user: user, apple: apple, pear: pear}
}

func stockOf(t *testing.T, repo *Repository, id int64) decimal.Decimal {
	t.Helper()
	it, err := repo.GetItem(context.Background(), id)
	require.NoError(t, err)
	return it.Stock
}

func TestIntegration_ConcurrentTryReserveAdmitsOne(t *testing.T) {
	repo := setupTestDB(t)
	f := seed(t, repo, "1", "0")

	const callers = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryReserve(context.Background(), f.apple.ID, decimal.NewFromInt(1))
			if err == nil && ok {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.True(t, stockOf(t, repo, f.apple.ID).IsZero())
}

func TestIntegration_SettlementScenario(t *testing.T) {
	repo := setupTestDB(t)
	f := seed(t, repo, "10", "2")
	ctx := context.Background()

	s := domain.Settlement{
		CheckoutSessionID: "cs_test_scenario",
		EventID:           "evt_1",
		UserID:            f.user.ID,
		Lines: []domain.SettlementLine{
			{ItemID: f.apple.ID, Quantity: decimal.NewFromInt(3)},
			{ItemID: f.pear.ID, Quantity: decimal.NewFromInt(3)},
		},
	}

	res, err := repo.SettleCheckout(ctx, s)
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	require.Len(t, res.Shortfalls, 1)

	order := res.Orders[0]
	assert.Equal(t, f.user.ID, order.UserID)
	assert.Equal(t, f.apple.ID, order.ItemID)
	assert.True(t, order.Price.Equal(decimal.RequireFromString("6.00")))
	assert.True(t, stockOf(t, repo, f.apple.ID).Equal(decimal.NewFromInt(7)))
	assert.True(t, stockOf(t, repo, f.pear.ID).Equal(decimal.NewFromInt(2)))

	// redelivery of the same checkout changes nothing
	s.EventID = "evt_2"
	replay, err := repo.SettleCheckout(ctx, s)
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.True(t, stockOf(t, repo, f.apple.ID).Equal(decimal.NewFromInt(7)))

	orders, err := repo.ListOrders(ctx, domain.OrderFilter{UserID: &f.user.ID})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	events, err := repo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderSettled, events[0].EventType)
	require.NoError(t, repo.MarkPublished(ctx, events[0].ID))
}

func TestIntegration_ConcurrentReplaysSettleOnce(t *testing.T) {
	repo := setupTestDB(t)
	f := seed(t, repo, "10", "0")

	s := domain.Settlement{
		CheckoutSessionID: "cs_test_race",
		EventID:           "evt_1",
		UserID:            f.user.ID,
		Lines:             []domain.SettlementLine{{ItemID: f.apple.ID, Quantity: decimal.NewFromInt(4)}},
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.SettleCheckout(context.Background(), s)
		}()
	}
	wg.Wait()

	assert.True(t, stockOf(t, repo, f.apple.ID).Equal(decimal.NewFromInt(6)))
	orders, err := repo.ListOrders(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestIntegration_CancelAndCollect(t *testing.T) {
	repo := setupTestDB(t)
	f := seed(t, repo, "10", "5")
	ctx := context.Background()

	res, err := repo.SettleCheckout(ctx, domain.Settlement{
		CheckoutSessionID: "cs_test_fulfil",
		EventID:           "evt_1",
		UserID:            f.user.ID,
		Lines: []domain.SettlementLine{
			{ItemID: f.apple.ID, Quantity: decimal.RequireFromString("2.5")},
			{ItemID: f.pear.ID, Quantity: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)
	assert.True(t, stockOf(t, repo, f.apple.ID).Equal(decimal.RequireFromString("7.5")))

	stranger := domain.Principal{ID: f.user.ID + 100, Role: domain.RoleCustomer}
	_, err = repo.CancelOrder(ctx, res.Orders[0].ID, stranger)
	require.ErrorIs(t, err, domain.ErrPermission)
	assert.True(t, stockOf(t, repo, f.apple.ID).Equal(decimal.RequireFromString("7.5")))

	_, err = repo.CancelOrder(ctx, res.Orders[0].ID, *f.user)
	require.NoError(t, err)
	assert.True(t, stockOf(t, repo, f.apple.ID).Equal(decimal.NewFromInt(10)))

	rec, err := repo.CollectOrder(ctx, res.Orders[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Pears", rec.ItemName)
	assert.True(t, stockOf(t, repo, f.pear.ID).Equal(decimal.NewFromInt(4)))

	open, err := repo.ListOrders(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, open)

	hist, err := repo.ListHistory(ctx, domain.OrderFilter{UserID: &f.user.ID})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, res.Orders[1].ID, hist[0].OrderID)

	// an item with only history can be deleted; the history keeps its name
	require.NoError(t, repo.DeleteItem(ctx, f.pear.ID))
}
