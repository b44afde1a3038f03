package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetItem(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(queryGetItem)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category_id", "price_per_unit", "stock", "updated_at"}).
			AddRow(int64(1), "Apples", int64(3), "2.00", "10.000", now))

	it, err := repo.GetItem(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Apples", it.Name)
	assert.True(t, it.PricePerUnit.Equal(decimal.NewFromInt(2)))
	assert.True(t, it.Stock.Equal(decimal.NewFromInt(10)))
}

func TestGetItem_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetItem)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category_id", "price_per_unit", "stock", "updated_at"}))

	_, err := repo.GetItem(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTryReserve(t *testing.T) {
	qty := decimal.NewFromInt(3)

	t.Run("enough stock", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
			WithArgs(qty, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"price_per_unit"}).AddRow("2.00"))

		ok, err := repo.TryReserve(context.Background(), 1, qty)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not enough stock", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
			WithArgs(qty, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"price_per_unit"}))

		ok, err := repo.TryReserve(context.Background(), 1, qty)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non-positive quantity never reaches the database", func(t *testing.T) {
		repo, _ := newMockRepo(t)

		_, err := repo.TryReserve(context.Background(), 1, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = repo.TryReserve(context.Background(), 1, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = repo.TryReserve(context.Background(), 1, decimal.RequireFromString("0.0004"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
			WithArgs(qty, int64(1)).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.TryReserve(context.Background(), 1, qty)
		assert.Error(t, err)
	})
}

func TestRelease_MissingItemIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)
	qty := decimal.RequireFromString("1.5")

	mock.ExpectQuery(regexp.QuoteMeta(queryRelease)).
		WithArgs(qty, int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))

	assert.NoError(t, repo.Release(context.Background(), 4, qty))
}

func TestAddStock(t *testing.T) {
	repo, mock := newMockRepo(t)
	qty := decimal.NewFromInt(5)

	mock.ExpectQuery(regexp.QuoteMeta(queryRelease)).
		WithArgs(qty, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow("12"))
	mock.ExpectQuery(regexp.QuoteMeta(queryRelease)).
		WithArgs(qty, int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))

	stock, err := repo.AddStock(context.Background(), 1, qty)
	require.NoError(t, err)
	assert.True(t, stock.Equal(decimal.NewFromInt(12)))

	_, err = repo.AddStock(context.Background(), 2, qty)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestAddStock_Overflow(t *testing.T) {
	repo, mock := newMockRepo(t)
	qty := decimal.RequireFromString("999999999")

	mock.ExpectQuery(regexp.QuoteMeta(queryRelease)).
		WithArgs(qty, int64(1)).
		WillReturnError(&pq.Error{Code: pqNumericOverflow})

	_, err := repo.AddStock(context.Background(), 1, qty)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
