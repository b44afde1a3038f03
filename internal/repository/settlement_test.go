package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemColumns = []string{"id", "name", "category_id", "price_per_unit", "stock", "updated_at"}

func settlement(lines ...domain.SettlementLine) domain.Settlement {
	return domain.Settlement{
		CheckoutSessionID: "cs_test_1",
		EventID:           "evt_1",
		UserID:            7,
		Lines:             lines,
	}
}

func line(itemID int64, qty string) domain.SettlementLine {
	return domain.SettlementLine{ItemID: itemID, Quantity: decimal.RequireFromString(qty)}
}

func expectClaim(mock sqlmock.Sqlmock, rows int64) {
	mock.ExpectExec(regexp.QuoteMeta(queryClaimSettlement)).
		WithArgs("cs_test_1", "evt_1", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, rows))
}

func expectAccount(mock sqlmock.Sqlmock, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta(queryAccountExists)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestSettleCheckout_SettlesAndSkipsShortLines(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectClaim(mock, 1)
	expectAccount(mock, true)

	// item 1: stock 10, price 2.00, qty 3 -> settles
	mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
		WithArgs(decimal.NewFromInt(3), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price_per_unit"}).AddRow("2.00"))
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertOrder)).
		WithArgs(int64(7), int64(1), decimal.NewFromInt(3), decimal.NewFromInt(6), "cs_test_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(101), now))
	mock.ExpectExec(regexp.QuoteMeta(queryInsertOutbox)).
		WithArgs(sqlmock.AnyArg(), "101", domain.EventOrderSettled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// item 2: stock 2, qty 3 -> shortfall
	mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
		WithArgs(decimal.NewFromInt(3), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"price_per_unit"}))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetItem)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(int64(2), "Pears", int64(1), "1.00", "2", now))

	// item 3: deleted -> shortfall
	mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
		WithArgs(decimal.NewFromInt(1), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"price_per_unit"}))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetItem)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(itemColumns))

	mock.ExpectCommit()

	// lines arrive unsorted; the lock order is by item id
	res, err := repo.SettleCheckout(context.Background(), settlement(line(3, "1"), line(2, "3"), line(1, "3")))
	require.NoError(t, err)

	assert.False(t, res.Duplicate)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, int64(101), res.Orders[0].ID)
	assert.True(t, res.Orders[0].Price.Equal(decimal.RequireFromString("6.00")))

	require.Len(t, res.Shortfalls, 2)
	assert.Equal(t, domain.ShortfallInsufficientStock, res.Shortfalls[0].Reason)
	assert.True(t, res.Shortfalls[0].Available.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, domain.ShortfallItemMissing, res.Shortfalls[1].Reason)
}

func TestSettleCheckout_ReplayIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectClaim(mock, 0)
	mock.ExpectCommit()

	res, err := repo.SettleCheckout(context.Background(), settlement(line(1, "3")))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Empty(t, res.Orders)
}

func TestSettleCheckout_UnknownUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectClaim(mock, 1)
	expectAccount(mock, false)
	mock.ExpectCommit()

	res, err := repo.SettleCheckout(context.Background(), settlement(line(1, "3")))
	require.NoError(t, err)
	assert.True(t, res.UnknownUser)
	assert.Empty(t, res.Orders)
}

func TestSettleCheckout_RollsBackWholeBatchOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectClaim(mock, 1)
	expectAccount(mock, true)
	mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
		WithArgs(decimal.NewFromInt(1), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price_per_unit"}).AddRow("2.00"))
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertOrder)).
		WithArgs(int64(7), int64(1), decimal.NewFromInt(1), decimal.NewFromInt(2), "cs_test_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(101), now))
	mock.ExpectExec(regexp.QuoteMeta(queryInsertOutbox)).
		WithArgs(sqlmock.AnyArg(), "101", domain.EventOrderSettled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(queryTryReserve)).
		WithArgs(decimal.NewFromInt(1), int64(2)).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	res, err := repo.SettleCheckout(context.Background(), settlement(line(1, "1"), line(2, "1")))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransaction)
	assert.Nil(t, res)
}

func TestSettleCheckout_BeginFails(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := repo.SettleCheckout(context.Background(), settlement(line(1, "1")))
	assert.ErrorIs(t, err, domain.ErrTransaction)
}
