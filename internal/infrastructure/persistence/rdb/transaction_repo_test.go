package rdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookstore-inventory/internal/testutil"
)

var cst = time.FixedZone("CST", 8*3600)

func newTx(t *testing.T, typ transaction.Type, bookID uint, qty int, price string, at time.Time) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.New(typ, bookID, qty, decimal.RequireFromString(price), "", at)
	require.NoError(t, err)
	return tx
}

func TestTransactionLedger_AppendAndFind(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	ledger := rdb.NewTransactionLedger(db)
	bookID := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

	at := time.Date(2024, 3, 15, 10, 0, 0, 0, cst)
	tx := newTx(t, transaction.TypePurchase, bookID, 10, "12.345", at)
	require.NoError(t, ledger.Append(ctx, tx))
	require.NotZero(t, tx.ID)

	t.Run("金额与单价原样保存", func(t *testing.T) {
		got, err := ledger.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, "123.45", got.TotalAmount.StringFixed(2))
		assert.True(t, got.UnitPrice.Equal(decimal.RequireFromString("12.345")))
		assert.Equal(t, transaction.TypePurchase, got.Type)
		assert.True(t, got.CreatedAt.Equal(at))
	})

	t.Run("不存在", func(t *testing.T) {
		_, err := ledger.FindByID(ctx, 9999)
		assert.True(t, errors.Is(err, transaction.ErrTransactionNotFound))
	})
}

func TestTransactionLedger_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	ledger := rdb.NewTransactionLedger(db)
	bookID := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, cst)

	key := "order-001"
	first := newTx(t, transaction.TypeSale, bookID, 1, "59", now)
	first.IdempotencyKey = &key
	require.NoError(t, ledger.Append(ctx, first))

	second := newTx(t, transaction.TypeSale, bookID, 1, "59", now)
	second.IdempotencyKey = &key
	assert.True(t, errors.Is(ledger.Append(ctx, second), transaction.ErrDuplicateIdempotencyKey))

	found, err := ledger.FindByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	// 没有幂等键的记录互不冲突
	require.NoError(t, ledger.Append(ctx, newTx(t, transaction.TypeSale, bookID, 1, "59", now)))
	require.NoError(t, ledger.Append(ctx, newTx(t, transaction.TypeSale, bookID, 1, "59", now)))
}

func TestTransactionLedger_MarkVoided(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	ledger := rdb.NewTransactionLedger(db)
	bookID := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, cst)

	tx := newTx(t, transaction.TypeSale, bookID, 2, "59", now)
	require.NoError(t, ledger.Append(ctx, tx))

	stale := *tx
	require.NoError(t, tx.Void(now.Add(time.Hour), "录入错误"))
	require.NoError(t, ledger.MarkVoided(ctx, tx))

	got, err := ledger.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVoided())
	assert.Contains(t, got.Notes, "[作废]")
	assert.Equal(t, 1, got.Version)

	// 基于旧快照再次作废
	require.NoError(t, stale.Void(now.Add(2*time.Hour), "重复"))
	assert.True(t, errors.Is(ledger.MarkVoided(ctx, &stale), transaction.ErrVersionConflict))
}

func TestTransactionLedger_FindFilters(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	ledger := rdb.NewTransactionLedger(db)
	b1 := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")
	b2 := testutil.SeedBook(t, db, "9780134190440", 10, 2, "59.00")

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, cst)
	require.NoError(t, ledger.Append(ctx, newTx(t, transaction.TypeSale, b1, 1, "10", day.Add(9*time.Hour))))
	require.NoError(t, ledger.Append(ctx, newTx(t, transaction.TypePurchase, b1, 5, "8", day.Add(10*time.Hour))))
	require.NoError(t, ledger.Append(ctx, newTx(t, transaction.TypeSale, b2, 2, "10", day.Add(11*time.Hour))))
	require.NoError(t, ledger.Append(ctx, newTx(t, transaction.TypeSale, b1, 3, "10", day.Add(30*time.Hour))))

	voided := newTx(t, transaction.TypeSale, b1, 4, "10", day.Add(12*time.Hour))
	require.NoError(t, ledger.Append(ctx, voided))
	require.NoError(t, voided.Void(day.Add(13*time.Hour), "x"))
	require.NoError(t, ledger.MarkVoided(ctx, voided))

	t.Run("按日期和类型过滤并排除作废", func(t *testing.T) {
		list, err := ledger.Find(ctx, transaction.Filter{
			Start: day,
			End:   day.Add(24 * time.Hour),
			Types: []transaction.Type{transaction.TypeSale},
		})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, b1, list[0].BookID)
		assert.Equal(t, b2, list[1].BookID)
	})

	t.Run("包含作废记录", func(t *testing.T) {
		list, err := ledger.Find(ctx, transaction.Filter{BookID: b1, IncludeVoided: true})
		require.NoError(t, err)
		assert.Len(t, list, 4)
	})

	t.Run("单本图书历史倒序分页", func(t *testing.T) {
		list, total, err := ledger.ListByBook(ctx, b1, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, list, 2)
		assert.Equal(t, 3, list[0].Quantity)
	})
}

func TestTxManager_Rollback(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	ledger := rdb.NewTransactionLedger(db)
	books := rdb.NewBookRepository(db)
	txm := rdb.NewTxManager(db)
	bookID := testutil.SeedBook(t, db, "9787115428028", 1, 0, "59.00")

	err := txm.Transaction(ctx, func(ctx context.Context) error {
		if err := ledger.Append(ctx, newTx(t, transaction.TypeSale, bookID, 2, "59", time.Now())); err != nil {
			return err
		}
		_, err := books.AdjustStock(ctx, bookID, -2)
		return err
	})
	require.True(t, errors.Is(err, book.ErrInsufficientStock))

	var count int64
	require.NoError(t, db.Model(&rdb.TransactionModel{}).Count(&count).Error)
	assert.Zero(t, count, "账本记录应随事务回滚")
	assert.Equal(t, 1, testutil.StockOf(t, db, bookID))
}
