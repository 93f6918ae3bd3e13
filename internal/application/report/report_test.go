package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-inventory/internal/application/report"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookstore-inventory/internal/testutil"
)

var cst = time.FixedZone("CST", 8*3600)

func day(m time.Month, d, h int) time.Time {
	return time.Date(2024, m, d, h, 0, 0, 0, cst)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

type books struct{ a, b, c uint }

// seed 2024年3月的账本：
//
//	3/1 销售A 2×10，进货A 10×8
//	3/2 销售B 5×20，销售A 3×12
//	3/3 销售C 7×5，退货A 1×12，销售B 4×20（已作废）
//
// 另有2/29和4/1各一笔落在月外的销售
func seed(t *testing.T, db *gorm.DB) (transaction.Ledger, books) {
	t.Helper()
	ctx := context.Background()
	ledger := rdb.NewTransactionLedger(db)
	ids := books{
		a: testutil.SeedBook(t, db, "9787115428028", 100, 5, "15.00"),
		b: testutil.SeedBook(t, db, "9787111544357", 100, 5, "25.00"),
		c: testutil.SeedBook(t, db, "9780134190440", 100, 5, "8.00"),
	}

	add := func(typ transaction.Type, bookID uint, qty int, price string, at time.Time) *transaction.Transaction {
		tx, err := transaction.New(typ, bookID, qty, decimal.RequireFromString(price), "", at)
		require.NoError(t, err)
		require.NoError(t, ledger.Append(ctx, tx))
		return tx
	}

	add(transaction.TypeSale, ids.a, 100, "10", time.Date(2024, 2, 29, 23, 59, 0, 0, cst))
	add(transaction.TypeSale, ids.a, 2, "10", day(3, 1, 9))
	add(transaction.TypePurchase, ids.a, 10, "8", day(3, 1, 10))
	add(transaction.TypeSale, ids.b, 5, "20", day(3, 2, 9))
	add(transaction.TypeSale, ids.a, 3, "12", day(3, 2, 15))
	add(transaction.TypeSale, ids.c, 7, "5", day(3, 3, 9))
	add(transaction.TypeReturn, ids.a, 1, "12", day(3, 3, 10))
	sale := add(transaction.TypeSale, ids.b, 4, "20", day(3, 3, 11))
	add(transaction.TypeSale, ids.a, 50, "10", day(4, 1, 0))

	voided, err := ledger.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	require.NoError(t, voided.Void(day(3, 3, 12), "录入错误"))
	require.NoError(t, ledger.MarkVoided(ctx, voided))

	return ledger, ids
}

func newService(t *testing.T) (*report.Service, books) {
	db := testutil.NewDB(t)
	ledger, ids := seed(t, db)
	clk := testutil.NewClock(day(3, 15, 10))
	return report.NewService(rdb.NewBookRepository(db), ledger, clk), ids
}

func TestMonthlySummary(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	t.Run("汇总当月未作废交易", func(t *testing.T) {
		res, err := svc.MonthlySummary(ctx, 2024, 3)
		require.NoError(t, err)

		assertAmount(t, "191", res.TotalSales)
		assertAmount(t, "80", res.TotalPurchases)
		assertAmount(t, "12", res.TotalReturns)
		assert.Equal(t, 17, res.SaleQuantity)
		assert.Equal(t, 10, res.PurchaseQuantity)
		assert.Equal(t, 1, res.ReturnQuantity)
		assertAmount(t, "99", res.NetRevenue)
		assert.Equal(t, 6, res.TransactionCount)
	})

	t.Run("无交易的月份", func(t *testing.T) {
		res, err := svc.MonthlySummary(ctx, 2023, 12)
		require.NoError(t, err)
		assert.Equal(t, 0, res.TransactionCount)
		assert.True(t, res.NetRevenue.IsZero())
	})

	t.Run("月份非法", func(t *testing.T) {
		_, err := svc.MonthlySummary(ctx, 2024, 13)
		assert.True(t, errors.Is(err, transaction.ErrInvalidDateRange))
	})
}

func TestSalesRanking(t *testing.T) {
	svc, ids := newService(t)
	ctx := context.Background()

	t.Run("按销量排序，相同销量保持账本顺序", func(t *testing.T) {
		items, err := svc.SalesRanking(ctx, 2024, 3, 0)
		require.NoError(t, err)
		require.Len(t, items, 3)

		assert.Equal(t, ids.c, items[0].BookID)
		assert.Equal(t, 7, items[0].Quantity)
		assertAmount(t, "5.00", items[0].AveragePrice)

		assert.Equal(t, ids.a, items[1].BookID)
		assert.Equal(t, 5, items[1].Quantity)
		assertAmount(t, "56", items[1].Amount)
		assert.Equal(t, "11.20", items[1].AveragePrice.StringFixed(2))

		assert.Equal(t, ids.b, items[2].BookID)
		assert.Equal(t, 5, items[2].Quantity)
		assertAmount(t, "100", items[2].Amount)

		for i, it := range items {
			assert.Equal(t, i+1, it.Rank)
		}
		assert.Equal(t, "书-9780134190440", items[0].Title)
		assert.Equal(t, "作者-9780134190440", items[0].Author)
	})

	t.Run("限制条数", func(t *testing.T) {
		items, err := svc.SalesRanking(ctx, 2024, 3, 2)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, ids.a, items[1].BookID)
	})

	t.Run("无销售返回空", func(t *testing.T) {
		items, err := svc.SalesRanking(ctx, 2024, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestDailySummary(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	t.Run("按日期倒序汇总", func(t *testing.T) {
		res, err := svc.DailySummary(ctx, day(3, 1, 0), day(3, 3, 0))
		require.NoError(t, err)
		require.Len(t, res.Days, 3)

		assert.True(t, res.Days[0].Date.Equal(day(3, 3, 0)))
		assert.Equal(t, 2, res.Days[0].TransactionCount)
		assertAmount(t, "35", res.Days[0].SalesTotal)

		assert.True(t, res.Days[1].Date.Equal(day(3, 2, 0)))
		assertAmount(t, "136", res.Days[1].SalesTotal)
		assertAmount(t, "136", res.Days[1].NetTotal)

		assert.True(t, res.Days[2].Date.Equal(day(3, 1, 0)))
		assertAmount(t, "20", res.Days[2].SalesTotal)
		assertAmount(t, "80", res.Days[2].PurchasesTotal)
		assertAmount(t, "-60", res.Days[2].NetTotal)

		assertAmount(t, "191", res.TotalSales)
		assertAmount(t, "80", res.TotalPurchases)
		assertAmount(t, "111", res.NetTotal)
		assert.Equal(t, 6, res.TotalTransactions)
		assert.Equal(t, "63.67", res.AverageDailySales.StringFixed(2))
	})

	t.Run("结束日期包含当天全部交易", func(t *testing.T) {
		res, err := svc.DailySummary(ctx, day(3, 1, 0), day(3, 1, 0))
		require.NoError(t, err)
		require.Len(t, res.Days, 1)
		assert.Equal(t, 2, res.TotalTransactions)
	})

	t.Run("无数据时日均为0", func(t *testing.T) {
		res, err := svc.DailySummary(ctx, day(1, 1, 0), day(1, 31, 0))
		require.NoError(t, err)
		assert.Empty(t, res.Days)
		assert.True(t, res.AverageDailySales.IsZero())
	})

	t.Run("日期范围校验", func(t *testing.T) {
		_, err := svc.DailySummary(ctx, day(3, 3, 0), day(3, 1, 0))
		assert.True(t, errors.Is(err, transaction.ErrInvalidDateRange))

		_, err = svc.DailySummary(ctx, day(3, 1, 0), day(6, 2, 0))
		assert.True(t, errors.Is(err, transaction.ErrInvalidDateRange))

		_, err = svc.DailySummary(ctx, day(3, 1, 0), day(6, 1, 0))
		assert.NoError(t, err)
	})
}
