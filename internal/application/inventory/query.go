package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	"github.com/xiebiao/bookstore-inventory/pkg/clock"
)

// QueryUseCase 交易查询
type QueryUseCase struct {
	books  book.Repository
	ledger transaction.Ledger
	clock  clock.Clock
}

// NewQueryUseCase 创建交易查询用例
func NewQueryUseCase(deps *Deps) *QueryUseCase {
	return &QueryUseCase{books: deps.Books, ledger: deps.Ledger, clock: deps.Clock}
}

// DailyTotals 某天的销售额和进货额（不含已作废交易）
type DailyTotals struct {
	Date           time.Time
	SalesTotal     decimal.Decimal
	PurchasesTotal decimal.Decimal
}

// GetTransaction 查询单条交易（含已作废）
func (uc *QueryUseCase) GetTransaction(ctx context.Context, id uint) (*transaction.Transaction, error) {
	return uc.ledger.FindByID(ctx, id)
}

// ListToday 当天的全部交易（含已作废，便于核对作废情况）
func (uc *QueryUseCase) ListToday(ctx context.Context) ([]*transaction.Transaction, error) {
	start := clock.StartOfDay(uc.clock.Now())
	return uc.ledger.Find(ctx, transaction.Filter{
		Start:         start,
		End:           start.AddDate(0, 0, 1),
		IncludeVoided: true,
	})
}

// ListMonthly 某自然月（业务时区）的全部交易，含已作废，按时间倒序
func (uc *QueryUseCase) ListMonthly(ctx context.Context, year, month int) ([]*transaction.Transaction, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, transaction.ErrInvalidDateRange
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, uc.clock.Now().Location())
	list, err := uc.ledger.Find(ctx, transaction.Filter{
		Start:         start,
		End:           start.AddDate(0, 1, 0),
		IncludeVoided: true,
	})
	if err != nil {
		return nil, err
	}

	// 账本按写入顺序返回
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// ListBookHistory 单本图书的交易历史，按时间倒序分页
func (uc *QueryUseCase) ListBookHistory(ctx context.Context, bookID uint, page, pageSize int) ([]*transaction.Transaction, int64, error) {
	if _, err := uc.books.FindByID(ctx, bookID); err != nil {
		return nil, 0, err
	}
	return uc.ledger.ListByBook(ctx, bookID, page, pageSize)
}

// DailyTotals 指定日期（业务时区自然日）的销售额与进货额
// date为零值时取今天
func (uc *QueryUseCase) DailyTotals(ctx context.Context, date time.Time) (*DailyTotals, error) {
	if date.IsZero() {
		date = uc.clock.Now()
	}
	start := clock.StartOfDay(date.In(uc.clock.Now().Location()))

	list, err := uc.ledger.Find(ctx, transaction.Filter{
		Start: start,
		End:   start.AddDate(0, 0, 1),
		Types: []transaction.Type{transaction.TypeSale, transaction.TypePurchase},
	})
	if err != nil {
		return nil, err
	}

	totals := &DailyTotals{Date: start, SalesTotal: decimal.Zero, PurchasesTotal: decimal.Zero}
	for _, t := range list {
		switch t.Type {
		case transaction.TypeSale:
			totals.SalesTotal = totals.SalesTotal.Add(t.TotalAmount)
		case transaction.TypePurchase:
			totals.PurchasesTotal = totals.PurchasesTotal.Add(t.TotalAmount)
		}
	}
	return totals, nil
}
