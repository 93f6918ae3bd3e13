// Package report 经营报表：月度汇总、销售排行、每日汇总
//
// 所有报表都在账本快照上做内存聚合，已作废的交易不计入任何统计。
package report

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	"github.com/xiebiao/bookstore-inventory/pkg/clock"
	"github.com/xiebiao/bookstore-inventory/pkg/tracing"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 100
	// maxDailyRangeMonths 每日汇总最多查询3个月
	maxDailyRangeMonths = 3
)

// MonthlySummary 月度汇总
type MonthlySummary struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	TotalReturns     decimal.Decimal `json:"total_returns"`
	SaleQuantity     int             `json:"sale_quantity"`
	PurchaseQuantity int             `json:"purchase_quantity"`
	ReturnQuantity   int             `json:"return_quantity"`
	NetRevenue       decimal.Decimal `json:"net_revenue"` // 销售 - 进货 - 退货
	TransactionCount int             `json:"transaction_count"`
}

// RankingItem 销售排行中的一行
type RankingItem struct {
	Rank         int             `json:"rank"`
	BookID       uint            `json:"book_id"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Quantity     int             `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// DailyItem 单日汇总
type DailyItem struct {
	Date             time.Time       `json:"date"`
	TransactionCount int             `json:"transaction_count"`
	SalesTotal       decimal.Decimal `json:"sales_total"`
	PurchasesTotal   decimal.Decimal `json:"purchases_total"`
	NetTotal         decimal.Decimal `json:"net_total"`
}

// DailySummary 区间内的每日汇总
type DailySummary struct {
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	Days              []DailyItem     `json:"daily_summaries"` // 日期倒序，只含有交易的日期
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalPurchases    decimal.Decimal `json:"total_purchases"`
	NetTotal          decimal.Decimal `json:"net_total"`
	TotalTransactions int             `json:"total_transactions"`
	AverageDailySales decimal.Decimal `json:"average_daily_sales"`
}

// Service 报表服务
type Service struct {
	books  book.Repository
	ledger transaction.Ledger
	clock  clock.Clock
}

// NewService 创建报表服务
func NewService(books book.Repository, ledger transaction.Ledger, clk clock.Clock) *Service {
	return &Service{books: books, ledger: ledger, clock: clk}
}

// MonthlySummary 按自然月汇总各类交易的金额和数量
func (s *Service) MonthlySummary(ctx context.Context, year, month int) (res *MonthlySummary, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.MonthlySummary",
		attribute.Int("year", year), attribute.Int("month", month))
	defer func() { tracing.End(span, err) }()

	list, err := s.monthEntries(ctx, year, month, nil)
	if err != nil {
		return nil, err
	}

	res = &MonthlySummary{
		Year:           year,
		Month:          month,
		TotalSales:     decimal.Zero,
		TotalPurchases: decimal.Zero,
		TotalReturns:   decimal.Zero,
	}
	for _, t := range list {
		switch t.Type {
		case transaction.TypeSale:
			res.TotalSales = res.TotalSales.Add(t.TotalAmount)
			res.SaleQuantity += t.Quantity
		case transaction.TypePurchase:
			res.TotalPurchases = res.TotalPurchases.Add(t.TotalAmount)
			res.PurchaseQuantity += t.Quantity
		case transaction.TypeReturn:
			res.TotalReturns = res.TotalReturns.Add(t.TotalAmount)
			res.ReturnQuantity += t.Quantity
		}
	}
	res.NetRevenue = res.TotalSales.Sub(res.TotalPurchases).Sub(res.TotalReturns)
	res.TransactionCount = len(list)
	return res, nil
}

// SalesRanking 月度销量排行
// limit<=0取10，最大100；销量相同时先出现在账本中的图书排前面
func (s *Service) SalesRanking(ctx context.Context, year, month, limit int) (items []RankingItem, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.SalesRanking",
		attribute.Int("year", year), attribute.Int("month", month))
	defer func() { tracing.End(span, err) }()

	if limit <= 0 {
		limit = defaultRankingLimit
	}
	limit = min(limit, maxRankingLimit)

	sales, err := s.monthEntries(ctx, year, month, []transaction.Type{transaction.TypeSale})
	if err != nil {
		return nil, err
	}

	// 按账本顺序累加，保留首次出现的顺序
	index := make(map[uint]int)
	for _, t := range sales {
		i, ok := index[t.BookID]
		if !ok {
			i = len(items)
			index[t.BookID] = i
			items = append(items, RankingItem{BookID: t.BookID, Amount: decimal.Zero})
		}
		items[i].Quantity += t.Quantity
		items[i].Amount = items[i].Amount.Add(t.TotalAmount)
	}

	slices.SortStableFunc(items, func(a, b RankingItem) int {
		return b.Quantity - a.Quantity
	})
	if len(items) > limit {
		items = items[:limit]
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	books, err := s.books.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Rank = i + 1
		items[i].AveragePrice = items[i].Amount.DivRound(decimal.NewFromInt(int64(items[i].Quantity)), 2)
		if b, ok := books[items[i].BookID]; ok {
			items[i].Title = b.Title
			items[i].Author = b.Author
		}
	}
	return items, nil
}

// DailySummary 区间[start, end]内每天的交易汇总（按业务时区自然日）
// 要求start<=end且end不超过start之后3个月
func (s *Service) DailySummary(ctx context.Context, start, end time.Time) (res *DailySummary, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.DailySummary")
	defer func() { tracing.End(span, err) }()

	loc := s.clock.Now().Location()
	start = clock.StartOfDay(start.In(loc))
	end = clock.StartOfDay(end.In(loc))
	if end.Before(start) || end.After(start.AddDate(0, maxDailyRangeMonths, 0)) {
		return nil, transaction.ErrInvalidDateRange
	}

	list, err := s.ledger.Find(ctx, transaction.Filter{
		Start: start,
		End:   end.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	res = &DailySummary{
		StartDate:         start,
		EndDate:           end,
		Days:              []DailyItem{},
		TotalSales:        decimal.Zero,
		TotalPurchases:    decimal.Zero,
		NetTotal:          decimal.Zero,
		AverageDailySales: decimal.Zero,
	}

	byDay := make(map[time.Time]*DailyItem)
	for _, t := range list {
		day := clock.StartOfDay(t.CreatedAt.In(loc))
		item, ok := byDay[day]
		if !ok {
			item = &DailyItem{Date: day, SalesTotal: decimal.Zero, PurchasesTotal: decimal.Zero}
			byDay[day] = item
		}
		item.TransactionCount++
		switch t.Type {
		case transaction.TypeSale:
			item.SalesTotal = item.SalesTotal.Add(t.TotalAmount)
		case transaction.TypePurchase:
			item.PurchasesTotal = item.PurchasesTotal.Add(t.TotalAmount)
		}
	}

	for _, item := range byDay {
		item.NetTotal = item.SalesTotal.Sub(item.PurchasesTotal)
		res.Days = append(res.Days, *item)
		res.TotalSales = res.TotalSales.Add(item.SalesTotal)
		res.TotalPurchases = res.TotalPurchases.Add(item.PurchasesTotal)
		res.TotalTransactions += item.TransactionCount
	}
	slices.SortFunc(res.Days, func(a, b DailyItem) int {
		return b.Date.Compare(a.Date)
	})

	res.NetTotal = res.TotalSales.Sub(res.TotalPurchases)
	if n := len(res.Days); n > 0 {
		res.AverageDailySales = res.TotalSales.DivRound(decimal.NewFromInt(int64(n)), 2)
	}
	return res, nil
}

// monthEntries 某自然月内未作废的交易
func (s *Service) monthEntries(ctx context.Context, year, month int, types []transaction.Type) ([]*transaction.Transaction, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, transaction.ErrInvalidDateRange
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.clock.Now().Location())
	return s.ledger.Find(ctx, transaction.Filter{
		Start: start,
		End:   start.AddDate(0, 1, 0),
		Types: types,
	})
}
