// Package recommendation 进货建议
//
// 根据过去30天的销量和当前库存给出建议进货数量，只读，不修改任何数据。
// 对同一份账本快照和同一时钟，结果是确定的。
package recommendation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	"github.com/xiebiao/bookstore-inventory/pkg/clock"
	"github.com/xiebiao/bookstore-inventory/pkg/tracing"
)

// windowDays 统计窗口（天）
const windowDays = 30

// Recommendation 进货建议
type Recommendation struct {
	BookID               uint            `json:"book_id"`
	Quantity             int             `json:"recommended_quantity"`
	Reason               string          `json:"reason"`
	CurrentStock         int             `json:"current_stock"`
	MinStock             int             `json:"min_stock"`
	TotalSalesLast30Days int             `json:"total_sales_last_30_days"`
	AverageDailySales    decimal.Decimal `json:"average_daily_sales"` // 保留1位小数
}

// Service 进货建议服务
type Service struct {
	books  book.Repository
	ledger transaction.Ledger
	clock  clock.Clock
}

// NewService 创建进货建议服务
func NewService(books book.Repository, ledger transaction.Ledger, clk clock.Clock) *Service {
	return &Service{books: books, ledger: ledger, clock: clk}
}

// Recommend 计算某本书的建议进货数量
//
// 窗口为[今天-30天 零点，明天零点)，只统计未作废的销售。
//   - 窗口内没有销售：max（2×最低库存 - 当前库存，最低库存）
//   - 有销售：目标库存 = max（30天销量，2×最低库存），建议 = max（目标库存 - 当前库存，0）
func (s *Service) Recommend(ctx context.Context, bookID uint) (rec *Recommendation, err error) {
	ctx, span := tracing.StartSpan(ctx, "recommendation.Recommend", attribute.Int64("book_id", int64(bookID)))
	defer func() { tracing.End(span, err) }()

	b, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	today := clock.StartOfDay(s.clock.Now())
	sales, err := s.ledger.Find(ctx, transaction.Filter{
		Start:  today.AddDate(0, 0, -windowDays),
		End:    today.AddDate(0, 0, 1),
		Types:  []transaction.Type{transaction.TypeSale},
		BookID: bookID,
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, t := range sales {
		total += t.Quantity
	}
	avg := decimal.NewFromInt(int64(total)).DivRound(decimal.NewFromInt(windowDays), 1)

	rec = &Recommendation{
		BookID:               bookID,
		CurrentStock:         b.StockQuantity,
		MinStock:             b.MinStock,
		TotalSalesLast30Days: total,
		AverageDailySales:    avg,
	}

	current, minStock := b.StockQuantity, b.MinStock
	switch {
	case len(sales) == 0:
		rec.Quantity = max(2*minStock-current, minStock)
		rec.Reason = "该书籍暂无销售历史，建议保持最低库存的2倍"
	case total <= 0:
		rec.Quantity = max(minStock-current, 0)
		rec.Reason = "过去30天无销售记录，建议保持最低库存"
	default:
		// 日均销量×30即窗口内总销量，直接用整数避免浮点误差
		target := max(total, 2*minStock)
		rec.Quantity = max(target-current, 0)
		if rec.Quantity == 0 {
			rec.Reason = fmt.Sprintf("当前库存充足（%d本），过去30天平均日销量%s本，建议暂不进货",
				current, avg.StringFixed(1))
		} else {
			rec.Reason = fmt.Sprintf("过去30天销售%d本，平均日销量%s本，当前库存%d本，建议进货%d本以保证30天库存",
				total, avg.StringFixed(1), current, rec.Quantity)
		}
	}
	return rec, nil
}
