package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
)

// CreateSaleUseCase 销售用例
type CreateSaleUseCase struct {
	engine
}

// NewCreateSaleUseCase 创建销售用例
func NewCreateSaleUseCase(deps *Deps) *CreateSaleUseCase {
	return &CreateSaleUseCase{engine{deps}}
}

// CreateSaleRequest 销售请求
type CreateSaleRequest struct {
	BookID         uint
	Quantity       int
	UnitPrice      decimal.Decimal
	Notes          string
	IdempotencyKey *string
	OperatorID     uint
}

// Execute 执行销售
//
// 读到的库存只用于提前给出友好提示；真正防止超卖的是事务内的条件更新
// (stock_quantity + delta >= 0)，并发请求之间不需要进程内加锁。
func (uc *CreateSaleUseCase) Execute(ctx context.Context, req CreateSaleRequest) (res *Result, err error) {
	ctx, finish := begin(ctx, "inventory.CreateSale", transaction.TypeSale, req.BookID)
	defer func() { finish(res, err) }()

	if err := transaction.ValidateAmount(req.Quantity, req.UnitPrice); err != nil {
		return nil, err
	}
	if res, err := uc.replay(ctx, req.IdempotencyKey, transaction.TypeSale, req.BookID); res != nil || err != nil {
		return res, err
	}

	b, err := uc.activeBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if !b.HasStock(req.Quantity) {
		return nil, book.NewInsufficientStockError(b.StockQuantity, req.Quantity)
	}

	tx, err := transaction.New(transaction.TypeSale, req.BookID, req.Quantity, req.UnitPrice, req.Notes, uc.Clock.Now())
	if err != nil {
		return nil, err
	}
	tx.IdempotencyKey = req.IdempotencyKey
	tx.OperatorID = req.OperatorID

	if req.UnitPrice.GreaterThan(b.SellingPrice) {
		uc.Log.Warn("销售价格高于标价",
			zap.Uint("book_id", b.ID),
			zap.String("unit_price", req.UnitPrice.String()),
			zap.String("selling_price", b.SellingPrice.String()),
		)
	}

	res, err = uc.record(ctx, tx)
	if err != nil {
		return nil, err
	}

	uc.Log.Info("销售成功",
		zap.Uint("transaction_id", res.Transaction.ID),
		zap.Uint("book_id", req.BookID),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock_after", res.StockAfter),
	)
	return res, nil
}
