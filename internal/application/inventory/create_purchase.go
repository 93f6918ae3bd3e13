package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/supplier"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
)

// CreatePurchaseUseCase 进货用例
type CreatePurchaseUseCase struct {
	engine
}

// NewCreatePurchaseUseCase 创建进货用例
func NewCreatePurchaseUseCase(deps *Deps) *CreatePurchaseUseCase {
	return &CreatePurchaseUseCase{engine{deps}}
}

// CreatePurchaseRequest 进货请求
type CreatePurchaseRequest struct {
	BookID         uint
	SupplierID     uint
	Quantity       int
	UnitPrice      decimal.Decimal
	Notes          string
	IdempotencyKey *string
	OperatorID     uint
}

// Execute 执行进货
// 校验顺序：数量/单价 → 图书 → 供应商；校验失败不产生任何写入
func (uc *CreatePurchaseUseCase) Execute(ctx context.Context, req CreatePurchaseRequest) (res *Result, err error) {
	ctx, finish := begin(ctx, "inventory.CreatePurchase", transaction.TypePurchase, req.BookID)
	defer func() { finish(res, err) }()

	if err := transaction.ValidateAmount(req.Quantity, req.UnitPrice); err != nil {
		return nil, err
	}
	if res, err := uc.replay(ctx, req.IdempotencyKey, transaction.TypePurchase, req.BookID); res != nil || err != nil {
		return res, err
	}

	if _, err := uc.activeBook(ctx, req.BookID); err != nil {
		return nil, err
	}

	if req.SupplierID == 0 {
		return nil, supplier.ErrMissingSupplier
	}
	if _, err := uc.Suppliers.FindByID(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	tx, err := transaction.New(transaction.TypePurchase, req.BookID, req.Quantity, req.UnitPrice, req.Notes, uc.Clock.Now())
	if err != nil {
		return nil, err
	}
	supplierID := req.SupplierID
	tx.SupplierID = &supplierID
	tx.IdempotencyKey = req.IdempotencyKey
	tx.OperatorID = req.OperatorID

	res, err = uc.record(ctx, tx)
	if err != nil {
		return nil, err
	}

	uc.Log.Info("进货成功",
		zap.Uint("transaction_id", res.Transaction.ID),
		zap.Uint("book_id", req.BookID),
		zap.Uint("supplier_id", req.SupplierID),
		zap.Int("quantity", req.Quantity),
		zap.String("total_amount", res.Transaction.TotalAmount.StringFixed(2)),
	)
	return res, nil
}
