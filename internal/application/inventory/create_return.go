package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
)

// CreateReturnUseCase 退货用例
type CreateReturnUseCase struct {
	engine
}

// NewCreateReturnUseCase 创建退货用例
func NewCreateReturnUseCase(deps *Deps) *CreateReturnUseCase {
	return &CreateReturnUseCase{engine{deps}}
}

// CreateReturnRequest 退货请求
// BookID为0时取原销售记录的图书
type CreateReturnRequest struct {
	RelatedTransactionID uint
	BookID               uint
	Quantity             int
	UnitPrice            decimal.Decimal
	Notes                string
	IdempotencyKey       *string
	OperatorID           uint
}

// Execute 执行退货
//
// 只与单条原销售记录比较数量，不累计同一销售的多次部分退货：
// 销售3本后可以分两次各退3本。
func (uc *CreateReturnUseCase) Execute(ctx context.Context, req CreateReturnRequest) (res *Result, err error) {
	ctx, finish := begin(ctx, "inventory.CreateReturn", transaction.TypeReturn, req.BookID)
	defer func() { finish(res, err) }()

	if req.RelatedTransactionID == 0 {
		return nil, transaction.ErrMissingReference
	}
	if err := transaction.ValidateAmount(req.Quantity, req.UnitPrice); err != nil {
		return nil, err
	}
	if res, err := uc.replay(ctx, req.IdempotencyKey, transaction.TypeReturn, req.BookID); res != nil || err != nil {
		return res, err
	}

	original, err := uc.Ledger.FindByID(ctx, req.RelatedTransactionID)
	if errors.Is(err, transaction.ErrTransactionNotFound) {
		return nil, transaction.ErrOriginalTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if original.Type != transaction.TypeSale || original.IsVoided() {
		return nil, transaction.ErrOriginalTransactionNotFound
	}

	if req.Quantity > original.Quantity {
		return nil, transaction.NewExcessiveReturnError(original.Quantity, req.Quantity)
	}

	bookID := req.BookID
	if bookID == 0 {
		bookID = original.BookID
	}
	if bookID != original.BookID {
		return nil, transaction.ErrReturnBookMismatch
	}
	if _, err := uc.activeBook(ctx, bookID); err != nil {
		return nil, err
	}

	tx, err := transaction.New(transaction.TypeReturn, bookID, req.Quantity, req.UnitPrice, req.Notes, uc.Clock.Now())
	if err != nil {
		return nil, err
	}
	relatedID := original.ID
	tx.RelatedTransactionID = &relatedID
	tx.IdempotencyKey = req.IdempotencyKey
	tx.OperatorID = req.OperatorID

	res, err = uc.record(ctx, tx)
	if err != nil {
		return nil, err
	}

	uc.Log.Info("退货成功",
		zap.Uint("transaction_id", res.Transaction.ID),
		zap.Uint("related_transaction_id", relatedID),
		zap.Uint("book_id", bookID),
		zap.Int("quantity", req.Quantity),
	)
	return res, nil
}
