package inventory

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

// VoidTransactionUseCase 作废交易用例
type VoidTransactionUseCase struct {
	engine
}

// NewVoidTransactionUseCase 创建作废用例
func NewVoidTransactionUseCase(deps *Deps) *VoidTransactionUseCase {
	return &VoidTransactionUseCase{engine{deps}}
}

// VoidRequest 作废请求
type VoidRequest struct {
	TransactionID uint
	Reason        string
	OperatorID    uint
}

// Execute 作废当天的交易
//
// 反向调整库存走同一条条件更新路径：作废进货会扣减库存，
// 如果这批书已经卖出导致库存不够扣，作废失败且不做任何修改。
// 作废不新增账本记录，只在原记录上追加备注并标记作废时间。
func (uc *VoidTransactionUseCase) Execute(ctx context.Context, req VoidRequest) (res *Result, err error) {
	ctx, finish := begin(ctx, "inventory.VoidTransaction", "VOID", 0)
	defer func() { finish(res, err) }()

	now := uc.Clock.Now()
	var (
		voided     *transaction.Transaction
		stockAfter int
	)

	err = uc.Tx.Transaction(ctx, func(ctx context.Context) error {
		t, err := uc.Ledger.FindByID(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if t.IsVoided() {
			return transaction.ErrAlreadyVoided
		}
		if !t.CanVoidAt(now) {
			return transaction.ErrCannotVoidOldTransaction
		}

		reverse := -t.StockDelta()
		qty, err := uc.Books.AdjustStock(ctx, t.BookID, reverse)
		if err != nil {
			if errors.Is(err, book.ErrInsufficientStock) {
				current, _ := apperrors.GetAppError(err).Details["current"].(int)
				return transaction.NewVoidFailedError(t.ID, current, -reverse)
			}
			return err
		}

		if err := t.Void(now, req.Reason); err != nil {
			return err
		}
		if err := uc.Ledger.MarkVoided(ctx, t); err != nil {
			return err
		}

		voided, stockAfter = t, qty
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, EventTransactionVoided, voided, stockAfter)
	uc.Log.Info("交易已作废",
		zap.Uint("transaction_id", voided.ID),
		zap.String("type", string(voided.Type)),
		zap.Uint("book_id", voided.BookID),
		zap.Uint("operator_id", req.OperatorID),
		zap.String("reason", req.Reason),
	)
	return &Result{Transaction: voided, StockAfter: stockAfter}, nil
}
