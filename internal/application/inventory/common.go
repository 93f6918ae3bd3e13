// Package inventory 库存交易用例：进货、销售、退货、作废及交易查询
//
// 所有改变库存的用例共用同一个工作单元：
//
//  1. 事务内先追加账本记录，再做库存条件更新
//  2. 条件更新失败（库存不足）时整个事务回滚，账本不留孤儿记录
//  3. 提交后同步失效图书缓存，再发布事件，最后返回成功
package inventory

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/domain/supplier"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	"github.com/xiebiao/bookstore-inventory/pkg/clock"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
	"github.com/xiebiao/bookstore-inventory/pkg/metrics"
	"github.com/xiebiao/bookstore-inventory/pkg/mq"
	"github.com/xiebiao/bookstore-inventory/pkg/tracing"
)

// 事件类型（即routing key）
const (
	EventTransactionCreated = "inventory.transaction.created"
	EventTransactionVoided  = "inventory.transaction.voided"
)

// TxRunner 事务执行器，fn内通过ctx共享同一个数据库事务
type TxRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps 用例依赖
type Deps struct {
	Books     book.Repository
	Suppliers supplier.Repository
	Ledger    transaction.Ledger
	Cache     book.Cache
	Tx        TxRunner
	Events    mq.Publisher
	Clock     clock.Clock
	Log       *zap.Logger
}

// TransactionEvent 交易事件载荷
type TransactionEvent struct {
	TransactionID        uint   `json:"transaction_id"`
	Type                 string `json:"type"`
	BookID               uint   `json:"book_id"`
	Quantity             int    `json:"quantity"`
	UnitPrice            string `json:"unit_price"`
	TotalAmount          string `json:"total_amount"`
	SupplierID           *uint  `json:"supplier_id,omitempty"`
	RelatedTransactionID *uint  `json:"related_transaction_id,omitempty"`
	StockAfter           int    `json:"stock_after"`
	OperatorID           uint   `json:"operator_id,omitempty"`
}

// Result 交易结果
type Result struct {
	Transaction *transaction.Transaction
	StockAfter  int  // 变更后的库存；幂等重放时为-1（未发生库存变动）
	Replayed    bool // 幂等键命中，返回的是已有记录
}

// engine 各用例共用的工作单元
type engine struct {
	*Deps
}

// replay 按幂等键查找已有记录
// 返回nil表示没有可重放的记录，应继续正常流程
func (e engine) replay(ctx context.Context, key *string, typ transaction.Type, bookID uint) (*Result, error) {
	if key == nil {
		return nil, nil
	}

	existing, err := e.Ledger.FindByIdempotencyKey(ctx, *key)
	if errors.Is(err, transaction.ErrTransactionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !existing.MatchesReplay(typ, bookID) {
		return nil, transaction.ErrIdempotencyKeyConflict
	}

	e.Log.Info("幂等键命中，返回已有交易",
		zap.String("idempotency_key", *key),
		zap.Uint("transaction_id", existing.ID),
	)
	return &Result{Transaction: existing, StockAfter: -1, Replayed: true}, nil
}

// activeBook 加载图书并检查是否在售
func (e engine) activeBook(ctx context.Context, bookID uint) (*book.Book, error) {
	if bookID == 0 {
		return nil, book.ErrMissingBook
	}
	b, err := e.Books.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, book.ErrBookInactive
	}
	return b, nil
}

// record 工作单元：事务内追加账本并调整库存，提交后失效缓存、发布事件
func (e engine) record(ctx context.Context, tx *transaction.Transaction) (*Result, error) {
	var stockAfter int
	err := e.Tx.Transaction(ctx, func(ctx context.Context) error {
		if err := e.Ledger.Append(ctx, tx); err != nil {
			return err
		}
		qty, err := e.Books.AdjustStock(ctx, tx.BookID, tx.StockDelta())
		if err != nil {
			return err
		}
		stockAfter = qty
		return nil
	})

	if errors.Is(err, transaction.ErrDuplicateIdempotencyKey) {
		// 并发的同键请求先提交了，本次事务已回滚，返回对方的记录
		res, rerr := e.replay(ctx, tx.IdempotencyKey, tx.Type, tx.BookID)
		if rerr != nil {
			return nil, rerr
		}
		if res != nil {
			return res, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, EventTransactionCreated, tx, stockAfter)
	return &Result{Transaction: tx, StockAfter: stockAfter}, nil
}

// afterCommit 提交后的副作用：失效缓存、发布事件
// 两者失败都只记录日志，已提交的交易不受影响
func (e engine) afterCommit(ctx context.Context, eventType string, tx *transaction.Transaction, stockAfter int) {
	if err := e.Cache.Invalidate(ctx, tx.BookID); err != nil {
		e.Log.Warn("交易已提交，图书缓存失效失败",
			zap.Uint("transaction_id", tx.ID),
			zap.Uint("book_id", tx.BookID),
			zap.Error(err),
		)
	}

	event := mq.NewEvent(eventType, e.Clock.Now(), TransactionEvent{
		TransactionID:        tx.ID,
		Type:                 string(tx.Type),
		BookID:               tx.BookID,
		Quantity:             tx.Quantity,
		UnitPrice:            tx.UnitPrice.String(),
		TotalAmount:          tx.TotalAmount.StringFixed(2),
		SupplierID:           tx.SupplierID,
		RelatedTransactionID: tx.RelatedTransactionID,
		StockAfter:           stockAfter,
		OperatorID:           tx.OperatorID,
	})
	if err := e.Events.Publish(context.WithoutCancel(ctx), event); err != nil {
		e.Log.Warn("发布交易事件失败",
			zap.String("event_type", eventType),
			zap.Uint("transaction_id", tx.ID),
			zap.Error(err),
		)
	}
}

// begin 开始一次用例调用，返回的finish负责记录指标并结束Span
func begin(ctx context.Context, name string, typ transaction.Type, bookID uint) (context.Context, func(*Result, error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, name,
		attribute.String("inventory.type", string(typ)),
		attribute.Int64("inventory.book_id", int64(bookID)),
	)

	return ctx, func(res *Result, err error) {
		switch {
		case err == nil && res != nil && res.Replayed:
			metrics.ObserveTransaction(string(typ), "replayed", start)
		case err == nil:
			metrics.ObserveTransaction(string(typ), "success", start)
		case isBusinessError(err):
			if errors.Is(err, book.ErrInsufficientStock) {
				metrics.StockRejectionsTotal.Inc()
			}
			metrics.ObserveTransaction(string(typ), "rejected", start)
		default:
			metrics.ObserveTransaction(string(typ), "error", start)
		}
		tracing.End(span, err)
	}
}

// isBusinessError 业务拒绝(4xxxx)与系统错误(5xxxx)分开统计
func isBusinessError(err error) bool {
	appErr := apperrors.GetAppError(err)
	return appErr != nil && appErr.Code < apperrors.ErrCodeInternal
}
