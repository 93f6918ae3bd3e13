package transaction

import (
	"context"
	"time"
)

// Ledger 交易账本仓储接口（只追加）
type Ledger interface {
	// Append 追加一条交易记录，回填ID
	// 幂等键重复时返回ErrDuplicateIdempotencyKey
	Append(ctx context.Context, tx *Transaction) error

	// FindByID 不存在返回ErrTransactionNotFound
	FindByID(ctx context.Context, id uint) (*Transaction, error)

	// FindByIdempotencyKey 不存在返回ErrTransactionNotFound
	FindByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// MarkVoided 持久化作废备注和作废时间（按版本号乐观锁）
	// 版本号不匹配或已作废返回ErrVersionConflict
	MarkVoided(ctx context.Context, tx *Transaction) error

	// Find 按条件查询，按ID升序返回（即写入顺序）
	Find(ctx context.Context, filter Filter) ([]*Transaction, error)

	// ListByBook 单本图书的交易历史，按创建时间倒序分页
	ListByBook(ctx context.Context, bookID uint, page, pageSize int) ([]*Transaction, int64, error)
}

// Filter 账本查询条件，零值字段表示不限制
type Filter struct {
	Start         time.Time // 包含
	End           time.Time // 不包含
	Types         []Type
	BookID        uint
	IncludeVoided bool
}
