package rdb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

// transactionLedger 交易账本实现
// 只有INSERT和作废时的条件UPDATE，没有DELETE
type transactionLedger struct {
	db *gorm.DB
}

// NewTransactionLedger 创建交易账本
func NewTransactionLedger(db *gorm.DB) transaction.Ledger {
	return &transactionLedger{db: db}
}

// Append 追加交易记录
func (l *transactionLedger) Append(ctx context.Context, tx *transaction.Transaction) error {
	model := toTransactionModel(tx)

	if err := dbFromContext(ctx, l.db).Create(model).Error; err != nil {
		if tx.IdempotencyKey != nil && isDuplicateError(err) {
			return transaction.ErrDuplicateIdempotencyKey
		}
		return apperrors.Wrap(err, "写入交易记录失败")
	}

	tx.ID = model.ID
	tx.CreatedAt = model.CreatedAt
	tx.Version = model.Version
	return nil
}

// FindByID 根据ID查询
func (l *transactionLedger) FindByID(ctx context.Context, id uint) (*transaction.Transaction, error) {
	var model TransactionModel
	if err := dbFromContext(ctx, l.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(err, "查询交易记录失败")
	}
	return toTransactionEntity(&model), nil
}

// FindByIdempotencyKey 根据幂等键查询
func (l *transactionLedger) FindByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	var model TransactionModel
	if err := dbFromContext(ctx, l.db).Where("idempotency_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(err, "查询交易记录失败")
	}
	return toTransactionEntity(&model), nil
}

// MarkVoided 持久化作废信息
// WHERE version = ? AND voided_at IS NULL 防止并发重复作废
func (l *transactionLedger) MarkVoided(ctx context.Context, tx *transaction.Transaction) error {
	result := dbFromContext(ctx, l.db).Model(&TransactionModel{}).
		Where("id = ? AND version = ? AND voided_at IS NULL", tx.ID, tx.Version).
		Updates(map[string]interface{}{
			"notes":     tx.Notes,
			"voided_at": tx.VoidedAt,
			"version":   gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "作废交易记录失败")
	}
	if result.RowsAffected == 0 {
		return transaction.ErrVersionConflict
	}
	tx.Version++
	return nil
}

// Find 条件查询，按ID升序
func (l *transactionLedger) Find(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	query := dbFromContext(ctx, l.db).Model(&TransactionModel{})

	if !filter.Start.IsZero() {
		query = query.Where("created_at >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		query = query.Where("created_at < ?", filter.End)
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		query = query.Where("type IN ?", types)
	}
	if filter.BookID != 0 {
		query = query.Where("book_id = ?", filter.BookID)
	}
	if !filter.IncludeVoided {
		query = query.Where("voided_at IS NULL")
	}

	var models []TransactionModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询交易记录失败")
	}

	list := make([]*transaction.Transaction, 0, len(models))
	for i := range models {
		list = append(list, toTransactionEntity(&models[i]))
	}
	return list, nil
}

// ListByBook 单本图书交易历史（含已作废记录，按时间倒序）
func (l *transactionLedger) ListByBook(ctx context.Context, bookID uint, page, pageSize int) ([]*transaction.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := dbFromContext(ctx, l.db).Model(&TransactionModel{}).Where("book_id = ?", bookID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计交易记录失败")
	}

	var models []TransactionModel
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询交易历史失败")
	}

	list := make([]*transaction.Transaction, 0, len(models))
	for i := range models {
		list = append(list, toTransactionEntity(&models[i]))
	}
	return list, total, nil
}

func toTransactionModel(tx *transaction.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:                   tx.ID,
		Type:                 string(tx.Type),
		BookID:               tx.BookID,
		SupplierID:           tx.SupplierID,
		Quantity:             tx.Quantity,
		UnitPrice:            tx.UnitPrice,
		TotalAmount:          tx.TotalAmount,
		RelatedTransactionID: tx.RelatedTransactionID,
		Notes:                tx.Notes,
		IdempotencyKey:       tx.IdempotencyKey,
		OperatorID:           tx.OperatorID,
		VoidedAt:             tx.VoidedAt,
		CreatedAt:            tx.CreatedAt,
		Version:              tx.Version,
	}
}

func toTransactionEntity(m *TransactionModel) *transaction.Transaction {
	return &transaction.Transaction{
		ID:                   m.ID,
		Type:                 transaction.Type(m.Type),
		BookID:               m.BookID,
		SupplierID:           m.SupplierID,
		Quantity:             m.Quantity,
		UnitPrice:            m.UnitPrice,
		TotalAmount:          m.TotalAmount,
		RelatedTransactionID: m.RelatedTransactionID,
		Notes:                m.Notes,
		IdempotencyKey:       m.IdempotencyKey,
		OperatorID:           m.OperatorID,
		VoidedAt:             m.VoidedAt,
		CreatedAt:            m.CreatedAt,
		Version:              m.Version,
	}
}
