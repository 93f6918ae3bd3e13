package transaction

import (
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

// 交易领域错误定义
var (
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "INVALID_QUANTITY", "数量必须大于0")

	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidPrice, "INVALID_PRICE", "单价必须大于0")

	ErrTransactionNotFound = apperrors.New(apperrors.ErrCodeTransactionNotFound, "TRANSACTION_NOT_FOUND", "交易记录不存在")

	// ErrOriginalTransactionNotFound 退货引用的原交易不存在、不是销售或已作废
	ErrOriginalTransactionNotFound = apperrors.New(apperrors.ErrCodeOriginalTransactionNotFound, "ORIGINAL_TRANSACTION_NOT_FOUND", "原销售记录不存在")

	ErrMissingReference = apperrors.New(apperrors.ErrCodeMissingReference, "MISSING_REFERENCE", "退货必须关联原销售记录")

	ErrExcessiveReturn = apperrors.New(apperrors.ErrCodeExcessiveReturn, "EXCESSIVE_RETURN", "退货数量不能超过原销售数量")

	ErrReturnBookMismatch = apperrors.New(apperrors.ErrCodeReturnBookMismatch, "RETURN_BOOK_MISMATCH", "退货图书与原销售记录不一致")

	ErrCannotVoidOldTransaction = apperrors.New(apperrors.ErrCodeCannotVoidOld, "CANNOT_VOID_OLD_TRANSACTION", "只能作废当天的交易")

	ErrAlreadyVoided = apperrors.New(apperrors.ErrCodeAlreadyVoided, "ALREADY_VOIDED", "交易已作废")

	ErrVoidFailed = apperrors.New(apperrors.ErrCodeVoidFailed, "VOID_FAILED", "作废交易失败")

	// ErrVersionConflict 作废时记录已被并发修改
	ErrVersionConflict = apperrors.New(apperrors.ErrCodeVersionConflict, "VERSION_CONFLICT", "交易记录已被修改，请刷新后重试")

	// ErrDuplicateIdempotencyKey 仓储层唯一索引冲突（并发重复提交）
	ErrDuplicateIdempotencyKey = apperrors.New(apperrors.ErrCodeDuplicateEntry, "DUPLICATE_IDEMPOTENCY_KEY", "重复提交")

	ErrIdempotencyKeyConflict = apperrors.New(apperrors.ErrCodeIdempotencyKeyConflict, "IDEMPOTENCY_KEY_CONFLICT", "幂等键已被其他交易使用")

	ErrInvalidDateRange = apperrors.New(apperrors.ErrCodeInvalidDateRange, "INVALID_DATE_RANGE", "查询时间范围非法")
)

// NewExcessiveReturnError 退货数量超过原销售数量
func NewExcessiveReturnError(originalQuantity, requested int) *apperrors.AppError {
	return ErrExcessiveReturn.
		WithMessage("退货数量不能超过原销售数量，原销售数量：%d", originalQuantity).
		WithDetails(map[string]interface{}{
			"original_quantity": originalQuantity,
			"requested":         requested,
		})
}

// NewVoidFailedError 作废时反向调整库存失败
func NewVoidFailedError(transactionID uint, current, requested int) *apperrors.AppError {
	return ErrVoidFailed.
		WithMessage("作废交易失败，库存不足以回退，当前库存：%d，需回退数量：%d", current, requested).
		WithDetails(map[string]interface{}{
			"transaction_id": transactionID,
			"current":        current,
			"requested":      requested,
		})
}
