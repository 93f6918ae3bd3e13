package book

import (
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "BOOK_NOT_FOUND", "图书不存在")

	// ErrBookInactive 图书已下架
	ErrBookInactive = apperrors.New(apperrors.ErrCodeBookInactive, "BOOK_INACTIVE", "图书已下架，不能进行交易")

	// ErrMissingBook 缺少图书
	ErrMissingBook = apperrors.New(apperrors.ErrCodeMissingBook, "MISSING_BOOK", "必须指定图书")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeISBNDuplicate, "ISBN_DUPLICATE", "ISBN号已存在")

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidISBN, "INVALID_ISBN", "ISBN格式不正确")

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidPrice, "INVALID_PRICE", "价格必须大于0")

	// ErrInvalidStock 无效的库存
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "INVALID_STOCK", "库存不能为负数")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "INSUFFICIENT_STOCK", "库存不足")

	// ErrVersionConflict 整实体保存时版本号已变化
	ErrVersionConflict = apperrors.New(apperrors.ErrCodeVersionConflict, "VERSION_CONFLICT", "图书已被其他操作修改，请刷新后重试")
)

// NewInsufficientStockError 构造带当前库存和请求数量的库存不足错误
func NewInsufficientStockError(current, requested int) *apperrors.AppError {
	return ErrInsufficientStock.
		WithMessage("库存不足，当前库存：%d，请求数量：%d", current, requested).
		WithDetails(map[string]interface{}{
			"current":   current,
			"requested": requested,
		})
}
