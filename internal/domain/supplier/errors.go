package supplier

import (
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

var (
	// ErrSupplierNotFound 供应商不存在
	ErrSupplierNotFound = apperrors.New(apperrors.ErrCodeSupplierNotFound, "SUPPLIER_NOT_FOUND", "供应商不存在")

	// ErrMissingSupplier 进货必须指定供应商
	ErrMissingSupplier = apperrors.New(apperrors.ErrCodeMissingSupplier, "MISSING_SUPPLIER", "进货必须指定供应商")

	// ErrSupplierAlreadyActive 恢复未停用的供应商
	ErrSupplierAlreadyActive = apperrors.New(apperrors.ErrCodeSupplierAlreadyActive, "SUPPLIER_ALREADY_ACTIVE", "供应商已经是启用状态，无需恢复")

	// ErrInvalidName 供应商名称为空
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "INVALID_SUPPLIER_NAME", "供应商名称不能为空")
)
