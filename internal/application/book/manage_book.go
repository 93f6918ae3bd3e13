package book

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
)

// ManageBookUseCase 图书查询、修改、下架与恢复
// 写操作都要求调用方带上读取时的版本号
type ManageBookUseCase struct {
	bookService book.Service
	log         *zap.Logger
}

// NewManageBookUseCase 创建图书管理用例
func NewManageBookUseCase(bookService book.Service, log *zap.Logger) *ManageBookUseCase {
	return &ManageBookUseCase{bookService: bookService, log: log}
}

// UpdateBookRequest 修改请求DTO,nil/空串表示不修改
type UpdateBookRequest struct {
	ID            uint
	Version       int
	Title         string
	Author        string
	Publisher     string
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	MinStock      *int
	OperatorID    uint
}

// Get 读穿缓存获取图书
func (uc *ManageBookUseCase) Get(ctx context.Context, id uint) (*BookResponse, error) {
	b, err := uc.bookService.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBookResponse(b), nil
}

// Update 修改图书信息、价格或最低库存
func (uc *ManageBookUseCase) Update(ctx context.Context, req UpdateBookRequest) (*BookResponse, error) {
	b, err := uc.bookService.UpdateBook(ctx, book.UpdateParams{
		ID:            req.ID,
		Version:       req.Version,
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		MinStock:      req.MinStock,
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info("修改图书", zap.Uint("book_id", b.ID), zap.Uint("operator_id", req.OperatorID))
	return toBookResponse(b), nil
}

// Deactivate 下架（软删除），历史交易仍可查询
func (uc *ManageBookUseCase) Deactivate(ctx context.Context, id uint, version int, operatorID uint) (*BookResponse, error) {
	b, err := uc.bookService.Deactivate(ctx, id, version)
	if err != nil {
		return nil, err
	}

	uc.log.Info("图书下架", zap.Uint("book_id", id), zap.Uint("operator_id", operatorID))
	return toBookResponse(b), nil
}

// Restore 恢复上架
func (uc *ManageBookUseCase) Restore(ctx context.Context, id uint, version int, operatorID uint) (*BookResponse, error) {
	b, err := uc.bookService.Restore(ctx, id, version)
	if err != nil {
		return nil, err
	}

	uc.log.Info("图书恢复上架", zap.Uint("book_id", id), zap.Uint("operator_id", operatorID))
	return toBookResponse(b), nil
}
