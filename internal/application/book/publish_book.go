package book

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
)

// PublishBookUseCase 图书上架用例
// 应用层只负责流程编排，ISBN校验、重复检查、价格校验都在领域服务里
type PublishBookUseCase struct {
	bookService book.Service
	log         *zap.Logger
}

// NewPublishBookUseCase 创建上架用例
func NewPublishBookUseCase(bookService book.Service, log *zap.Logger) *PublishBookUseCase {
	return &PublishBookUseCase{
		bookService: bookService,
		log:         log,
	}
}

// PublishBookRequest 上架请求DTO
type PublishBookRequest struct {
	ISBN          string
	Title         string
	Author        string
	Publisher     string
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	InitialStock  int
	MinStock      int
	OperatorID    uint
}

// Execute 执行上架用例
func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*BookResponse, error) {
	b, err := uc.bookService.PublishBook(ctx, book.PublishParams{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		InitialStock:  req.InitialStock,
		MinStock:      req.MinStock,
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info("图书上架",
		zap.Uint("book_id", b.ID),
		zap.String("isbn", b.ISBN),
		zap.Uint("operator_id", req.OperatorID),
	)
	return toBookResponse(b), nil
}
