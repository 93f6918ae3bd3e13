package book

import (
	"context"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
)

// ListBooksUseCase 图书列表查询用例
type ListBooksUseCase struct {
	bookService book.Service
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookService: bookService,
	}
}

// ListBooksRequest 列表查询请求DTO
type ListBooksRequest struct {
	Page            int    // 页码（从1开始）
	PageSize        int    // 每页数量
	Keyword         string // 搜索标题、作者、ISBN
	IncludeInactive bool   // 是否包含已下架图书
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	List       []*BookResponse `json:"list"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// Execute 执行列表查询用例
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	// 1. 参数默认值与范围限制
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// 2. 查询
	books, total, err := uc.bookService.ListBooks(ctx, book.ListParams{
		Page:            req.Page,
		PageSize:        req.PageSize,
		Keyword:         req.Keyword,
		IncludeInactive: req.IncludeInactive,
	})
	if err != nil {
		return nil, err
	}

	// 3. 计算总页数
	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize != 0 {
		totalPages++
	}

	return &ListBooksResponse{
		List:       toBookResponses(books),
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

// LowStock 在售且库存不高于最低库存的图书（补货提醒）
func (uc *ListBooksUseCase) LowStock(ctx context.Context) ([]*BookResponse, error) {
	books, err := uc.bookService.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return toBookResponses(books), nil
}

// BookStatsResponse 目录统计
type BookStatsResponse struct {
	TotalBooks     int64  `json:"total_books"`
	ActiveBooks    int64  `json:"active_books"`
	TotalStock     int64  `json:"total_stock"`
	LowStockCount  int64  `json:"low_stock_count"`
	InventoryValue string `json:"inventory_value"` // 在售图书 进价×库存 合计
}

// Stats 目录统计
func (uc *ListBooksUseCase) Stats(ctx context.Context) (*BookStatsResponse, error) {
	s, err := uc.bookService.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &BookStatsResponse{
		TotalBooks:     s.TotalBooks,
		ActiveBooks:    s.ActiveBooks,
		TotalStock:     s.TotalStock,
		LowStockCount:  s.LowStockCount,
		InventoryValue: s.InventoryValue.StringFixed(2),
	}, nil
}
