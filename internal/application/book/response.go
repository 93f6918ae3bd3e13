package book

import (
	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
)

const timeLayout = "2006-01-02 15:04:05"

// BookResponse 图书响应DTO
// 金额统一输出为保留2位小数的字符串，避免前端浮点误差
type BookResponse struct {
	ID            uint   `json:"id"`
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PurchasePrice string `json:"purchase_price"`
	SellingPrice  string `json:"selling_price"`
	StockQuantity int    `json:"stock_quantity"`
	MinStock      int    `json:"min_stock"`
	LowStock      bool   `json:"low_stock"`
	IsActive      bool   `json:"is_active"`
	Version       int    `json:"version"` // 修改、下架时回传，用于乐观锁
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toBookResponse(b *book.Book) *BookResponse {
	return &BookResponse{
		ID:            b.ID,
		ISBN:          b.ISBN,
		Title:         b.Title,
		Author:        b.Author,
		Publisher:     b.Publisher,
		PurchasePrice: b.PurchasePrice.StringFixed(2),
		SellingPrice:  b.SellingPrice.StringFixed(2),
		StockQuantity: b.StockQuantity,
		MinStock:      b.MinStock,
		LowStock:      b.IsLowStock(),
		IsActive:      b.IsActive,
		Version:       b.Version,
		CreatedAt:     b.CreatedAt.Format(timeLayout),
		UpdatedAt:     b.UpdatedAt.Format(timeLayout),
	}
}

func toBookResponses(books []*book.Book) []*BookResponse {
	list := make([]*BookResponse, len(books))
	for i, b := range books {
		list[i] = toBookResponse(b)
	}
	return list
}
