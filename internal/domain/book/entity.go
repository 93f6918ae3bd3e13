package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体（聚合根）
// DDD设计说明：
// 1. 价格使用decimal.Decimal，避免浮点数精度问题
// 2. ISBN作为业务唯一标识，创建后不可修改
// 3. StockQuantity只能通过Repository.AdjustStock条件更新，整实体保存不会写库存
// 4. Version是整实体保存的乐观锁版本号，与库存条件更新互不干扰
// 5. 删除是软删除(IsActive=false)，历史交易记录仍需引用该图书
type Book struct {
	ID            uint
	ISBN          string
	Title         string
	Author        string
	Publisher     string
	PurchasePrice decimal.Decimal // 进价
	SellingPrice  decimal.Decimal // 标价
	StockQuantity int             // 当前库存(>=0)
	MinStock      int             // 最低库存（补货阈值）
	IsActive      bool
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBook 创建新图书（工厂方法）
// ISBN格式由领域服务校验，这里只校验数值类字段
func NewBook(isbn, title, author, publisher string, purchasePrice, sellingPrice decimal.Decimal, initialStock, minStock int) (*Book, error) {
	if !purchasePrice.IsPositive() || !sellingPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if initialStock < 0 || minStock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now()
	return &Book{
		ISBN:          isbn,
		Title:         title,
		Author:        author,
		Publisher:     publisher,
		PurchasePrice: purchasePrice.Round(2),
		SellingPrice:  sellingPrice.Round(2),
		StockQuantity: initialStock,
		MinStock:      minStock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// UpdatePrices 更新进价和标价
func (b *Book) UpdatePrices(purchasePrice, sellingPrice decimal.Decimal) error {
	if !purchasePrice.IsPositive() || !sellingPrice.IsPositive() {
		return ErrInvalidPrice
	}
	b.PurchasePrice = purchasePrice.Round(2)
	b.SellingPrice = sellingPrice.Round(2)
	b.UpdatedAt = time.Now()
	return nil
}

// UpdateInfo 更新图书基本信息（空值表示不修改）
func (b *Book) UpdateInfo(title, author, publisher string) {
	if title != "" {
		b.Title = title
	}
	if author != "" {
		b.Author = author
	}
	if publisher != "" {
		b.Publisher = publisher
	}
	b.UpdatedAt = time.Now()
}

// UpdateMinStock 修改补货阈值
func (b *Book) UpdateMinStock(minStock int) error {
	if minStock < 0 {
		return ErrInvalidStock
	}
	b.MinStock = minStock
	b.UpdatedAt = time.Now()
	return nil
}

// Deactivate 下架（软删除）
func (b *Book) Deactivate() {
	b.IsActive = false
	b.UpdatedAt = time.Now()
}

// Restore 恢复上架
func (b *Book) Restore() {
	b.IsActive = true
	b.UpdatedAt = time.Now()
}

// IsLowStock 库存是否低于补货阈值
func (b *Book) IsLowStock() bool {
	return b.StockQuantity <= b.MinStock
}

// HasStock 当前快照下库存是否满足数量
// 仅用于提前给出友好提示，最终以条件更新结果为准
func (b *Book) HasStock(quantity int) bool {
	return b.StockQuantity >= quantity
}
