package book

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository 图书仓储接口（依赖倒置原则）
// 设计说明：
// 1. 由domain层定义接口，infrastructure层实现
// 2. 库存变更与整实体保存是两条独立的并发控制路径
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书（包含已下架图书）
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByIDs 批量查询（报表填充书名作者用），不存在的ID直接忽略
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*Book, error)

	// FindByISBN 根据ISBN查找图书
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Save 整实体保存（乐观锁）
	// WHERE id = ? AND version = ?，成功后book.Version加1
	// 不写stock_quantity；版本号已变化返回ErrVersionConflict
	Save(ctx context.Context, book *Book) error

	// AdjustStock 条件更新库存，返回变更后的库存
	// 单条语句完成检查和写入：stock_quantity + delta >= 0 才更新
	// 不满足时不产生任何写入，返回ErrInsufficientStock（带当前库存和请求数量）
	AdjustStock(ctx context.Context, id uint, delta int) (int, error)

	// List 分页查询
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// ListLowStock 在售且库存<=最低库存的图书
	ListLowStock(ctx context.Context) ([]*Book, error)

	// Stats 目录统计，库存和库存价值只计在售图书
	Stats(ctx context.Context) (*Stats, error)
}

// Stats 目录统计
type Stats struct {
	TotalBooks     int64           // 全部图书（含已下架）
	ActiveBooks    int64           // 在售图书
	TotalStock     int64           // 在售图书库存合计
	LowStockCount  int64           // 在售且库存<=最低库存
	InventoryValue decimal.Decimal // Σ 进价×库存，保留2位小数
}

// ListParams 列表查询参数
type ListParams struct {
	Page            int    // 页码（从1开始）
	PageSize        int    // 每页数量
	Keyword         string // 搜索关键词（标题、作者、ISBN）
	IncludeInactive bool   // 是否包含已下架图书
}

// Cache 图书读穿缓存
// 库存发生变化后必须同步调用Invalidate，再向调用方返回成功
type Cache interface {
	// Get 先查缓存，未命中则从存储加载并回填
	Get(ctx context.Context, id uint) (*Book, error)

	// Invalidate 删除单本图书缓存
	Invalidate(ctx context.Context, id uint) error

	// InvalidateAll 删除全部图书缓存
	InvalidateAll(ctx context.Context) error
}
