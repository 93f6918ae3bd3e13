package rdb

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

// bookRepository 图书仓储实现
// 设计说明：
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误（如ISBN重复），转换为业务错误
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := dbFromContext(ctx, r.db).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByIDs 批量查询
func (r *bookRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*book.Book, error) {
	result := make(map[uint]*book.Book, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []BookModel
	if err := dbFromContext(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "批量查询图书失败")
	}
	for i := range models {
		result[models[i].ID] = toBookEntity(&models[i])
	}
	return result, nil
}

// FindByISBN 根据ISBN查找图书
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	err := dbFromContext(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// Save 整实体保存（乐观锁）
// 注意：不写stock_quantity，库存只能走AdjustStock，避免覆盖并发的库存变更
func (r *bookRepository) Save(ctx context.Context, b *book.Book) error {
	db := dbFromContext(ctx, r.db)

	result := db.Model(&BookModel{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]interface{}{
			"title":          b.Title,
			"author":         b.Author,
			"publisher":      b.Publisher,
			"purchase_price": b.PurchasePrice,
			"selling_price":  b.SellingPrice,
			"min_stock":      b.MinStock,
			"is_active":      b.IsActive,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     b.UpdatedAt,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "保存图书失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&BookModel{}).Where("id = ?", b.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询图书失败")
		}
		if count == 0 {
			return book.ErrBookNotFound
		}
		return book.ErrVersionConflict
	}

	b.Version++
	return nil
}

// AdjustStock 条件更新库存
// 单条UPDATE完成"检查+写入"，数据库行锁保证并发正确：
//
//	UPDATE books SET stock_quantity = stock_quantity + ?
//	WHERE id = ? AND stock_quantity + ? >= 0
//
// 影响行数为0时再查询一次，区分"图书不存在"和"库存不足"
func (r *bookRepository) AdjustStock(ctx context.Context, id uint, delta int) (int, error) {
	db := dbFromContext(ctx, r.db)

	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("stock_quantity + ? >= 0", delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "更新库存失败")
	}

	var quantities []int
	if err := db.Model(&BookModel{}).Where("id = ?", id).Pluck("stock_quantity", &quantities).Error; err != nil {
		return 0, apperrors.Wrap(err, "查询库存失败")
	}
	if len(quantities) == 0 {
		return 0, book.ErrBookNotFound
	}
	current := quantities[0]

	if result.RowsAffected == 0 {
		requested := delta
		if requested < 0 {
			requested = -requested
		}
		return current, book.NewInsufficientStockError(current, requested)
	}
	return current, nil
}

// List 分页查询
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	page, pageSize := normalizePage(params.Page, params.PageSize)
	query := dbFromContext(ctx, r.db).Model(&BookModel{})

	if !params.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if params.Keyword != "" {
		like := "%" + params.Keyword + "%"
		query = query.Where("title LIKE ? OR author LIKE ? OR isbn LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计图书数量失败")
	}

	var models []BookModel
	err := query.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, 0, len(models))
	for i := range models {
		books = append(books, toBookEntity(&models[i]))
	}
	return books, total, nil
}

// ListLowStock 在售且库存<=最低库存
func (r *bookRepository) ListLowStock(ctx context.Context) ([]*book.Book, error) {
	var models []BookModel
	err := dbFromContext(ctx, r.db).
		Where("is_active = ? AND stock_quantity <= min_stock", true).
		Order("stock_quantity ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询低库存图书失败")
	}

	books := make([]*book.Book, 0, len(models))
	for i := range models {
		books = append(books, toBookEntity(&models[i]))
	}
	return books, nil
}

// Stats 目录统计
// 库存价值在Go里用decimal累加，不依赖数据库对decimal乘法的支持
func (r *bookRepository) Stats(ctx context.Context) (*book.Stats, error) {
	db := dbFromContext(ctx, r.db)
	stats := &book.Stats{InventoryValue: decimal.Zero}

	if err := db.Model(&BookModel{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计图书数量失败")
	}
	err := db.Model(&BookModel{}).
		Where("is_active = ? AND stock_quantity <= min_stock", true).
		Count(&stats.LowStockCount).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "统计低库存图书失败")
	}

	var rows []struct {
		PurchasePrice decimal.Decimal
		StockQuantity int
	}
	err = db.Model(&BookModel{}).
		Select("purchase_price", "stock_quantity").
		Where("is_active = ?", true).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "统计库存价值失败")
	}

	stats.ActiveBooks = int64(len(rows))
	for _, row := range rows {
		stats.TotalStock += int64(row.StockQuantity)
		stats.InventoryValue = stats.InventoryValue.Add(
			row.PurchasePrice.Mul(decimal.NewFromInt(int64(row.StockQuantity))))
	}
	stats.InventoryValue = stats.InventoryValue.Round(2)
	return stats, nil
}

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:            b.ID,
		ISBN:          b.ISBN,
		Title:         b.Title,
		Author:        b.Author,
		Publisher:     b.Publisher,
		PurchasePrice: b.PurchasePrice,
		SellingPrice:  b.SellingPrice,
		StockQuantity: b.StockQuantity,
		MinStock:      b.MinStock,
		IsActive:      b.IsActive,
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:            model.ID,
		ISBN:          model.ISBN,
		Title:         model.Title,
		Author:        model.Author,
		Publisher:     model.Publisher,
		PurchasePrice: model.PurchasePrice,
		SellingPrice:  model.SellingPrice,
		StockQuantity: model.StockQuantity,
		MinStock:      model.MinStock,
		IsActive:      model.IsActive,
		Version:       model.Version,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
