package rdb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架，按配置选择MySQL或PostgreSQL驱动
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN())
	default:
		dialector = mysql.Open(cfg.Database.DSN())
	}

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一索引冲突统一翻译为gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	// 最大打开连接数（建议：CPU核数 * 2 + 磁盘数量）
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	// 注意：生产环境应使用版本化的迁移脚本
	if err := AutoMigrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn("关闭数据库连接失败", zap.Error(err))
		}
	}
	return db, cleanup, nil
}

// AutoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BookModel{},
		&SupplierModel{},
		&TransactionModel{},
	)
}

// BookModel GORM图书模型
// 设计说明：
// 1. 价格使用decimal(10,2)，由shopspring/decimal实现Scanner/Valuer
// 2. stock_quantity只由条件更新语句修改，version只由整实体保存修改
// 3. is_active是软删除标记，不使用gorm.DeletedAt（历史交易仍需关联查询）
type BookModel struct {
	ID            uint            `gorm:"primaryKey"`
	ISBN          string          `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title         string          `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author        string          `gorm:"index:idx_search;size:100;not null;comment:作者"`
	Publisher     string          `gorm:"size:100;comment:出版社"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:进价"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:标价"`
	StockQuantity int             `gorm:"not null;default:0;comment:库存数量"`
	MinStock      int             `gorm:"not null;default:0;comment:最低库存"`
	IsActive      bool            `gorm:"index;not null;default:true;comment:是否在售"`
	Version       int             `gorm:"not null;default:0;comment:乐观锁版本号"`
	CreatedAt     time.Time       `gorm:"comment:创建时间"`
	UpdatedAt     time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// SupplierModel GORM供应商模型
type SupplierModel struct {
	ID            uint      `gorm:"primaryKey"`
	Name          string    `gorm:"size:100;not null;comment:供应商名称"`
	ContactPerson string    `gorm:"size:50;comment:联系人"`
	Phone         string    `gorm:"size:30;comment:电话"`
	Email         string    `gorm:"size:100;comment:邮箱"`
	Address       string    `gorm:"size:255;comment:地址"`
	IsActive      bool      `gorm:"not null;default:true;comment:是否启用"`
	CreatedAt     time.Time `gorm:"comment:创建时间"`
	UpdatedAt     time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (SupplierModel) TableName() string {
	return "suppliers"
}

// TransactionModel GORM交易记录模型
// 设计说明：
// 1. 只追加，唯一的更新是作废时写notes/voided_at/version
// 2. idempotency_key可为空，唯一索引允许多个NULL
// 3. (book_id, created_at)和(type, created_at)索引服务于历史查询、推荐和报表
type TransactionModel struct {
	ID                   uint            `gorm:"primaryKey"`
	Type                 string          `gorm:"size:16;not null;index:idx_type_created,priority:1;comment:交易类型(PURCHASE/SALE/RETURN)"`
	BookID               uint            `gorm:"not null;index:idx_book_created,priority:1;comment:图书ID"`
	SupplierID           *uint           `gorm:"index;comment:供应商ID(进货)"`
	Quantity             int             `gorm:"not null;comment:数量"`
	UnitPrice            decimal.Decimal `gorm:"type:decimal(12,4);not null;comment:单价"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(14,2);not null;comment:总金额"`
	RelatedTransactionID *uint           `gorm:"index;comment:关联销售记录ID(退货)"`
	Notes                string          `gorm:"type:text;comment:备注"`
	IdempotencyKey       *string         `gorm:"uniqueIndex;size:64;comment:幂等键"`
	OperatorID           uint            `gorm:"not null;default:0;comment:操作员ID"`
	VoidedAt             *time.Time      `gorm:"comment:作废时间"`
	CreatedAt            time.Time       `gorm:"not null;index:idx_type_created,priority:2;index:idx_book_created,priority:2;comment:创建时间"`
	Version              int             `gorm:"not null;default:0;comment:乐观锁版本号"`
}

// TableName 指定表名
func (TransactionModel) TableName() string {
	return "inventory_transactions"
}
