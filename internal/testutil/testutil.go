// Package testutil 测试辅助工具
// 提供内存SQLite数据库、miniredis和可控时钟，供仓储层、应用层和接口层测试复用
package testutil

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/rdb"
)

// NewDB 创建已迁移的内存SQLite数据库
// 只保留一个连接：内存库随连接存在
// 需要真实并发的测试使用NewFileDB
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	require.NoError(t, rdb.AutoMigrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewFileDB 创建文件型SQLite数据库，允许conns个连接真正并发访问
// WAL模式下写入由数据库加锁串行化，busy_timeout让等待锁的连接排队而不是直接报错
func NewFileDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inventory.db")
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)

	require.NoError(t, rdb.AutoMigrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewRedis 启动miniredis并返回客户端
func NewRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// SeedBook 直接写入一本图书，返回ID
func SeedBook(t *testing.T, db *gorm.DB, isbn string, stock, minStock int, sellingPrice string) uint {
	t.Helper()

	model := &rdb.BookModel{
		ISBN:          isbn,
		Title:         "书-" + isbn,
		Author:        "作者-" + isbn,
		Publisher:     "出版社",
		PurchasePrice: decimal.NewFromInt(10),
		SellingPrice:  decimal.RequireFromString(sellingPrice),
		StockQuantity: stock,
		MinStock:      minStock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(model).Error)
	return model.ID
}

// SeedSupplier 写入一个供应商，返回ID
func SeedSupplier(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()

	model := &rdb.SupplierModel{Name: name, IsActive: true}
	require.NoError(t, db.Create(model).Error)
	return model.ID
}

// StockOf 读取图书当前库存
func StockOf(t *testing.T, db *gorm.DB, bookID uint) int {
	t.Helper()

	var model rdb.BookModel
	require.NoError(t, db.First(&model, bookID).Error)
	return model.StockQuantity
}

// Clock 可手动推进的时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock 创建时钟
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now 当前时间
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 设置时间
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance 推进时间
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
