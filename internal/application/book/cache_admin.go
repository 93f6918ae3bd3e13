package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
)

// CacheAdminUseCase 图书缓存管理
// 与交易流程里的失效不同，这里的失败会返回给调用方
type CacheAdminUseCase struct {
	cache book.Cache
	log   *zap.Logger
}

// NewCacheAdminUseCase 创建缓存管理用例
func NewCacheAdminUseCase(cache book.Cache, log *zap.Logger) *CacheAdminUseCase {
	return &CacheAdminUseCase{cache: cache, log: log}
}

// EvictBook 删除单本图书缓存
func (uc *CacheAdminUseCase) EvictBook(ctx context.Context, id uint, operatorID uint) error {
	if err := uc.cache.Invalidate(ctx, id); err != nil {
		return err
	}
	uc.log.Info("手动清除图书缓存", zap.Uint("book_id", id), zap.Uint("operator_id", operatorID))
	return nil
}

// EvictAll 清空全部图书缓存
func (uc *CacheAdminUseCase) EvictAll(ctx context.Context, operatorID uint) error {
	if err := uc.cache.InvalidateAll(ctx); err != nil {
		return err
	}
	uc.log.Info("手动清空图书缓存", zap.Uint("operator_id", operatorID))
	return nil
}
