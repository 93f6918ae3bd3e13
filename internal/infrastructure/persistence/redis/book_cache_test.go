package redis_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-inventory/internal/testutil"
	"github.com/xiebiao/bookstore-inventory/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

func cacheConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			BookTTL:             10 * time.Minute,
			BreakerMaxRequests:  1,
			BreakerTimeout:      time.Minute,
			BreakerFailureLimit: 2,
		},
	}
}

func setStock(t *testing.T, db *gorm.DB, id uint, qty int) {
	t.Helper()
	require.NoError(t, db.Model(&rdb.BookModel{}).Where("id = ?", id).Update("stock_quantity", qty).Error)
}

func TestBookCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cacheConfig(), zap.NewNop())
	id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

	t.Run("未命中回源并回填", func(t *testing.T) {
		b, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 10, b.StockQuantity)
		assert.True(t, mr.Exists("inventory:book:1"))
		assert.Greater(t, mr.TTL("inventory:book:1"), time.Duration(0))
	})

	t.Run("命中返回缓存数据", func(t *testing.T) {
		setStock(t, db, id, 3)

		b, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 10, b.StockQuantity)
		assert.Equal(t, "59", b.SellingPrice.String())
	})

	t.Run("失效后读到最新库存", func(t *testing.T) {
		require.NoError(t, cache.Invalidate(ctx, id))

		b, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, b.StockQuantity)
	})

	t.Run("不存在的图书不回填", func(t *testing.T) {
		_, err := cache.Get(ctx, 9999)
		assert.True(t, errors.Is(err, book.ErrBookNotFound))
		assert.False(t, mr.Exists("inventory:book:9999"))
	})
}

func TestBookCache_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cacheConfig(), zap.NewNop())

	for _, isbn := range []string{"9787115428028", "9780134190440", "9787111544357"} {
		id := testutil.SeedBook(t, db, isbn, 1, 0, "10.00")
		_, err := cache.Get(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, mr.Set("session:other", "keep"))

	require.NoError(t, cache.InvalidateAll(ctx))

	for _, key := range mr.Keys() {
		assert.False(t, strings.HasPrefix(key, "inventory:book:"), key)
	}
	assert.True(t, mr.Exists("session:other"))
}

func TestBookCache_RedisDown(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cacheConfig(), zap.NewNop())
	id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

	mr.SetError("connection refused")

	t.Run("读请求回源数据库", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			b, err := cache.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 10, b.StockQuantity)
		}
	})

	t.Run("连续失败后熔断", func(t *testing.T) {
		assert.Equal(t, circuitbreaker.StateOpen, cache.BreakerState())
	})

	t.Run("失效失败返回Redis错误", func(t *testing.T) {
		err := cache.Invalidate(ctx, id)
		assert.True(t, errors.Is(err, apperrors.ErrRedisError))
	})
}

// loadHookRepo 第一次FindByID读完数据后执行hook，模拟加载和写入交错
type loadHookRepo struct {
	book.Repository
	once sync.Once
	hook func()
}

func (r *loadHookRepo) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	b, err := r.Repository.FindByID(ctx, id)
	r.once.Do(r.hook)
	return b, err
}

func TestBookCache_LoadRacesInvalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("加载期间单本失效不回填旧数据", func(t *testing.T) {
		db := testutil.NewDB(t)
		mr, client := testutil.NewRedis(t)
		bookRepo := rdb.NewBookRepository(db)
		repo := &loadHookRepo{Repository: bookRepo}
		cache := redis.NewBookCache(client, repo, cacheConfig(), zap.NewNop())
		id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

		repo.hook = func() {
			_, err := bookRepo.AdjustStock(ctx, id, -10)
			require.NoError(t, err)
			require.NoError(t, cache.Invalidate(ctx, id))
		}

		b, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 10, b.StockQuantity)
		assert.False(t, mr.Exists("inventory:book:1"))

		b, err = cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, b.StockQuantity)
	})

	t.Run("加载期间全量失效不回填旧数据", func(t *testing.T) {
		db := testutil.NewDB(t)
		mr, client := testutil.NewRedis(t)
		bookRepo := rdb.NewBookRepository(db)
		repo := &loadHookRepo{Repository: bookRepo}
		cache := redis.NewBookCache(client, repo, cacheConfig(), zap.NewNop())
		id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

		repo.hook = func() {
			setStock(t, db, id, 4)
			require.NoError(t, cache.InvalidateAll(ctx))
		}

		_, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, mr.Exists("inventory:book:1"))

		b, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 4, b.StockQuantity)
		assert.True(t, mr.Exists("inventory:book:1"))
	})
}

func TestBookCache_InvalidateWhileBreakerOpen(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cacheConfig(), zap.NewNop())
	id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

	_, err := cache.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, mr.Exists("inventory:book:1"))

	// 两次读失败打开熔断器，随后Redis恢复，熔断器仍在冷却
	mr.SetError("connection refused")
	for i := 0; i < 2; i++ {
		_, err := cache.Get(ctx, id)
		require.NoError(t, err)
	}
	mr.SetError("")
	require.Equal(t, circuitbreaker.StateOpen, cache.BreakerState())

	setStock(t, db, id, 3)
	require.NoError(t, cache.Invalidate(ctx, id))
	assert.False(t, mr.Exists("inventory:book:1"))

	b, err := cache.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, b.StockQuantity)
}

func TestBookCache_RetryFailedInvalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("单本失效失败后下次读取先补删", func(t *testing.T) {
		db := testutil.NewDB(t)
		mr, client := testutil.NewRedis(t)
		cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cacheConfig(), zap.NewNop())
		id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

		_, err := cache.Get(ctx, id)
		require.NoError(t, err)

		setStock(t, db, id, 3)
		mr.SetError("connection refused")
		err = cache.Invalidate(ctx, id)
		require.True(t, errors.Is(err, apperrors.ErrRedisError))

		b, err := cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, b.StockQuantity)

		mr.SetError("")
		require.True(t, mr.Exists("inventory:book:1"))

		b, err = cache.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, b.StockQuantity)

		cached, err := mr.Get("inventory:book:1")
		require.NoError(t, err)
		assert.Contains(t, cached, `"StockQuantity":3`)
	})

	t.Run("全量失效失败后下次读取先补删", func(t *testing.T) {
		db := testutil.NewDB(t)
		mr, client := testutil.NewRedis(t)
		cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cacheConfig(), zap.NewNop())
		first := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")
		second := testutil.SeedBook(t, db, "9780134190440", 6, 1, "30.00")

		for _, id := range []uint{first, second} {
			_, err := cache.Get(ctx, id)
			require.NoError(t, err)
		}

		setStock(t, db, second, 2)
		mr.SetError("connection refused")
		require.Error(t, cache.InvalidateAll(ctx))
		mr.SetError("")

		b, err := cache.Get(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, 10, b.StockQuantity)
		assert.False(t, mr.Exists("inventory:book:2"))

		b, err = cache.Get(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, 2, b.StockQuantity)
	})
}

// returnsWithin 在deadline内等到fn返回，否则测试失败
func returnsWithin(t *testing.T, deadline time.Duration, fn func() error) error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(deadline):
		t.Fatalf("调用%v内未返回", deadline)
		return nil
	}
}

func TestBookCache_InvalidateAgainstErrorReplies(t *testing.T) {
	ctx := context.Background()

	replies := []string{
		"connection refused",
		"LOADING Redis is loading the dataset in memory",
		"READONLY You can't write against a read only replica.",
		"OOM command not allowed when used memory > 'maxmemory'.",
		"NOAUTH Authentication required.",
	}
	for _, reply := range replies {
		t.Run(reply, func(t *testing.T) {
			db := testutil.NewDB(t)
			mr, client := testutil.NewRedis(t)
			cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cacheConfig(), zap.NewNop())
			id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

			_, err := cache.Get(ctx, id)
			require.NoError(t, err)
			setStock(t, db, id, 3)

			mr.SetError(reply)
			err = returnsWithin(t, 5*time.Second, func() error { return cache.Invalidate(ctx, id) })
			assert.True(t, errors.Is(err, apperrors.ErrRedisError))
			assert.Equal(t, 1, cache.PendingCount())

			// 读请求里的补删同样失败，该图书回源数据库
			var b *book.Book
			err = returnsWithin(t, 5*time.Second, func() error {
				var err error
				b, err = cache.Get(ctx, id)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, 3, b.StockQuantity)

			mr.SetError("")
			require.NoError(t, returnsWithin(t, 5*time.Second, func() error { return cache.Invalidate(ctx, id) }))
			assert.Equal(t, 0, cache.PendingCount())
			assert.False(t, mr.Exists("inventory:book:1"))
		})
	}
}

func TestBookCache_RunFlushesPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	repo := rdb.NewBookRepository(db)
	// 同一个Redis前面的两个API进程
	local := redis.NewBookCache(client, repo, cacheConfig(), zap.NewNop())
	remote := redis.NewBookCache(client, repo, cacheConfig(), zap.NewNop())
	id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

	_, err := local.Get(ctx, id)
	require.NoError(t, err)

	setStock(t, db, id, 3)
	mr.SetError("connection refused")
	require.Error(t, local.Invalidate(ctx, id))
	mr.SetError("")

	b, err := remote.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 10, b.StockQuantity)

	done := make(chan struct{})
	go func() {
		local.Run(ctx, 20*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return local.PendingCount() == 0 && !mr.Exists("inventory:book:1")
	}, 2*time.Second, 10*time.Millisecond)

	b, err = remote.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, b.StockQuantity)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ctx取消后Run未退出")
	}
}

func TestBookCache_RunFlushesWhenBreakerLeavesOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := cacheConfig()
	cfg.Cache.BreakerTimeout = 30 * time.Millisecond

	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	cache := redis.NewBookCache(client, rdb.NewBookRepository(db), cfg, zap.NewNop())
	id := testutil.SeedBook(t, db, "9787115428028", 10, 2, "59.00")

	_, err := cache.Get(ctx, id)
	require.NoError(t, err)

	// 定时补删间隔足够长，只有熔断器状态变化能触发补删
	go cache.Run(ctx, time.Hour)

	mr.SetError("connection refused")
	for i := 0; i < 2; i++ {
		_, err := cache.Get(ctx, id)
		require.NoError(t, err)
	}
	require.Equal(t, circuitbreaker.StateOpen, cache.BreakerState())

	setStock(t, db, id, 3)
	require.Error(t, cache.Invalidate(ctx, id))
	mr.SetError("")

	assert.Eventually(t, func() bool {
		// 熔断器在查询状态时才从打开切到半开
		return cache.BreakerState() != circuitbreaker.StateOpen &&
			cache.PendingCount() == 0 &&
			!mr.Exists("inventory:book:1")
	}, 2*time.Second, 10*time.Millisecond)
}
