package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-inventory/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
	"github.com/xiebiao/bookstore-inventory/pkg/metrics"
)

const (
	bookKeyPrefix  = "inventory:book:"
	bookKeyPattern = bookKeyPrefix + "*"
	// 版本号key不能落在bookKeyPattern里，否则InvalidateAll会把它一起删掉
	bookGenPrefix = "inventory:bookgen:"
	allGenKey     = bookGenPrefix + "all"
	scanBatch     = 100
)

// errStaleFill 加载期间缓存已被失效，放弃回填
var errStaleFill = errors.New("book cache: generation changed during load")

// generation 回源前读到的失效版本号，回填时必须不变
type generation struct {
	book string
	all  string
}

// BookCache 图书读穿缓存
//
// Key：inventory:book:{id}，值为JSON，带TTL。
// 每本书另有一个失效版本号，Invalidate按顺序递增版本号再删key，
// 回填用WATCH比较版本号，加载期间发生过失效就放弃回填。
//
// 读路径经过熔断器，Redis故障时直接回源数据库。
// 失效不经过熔断器：删除失败的图书记为待删除，
// 之后的读请求先补删，补删成功前这些图书一律回源数据库。
// 其他进程只能看到Redis里的数据，所以Run在后台定时补删，
// 熔断器离开打开状态时立即补删一次。
type BookCache struct {
	client  *redis.Client
	repo    book.Repository
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	log     *zap.Logger
	retry   chan struct{}

	mu sync.Mutex
	// 值为登记时的序号，补删期间重新登记的不会被误清
	pending    map[uint]uint64
	pendingAll uint64
	seq        uint64
}

var _ book.Cache = (*BookCache)(nil)

// NewBookCache 创建图书缓存
func NewBookCache(client *redis.Client, repo book.Repository, cfg *config.Config, log *zap.Logger) *BookCache {
	failureLimit := cfg.Cache.BreakerFailureLimit
	if failureLimit == 0 {
		failureLimit = 5
	}

	c := &BookCache{
		client:  client,
		repo:    repo,
		ttl:     cfg.Cache.BookTTL,
		log:     log,
		retry:   make(chan struct{}, 1),
		pending: make(map[uint]uint64),
	}
	c.breaker = circuitbreaker.New("book_cache", circuitbreaker.Settings{
		MaxRequests: cfg.Cache.BreakerMaxRequests,
		Interval:    cfg.Cache.BreakerInterval,
		Timeout:     cfg.Cache.BreakerTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= failureLimit
		},
		// 未命中和放弃回填都是正常结果
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, redis.Nil) ||
				errors.Is(err, errStaleFill)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("熔断器状态变化",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			metrics.SetBreakerState(name, int(to))
			if from == circuitbreaker.StateOpen {
				c.signalRetry()
			}
		},
	})
	return c
}

// Run 定时补删失败的失效，ctx取消后返回
func (c *BookCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.retry:
		}
		if c.hasPending() {
			c.flushPending(ctx)
		}
	}
}

// PendingCount 等待补删的图书数，全量失效待补删时返回-1
func (c *BookCache) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingAll != 0 {
		return -1
	}
	return len(c.pending)
}

func (c *BookCache) signalRetry() {
	select {
	case c.retry <- struct{}{}:
	default:
	}
}

// Get 读穿：命中直接返回，未命中从仓储加载并回填
func (c *BookCache) Get(ctx context.Context, id uint) (*book.Book, error) {
	if c.hasPending() {
		c.flushPending(ctx)
		if c.isPending(id) {
			metrics.CacheRequestsTotal.WithLabelValues("bypass").Inc()
			return c.repo.FindByID(ctx, id)
		}
	}

	var (
		cached book.Book
		gen    generation
	)
	err := c.breaker.Execute(func() error {
		vals, err := c.client.MGet(ctx, bookKey(id), bookGenKey(id), allGenKey).Result()
		if err != nil {
			return err
		}
		gen = generation{book: stringValue(vals[1]), all: stringValue(vals[2])}
		data, ok := vals[0].(string)
		if !ok {
			return redis.Nil
		}
		return json.Unmarshal([]byte(data), &cached)
	})

	switch {
	case err == nil:
		metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		return &cached, nil
	case errors.Is(err, redis.Nil):
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	case errors.Is(err, circuitbreaker.ErrOpenState):
		// 熔断期间不回填
		metrics.CacheRequestsTotal.WithLabelValues("bypass").Inc()
		return c.repo.FindByID(ctx, id)
	default:
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		c.log.Warn("读取图书缓存失败,回源数据库", zap.Uint("book_id", id), zap.Error(err))
		return c.repo.FindByID(ctx, id)
	}

	b, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, b, gen)
	return b, nil
}

// Invalidate 删除单本图书缓存
// 失败时记录日志和指标并返回错误，由调用方决定是否忽略；该图书在补删成功前不再读缓存
func (c *BookCache) Invalidate(ctx context.Context, id uint) error {
	if err := c.invalidate(ctx, id); err != nil {
		c.mu.Lock()
		c.seq++
		c.pending[id] = c.seq
		c.mu.Unlock()

		metrics.CacheInvalidationFailures.Inc()
		c.log.Error("删除图书缓存失败", zap.Uint("book_id", id), zap.Error(err))
		return apperrors.ErrRedisError.WithCause(err)
	}

	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
	return nil
}

// InvalidateAll 删除全部图书缓存
// 使用SCAN分批遍历，避免KEYS阻塞Redis
func (c *BookCache) InvalidateAll(ctx context.Context) error {
	removed, err := c.invalidateAll(ctx)
	if err != nil {
		c.mu.Lock()
		c.seq++
		c.pendingAll = c.seq
		c.mu.Unlock()

		metrics.CacheInvalidationFailures.Inc()
		c.log.Error("清空图书缓存失败", zap.Error(err))
		return apperrors.ErrRedisError.WithCause(err)
	}

	c.mu.Lock()
	c.pendingAll = 0
	c.mu.Unlock()

	c.log.Info("已清空图书缓存", zap.Int("keys", removed))
	return nil
}

// BreakerState 当前熔断器状态
func (c *BookCache) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// invalidate 先递增版本号再删key
// 用普通管道即可：回填WATCH版本号，顺序已经足够，不需要MULTI
func (c *BookCache) invalidate(ctx context.Context, id uint) error {
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, bookGenKey(id))
		pipe.Del(ctx, bookKey(id))
		return nil
	})
	return err
}

// invalidateAll 先递增全局版本号，正在加载的请求就不会把旧数据写回
func (c *BookCache) invalidateAll(ctx context.Context) (int, error) {
	if err := c.client.Incr(ctx, allGenKey).Err(); err != nil {
		return 0, err
	}

	var removed int
	iter := c.client.Scan(ctx, 0, bookKeyPattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
				return removed, err
			}
			removed += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if len(batch) > 0 {
		if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
			return removed, err
		}
		removed += len(batch)
	}
	return removed, nil
}

func (c *BookCache) hasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingAll != 0 || len(c.pending) > 0
}

func (c *BookCache) isPending(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingAll != 0 {
		return true
	}
	_, ok := c.pending[id]
	return ok
}

// flushPending 补删之前失败的失效
func (c *BookCache) flushPending(ctx context.Context) {
	c.mu.Lock()
	all := c.pendingAll
	ids := make(map[uint]uint64, len(c.pending))
	for id, seq := range c.pending {
		ids[id] = seq
	}
	c.mu.Unlock()

	if all != 0 {
		if _, err := c.invalidateAll(ctx); err != nil {
			return
		}
		// 全量失效已覆盖此前登记的单本待删除
		c.mu.Lock()
		if c.pendingAll == all {
			c.pendingAll = 0
		}
		for id, seq := range ids {
			if c.pending[id] == seq {
				delete(c.pending, id)
			}
		}
		c.mu.Unlock()
		c.log.Info("已补删全部图书缓存")
		return
	}

	for id, seq := range ids {
		if err := c.invalidate(ctx, id); err != nil {
			return
		}
		c.mu.Lock()
		if c.pending[id] == seq {
			delete(c.pending, id)
		}
		c.mu.Unlock()
		c.log.Info("已补删图书缓存", zap.Uint("book_id", id))
	}
}

// fillScript 两个版本号都与回源前一致才写入
// KEYS: 图书key，单本版本号，全局版本号
// ARGV: 单本版本号，全局版本号，JSON，TTL毫秒（0为不过期）
var fillScript = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '') ~= ARGV[1] or (redis.call('GET', KEYS[3]) or '') ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[4]) > 0 then
	redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
else
	redis.call('SET', KEYS[1], ARGV[3])
end
return 1
`)

// fill 回填缓存，版本号与回源前不一致时放弃
func (c *BookCache) fill(ctx context.Context, b *book.Book, seen generation) {
	data, err := json.Marshal(b)
	if err != nil {
		c.log.Warn("序列化图书缓存失败", zap.Uint("book_id", b.ID), zap.Error(err))
		return
	}

	err = c.breaker.Execute(func() error {
		n, err := fillScript.Run(ctx, c.client,
			[]string{bookKey(b.ID), bookGenKey(b.ID), allGenKey},
			seen.book, seen.all, data, c.ttl.Milliseconds(),
		).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return errStaleFill
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errStaleFill):
		c.log.Debug("加载期间缓存已失效，放弃回填", zap.Uint("book_id", b.ID))
	default:
		c.log.Warn("回填图书缓存失败", zap.Uint("book_id", b.ID), zap.Error(err))
	}
}

func bookKey(id uint) string {
	return fmt.Sprintf("%s%d", bookKeyPrefix, id)
}

func bookGenKey(id uint) string {
	return fmt.Sprintf("%s%d", bookGenPrefix, id)
}

// stringValue MGET结果里不存在的key为nil
func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
