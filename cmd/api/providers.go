package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-inventory/pkg/clock"
	"github.com/xiebiao/bookstore-inventory/pkg/jwt"
	"github.com/xiebiao/bookstore-inventory/pkg/mq"
)

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
}

// provideClock 按业务时区创建时钟
func provideClock(cfg *config.Config) (clock.Clock, error) {
	loc, err := cfg.Inventory.Location()
	if err != nil {
		return nil, fmt.Errorf("加载业务时区失败: %w", err)
	}
	return clock.New(loc), nil
}

// providePublisher 启用消息队列时连接RabbitMQ，否则返回空发布者
func providePublisher(cfg *config.Config, log *zap.Logger) (mq.Publisher, func(), error) {
	if !cfg.MQ.Enabled {
		return mq.NewNoopPublisher(log), func() {}, nil
	}

	p, err := mq.NewAMQPPublisher(cfg.MQ.URL, cfg.MQ.Exchange, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := p.Close(); err != nil {
			log.Warn("关闭消息队列连接失败", zap.Error(err))
		}
	}
	return p, cleanup, nil
}

// provideBookCache 创建图书缓存并启动后台补删，cleanup等待补删协程退出
func provideBookCache(client *goredis.Client, repo book.Repository, cfg *config.Config, log *zap.Logger) (*redis.BookCache, func()) {
	cache := redis.NewBookCache(client, repo, cfg, log)

	interval := cfg.Cache.RetryInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Run(ctx, interval)
	}()

	return cache, func() {
		cancel()
		<-done
	}
}
