//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 修改本文件后运行 `wire gen ./cmd/api` 重新生成wire_gen.go
//
// 依赖链：
// *gin.Engine ← router.Handlers ← Handler ← UseCase ← Repository/Cache ← *gorm.DB/*redis.Client ← *config.Config

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/bookstore-inventory/internal/application/book"
	"github.com/xiebiao/bookstore-inventory/internal/application/inventory"
	"github.com/xiebiao/bookstore-inventory/internal/application/recommendation"
	"github.com/xiebiao/bookstore-inventory/internal/application/report"
	appsupplier "github.com/xiebiao/bookstore-inventory/internal/application/supplier"
	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、消息队列、时钟
var infrastructureSet = wire.NewSet(
	rdb.NewDB,
	redis.NewClient,
	providePublisher,
	provideClock,
)

// repositorySet 仓储、缓存、事务管理器
var repositorySet = wire.NewSet(
	rdb.NewBookRepository,
	rdb.NewSupplierRepository,
	rdb.NewTransactionLedger,
	rdb.NewTxManager,
	wire.Bind(new(inventory.TxRunner), new(*rdb.TxManager)),
	provideBookCache,
	wire.Bind(new(book.Cache), new(*redis.BookCache)),
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	book.NewService,
)

// applicationSet 用例与查询服务
var applicationSet = wire.NewSet(
	wire.Struct(new(inventory.Deps), "*"),
	inventory.NewCreatePurchaseUseCase,
	inventory.NewCreateSaleUseCase,
	inventory.NewCreateReturnUseCase,
	inventory.NewVoidTransactionUseCase,
	inventory.NewQueryUseCase,
	report.NewService,
	recommendation.NewService,
	appbook.NewPublishBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewManageBookUseCase,
	appbook.NewCacheAdminUseCase,
	appsupplier.NewUseCase,
)

// middlewareSet JWT与认证中间件
// Token黑名单同时满足中间件的查询接口和注销处理器的写入接口
var middlewareSet = wire.NewSet(
	provideJWTManager,
	redis.NewTokenBlacklist,
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.TokenBlacklist)),
	wire.Bind(new(handler.TokenRevoker), new(*redis.TokenBlacklist)),
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器
var handlerSet = wire.NewSet(
	handler.NewTransactionHandler,
	handler.NewReportHandler,
	handler.NewBookHandler,
	handler.NewSupplierHandler,
	handler.NewAuthHandler,
	wire.Struct(new(router.Handlers), "*"),
)

// InitializeApp 组装整个应用
// cleanup按创建的逆序关闭消息队列、Redis、数据库连接
func InitializeApp(cfg *config.Config, log *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		router.New,
	)
	return nil, nil, nil
}
