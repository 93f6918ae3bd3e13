// Package router 组装HTTP路由和全局中间件
package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xiebiao/bookstore-inventory/docs" // swagger文档
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
	"github.com/xiebiao/bookstore-inventory/pkg/jwt"
	"github.com/xiebiao/bookstore-inventory/pkg/metrics"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
	"github.com/xiebiao/bookstore-inventory/pkg/tracing"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Transaction *handler.TransactionHandler
	Report      *handler.ReportHandler
	Book        *handler.BookHandler
	Supplier    *handler.SupplierHandler
	Auth        *handler.AuthHandler
}

// New 创建Gin引擎并注册路由
//
// 全局中间件顺序：Recovery → Tracing → Metrics → Logger → CORS
// 查询接口公开；写接口需要登录并按IP限流；作废交易和目录维护需要店长或管理员
func New(cfg *config.Config, h *Handlers, auth *middleware.AuthMiddleware, log *zap.Logger) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			response.Error(c, apperrors.Wrap(fmt.Errorf("panic: %v", recovered), "系统内部错误"))
			c.Abort()
		}),
		tracing.GinMiddleware(),
		metrics.GinMiddleware(),
		middleware.Logger(log),
		middleware.CORS(cfg.CORS),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 写接口中间件：登录 + 限流
	writeChain := []gin.HandlerFunc{auth.RequireAuth()}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		writeChain = append(writeChain, limiter.Middleware())
	}
	managerOnly := auth.RequireRole(jwt.RoleManager, jwt.RoleAdmin)
	chain := func(extra ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeChain...), extra...)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/logout", auth.RequireAuth(), h.Auth.Logout)

		// 交易
		tx := v1.Group("/transactions")
		{
			tx.GET("/today", h.Transaction.ListToday)
			tx.GET("/monthly", h.Transaction.ListMonthly)
			tx.GET("/:id", h.Transaction.Get)

			writes := tx.Group("", chain()...)
			writes.POST("/purchases", h.Transaction.CreatePurchase)
			writes.POST("/sales", h.Transaction.CreateSale)
			writes.POST("/returns", h.Transaction.CreateReturn)
			writes.POST("/:id/void", managerOnly, h.Transaction.Void)
		}

		// 报表
		reports := v1.Group("/reports")
		{
			reports.GET("/monthly", h.Report.Monthly)
			reports.GET("/sales-ranking", h.Report.SalesRanking)
			reports.GET("/daily", h.Report.Daily)
			reports.GET("/daily-totals", h.Transaction.DailyTotals)
		}

		// 图书目录
		books := v1.Group("/books")
		{
			books.GET("", h.Book.ListBooks)
			books.GET("/low-stock", h.Book.LowStock)
			books.GET("/stats", h.Book.Stats)
			books.GET("/:id", h.Book.GetBook)
			books.GET("/:id/transactions", h.Transaction.ListBookHistory)
			books.GET("/:id/recommendation", h.Report.Recommendation)

			writes := books.Group("", chain(managerOnly)...)
			writes.POST("", h.Book.PublishBook)
			writes.PUT("/:id", h.Book.UpdateBook)
			writes.DELETE("/:id", h.Book.DeactivateBook)
			writes.POST("/:id/restore", h.Book.RestoreBook)
		}

		// 缓存管理
		cache := v1.Group("/cache", chain(managerOnly)...)
		{
			cache.DELETE("/books/:id", h.Book.EvictBookCache)
			cache.DELETE("/books", h.Book.EvictAllBookCache)
		}

		// 供应商
		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", h.Supplier.List)
			suppliers.GET("/deleted", h.Supplier.ListDeleted)
			suppliers.GET("/:id", h.Supplier.Get)
			suppliers.POST("", chain(h.Supplier.Create)...)
			suppliers.PUT("/:id", chain(h.Supplier.Update)...)
			suppliers.DELETE("/:id", chain(managerOnly, h.Supplier.Delete)...)
			suppliers.POST("/:id/restore", chain(managerOnly, h.Supplier.Restore)...)
		}
	}

	return r
}
