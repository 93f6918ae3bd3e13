package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/bookstore-inventory/internal/application/book"
	"github.com/xiebiao/bookstore-inventory/internal/application/inventory"
	"github.com/xiebiao/bookstore-inventory/internal/application/recommendation"
	"github.com/xiebiao/bookstore-inventory/internal/application/report"
	appsupplier "github.com/xiebiao/bookstore-inventory/internal/application/supplier"
	"github.com/xiebiao/bookstore-inventory/internal/domain/book"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/rdb"
	rediscache "github.com/xiebiao/bookstore-inventory/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/router"
	"github.com/xiebiao/bookstore-inventory/internal/testutil"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
	"github.com/xiebiao/bookstore-inventory/pkg/jwt"
	"github.com/xiebiao/bookstore-inventory/pkg/mq"
)

var cst = time.FixedZone("CST", 8*3600)

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Kind    string                 `json:"kind"`
	Data    json.RawMessage        `json:"data"`
	Details map[string]interface{} `json:"details"`
}

type server struct {
	t       *testing.T
	engine  *gin.Engine
	mr      *miniredis.Miniredis
	clerk   string
	manager string
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Cache:     config.CacheConfig{BookTTL: time.Minute},
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 1000, Burst: 1000},
	}
	log := zap.NewNop()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	clk := testutil.NewClock(time.Date(2024, 3, 15, 10, 0, 0, 0, cst))

	books := rdb.NewBookRepository(db)
	suppliers := rdb.NewSupplierRepository(db)
	ledger := rdb.NewTransactionLedger(db)
	cache := rediscache.NewBookCache(client, books, cfg, log)
	blacklist := rediscache.NewTokenBlacklist(client)
	jwtManager := jwt.NewManager("router-test", time.Hour)

	deps := &inventory.Deps{
		Books:     books,
		Suppliers: suppliers,
		Ledger:    ledger,
		Cache:     cache,
		Tx:        rdb.NewTxManager(db),
		Events:    mq.NewNoopPublisher(log),
		Clock:     clk,
		Log:       log,
	}
	bookService := book.NewService(books, cache)

	handlers := &router.Handlers{
		Transaction: handler.NewTransactionHandler(
			inventory.NewCreatePurchaseUseCase(deps),
			inventory.NewCreateSaleUseCase(deps),
			inventory.NewCreateReturnUseCase(deps),
			inventory.NewVoidTransactionUseCase(deps),
			inventory.NewQueryUseCase(deps),
			clk,
		),
		Report: handler.NewReportHandler(
			report.NewService(books, ledger, clk),
			recommendation.NewService(books, ledger, clk),
			clk,
		),
		Book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(bookService, log),
			appbook.NewListBooksUseCase(bookService),
			appbook.NewManageBookUseCase(bookService, log),
			appbook.NewCacheAdminUseCase(cache, log),
		),
		Supplier: handler.NewSupplierHandler(appsupplier.NewUseCase(suppliers, log)),
		Auth:     handler.NewAuthHandler(jwtManager, blacklist, log),
	}

	clerk, err := jwtManager.GenerateToken(1, "clerk", jwt.RoleClerk)
	require.NoError(t, err)
	manager, err := jwtManager.GenerateToken(2, "boss", jwt.RoleManager)
	require.NoError(t, err)

	return &server{
		t:       t,
		engine:  router.New(cfg, handlers, middleware.NewAuthMiddleware(jwtManager, blacklist), log),
		mr:      mr,
		clerk:   clerk,
		manager: manager,
	}
}

func (s *server) do(method, path, token string, body interface{}, headers ...string) envelope {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (s *server) ok(env envelope, out interface{}) {
	s.t.Helper()
	require.Equal(s.t, 0, env.Code, "%s %s", env.Kind, env.Message)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
}

type txResult struct {
	Transaction struct {
		ID          uint   `json:"id"`
		Type        string `json:"type"`
		TotalAmount string `json:"total_amount"`
		Voided      bool   `json:"voided"`
		Notes       string `json:"notes"`
	} `json:"transaction"`
	StockAfter *int `json:"stock_after"`
	Replayed   bool `json:"replayed"`
}

func TestRouter_InventoryFlow(t *testing.T) {
	s := newServer(t)

	s.ok(s.do(http.MethodGet, "/ping", "", nil), nil)

	var created appbook.BookResponse
	s.ok(s.do(http.MethodPost, "/api/v1/books", s.manager, map[string]interface{}{
		"isbn":           "978-7-115-42802-8",
		"title":          "Go语言编程",
		"author":         "许式伟",
		"purchase_price": "35.00",
		"selling_price":  "59.00",
		"initial_stock":  5,
		"min_stock":      10,
	}), &created)

	var sup appsupplier.SupplierResponse
	s.ok(s.do(http.MethodPost, "/api/v1/suppliers", s.clerk, map[string]string{"name": "新华书店"}), &sup)

	t.Run("写接口需要登录", func(t *testing.T) {
		env := s.do(http.MethodPost, "/api/v1/transactions/sales", "", map[string]interface{}{"book_id": created.ID})
		assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)
	})

	t.Run("店员不能维护目录", func(t *testing.T) {
		env := s.do(http.MethodPost, "/api/v1/books", s.clerk, map[string]interface{}{
			"isbn": "9787111544357", "title": "t", "author": "a", "purchase_price": "1", "selling_price": "2",
		})
		assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)
	})

	t.Run("进货金额四舍五入到分", func(t *testing.T) {
		var res txResult
		s.ok(s.do(http.MethodPost, "/api/v1/transactions/purchases", s.clerk, map[string]interface{}{
			"book_id":     created.ID,
			"supplier_id": sup.ID,
			"quantity":    10,
			"unit_price":  "12.345",
		}), &res)
		assert.Equal(t, "PURCHASE", res.Transaction.Type)
		assert.Equal(t, "123.45", res.Transaction.TotalAmount)
		require.NotNil(t, res.StockAfter)
		assert.Equal(t, 15, *res.StockAfter)
	})

	var saleID uint
	t.Run("幂等键通过请求头传入", func(t *testing.T) {
		body := map[string]interface{}{"book_id": created.ID, "quantity": 5, "unit_price": 59}

		var first, second txResult
		s.ok(s.do(http.MethodPost, "/api/v1/transactions/sales", s.clerk, body, "Idempotency-Key", "pos-1-0001"), &first)
		s.ok(s.do(http.MethodPost, "/api/v1/transactions/sales", s.clerk, body, "Idempotency-Key", "pos-1-0001"), &second)

		assert.False(t, first.Replayed)
		assert.Equal(t, 10, *first.StockAfter)
		assert.True(t, second.Replayed)
		assert.Nil(t, second.StockAfter)
		assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
		saleID = first.Transaction.ID
	})

	t.Run("库存不足返回当前库存与请求数量", func(t *testing.T) {
		env := s.do(http.MethodPost, "/api/v1/transactions/sales", s.clerk, map[string]interface{}{
			"book_id": created.ID, "quantity": 11, "unit_price": "59",
		})
		assert.Equal(t, "INSUFFICIENT_STOCK", env.Kind)
		assert.Equal(t, float64(10), env.Details["current"])
		assert.Equal(t, float64(11), env.Details["requested"])
	})

	t.Run("数量非法由领域层报告", func(t *testing.T) {
		env := s.do(http.MethodPost, "/api/v1/transactions/sales", s.clerk, map[string]interface{}{
			"book_id": created.ID, "quantity": 0, "unit_price": "59",
		})
		assert.Equal(t, "INVALID_QUANTITY", env.Kind)
	})

	t.Run("读取图书经过缓存，交易后缓存失效", func(t *testing.T) {
		var got appbook.BookResponse
		s.ok(s.do(http.MethodGet, "/api/v1/books/1", "", nil), &got)
		assert.Equal(t, 10, got.StockQuantity)
		assert.True(t, s.mr.Exists("inventory:book:1"))

		s.ok(s.do(http.MethodPost, "/api/v1/transactions/returns", s.clerk, map[string]interface{}{
			"related_transaction_id": saleID, "quantity": 2, "unit_price": "59",
		}), nil)
		assert.False(t, s.mr.Exists("inventory:book:1"))

		s.ok(s.do(http.MethodGet, "/api/v1/books/1", "", nil), &got)
		assert.Equal(t, 12, got.StockQuantity)
	})

	t.Run("作废需要店长", func(t *testing.T) {
		path := "/api/v1/transactions/1/void"
		env := s.do(http.MethodPost, path, s.clerk, map[string]string{"reason": "录错"})
		assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)

		var res txResult
		s.ok(s.do(http.MethodPost, path, s.manager, map[string]string{"reason": "录错"}), &res)
		assert.True(t, res.Transaction.Voided)
		assert.Contains(t, res.Transaction.Notes, "原因: 录错")
		assert.Equal(t, 2, *res.StockAfter)
	})

	t.Run("今日交易包含已作废", func(t *testing.T) {
		var list []map[string]interface{}
		s.ok(s.do(http.MethodGet, "/api/v1/transactions/today", "", nil), &list)
		assert.Len(t, list, 3)
	})

	t.Run("图书交易历史分页", func(t *testing.T) {
		var page struct {
			Total int64 `json:"total"`
			Page  int   `json:"page"`
		}
		s.ok(s.do(http.MethodGet, "/api/v1/books/1/transactions?page_size=2", "", nil), &page)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("月度汇总与每日合计", func(t *testing.T) {
		var monthly report.MonthlySummary
		s.ok(s.do(http.MethodGet, "/api/v1/reports/monthly?year=2024&month=3", "", nil), &monthly)
		assert.Equal(t, 5, monthly.SaleQuantity)
		assert.Equal(t, 2, monthly.ReturnQuantity)
		assert.Equal(t, 0, monthly.PurchaseQuantity) // 进货已作废

		var totals struct {
			Date       string `json:"date"`
			SalesTotal string `json:"sales_total"`
		}
		s.ok(s.do(http.MethodGet, "/api/v1/reports/daily-totals", "", nil), &totals)
		assert.Equal(t, "2024-03-15", totals.Date)
		assert.Equal(t, "295.00", totals.SalesTotal)
	})

	t.Run("每日汇总日期范围校验", func(t *testing.T) {
		env := s.do(http.MethodGet, "/api/v1/reports/daily?start_date=2024-03-10&end_date=2024-03-01", "", nil)
		assert.Equal(t, "INVALID_DATE_RANGE", env.Kind)

		env = s.do(http.MethodGet, "/api/v1/reports/daily?start_date=2024-03-10", "", nil)
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
	})

	t.Run("进货建议", func(t *testing.T) {
		var rec recommendation.Recommendation
		s.ok(s.do(http.MethodGet, "/api/v1/books/1/recommendation", "", nil), &rec)
		assert.Equal(t, 5, rec.TotalSalesLast30Days)
		assert.Equal(t, 18, rec.Quantity) // max(5, 2×10) - 2
	})

	t.Run("路径ID非法", func(t *testing.T) {
		env := s.do(http.MethodGet, "/api/v1/transactions/abc", "", nil)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)
	})

	t.Run("注销后Token失效", func(t *testing.T) {
		s.ok(s.do(http.MethodPost, "/api/v1/auth/logout", s.clerk, nil), nil)

		env := s.do(http.MethodPost, "/api/v1/transactions/sales", s.clerk, map[string]interface{}{
			"book_id": created.ID, "quantity": 1, "unit_price": "59",
		})
		assert.Equal(t, apperrors.ErrCodeInvalidToken, env.Code)
	})
}

func TestRouter_CatalogAndSuppliers(t *testing.T) {
	s := newServer(t)

	var created appbook.BookResponse
	s.ok(s.do(http.MethodPost, "/api/v1/books", s.manager, map[string]interface{}{
		"isbn":           "9787115428028",
		"title":          "Go语言编程",
		"author":         "许式伟",
		"purchase_price": "35.00",
		"selling_price":  "59.00",
		"initial_stock":  5,
		"min_stock":      10,
	}), &created)

	var sup appsupplier.SupplierResponse
	s.ok(s.do(http.MethodPost, "/api/v1/suppliers", s.clerk, map[string]string{"name": "新华书店"}), &sup)

	t.Run("目录统计", func(t *testing.T) {
		var stats appbook.BookStatsResponse
		s.ok(s.do(http.MethodGet, "/api/v1/books/stats", "", nil), &stats)
		assert.Equal(t, int64(1), stats.ActiveBooks)
		assert.Equal(t, int64(5), stats.TotalStock)
		assert.Equal(t, int64(1), stats.LowStockCount)
		assert.Equal(t, "175.00", stats.InventoryValue)
	})

	t.Run("单价超过4位小数被拒绝", func(t *testing.T) {
		env := s.do(http.MethodPost, "/api/v1/transactions/purchases", s.clerk, map[string]interface{}{
			"book_id": created.ID, "supplier_id": sup.ID, "quantity": 10, "unit_price": "12.34567",
		})
		assert.Equal(t, "INVALID_PRICE", env.Kind)

		var res txResult
		s.ok(s.do(http.MethodPost, "/api/v1/transactions/purchases", s.clerk, map[string]interface{}{
			"book_id": created.ID, "supplier_id": sup.ID, "quantity": 10, "unit_price": "12.3456",
		}), &res)
		assert.Equal(t, "123.46", res.Transaction.TotalAmount)
	})

	t.Run("月度交易明细", func(t *testing.T) {
		var list []map[string]interface{}
		s.ok(s.do(http.MethodGet, "/api/v1/transactions/monthly?year=2024&month=3", "", nil), &list)
		assert.Len(t, list, 1)

		s.ok(s.do(http.MethodGet, "/api/v1/transactions/monthly?year=2024&month=2", "", nil), &list)
		assert.Empty(t, list)

		env := s.do(http.MethodGet, "/api/v1/transactions/monthly?year=2024&month=13", "", nil)
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
	})

	t.Run("修改供应商", func(t *testing.T) {
		var res appsupplier.SupplierResponse
		s.ok(s.do(http.MethodPut, "/api/v1/suppliers/1", s.clerk, map[string]string{
			"name": "新华书店(总店)", "phone": "010-87654321",
		}), &res)
		assert.Equal(t, "新华书店(总店)", res.Name)
		assert.Equal(t, "010-87654321", res.Phone)
	})

	t.Run("停用与恢复需要店长", func(t *testing.T) {
		env := s.do(http.MethodDelete, "/api/v1/suppliers/1", s.clerk, nil)
		assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)

		s.ok(s.do(http.MethodDelete, "/api/v1/suppliers/1", s.manager, nil), nil)

		var page appsupplier.ListSuppliersResponse
		s.ok(s.do(http.MethodGet, "/api/v1/suppliers", "", nil), &page)
		assert.Equal(t, int64(0), page.Total)
		s.ok(s.do(http.MethodGet, "/api/v1/suppliers/deleted", "", nil), &page)
		require.Equal(t, int64(1), page.Total)
		assert.False(t, page.List[0].IsActive)

		env = s.do(http.MethodPost, "/api/v1/suppliers/1/restore", s.clerk, nil)
		assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)

		var res appsupplier.SupplierResponse
		s.ok(s.do(http.MethodPost, "/api/v1/suppliers/1/restore", s.manager, nil), &res)
		assert.True(t, res.IsActive)

		env = s.do(http.MethodPost, "/api/v1/suppliers/1/restore", s.manager, nil)
		assert.Equal(t, "SUPPLIER_ALREADY_ACTIVE", env.Kind)
	})
}
