package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookstore-inventory/internal/application/inventory"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-inventory/pkg/clock"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
)

// TransactionHandler 库存交易HTTP处理器
// 只负责参数解析和响应转换，业务规则全部在inventory用例里
type TransactionHandler struct {
	purchase *inventory.CreatePurchaseUseCase
	sale     *inventory.CreateSaleUseCase
	ret      *inventory.CreateReturnUseCase
	void     *inventory.VoidTransactionUseCase
	query    *inventory.QueryUseCase
	clock    clock.Clock
}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler(
	purchase *inventory.CreatePurchaseUseCase,
	sale *inventory.CreateSaleUseCase,
	ret *inventory.CreateReturnUseCase,
	void *inventory.VoidTransactionUseCase,
	query *inventory.QueryUseCase,
	clk clock.Clock,
) *TransactionHandler {
	return &TransactionHandler{
		purchase: purchase,
		sale:     sale,
		ret:      ret,
		void:     void,
		query:    query,
		clock:    clk,
	}
}

// CreatePurchase 进货
// @Summary      进货
// @Description  向供应商进货，增加库存。可通过idempotency_key或Idempotency-Key头防止重复提交
// @Tags         交易
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.PurchaseRequest true "进货信息"
// @Success      200 {object} response.Response{data=dto.TransactionResult}
// @Router       /api/v1/transactions/purchases [post]
func (h *TransactionHandler) CreatePurchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	key, ok := idempotencyKey(c, req.IdempotencyKey)
	if !ok {
		return
	}

	res, err := h.purchase.Execute(c.Request.Context(), inventory.CreatePurchaseRequest{
		BookID:         req.BookID,
		SupplierID:     req.SupplierID,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		Notes:          req.Notes,
		IdempotencyKey: key,
		OperatorID:     middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransactionResult(res))
}

// CreateSale 销售
// @Summary      销售
// @Description  售出图书，库存不足时返回INSUFFICIENT_STOCK（details含current和requested）
// @Tags         交易
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.SaleRequest true "销售信息"
// @Success      200 {object} response.Response{data=dto.TransactionResult}
// @Router       /api/v1/transactions/sales [post]
func (h *TransactionHandler) CreateSale(c *gin.Context) {
	var req dto.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	key, ok := idempotencyKey(c, req.IdempotencyKey)
	if !ok {
		return
	}

	res, err := h.sale.Execute(c.Request.Context(), inventory.CreateSaleRequest{
		BookID:         req.BookID,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		Notes:          req.Notes,
		IdempotencyKey: key,
		OperatorID:     middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransactionResult(res))
}

// CreateReturn 退货
// @Summary      退货
// @Description  关联原销售记录退货，退货数量不能超过原销售数量
// @Tags         交易
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.ReturnRequest true "退货信息"
// @Success      200 {object} response.Response{data=dto.TransactionResult}
// @Router       /api/v1/transactions/returns [post]
func (h *TransactionHandler) CreateReturn(c *gin.Context) {
	var req dto.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	key, ok := idempotencyKey(c, req.IdempotencyKey)
	if !ok {
		return
	}

	res, err := h.ret.Execute(c.Request.Context(), inventory.CreateReturnRequest{
		RelatedTransactionID: req.RelatedTransactionID,
		BookID:               req.BookID,
		Quantity:             req.Quantity,
		UnitPrice:            req.UnitPrice,
		Notes:                req.Notes,
		IdempotencyKey:       key,
		OperatorID:           middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransactionResult(res))
}

// Void 作废当天交易
// @Summary      作废交易
// @Description  只能作废当天的交易，作废后库存反向调整。需要店长或管理员角色
// @Tags         交易
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "交易ID"
// @Param        request body dto.VoidRequest true "作废原因"
// @Success      200 {object} response.Response{data=dto.TransactionResult}
// @Router       /api/v1/transactions/{id}/void [post]
func (h *TransactionHandler) Void(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.void.Execute(c.Request.Context(), inventory.VoidRequest{
		TransactionID: id,
		Reason:        req.Reason,
		OperatorID:    middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransactionResult(res))
}

// Get 查询单条交易
// @Summary      交易详情
// @Tags         交易
// @Produce      json
// @Param        id path int true "交易ID"
// @Success      200 {object} response.Response{data=dto.TransactionResponse}
// @Router       /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.query.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransactionResponse(t))
}

// ListToday 今日交易（含已作废）
// @Summary      今日交易
// @Tags         交易
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.TransactionResponse}
// @Router       /api/v1/transactions/today [get]
func (h *TransactionHandler) ListToday(c *gin.Context) {
	list, err := h.query.ListToday(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransactionResponses(list))
}

// ListMonthly 月度交易明细（含已作废）
// @Summary      月度交易明细
// @Tags         交易
// @Produce      json
// @Param        year query int true "年"
// @Param        month query int true "月"
// @Success      200 {object} response.Response{data=[]dto.TransactionResponse}
// @Router       /api/v1/transactions/monthly [get]
func (h *TransactionHandler) ListMonthly(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	list, err := h.query.ListMonthly(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransactionResponses(list))
}

// ListBookHistory 单本图书交易历史
// @Summary      图书交易历史
// @Tags         交易
// @Produce      json
// @Param        id path int true "图书ID"
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.TransactionResponse}}
// @Router       /api/v1/books/{id}/transactions [get]
func (h *TransactionHandler) ListBookHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}

	list, total, err := h.query.ListBookHistory(c.Request.Context(), id, q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewTransactionResponses(list), total, q.Page, q.PageSize)
}

// DailyTotals 某天的销售额与进货额
// @Summary      每日销售/进货额
// @Tags         报表
// @Produce      json
// @Param        date query string false "日期YYYY-MM-DD，默认今天"
// @Success      200 {object} response.Response{data=dto.DailyTotalsResponse}
// @Router       /api/v1/reports/daily-totals [get]
func (h *TransactionHandler) DailyTotals(c *gin.Context) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	var date time.Time
	if q.Date != "" {
		var err error
		if date, err = parseDate(q.Date, h.clock.Now().Location()); err != nil {
			response.Error(c, err)
			return
		}
	}

	totals, err := h.query.DailyTotals(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.DailyTotalsResponse{
		Date:           totals.Date.Format(dateLayout),
		SalesTotal:     totals.SalesTotal.StringFixed(2),
		PurchasesTotal: totals.PurchasesTotal.StringFixed(2),
	})
}
