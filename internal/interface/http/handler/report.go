package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookstore-inventory/internal/application/recommendation"
	"github.com/xiebiao/bookstore-inventory/internal/application/report"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-inventory/pkg/clock"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
)

// ReportHandler 报表与进货建议
type ReportHandler struct {
	reports   *report.Service
	recommend *recommendation.Service
	clock     clock.Clock
}

// NewReportHandler 创建报表处理器
func NewReportHandler(reports *report.Service, recommend *recommendation.Service, clk clock.Clock) *ReportHandler {
	return &ReportHandler{reports: reports, recommend: recommend, clock: clk}
}

// Monthly 月度汇总
// @Summary      月度汇总
// @Tags         报表
// @Produce      json
// @Param        year query int true "年"
// @Param        month query int true "月"
// @Success      200 {object} response.Response{data=report.MonthlySummary}
// @Router       /api/v1/reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.reports.MonthlySummary(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// SalesRanking 月度销量排行
// @Summary      销售排行
// @Tags         报表
// @Produce      json
// @Param        year query int true "年"
// @Param        month query int true "月"
// @Param        limit query int false "条数，默认10，最大100"
// @Success      200 {object} response.Response{data=[]report.RankingItem}
// @Router       /api/v1/reports/sales-ranking [get]
func (h *ReportHandler) SalesRanking(c *gin.Context) {
	var q dto.RankingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	items, err := h.reports.SalesRanking(c.Request.Context(), q.Year, q.Month, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []report.RankingItem{}
	}
	response.Success(c, items)
}

// Daily 每日汇总
// @Summary      每日汇总
// @Description  闭区间[start_date, end_date]，最长3个月，按日期倒序
// @Tags         报表
// @Produce      json
// @Param        start_date query string true "开始日期YYYY-MM-DD"
// @Param        end_date query string true "结束日期YYYY-MM-DD"
// @Success      200 {object} response.Response{data=report.DailySummary}
// @Router       /api/v1/reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	var q dto.DailyRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	loc := h.clock.Now().Location()
	start, err := parseDate(q.StartDate, loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := parseDate(q.EndDate, loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.reports.DailySummary(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Recommendation 进货建议
// @Summary      进货建议
// @Description  根据过去30天销量和最低库存计算建议进货数量
// @Tags         报表
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=recommendation.Recommendation}
// @Router       /api/v1/books/{id}/recommendation [get]
func (h *ReportHandler) Recommendation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rec, err := h.recommend.Recommend(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rec)
}
