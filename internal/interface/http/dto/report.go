package dto

// MonthQuery 月度报表参数
type MonthQuery struct {
	Year  int `form:"year" binding:"required,min=2000,max=9999" example:"2024"`
	Month int `form:"month" binding:"required,min=1,max=12" example:"3"`
}

// RankingQuery 销售排行参数，limit默认10，最大100
type RankingQuery struct {
	MonthQuery
	Limit int `form:"limit" binding:"omitempty,min=1,max=100" example:"10"`
}

// DailyRangeQuery 每日汇总参数（闭区间，最长3个月）
type DailyRangeQuery struct {
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02" example:"2024-03-01"`
	EndDate   string `form:"end_date" binding:"required,datetime=2006-01-02" example:"2024-03-31"`
}
