package dto

import "github.com/shopspring/decimal"

// PublishBookRequest HTTP上架请求
// 价格可传字符串或数字（"59.00"/59），统一按decimal解析
type PublishBookRequest struct {
	ISBN          string          `json:"isbn" binding:"required,max=20" example:"9787115428028"`
	Title         string          `json:"title" binding:"required,max=200" example:"Go语言编程"`
	Author        string          `json:"author" binding:"required,max=100" example:"许式伟"`
	Publisher     string          `json:"publisher" binding:"max=100" example:"人民邮电出版社"`
	PurchasePrice decimal.Decimal `json:"purchase_price" swaggertype:"string" example:"35.00"`
	SellingPrice  decimal.Decimal `json:"selling_price" swaggertype:"string" example:"59.00"`
	InitialStock  int             `json:"initial_stock" binding:"min=0" example:"20"`
	MinStock      int             `json:"min_stock" binding:"min=0" example:"5"`
}

// UpdateBookRequest HTTP修改请求，未传字段不修改
type UpdateBookRequest struct {
	Version       *int             `json:"version" binding:"required" example:"0"`
	Title         string           `json:"title" binding:"max=200" example:"Go语言编程（第2版）"`
	Author        string           `json:"author" binding:"max=100"`
	Publisher     string           `json:"publisher" binding:"max=100"`
	PurchasePrice *decimal.Decimal `json:"purchase_price" swaggertype:"string" example:"36.00"`
	SellingPrice  *decimal.Decimal `json:"selling_price" swaggertype:"string" example:"66.00"`
	MinStock      *int             `json:"min_stock" binding:"omitempty,min=0" example:"8"`
}

// VersionQuery 下架/恢复时携带的版本号
type VersionQuery struct {
	Version *int `form:"version" binding:"required" example:"1"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page            int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword         string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	IncludeInactive bool   `form:"include_inactive" example:"false"`
}
