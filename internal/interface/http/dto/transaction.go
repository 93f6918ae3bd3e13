package dto

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-inventory/internal/application/inventory"
	"github.com/xiebiao/bookstore-inventory/internal/domain/transaction"
)

const timeLayout = "2006-01-02 15:04:05"

// 数量、单价、图书ID的合法性由领域层校验，返回带错误类型的业务错误，这里不加binding限制

// PurchaseRequest 进货请求
type PurchaseRequest struct {
	BookID         uint            `json:"book_id" example:"1"`
	SupplierID     uint            `json:"supplier_id" example:"1"`
	Quantity       int             `json:"quantity" example:"10"`
	UnitPrice      decimal.Decimal `json:"unit_price" swaggertype:"string" example:"35.50"`
	Notes          string          `json:"notes" binding:"max=500"`
	IdempotencyKey string          `json:"idempotency_key" binding:"max=64" example:"po-20240315-001"`
}

// SaleRequest 销售请求
type SaleRequest struct {
	BookID         uint            `json:"book_id" example:"1"`
	Quantity       int             `json:"quantity" example:"2"`
	UnitPrice      decimal.Decimal `json:"unit_price" swaggertype:"string" example:"59.00"`
	Notes          string          `json:"notes" binding:"max=500"`
	IdempotencyKey string          `json:"idempotency_key" binding:"max=64"`
}

// ReturnRequest 退货请求，book_id可省略（取原销售记录的图书）
type ReturnRequest struct {
	RelatedTransactionID uint            `json:"related_transaction_id" example:"12"`
	BookID               uint            `json:"book_id" example:"1"`
	Quantity             int             `json:"quantity" example:"1"`
	UnitPrice            decimal.Decimal `json:"unit_price" swaggertype:"string" example:"59.00"`
	Notes                string          `json:"notes" binding:"max=500"`
	IdempotencyKey       string          `json:"idempotency_key" binding:"max=64"`
}

// VoidRequest 作废请求
type VoidRequest struct {
	Reason string `json:"reason" binding:"required,max=200" example:"录入错误"`
}

// DateQuery 按日期查询，格式YYYY-MM-DD，省略表示今天
type DateQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02" example:"2024-03-15"`
}

// TransactionResponse 交易记录
type TransactionResponse struct {
	ID                   uint    `json:"id" example:"12"`
	Type                 string  `json:"type" example:"SALE"`
	BookID               uint    `json:"book_id" example:"1"`
	SupplierID           *uint   `json:"supplier_id,omitempty"`
	Quantity             int     `json:"quantity" example:"2"`
	UnitPrice            string  `json:"unit_price" example:"59.00"`
	TotalAmount          string  `json:"total_amount" example:"118.00"`
	RelatedTransactionID *uint   `json:"related_transaction_id,omitempty"`
	Notes                string  `json:"notes"`
	IdempotencyKey       *string `json:"idempotency_key,omitempty"`
	OperatorID           uint    `json:"operator_id,omitempty"`
	Voided               bool    `json:"voided"`
	VoidedAt             string  `json:"voided_at,omitempty"`
	CreatedAt            string  `json:"created_at" example:"2024-03-15 10:30:00"`
}

// TransactionResult 创建/作废交易的结果
type TransactionResult struct {
	Transaction *TransactionResponse `json:"transaction"`
	StockAfter  *int                 `json:"stock_after,omitempty"` // 幂等重放时省略
	Replayed    bool                 `json:"replayed"`
}

// DailyTotalsResponse 某天的销售额与进货额
type DailyTotalsResponse struct {
	Date           string `json:"date" example:"2024-03-15"`
	SalesTotal     string `json:"sales_total" example:"1180.00"`
	PurchasesTotal string `json:"purchases_total" example:"355.00"`
}

// NewTransactionResponse 领域对象转响应
func NewTransactionResponse(t *transaction.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:                   t.ID,
		Type:                 string(t.Type),
		BookID:               t.BookID,
		SupplierID:           t.SupplierID,
		Quantity:             t.Quantity,
		UnitPrice:            t.UnitPrice.StringFixed(2),
		TotalAmount:          t.TotalAmount.StringFixed(2),
		RelatedTransactionID: t.RelatedTransactionID,
		Notes:                t.Notes,
		IdempotencyKey:       t.IdempotencyKey,
		OperatorID:           t.OperatorID,
		Voided:               t.IsVoided(),
		CreatedAt:            t.CreatedAt.Format(timeLayout),
	}
	if t.VoidedAt != nil {
		resp.VoidedAt = t.VoidedAt.Format(timeLayout)
	}
	return resp
}

// NewTransactionResponses 批量转换
func NewTransactionResponses(list []*transaction.Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, len(list))
	for i, t := range list {
		out[i] = NewTransactionResponse(t)
	}
	return out
}

// NewTransactionResult 用例结果转响应
func NewTransactionResult(res *inventory.Result) *TransactionResult {
	out := &TransactionResult{
		Transaction: NewTransactionResponse(res.Transaction),
		Replayed:    res.Replayed,
	}
	if !res.Replayed {
		stock := res.StockAfter
		out.StockAfter = &stock
	}
	return out
}
