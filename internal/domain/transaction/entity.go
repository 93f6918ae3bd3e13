package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type 交易类型
type Type string

const (
	TypePurchase Type = "PURCHASE" // 进货：库存增加
	TypeSale     Type = "SALE"     // 销售：库存减少
	TypeReturn   Type = "RETURN"   // 退货：库存增加
)

// IsValid 是否为已知交易类型
func (t Type) IsValid() bool {
	switch t {
	case TypePurchase, TypeSale, TypeReturn:
		return true
	}
	return false
}

// String 交易类型中文名（用于日志和事件）
func (t Type) String() string {
	switch t {
	case TypePurchase:
		return "进货"
	case TypeSale:
		return "销售"
	case TypeReturn:
		return "退货"
	default:
		return string(t)
	}
}

// voidTimeLayout 作废备注中的时间格式
const voidTimeLayout = "2006-01-02 15:04:05"

// Transaction 交易记录（账本中的一条事实）
// 设计说明：
// 1. TotalAmount在创建时按 单价×数量 计算并四舍五入到分，之后永不重算
// 2. 记录只追加不删除；唯一允许的修改是当天作废时追加备注和作废时间
// 3. SupplierID只在进货时有值，RelatedTransactionID只在退货时有值
type Transaction struct {
	ID                   uint
	Type                 Type
	BookID               uint
	SupplierID           *uint
	Quantity             int
	UnitPrice            decimal.Decimal
	TotalAmount          decimal.Decimal
	RelatedTransactionID *uint
	Notes                string
	IdempotencyKey       *string
	OperatorID           uint
	VoidedAt             *time.Time
	CreatedAt            time.Time
	Version              int
}

// New 创建交易记录并计算总金额
func New(typ Type, bookID uint, quantity int, unitPrice decimal.Decimal, notes string, createdAt time.Time) (*Transaction, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("未知的交易类型: %s", typ)
	}
	if err := ValidateAmount(quantity, unitPrice); err != nil {
		return nil, err
	}

	return &Transaction{
		Type:        typ,
		BookID:      bookID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalAmount: ComputeTotal(unitPrice, quantity),
		Notes:       notes,
		CreatedAt:   createdAt,
	}, nil
}

// UnitPriceScale 单价最多保留的小数位数，与unit_price列decimal(12,4)一致
const UnitPriceScale = 4

// ValidateAmount 数量和单价必须大于0
// 单价超过4位小数时拒绝：落库会被截断，总金额就不再等于 落库单价×数量
func ValidateAmount(quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !unitPrice.IsPositive() {
		return ErrInvalidPrice
	}
	if !unitPrice.Equal(unitPrice.Round(UnitPriceScale)) {
		return ErrInvalidPrice.WithMessage("单价最多保留%d位小数", UnitPriceScale)
	}
	return nil
}

// ComputeTotal 总金额 = 单价 × 数量，四舍五入保留2位小数
func ComputeTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// StockDelta 该交易对库存的影响
func (t *Transaction) StockDelta() int {
	if t.Type == TypeSale {
		return -t.Quantity
	}
	return t.Quantity
}

// IsVoided 是否已作废
func (t *Transaction) IsVoided() bool {
	return t.VoidedAt != nil
}

// CanVoidAt 只能在创建当天（按now所在时区的自然日）作废
func (t *Transaction) CanVoidAt(now time.Time) bool {
	created := t.CreatedAt.In(now.Location())
	cy, cm, cd := created.Date()
	ny, nm, nd := now.Date()
	return cy == ny && cm == nm && cd == nd
}

// Void 标记作废并追加备注
// 备注格式：[作废] 2024-01-02 15:04:05 原因：xxx
func (t *Transaction) Void(now time.Time, reason string) error {
	if t.IsVoided() {
		return ErrAlreadyVoided
	}
	if !t.CanVoidAt(now) {
		return ErrCannotVoidOldTransaction
	}

	note := fmt.Sprintf("[作废] %s 原因: %s", now.Format(voidTimeLayout), strings.TrimSpace(reason))
	if t.Notes == "" {
		t.Notes = note
	} else {
		t.Notes = t.Notes + "\n" + note
	}
	voidedAt := now
	t.VoidedAt = &voidedAt
	return nil
}

// MatchesReplay 幂等重放时，已有记录必须与本次请求的类型和图书一致
func (t *Transaction) MatchesReplay(typ Type, bookID uint) bool {
	return t.Type == typ && (bookID == 0 || t.BookID == bookID)
}
