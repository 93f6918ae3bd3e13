package supplier

import "context"

// Repository 供应商仓储接口
type Repository interface {
	Create(ctx context.Context, s *Supplier) error

	// FindByID 不存在返回ErrSupplierNotFound
	FindByID(ctx context.Context, id uint) (*Supplier, error)

	// Save 保存资料和启用状态，不存在返回ErrSupplierNotFound
	Save(ctx context.Context, s *Supplier) error

	// List 启用中的供应商，分页，按ID升序
	List(ctx context.Context, page, pageSize int) ([]*Supplier, int64, error)

	// ListInactive 已停用的供应商，分页，按ID升序
	ListInactive(ctx context.Context, page, pageSize int) ([]*Supplier, int64, error)
}
