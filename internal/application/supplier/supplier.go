// Package supplier 供应商管理用例
package supplier

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/domain/supplier"
)

// SupplierResponse 供应商响应DTO
type SupplierResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// CreateSupplierRequest 新建供应商请求
type CreateSupplierRequest struct {
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	OperatorID    uint
}

// UpdateSupplierRequest 修改供应商请求，整体替换资料
type UpdateSupplierRequest struct {
	ID            uint
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	OperatorID    uint
}

// ListSuppliersResponse 分页结果
type ListSuppliersResponse struct {
	List     []*SupplierResponse `json:"list"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// UseCase 供应商用例
type UseCase struct {
	repo supplier.Repository
	log  *zap.Logger
}

// NewUseCase 创建供应商用例
func NewUseCase(repo supplier.Repository, log *zap.Logger) *UseCase {
	return &UseCase{repo: repo, log: log}
}

// Create 新建供应商
func (uc *UseCase) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	s, err := supplier.NewSupplier(req.Name, req.ContactPerson, req.Phone, req.Email, req.Address)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}

	uc.log.Info("新建供应商",
		zap.Uint("supplier_id", s.ID),
		zap.String("name", s.Name),
		zap.Uint("operator_id", req.OperatorID),
	)
	return toResponse(s), nil
}

// Get 查询单个供应商
func (uc *UseCase) Get(ctx context.Context, id uint) (*SupplierResponse, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(s), nil
}

// Update 修改供应商资料（停用的供应商也可以修改）
func (uc *UseCase) Update(ctx context.Context, req UpdateSupplierRequest) (*SupplierResponse, error) {
	s, err := uc.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Update(req.Name, req.ContactPerson, req.Phone, req.Email, req.Address); err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, s); err != nil {
		return nil, err
	}

	uc.log.Info("修改供应商",
		zap.Uint("supplier_id", s.ID),
		zap.String("name", s.Name),
		zap.Uint("operator_id", req.OperatorID),
	)
	return toResponse(s), nil
}

// Delete 停用供应商（软删除），历史进货记录仍引用它
func (uc *UseCase) Delete(ctx context.Context, id, operatorID uint) error {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.Deactivate()
	if err := uc.repo.Save(ctx, s); err != nil {
		return err
	}

	uc.log.Info("停用供应商", zap.Uint("supplier_id", id), zap.Uint("operator_id", operatorID))
	return nil
}

// Restore 恢复已停用的供应商
func (uc *UseCase) Restore(ctx context.Context, id, operatorID uint) (*SupplierResponse, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(); err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, s); err != nil {
		return nil, err
	}

	uc.log.Info("恢复供应商", zap.Uint("supplier_id", id), zap.Uint("operator_id", operatorID))
	return toResponse(s), nil
}

// List 启用中的供应商
func (uc *UseCase) List(ctx context.Context, page, pageSize int) (*ListSuppliersResponse, error) {
	return uc.list(ctx, uc.repo.List, page, pageSize)
}

// ListDeleted 已停用的供应商（回收站）
func (uc *UseCase) ListDeleted(ctx context.Context, page, pageSize int) (*ListSuppliersResponse, error) {
	return uc.list(ctx, uc.repo.ListInactive, page, pageSize)
}

type listFunc func(ctx context.Context, page, pageSize int) ([]*supplier.Supplier, int64, error)

func (uc *UseCase) list(ctx context.Context, fetch listFunc, page, pageSize int) (*ListSuppliersResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	list, total, err := fetch(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*SupplierResponse, len(list))
	for i, s := range list {
		items[i] = toResponse(s)
	}
	return &ListSuppliersResponse{List: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func toResponse(s *supplier.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
