package rdb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-inventory/internal/domain/supplier"
	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository 创建供应商仓储
func NewSupplierRepository(db *gorm.DB) supplier.Repository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, s *supplier.Supplier) error {
	model := &SupplierModel{
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建供应商失败")
	}
	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	s.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *supplierRepository) FindByID(ctx context.Context, id uint) (*supplier.Supplier, error) {
	var model SupplierModel
	if err := dbFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, supplier.ErrSupplierNotFound
		}
		return nil, apperrors.Wrap(err, "查询供应商失败")
	}
	return toSupplierEntity(&model), nil
}

// Save 只更新资料和启用状态
func (r *supplierRepository) Save(ctx context.Context, s *supplier.Supplier) error {
	result := dbFromContext(ctx, r.db).
		Model(&SupplierModel{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"name":           s.Name,
			"contact_person": s.ContactPerson,
			"phone":          s.Phone,
			"email":          s.Email,
			"address":        s.Address,
			"is_active":      s.IsActive,
			"updated_at":     s.UpdatedAt,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "保存供应商失败")
	}
	if result.RowsAffected == 0 {
		return supplier.ErrSupplierNotFound
	}
	return nil
}

func (r *supplierRepository) List(ctx context.Context, page, pageSize int) ([]*supplier.Supplier, int64, error) {
	return r.listByActive(ctx, true, page, pageSize)
}

func (r *supplierRepository) ListInactive(ctx context.Context, page, pageSize int) ([]*supplier.Supplier, int64, error) {
	return r.listByActive(ctx, false, page, pageSize)
}

func (r *supplierRepository) listByActive(ctx context.Context, active bool, page, pageSize int) ([]*supplier.Supplier, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := dbFromContext(ctx, r.db).Model(&SupplierModel{}).Where("is_active = ?", active)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计供应商数量失败")
	}

	var models []SupplierModel
	if err := query.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询供应商列表失败")
	}

	list := make([]*supplier.Supplier, 0, len(models))
	for i := range models {
		list = append(list, toSupplierEntity(&models[i]))
	}
	return list, total, nil
}

func toSupplierEntity(m *SupplierModel) *supplier.Supplier {
	return &supplier.Supplier{
		ID:            m.ID,
		Name:          m.Name,
		ContactPerson: m.ContactPerson,
		Phone:         m.Phone,
		Email:         m.Email,
		Address:       m.Address,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
