package supplier

import (
	"strings"
	"time"
)

// Supplier 供应商实体
// 进货交易必须关联供应商；停用是软删除，历史进货记录仍引用它
type Supplier struct {
	ID            uint
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Update 整体替换供应商资料
func (s *Supplier) Update(name, contactPerson, phone, email, address string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	s.Name = name
	s.ContactPerson = contactPerson
	s.Phone = phone
	s.Email = email
	s.Address = address
	s.UpdatedAt = time.Now()
	return nil
}

// Deactivate 停用（软删除），重复停用无副作用
func (s *Supplier) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now()
}

// Restore 恢复启用
func (s *Supplier) Restore() error {
	if s.IsActive {
		return ErrSupplierAlreadyActive
	}
	s.IsActive = true
	s.UpdatedAt = time.Now()
	return nil
}

// NewSupplier 创建供应商
func NewSupplier(name, contactPerson, phone, email, address string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	now := time.Now()
	return &Supplier{
		Name:          name,
		ContactPerson: contactPerson,
		Phone:         phone,
		Email:         email,
		Address:       address,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
