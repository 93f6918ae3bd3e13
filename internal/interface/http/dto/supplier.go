package dto

// CreateSupplierRequest 新建供应商
type CreateSupplierRequest struct {
	Name          string `json:"name" binding:"required,max=100" example:"新华书店"`
	ContactPerson string `json:"contact_person" binding:"max=50" example:"张三"`
	Phone         string `json:"phone" binding:"max=30" example:"010-12345678"`
	Email         string `json:"email" binding:"omitempty,email,max=100" example:"purchase@xinhua.com"`
	Address       string `json:"address" binding:"max=255" example:"北京市西城区"`
}

// UpdateSupplierRequest 修改供应商，整体替换
type UpdateSupplierRequest struct {
	Name          string `json:"name" binding:"required,max=100" example:"新华书店(总店)"`
	ContactPerson string `json:"contact_person" binding:"max=50" example:"李四"`
	Phone         string `json:"phone" binding:"max=30" example:"010-87654321"`
	Email         string `json:"email" binding:"omitempty,email,max=100" example:"purchase@xinhua.com"`
	Address       string `json:"address" binding:"max=255" example:"北京市西城区"`
}

// PageQuery 通用分页参数
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}
