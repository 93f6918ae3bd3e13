package handler

import (
	"github.com/gin-gonic/gin"

	appsupplier "github.com/xiebiao/bookstore-inventory/internal/application/supplier"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
)

// SupplierHandler 供应商HTTP处理器
type SupplierHandler struct {
	useCase *appsupplier.UseCase
}

// NewSupplierHandler 创建供应商处理器
func NewSupplierHandler(useCase *appsupplier.UseCase) *SupplierHandler {
	return &SupplierHandler{useCase: useCase}
}

// Create 新建供应商
// @Summary      新建供应商
// @Tags         供应商
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateSupplierRequest true "供应商信息"
// @Success      200 {object} response.Response{data=appsupplier.SupplierResponse}
// @Router       /api/v1/suppliers [post]
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.useCase.Create(c.Request.Context(), appsupplier.CreateSupplierRequest{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		OperatorID:    middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Get 供应商详情
// @Summary      供应商详情
// @Tags         供应商
// @Produce      json
// @Param        id path int true "供应商ID"
// @Success      200 {object} response.Response{data=appsupplier.SupplierResponse}
// @Router       /api/v1/suppliers/{id} [get]
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.useCase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// List 供应商列表
// @Summary      供应商列表
// @Tags         供应商
// @Produce      json
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=appsupplier.ListSuppliersResponse}
// @Router       /api/v1/suppliers [get]
func (h *SupplierHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	result, err := h.useCase.List(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update 修改供应商
// @Summary      修改供应商
// @Tags         供应商
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "供应商ID"
// @Param        request body dto.UpdateSupplierRequest true "供应商信息"
// @Success      200 {object} response.Response{data=appsupplier.SupplierResponse}
// @Router       /api/v1/suppliers/{id} [put]
func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.useCase.Update(c.Request.Context(), appsupplier.UpdateSupplierRequest{
		ID:            id,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		OperatorID:    middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 停用供应商（软删除）
// @Summary      停用供应商
// @Tags         供应商
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "供应商ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/suppliers/{id} [delete]
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.useCase.Delete(c.Request.Context(), id, middleware.GetOperatorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Restore 恢复供应商
// @Summary      恢复供应商
// @Tags         供应商
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "供应商ID"
// @Success      200 {object} response.Response{data=appsupplier.SupplierResponse}
// @Router       /api/v1/suppliers/{id}/restore [post]
func (h *SupplierHandler) Restore(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.useCase.Restore(c.Request.Context(), id, middleware.GetOperatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListDeleted 已停用供应商
// @Summary      已停用供应商
// @Tags         供应商
// @Produce      json
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=appsupplier.ListSuppliersResponse}
// @Router       /api/v1/suppliers/deleted [get]
func (h *SupplierHandler) ListDeleted(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	result, err := h.useCase.ListDeleted(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
