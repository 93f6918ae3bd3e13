package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookstore-inventory/internal/application/book"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-inventory/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
)

// BookHandler 图书目录与缓存管理
type BookHandler struct {
	publishBookUseCase *appbook.PublishBookUseCase
	listBooksUseCase   *appbook.ListBooksUseCase
	manageBookUseCase  *appbook.ManageBookUseCase
	cacheAdminUseCase  *appbook.CacheAdminUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	publishBookUseCase *appbook.PublishBookUseCase,
	listBooksUseCase *appbook.ListBooksUseCase,
	manageBookUseCase *appbook.ManageBookUseCase,
	cacheAdminUseCase *appbook.CacheAdminUseCase,
) *BookHandler {
	return &BookHandler{
		publishBookUseCase: publishBookUseCase,
		listBooksUseCase:   listBooksUseCase,
		manageBookUseCase:  manageBookUseCase,
		cacheAdminUseCase:  cacheAdminUseCase,
	}
}

// PublishBook 上架图书
// @Summary      上架图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishBookRequest true "图书信息"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Router       /api/v1/books [post]
func (h *BookHandler) PublishBook(c *gin.Context) {
	var req dto.PublishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.publishBookUseCase.Execute(c.Request.Context(), appbook.PublishBookRequest{
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		InitialStock:  req.InitialStock,
		MinStock:      req.MinStock,
		OperatorID:    middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListBooks 图书列表
// @Summary      图书列表
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Param        keyword query string false "标题/作者/ISBN"
// @Param        include_inactive query bool false "包含已下架"
// @Success      200 {object} response.Response{data=appbook.ListBooksResponse}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:            req.Page,
		PageSize:        req.PageSize,
		Keyword:         req.Keyword,
		IncludeInactive: req.IncludeInactive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// LowStock 低库存图书
// @Summary      低库存图书
// @Tags         图书
// @Produce      json
// @Success      200 {object} response.Response{data=[]appbook.BookResponse}
// @Router       /api/v1/books/low-stock [get]
func (h *BookHandler) LowStock(c *gin.Context) {
	list, err := h.listBooksUseCase.LowStock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Stats 目录统计
// @Summary      目录统计
// @Description  图书数量、在售库存合计、低库存数量和库存总价值
// @Tags         图书
// @Produce      json
// @Success      200 {object} response.Response{data=appbook.BookStatsResponse}
// @Router       /api/v1/books/stats [get]
func (h *BookHandler) Stats(c *gin.Context) {
	result, err := h.listBooksUseCase.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetBook 图书详情（读穿缓存）
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.manageBookUseCase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateBook 修改图书
// @Summary      修改图书
// @Description  需携带读取时的version，版本号已变化返回VERSION_CONFLICT
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.UpdateBookRequest true "修改内容"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.manageBookUseCase.Update(c.Request.Context(), appbook.UpdateBookRequest{
		ID:            id,
		Version:       *req.Version,
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		MinStock:      req.MinStock,
		OperatorID:    middleware.GetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeactivateBook 下架图书
// @Summary      下架图书
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        version query int true "版本号"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeactivateBook(c *gin.Context) {
	h.changeStatus(c, h.manageBookUseCase.Deactivate)
}

// RestoreBook 恢复上架
// @Summary      恢复上架
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        version query int true "版本号"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Router       /api/v1/books/{id}/restore [post]
func (h *BookHandler) RestoreBook(c *gin.Context) {
	h.changeStatus(c, h.manageBookUseCase.Restore)
}

// EvictBookCache 删除单本图书缓存
// @Summary      删除图书缓存
// @Tags         缓存
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/cache/books/{id} [delete]
func (h *BookHandler) EvictBookCache(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.cacheAdminUseCase.EvictBook(c.Request.Context(), id, middleware.GetOperatorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// EvictAllBookCache 清空图书缓存
// @Summary      清空图书缓存
// @Tags         缓存
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/v1/cache/books [delete]
func (h *BookHandler) EvictAllBookCache(c *gin.Context) {
	if err := h.cacheAdminUseCase.EvictAll(c.Request.Context(), middleware.GetOperatorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

type statusChange func(ctx context.Context, id uint, version int, operatorID uint) (*appbook.BookResponse, error)

func (h *BookHandler) changeStatus(c *gin.Context, change statusChange) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q dto.VersionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := change(c.Request.Context(), id, *q.Version, middleware.GetOperatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
