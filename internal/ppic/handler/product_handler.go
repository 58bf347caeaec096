package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// ProductHandler 产品与原材料主数据处理器
type ProductHandler struct {
	svc *service.BOMService
}

func NewProductHandler(svc *service.BOMService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// ListProducts 产品列表
// GET /api/v1/ppic/products?search=xxx&customer_id=xxx&page=1&page_size=20
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.ProductListParams{
		Keyword:    c.Query("search"),
		CustomerID: c.Query("customer_id"),
		Page:       page,
		Size:       pageSize,
	}
	items, total, err := h.svc.ListProducts(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取产品列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// GetProduct 产品详情（含工序链）
// GET /api/v1/ppic/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, product)
}

// CreateProduct 创建产品
// POST /api/v1/ppic/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	product, err := h.svc.CreateProduct(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, product)
}

// UpdateProduct 更新产品
// PUT /api/v1/ppic/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	product, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, product)
}

// DeleteProduct 删除产品
// DELETE /api/v1/ppic/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// ListMaterials 原材料列表
// GET /api/v1/ppic/materials?search=xxx&page=1&page_size=20
func (h *ProductHandler) ListMaterials(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListMaterials(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		InternalError(c, "获取原材料列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// GetMaterial 原材料详情
// GET /api/v1/ppic/materials/:id
func (h *ProductHandler) GetMaterial(c *gin.Context) {
	material, err := h.svc.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, material)
}

// CreateMaterial 创建原材料
// POST /api/v1/ppic/materials
func (h *ProductHandler) CreateMaterial(c *gin.Context) {
	var req service.MaterialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	material, err := h.svc.CreateMaterial(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, material)
}

// UpdateMaterial 更新原材料
// PUT /api/v1/ppic/materials/:id
func (h *ProductHandler) UpdateMaterial(c *gin.Context) {
	var req service.MaterialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	material, err := h.svc.UpdateMaterial(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, material)
}

// DeleteMaterial 删除原材料
// DELETE /api/v1/ppic/materials/:id
func (h *ProductHandler) DeleteMaterial(c *gin.Context) {
	if err := h.svc.DeleteMaterial(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
