package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// OrderHandler 销售订单与采购订单处理器
type OrderHandler struct {
	svc *service.DemandService
}

func NewOrderHandler(svc *service.DemandService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// ListSalesOrders 销售订单列表
// GET /api/v1/ppic/sales-orders?search=&fixed=&closed=&page=&page_size=
func (h *OrderHandler) ListSalesOrders(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.OrderListParams{
		Keyword: c.Query("search"),
		Fixed:   parseBoolQuery(c, "fixed"),
		Closed:  parseBoolQuery(c, "closed"),
		Page:    page,
		Size:    pageSize,
	}
	items, total, err := h.svc.ListSalesOrders(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取销售订单失败: "+err.Error())
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

// GetSalesOrder 销售订单详情
// GET /api/v1/ppic/sales-orders/:id
func (h *OrderHandler) GetSalesOrder(c *gin.Context) {
	order, err := h.svc.GetSalesOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, order)
}

// CreateSalesOrder 创建销售订单
// POST /api/v1/ppic/sales-orders
func (h *OrderHandler) CreateSalesOrder(c *gin.Context) {
	var req service.CreateSalesOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.CreateSalesOrder(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, order)
}

// FixSalesOrder 确认销售订单
// POST /api/v1/ppic/sales-orders/:id/fix
func (h *OrderHandler) FixSalesOrder(c *gin.Context) {
	order, err := h.svc.FixSalesOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, order)
}

// CloseSalesOrder 关闭销售订单
// POST /api/v1/ppic/sales-orders/:id/close
func (h *OrderHandler) CloseSalesOrder(c *gin.Context) {
	order, err := h.svc.CloseSalesOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, order)
}

// DeleteSalesOrder 删除销售订单
// DELETE /api/v1/ppic/sales-orders/:id
func (h *OrderHandler) DeleteSalesOrder(c *gin.Context) {
	if err := h.svc.DeleteSalesOrder(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// ListMaterialOrders 采购订单列表
// GET /api/v1/ppic/material-orders?search=&done=&page=&page_size=
func (h *OrderHandler) ListMaterialOrders(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.OrderListParams{
		Keyword: c.Query("search"),
		Done:    parseBoolQuery(c, "done"),
		Page:    page,
		Size:    pageSize,
	}
	items, total, err := h.svc.ListMaterialOrders(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取采购订单失败: "+err.Error())
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

// CreateMaterialOrder 创建采购订单
// POST /api/v1/ppic/material-orders
func (h *OrderHandler) CreateMaterialOrder(c *gin.Context) {
	var req service.CreateMaterialOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	order, err := h.svc.CreateMaterialOrder(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, order)
}

// CloseMaterialOrder 关闭采购订单
// POST /api/v1/ppic/material-orders/:id/close
func (h *OrderHandler) CloseMaterialOrder(c *gin.Context) {
	order, err := h.svc.CloseMaterialOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, order)
}

func parseBoolQuery(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
