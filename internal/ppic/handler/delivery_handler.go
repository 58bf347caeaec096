package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// DeliveryHandler 客户发货与采购到货处理器
type DeliveryHandler struct {
	svc *service.DeliveryService
}

func NewDeliveryHandler(svc *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

// CreateDelivery 新建客户发货单
// POST /api/v1/ppic/deliveries
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	var req service.DeliveryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	delivery, err := h.svc.CreateDelivery(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, delivery)
}

// UpdateDelivery 修改发货数量
// PUT /api/v1/ppic/deliveries/:id
func (h *DeliveryHandler) UpdateDelivery(c *gin.Context) {
	var req service.DeliveryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	delivery, err := h.svc.UpdateDelivery(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, delivery)
}

// DeleteDelivery 删除发货单并反冲
// DELETE /api/v1/ppic/deliveries/:id
func (h *DeliveryHandler) DeleteDelivery(c *gin.Context) {
	if err := h.svc.DeleteDelivery(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// CreateMaterialReceipt 新建采购到货单
// POST /api/v1/ppic/material-receipts
func (h *DeliveryHandler) CreateMaterialReceipt(c *gin.Context) {
	var req service.MaterialReceiptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	receipt, err := h.svc.CreateMaterialReceipt(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, receipt)
}

// UpdateMaterialReceipt 修改到货数量
// PUT /api/v1/ppic/material-receipts/:id
func (h *DeliveryHandler) UpdateMaterialReceipt(c *gin.Context) {
	var req service.MaterialReceiptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	receipt, err := h.svc.UpdateMaterialReceipt(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, receipt)
}

// DeleteMaterialReceipt 删除到货单并反冲
// DELETE /api/v1/ppic/material-receipts/:id
func (h *DeliveryHandler) DeleteMaterialReceipt(c *gin.Context) {
	if err := h.svc.DeleteMaterialReceipt(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
