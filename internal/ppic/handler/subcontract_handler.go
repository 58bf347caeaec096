package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// SubcontractHandler 委外流转处理器
type SubcontractHandler struct {
	svc *service.SubcontractService
}

func NewSubcontractHandler(svc *service.SubcontractService) *SubcontractHandler {
	return &SubcontractHandler{svc: svc}
}

// CreateDeliver 新建委外发货单
// POST /api/v1/ppic/subcontract/deliveries
func (h *SubcontractHandler) CreateDeliver(c *gin.Context) {
	var req service.DeliverInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	deliver, err := h.svc.CreateDeliver(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, deliver)
}

// GetDeliver 委外发货单详情
// GET /api/v1/ppic/subcontract/deliveries/:id
func (h *SubcontractHandler) GetDeliver(c *gin.Context) {
	deliver, err := h.svc.GetDeliver(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, deliver)
}

// UpdateDeliver 编辑委外发货单
// PUT /api/v1/ppic/subcontract/deliveries/:id
func (h *SubcontractHandler) UpdateDeliver(c *gin.Context) {
	var req service.DeliverInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	deliver, err := h.svc.UpdateDeliver(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, deliver)
}

// DeleteDeliver 删除委外发货单
// DELETE /api/v1/ppic/subcontract/deliveries/:id
func (h *SubcontractHandler) DeleteDeliver(c *gin.Context) {
	if err := h.svc.DeleteDeliver(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// CreateReceipt 新建委外收货单
// POST /api/v1/ppic/subcontract/receipts
func (h *SubcontractHandler) CreateReceipt(c *gin.Context) {
	var req service.ReceiptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	receipt, err := h.svc.CreateReceipt(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, receipt)
}

// GetReceipt 委外收货单详情
// GET /api/v1/ppic/subcontract/receipts/:id
func (h *SubcontractHandler) GetReceipt(c *gin.Context) {
	receipt, err := h.svc.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, receipt)
}

// UpdateReceipt 编辑委外收货单
// PUT /api/v1/ppic/subcontract/receipts/:id
func (h *SubcontractHandler) UpdateReceipt(c *gin.Context) {
	var req service.ReceiptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	receipt, err := h.svc.UpdateReceipt(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, receipt)
}

// DeleteReceipt 删除委外收货单
// DELETE /api/v1/ppic/subcontract/receipts/:id
func (h *SubcontractHandler) DeleteReceipt(c *gin.Context) {
	if err := h.svc.DeleteReceipt(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
