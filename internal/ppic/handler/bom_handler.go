package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// BOMHandler 工序与需求边处理器
type BOMHandler struct {
	svc *service.BOMService
}

func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

// ListProcesses 产品工序链
// GET /api/v1/ppic/products/:id/processes
func (h *BOMHandler) ListProcesses(c *gin.Context) {
	processes, err := h.svc.ListProcesses(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取工序链失败: "+err.Error())
		return
	}
	Success(c, processes)
}

// CreateProcess 在工序链末尾追加工序
// POST /api/v1/ppic/products/:id/processes
func (h *BOMHandler) CreateProcess(c *gin.Context) {
	var req service.ProcessInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	process, err := h.svc.CreateProcess(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, process)
}

// GetProcess 工序详情（含库存桶与需求边）
// GET /api/v1/ppic/processes/:id
func (h *BOMHandler) GetProcess(c *gin.Context) {
	process, err := h.svc.GetProcess(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, process)
}

// UpdateProcess 更新工序（改名、移位、改类型、需求边对账）
// PUT /api/v1/ppic/processes/:id
func (h *BOMHandler) UpdateProcess(c *gin.Context) {
	var req service.ProcessInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	process, err := h.svc.UpdateProcess(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, process)
}

// DeleteProcess 删除工序
// DELETE /api/v1/ppic/processes/:id
func (h *BOMHandler) DeleteProcess(c *gin.Context) {
	if err := h.svc.DeleteProcess(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
