package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// ProductionHandler 生产报工处理器
type ProductionHandler struct {
	svc *service.ProductionService
}

func NewProductionHandler(svc *service.ProductionService) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

// ListReports 报工单列表
// GET /api/v1/ppic/production-reports?process_id=&page=&page_size=
func (h *ProductionHandler) ListReports(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListReports(c.Request.Context(), c.Query("process_id"), page, pageSize)
	if err != nil {
		InternalError(c, "获取报工单失败: "+err.Error())
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

// GetReport 报工单详情（含扣减明细）
// GET /api/v1/ppic/production-reports/:id
func (h *ProductionHandler) GetReport(c *gin.Context) {
	report, err := h.svc.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, report)
}

// CreateReport 新建报工单
// POST /api/v1/ppic/production-reports
func (h *ProductionHandler) CreateReport(c *gin.Context) {
	var req service.ProductionReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.svc.CreateReport(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, report)
}

// UpdateReport 编辑报工单
// PUT /api/v1/ppic/production-reports/:id
func (h *ProductionHandler) UpdateReport(c *gin.Context) {
	var req service.ProductionReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.svc.UpdateReport(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, report)
}

// DeleteReport 删除报工单
// DELETE /api/v1/ppic/production-reports/:id
func (h *ProductionHandler) DeleteReport(c *gin.Context) {
	if err := h.svc.DeleteReport(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
