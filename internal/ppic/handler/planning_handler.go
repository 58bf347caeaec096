package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// PlanningHandler 物料需求建议处理器
type PlanningHandler struct {
	svc *service.PlanningService
}

func NewPlanningHandler(svc *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{svc: svc}
}

// Recommendations 当前采购建议（缓存）
// GET /api/v1/ppic/mrp/recommendations
func (h *PlanningHandler) Recommendations(c *gin.Context) {
	lines, err := h.svc.RecommendCached(c.Request.Context())
	if err != nil {
		InternalError(c, "计算采购建议失败: "+err.Error())
		return
	}
	Success(c, lines)
}

// ExportRecommendations 导出采购建议工作簿
// GET /api/v1/ppic/mrp/recommendations/export
func (h *PlanningHandler) ExportRecommendations(c *gin.Context) {
	f, err := h.svc.ExportExcel(c.Request.Context())
	if err != nil {
		InternalError(c, "导出采购建议失败: "+err.Error())
		return
	}
	filename := fmt.Sprintf("mrp-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "写出工作簿失败: "+err.Error())
	}
}

// ProductionPriority 各产品待投产数量
// GET /api/v1/ppic/mrp/production
func (h *PlanningHandler) ProductionPriority(c *gin.Context) {
	shortfall, err := h.svc.RecommendProduction(c.Request.Context())
	if err != nil {
		InternalError(c, "计算待投产数量失败: "+err.Error())
		return
	}
	Success(c, shortfall)
}

// ListPlans 建议单列表
// GET /api/v1/ppic/mrp/plans
func (h *PlanningHandler) ListPlans(c *gin.Context) {
	plans, err := h.svc.ListPlans(c.Request.Context())
	if err != nil {
		InternalError(c, "获取建议单失败: "+err.Error())
		return
	}
	Success(c, plans)
}

// GetPlan 建议单详情
// GET /api/v1/ppic/mrp/plans/:id
func (h *PlanningHandler) GetPlan(c *gin.Context) {
	plan, err := h.svc.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// CreatePlan 手工创建建议单
// POST /api/v1/ppic/mrp/plans
func (h *PlanningHandler) CreatePlan(c *gin.Context) {
	var req service.PlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	plan, err := h.svc.CreatePlan(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, plan)
}

// UpdatePlan 编辑建议单
// PUT /api/v1/ppic/mrp/plans/:id
func (h *PlanningHandler) UpdatePlan(c *gin.Context) {
	var req service.PlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	plan, err := h.svc.UpdatePlan(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, plan)
}

// DeletePlan 删除建议单
// DELETE /api/v1/ppic/mrp/plans/:id
func (h *PlanningHandler) DeletePlan(c *gin.Context) {
	if err := h.svc.DeletePlan(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
