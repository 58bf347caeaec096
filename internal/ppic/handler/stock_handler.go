package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// StockHandler 库存查询处理器
type StockHandler struct {
	svc *service.StockService
}

func NewStockHandler(svc *service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// ListProcessBuckets 工序库存桶
// GET /api/v1/ppic/processes/:id/buckets
func (h *StockHandler) ListProcessBuckets(c *gin.Context) {
	buckets, err := h.svc.ListBucketsByProcess(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取库存桶失败: "+err.Error())
		return
	}
	Success(c, buckets)
}

// GetMaterialStock 原材料库存
// GET /api/v1/ppic/materials/:id/stock
func (h *StockHandler) GetMaterialStock(c *gin.Context) {
	stock, err := h.svc.GetMaterialStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, stock)
}

// ListMovements 库存流水
// GET /api/v1/ppic/stock/movements?bucket_id=&material_id=&doc_type=&page=&page_size=
func (h *StockHandler) ListMovements(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.MovementListParams{
		BucketID:   c.Query("bucket_id"),
		MaterialID: c.Query("material_id"),
		DocType:    c.Query("doc_type"),
		Page:       page,
		Size:       pageSize,
	}
	items, total, err := h.svc.ListMovements(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取库存流水失败: "+err.Error())
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
