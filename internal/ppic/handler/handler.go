package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
)

// Handlers PPIC处理器集合
type Handlers struct {
	Product     *ProductHandler
	BOM         *BOMHandler
	Stock       *StockHandler
	Order       *OrderHandler
	Production  *ProductionHandler
	Planning    *PlanningHandler
	Subcontract *SubcontractHandler
	Delivery    *DeliveryHandler
}

// NewHandlers 创建PPIC处理器集合
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Product:     NewProductHandler(services.BOM),
		BOM:         NewBOMHandler(services.BOM),
		Stock:       NewStockHandler(services.Stock),
		Order:       NewOrderHandler(services.Demand),
		Production:  NewProductionHandler(services.Production),
		Planning:    NewPlanningHandler(services.Planning),
		Subcontract: NewSubcontractHandler(services.Subcontract),
		Delivery:    NewDeliveryHandler(services.Delivery),
	}
}

// RegisterRoutes 挂载PPIC路由
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	products := api.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.POST("", h.Product.CreateProduct)
		products.GET("/:id", h.Product.GetProduct)
		products.PUT("/:id", h.Product.UpdateProduct)
		products.DELETE("/:id", h.Product.DeleteProduct)
		products.GET("/:id/processes", h.BOM.ListProcesses)
		products.POST("/:id/processes", h.BOM.CreateProcess)
	}
	materials := api.Group("/materials")
	{
		materials.GET("", h.Product.ListMaterials)
		materials.POST("", h.Product.CreateMaterial)
		materials.GET("/:id", h.Product.GetMaterial)
		materials.PUT("/:id", h.Product.UpdateMaterial)
		materials.DELETE("/:id", h.Product.DeleteMaterial)
		materials.GET("/:id/stock", h.Stock.GetMaterialStock)
	}
	processes := api.Group("/processes")
	{
		processes.GET("/:id", h.BOM.GetProcess)
		processes.PUT("/:id", h.BOM.UpdateProcess)
		processes.DELETE("/:id", h.BOM.DeleteProcess)
		processes.GET("/:id/buckets", h.Stock.ListProcessBuckets)
	}
	stock := api.Group("/stock")
	{
		stock.GET("/movements", h.Stock.ListMovements)
	}
	salesOrders := api.Group("/sales-orders")
	{
		salesOrders.GET("", h.Order.ListSalesOrders)
		salesOrders.POST("", h.Order.CreateSalesOrder)
		salesOrders.GET("/:id", h.Order.GetSalesOrder)
		salesOrders.POST("/:id/fix", h.Order.FixSalesOrder)
		salesOrders.POST("/:id/close", h.Order.CloseSalesOrder)
		salesOrders.DELETE("/:id", h.Order.DeleteSalesOrder)
	}
	materialOrders := api.Group("/material-orders")
	{
		materialOrders.GET("", h.Order.ListMaterialOrders)
		materialOrders.POST("", h.Order.CreateMaterialOrder)
		materialOrders.POST("/:id/close", h.Order.CloseMaterialOrder)
	}
	reports := api.Group("/production-reports")
	{
		reports.GET("", h.Production.ListReports)
		reports.POST("", h.Production.CreateReport)
		reports.GET("/:id", h.Production.GetReport)
		reports.PUT("/:id", h.Production.UpdateReport)
		reports.DELETE("/:id", h.Production.DeleteReport)
	}
	subcont := api.Group("/subcontract")
	{
		subcont.POST("/deliveries", h.Subcontract.CreateDeliver)
		subcont.GET("/deliveries/:id", h.Subcontract.GetDeliver)
		subcont.PUT("/deliveries/:id", h.Subcontract.UpdateDeliver)
		subcont.DELETE("/deliveries/:id", h.Subcontract.DeleteDeliver)
		subcont.POST("/receipts", h.Subcontract.CreateReceipt)
		subcont.GET("/receipts/:id", h.Subcontract.GetReceipt)
		subcont.PUT("/receipts/:id", h.Subcontract.UpdateReceipt)
		subcont.DELETE("/receipts/:id", h.Subcontract.DeleteReceipt)
	}
	deliveries := api.Group("/deliveries")
	{
		deliveries.POST("", h.Delivery.CreateDelivery)
		deliveries.PUT("/:id", h.Delivery.UpdateDelivery)
		deliveries.DELETE("/:id", h.Delivery.DeleteDelivery)
	}
	receipts := api.Group("/material-receipts")
	{
		receipts.POST("", h.Delivery.CreateMaterialReceipt)
		receipts.PUT("/:id", h.Delivery.UpdateMaterialReceipt)
		receipts.DELETE("/:id", h.Delivery.DeleteMaterialReceipt)
	}
	mrp := api.Group("/mrp")
	{
		mrp.GET("/recommendations", h.Planning.Recommendations)
		mrp.GET("/recommendations/export", h.Planning.ExportRecommendations)
		mrp.GET("/production", h.Planning.ProductionPriority)
		mrp.GET("/plans", h.Planning.ListPlans)
		mrp.POST("/plans", h.Planning.CreatePlan)
		mrp.GET("/plans/:id", h.Planning.GetPlan)
		mrp.PUT("/plans/:id", h.Planning.UpdatePlan)
		mrp.DELETE("/plans/:id", h.Planning.DeletePlan)
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleError 按领域错误类型映射响应码
func HandleError(c *gin.Context, err error) {
	var (
		cycle        *entity.AssemblyCycleError
		insufficient *entity.InsufficientStockError
		position     *entity.InvalidProcessPositionError
		locked       *entity.LockedRecordError
		conflict     *entity.ConflictError
	)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.As(err, &cycle):
		BadRequest(c, err.Error())
	case errors.As(err, &position):
		BadRequest(c, err.Error())
	case errors.As(err, &insufficient):
		Conflict(c, err.Error())
	case errors.As(err, &locked):
		Conflict(c, err.Error())
	case errors.As(err, &conflict):
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
