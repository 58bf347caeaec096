package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DemandService 销售订单与采购订单的维护，以及未交付需求的聚合
type DemandService struct {
	db        *gorm.DB
	orderRepo *repository.OrderRepository
	logger    *zap.Logger
}

func NewDemandService(db *gorm.DB, orderRepo *repository.OrderRepository, logger *zap.Logger) *DemandService {
	return &DemandService{db: db, orderRepo: orderRepo, logger: logger}
}

// OutstandingDemand 聚合所有已确认且未关闭销售订单的未交付数量，按产品汇总
func (s *DemandService) OutstandingDemand(ctx context.Context) (map[string]int64, error) {
	return s.orderRepo.OutstandingDemand(ctx)
}

// SalesOrderLineInput 销售订单行
type SalesOrderLineInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

// CreateSalesOrderInput 创建销售订单
type CreateSalesOrderInput struct {
	Code       string                `json:"code" binding:"required"`
	CustomerID string                `json:"customer_id" binding:"required"`
	Date       time.Time             `json:"date"`
	Lines      []SalesOrderLineInput `json:"lines" binding:"required,min=1,dive"`
}

func (s *DemandService) CreateSalesOrder(ctx context.Context, input *CreateSalesOrderInput, userID string) (*entity.SalesOrder, error) {
	order := &entity.SalesOrder{
		ID:         newID(),
		Code:       input.Code,
		CustomerID: input.CustomerID,
		Date:       input.Date,
		CreatedBy:  userID,
	}
	if order.Date.IsZero() {
		order.Date = time.Now()
	}
	for _, line := range input.Lines {
		order.Orders = append(order.Orders, entity.ProductOrder{
			ID:        newID(),
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	if err := s.orderRepo.CreateSalesOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}
	return order, nil
}

// FixSalesOrder 确认订单，自此纳入需求聚合
func (s *DemandService) FixSalesOrder(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return s.setSalesOrderFlag(ctx, id, func(order *entity.SalesOrder) error {
		order.Fixed = true
		return nil
	})
}

// CloseSalesOrder 关闭订单，退出需求聚合
func (s *DemandService) CloseSalesOrder(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return s.setSalesOrderFlag(ctx, id, func(order *entity.SalesOrder) error {
		order.Closed = true
		return nil
	})
}

func (s *DemandService) setSalesOrderFlag(ctx context.Context, id string, apply func(*entity.SalesOrder) error) (*entity.SalesOrder, error) {
	order, err := s.orderRepo.FindSalesOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateSalesOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("update sales order: %w", err)
	}
	return order, nil
}

// DeleteSalesOrder 软删除订单。已确认且有交付记录的订单不允许删除
func (s *DemandService) DeleteSalesOrder(ctx context.Context, id string) error {
	order, err := s.orderRepo.FindSalesOrderByID(ctx, id)
	if err != nil {
		return err
	}
	for _, line := range order.Orders {
		if line.Delivered > 0 {
			return &entity.ConflictError{Resource: "sales_order", ID: id, Reason: "order has delivered lines"}
		}
	}
	return s.orderRepo.DeleteSalesOrder(ctx, id)
}

func (s *DemandService) GetSalesOrder(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return s.orderRepo.FindSalesOrderByID(ctx, id)
}

func (s *DemandService) ListSalesOrders(ctx context.Context, params repository.OrderListParams) ([]entity.SalesOrder, int64, error) {
	return s.orderRepo.ListSalesOrders(ctx, params)
}

// CreateMaterialOrderInput 创建采购订单
type CreateMaterialOrderInput struct {
	Code       string    `json:"code" binding:"required"`
	MaterialID string    `json:"material_id" binding:"required"`
	SupplierID string    `json:"supplier_id" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"required,gt=0"`
	Date       time.Time `json:"date"`
}

func (s *DemandService) CreateMaterialOrder(ctx context.Context, input *CreateMaterialOrderInput, userID string) (*entity.MaterialOrder, error) {
	order := &entity.MaterialOrder{
		ID:         newID(),
		Code:       input.Code,
		MaterialID: input.MaterialID,
		SupplierID: input.SupplierID,
		Quantity:   input.Quantity,
		Date:       input.Date,
		CreatedBy:  userID,
	}
	if order.Date.IsZero() {
		order.Date = time.Now()
	}
	if err := s.orderRepo.CreateMaterialOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create material order: %w", err)
	}
	return order, nil
}

// CloseMaterialOrder 关闭采购订单，剩余未到货量不再计入在途
func (s *DemandService) CloseMaterialOrder(ctx context.Context, id string) (*entity.MaterialOrder, error) {
	order, err := s.orderRepo.FindMaterialOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Done = true
	if err := s.orderRepo.UpdateMaterialOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("close material order: %w", err)
	}
	return order, nil
}

func (s *DemandService) ListMaterialOrders(ctx context.Context, params repository.OrderListParams) ([]entity.MaterialOrder, int64, error) {
	return s.orderRepo.ListMaterialOrders(ctx, params)
}
