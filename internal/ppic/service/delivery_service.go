package service

import (
	"context"
	"fmt"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryService 客户发货与采购到货。发货扣成品仓并累加订单行已交数量，
// 到货入材料库存并累加采购单已到数量，行满即标记完结
type DeliveryService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	stock  *StockService
	logger *zap.Logger
}

func NewDeliveryService(db *gorm.DB, repos *repository.Repositories, stock *StockService, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{db: db, repos: repos, stock: stock, logger: logger}
}

// DeliveryInput 客户发货单输入
type DeliveryInput struct {
	ProductOrderID string `json:"product_order_id" binding:"required"`
	Quantity       int64  `json:"quantity" binding:"required,gt=0"`
	DriverID       string `json:"driver_id"`
	VehicleID      string `json:"vehicle_id"`
}

// CreateDelivery 新建客户发货单
func (s *DeliveryService) CreateDelivery(ctx context.Context, input *DeliveryInput, userID string) (*entity.ProductDelivery, error) {
	line, err := s.repos.Order.FindProductOrderByID(ctx, input.ProductOrderID)
	if err != nil {
		return nil, err
	}
	delivery := &entity.ProductDelivery{
		ID:             newID(),
		Code:           newDocCode("DN"),
		ProductOrderID: line.ID,
		ProductID:      line.ProductID,
		Quantity:       input.Quantity,
		DriverID:       input.DriverID,
		VehicleID:      input.VehicleID,
		CreatedBy:      userID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(delivery).Error; err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}
		return s.postDelivery(tx, delivery, input.Quantity, userID, false)
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return delivery, nil
}

// UpdateDelivery 修改发货数量：反冲旧数量后按新数量重过账
func (s *DeliveryService) UpdateDelivery(ctx context.Context, id string, input *DeliveryInput, userID string) (*entity.ProductDelivery, error) {
	delivery, err := s.repos.Production.FindDeliveryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postDelivery(tx, delivery, delivery.Quantity, userID, true); err != nil {
			return err
		}
		if err := s.postDelivery(tx, delivery, input.Quantity, userID, false); err != nil {
			return err
		}
		return tx.Model(delivery).Updates(map[string]interface{}{
			"quantity":   input.Quantity,
			"driver_id":  input.DriverID,
			"vehicle_id": input.VehicleID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return s.repos.Production.FindDeliveryByID(ctx, id)
}

// DeleteDelivery 删除发货单并反冲：成品回仓，订单行已交数量回退
func (s *DeliveryService) DeleteDelivery(ctx context.Context, id string, userID string) error {
	delivery, err := s.repos.Production.FindDeliveryByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postDelivery(tx, delivery, delivery.Quantity, userID, true); err != nil {
			return err
		}
		return tx.Delete(&entity.ProductDelivery{}, "id = ?", delivery.ID).Error
	})
	if err != nil {
		return err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return nil
}

// MaterialReceiptInput 采购到货单输入
type MaterialReceiptInput struct {
	MaterialOrderID string `json:"material_order_id" binding:"required"`
	Quantity        int64  `json:"quantity" binding:"required,gt=0"`
}

// CreateMaterialReceipt 新建采购到货单
func (s *DeliveryService) CreateMaterialReceipt(ctx context.Context, input *MaterialReceiptInput, userID string) (*entity.MaterialReceipt, error) {
	order, err := s.repos.Order.FindMaterialOrderByID(ctx, input.MaterialOrderID)
	if err != nil {
		return nil, err
	}
	receipt := &entity.MaterialReceipt{
		ID:              newID(),
		Code:            newDocCode("MR"),
		MaterialOrderID: order.ID,
		MaterialID:      order.MaterialID,
		Quantity:        input.Quantity,
		CreatedBy:       userID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(receipt).Error; err != nil {
			return fmt.Errorf("create material receipt: %w", err)
		}
		return s.postMaterialReceipt(tx, receipt, input.Quantity, userID, false)
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return receipt, nil
}

// UpdateMaterialReceipt 修改到货数量
func (s *DeliveryService) UpdateMaterialReceipt(ctx context.Context, id string, input *MaterialReceiptInput, userID string) (*entity.MaterialReceipt, error) {
	receipt, err := s.repos.Production.FindMaterialReceiptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postMaterialReceipt(tx, receipt, receipt.Quantity, userID, true); err != nil {
			return err
		}
		if err := s.postMaterialReceipt(tx, receipt, input.Quantity, userID, false); err != nil {
			return err
		}
		return tx.Model(receipt).Update("quantity", input.Quantity).Error
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return s.repos.Production.FindMaterialReceiptByID(ctx, id)
}

// DeleteMaterialReceipt 删除到货单并反冲。材料已被消耗导致库存不足时拒绝
func (s *DeliveryService) DeleteMaterialReceipt(ctx context.Context, id string, userID string) error {
	receipt, err := s.repos.Production.FindMaterialReceiptByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postMaterialReceipt(tx, receipt, receipt.Quantity, userID, true); err != nil {
			return err
		}
		return tx.Delete(&entity.MaterialReceipt{}, "id = ?", receipt.ID).Error
	})
	if err != nil {
		return err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return nil
}

// --- 内部 ---

// postDelivery 发货过账：锁订单行、校验不超未交量、扣成品仓、累加已交数量
func (s *DeliveryService) postDelivery(tx *gorm.DB, delivery *entity.ProductDelivery, quantity int64, userID string, reverse bool) error {
	var line entity.ProductOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", delivery.ProductOrderID).First(&line).Error; err != nil {
		return fmt.Errorf("lock product order %s: %w", delivery.ProductOrderID, err)
	}
	sign := int64(1)
	docType := entity.DocTypeDelivery
	if reverse {
		sign = -1
		docType = entity.DocTypeReversal
	}
	next := line.Delivered + sign*quantity
	if next < 0 {
		return fmt.Errorf("delivered quantity of order line %s would go negative", line.ID)
	}
	if next > line.Quantity {
		return &entity.ConflictError{Resource: "product_order", ID: line.ID, Reason: "delivery exceeds ordered quantity"}
	}
	bucketID, err := finishedGoodBucketID(tx, line.ProductID)
	if err != nil {
		return err
	}
	if err := s.stock.ApplyBucketDelta(tx, bucketID, -sign*quantity, docType, delivery.ID, userID); err != nil {
		return err
	}
	return tx.Model(&line).Updates(map[string]interface{}{
		"delivered": next,
		"done":      next >= line.Quantity,
	}).Error
}

// postMaterialReceipt 到货过账：锁采购单、入材料库存、累加已到数量
func (s *DeliveryService) postMaterialReceipt(tx *gorm.DB, receipt *entity.MaterialReceipt, quantity int64, userID string, reverse bool) error {
	var order entity.MaterialOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", receipt.MaterialOrderID).First(&order).Error; err != nil {
		return fmt.Errorf("lock material order %s: %w", receipt.MaterialOrderID, err)
	}
	sign := int64(1)
	docType := entity.DocTypeMaterialReceipt
	if reverse {
		sign = -1
		docType = entity.DocTypeReversal
	}
	next := order.Arrived + sign*quantity
	if next < 0 {
		return fmt.Errorf("arrived quantity of material order %s would go negative", order.ID)
	}
	if err := s.stock.ApplyMaterialDelta(tx, receipt.MaterialID, sign*quantity, 0, docType, receipt.ID, userID); err != nil {
		return err
	}
	return tx.Model(&order).Updates(map[string]interface{}{
		"arrived": next,
		"done":    next >= order.Quantity,
	}).Error
}
