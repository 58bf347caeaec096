package service

import (
	"context"
	"fmt"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubcontractService 委外流转。发货按委外工序的BOM边扣当前库存、入委外仓；
// 收货出委外仓，良品入工序主桶。编辑一律先反冲再重过账
type SubcontractService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	stock  *StockService
	logger *zap.Logger
}

func NewSubcontractService(db *gorm.DB, repos *repository.Repositories, stock *StockService, logger *zap.Logger) *SubcontractService {
	return &SubcontractService{db: db, repos: repos, stock: stock, logger: logger}
}

// DeliverInput 委外发货单输入
type DeliverInput struct {
	ProcessID  string `json:"process_id" binding:"required"`
	SupplierID string `json:"supplier_id" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
	DriverID   string `json:"driver_id"`
	VehicleID  string `json:"vehicle_id"`
	Notes      string `json:"notes"`
}

// CreateDeliver 新建委外发货单
func (s *SubcontractService) CreateDeliver(ctx context.Context, input *DeliverInput, userID string) (*entity.ProductDeliverSubcont, error) {
	process, err := s.repos.BOM.FindProcessByID(ctx, input.ProcessID)
	if err != nil {
		return nil, err
	}
	if !process.IsSubcontract() {
		return nil, fmt.Errorf("process %s is not a subcontract process", process.ID)
	}
	deliver := &entity.ProductDeliverSubcont{
		ID:         newID(),
		Code:       newDocCode("SD"),
		ProcessID:  process.ID,
		ProductID:  process.ProductID,
		SupplierID: input.SupplierID,
		Quantity:   input.Quantity,
		DriverID:   input.DriverID,
		VehicleID:  input.VehicleID,
		Notes:      input.Notes,
		CreatedBy:  userID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := planConsumption(tx, process, input.Quantity)
		if err != nil {
			return err
		}
		if err := tx.Create(deliver).Error; err != nil {
			return fmt.Errorf("create subcont deliver: %w", err)
		}
		if err := applyPlan(s.stock, tx, plan, entity.DocTypeSubcontDeliver, deliver.ID, userID, false); err != nil {
			return err
		}
		subcontID, err := subcontBucketID(tx, process.ID)
		if err != nil {
			return err
		}
		if err := s.stock.ApplyBucketDelta(tx, subcontID, input.Quantity, entity.DocTypeSubcontDeliver, deliver.ID, userID); err != nil {
			return err
		}
		return s.saveDeliverLines(tx, deliver.ID, plan)
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return s.repos.Production.FindDeliverSubcontByID(ctx, deliver.ID)
}

// UpdateDeliver 编辑委外发货单。需求边集合已变化时拒绝
func (s *SubcontractService) UpdateDeliver(ctx context.Context, id string, input *DeliverInput, userID string) (*entity.ProductDeliverSubcont, error) {
	deliver, err := s.repos.Production.FindDeliverSubcontByID(ctx, id)
	if err != nil {
		return nil, err
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, deliver.ProcessID)
	if err != nil {
		return nil, err
	}
	if !deliverMatchesEdges(deliver, process) {
		return nil, &entity.LockedRecordError{RecordID: id, ProcessID: process.ID}
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reverseDeliver(tx, deliver, process, userID); err != nil {
			return err
		}
		plan, err := planConsumption(tx, process, input.Quantity)
		if err != nil {
			return err
		}
		if err := applyPlan(s.stock, tx, plan, entity.DocTypeSubcontDeliver, deliver.ID, userID, false); err != nil {
			return err
		}
		subcontID, err := subcontBucketID(tx, process.ID)
		if err != nil {
			return err
		}
		if err := s.stock.ApplyBucketDelta(tx, subcontID, input.Quantity, entity.DocTypeSubcontDeliver, deliver.ID, userID); err != nil {
			return err
		}
		if err := tx.Model(deliver).Updates(map[string]interface{}{
			"supplier_id": input.SupplierID,
			"quantity":    input.Quantity,
			"driver_id":   input.DriverID,
			"vehicle_id":  input.VehicleID,
			"notes":       input.Notes,
		}).Error; err != nil {
			return fmt.Errorf("update subcont deliver: %w", err)
		}
		if err := s.deleteDeliverLines(tx, deliver.ID); err != nil {
			return err
		}
		return s.saveDeliverLines(tx, deliver.ID, plan)
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return s.repos.Production.FindDeliverSubcontByID(ctx, id)
}

// DeleteDeliver 删除委外发货单并整体反冲
func (s *SubcontractService) DeleteDeliver(ctx context.Context, id string, userID string) error {
	deliver, err := s.repos.Production.FindDeliverSubcontByID(ctx, id)
	if err != nil {
		return err
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, deliver.ProcessID)
	if err != nil {
		return err
	}
	if !deliverMatchesEdges(deliver, process) {
		return &entity.LockedRecordError{RecordID: id, ProcessID: process.ID}
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reverseDeliver(tx, deliver, process, userID); err != nil {
			return err
		}
		if err := s.deleteDeliverLines(tx, deliver.ID); err != nil {
			return err
		}
		return tx.Delete(&entity.ProductDeliverSubcont{}, "id = ?", deliver.ID).Error
	})
	if err != nil {
		return err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return nil
}

// ReceiptInput 委外收货单输入
type ReceiptInput struct {
	ProcessID       string `json:"process_id" binding:"required"`
	Quantity        int64  `json:"quantity" binding:"gte=0"`
	QuantityNotGood int64  `json:"quantity_not_good" binding:"gte=0"`
}

// CreateReceipt 新建委外收货单：良品+不良出委外仓，良品入工序主桶
func (s *SubcontractService) CreateReceipt(ctx context.Context, input *ReceiptInput, userID string) (*entity.SubcontReceipt, error) {
	if input.Quantity+input.QuantityNotGood <= 0 {
		return nil, fmt.Errorf("receipt quantity must be positive")
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, input.ProcessID)
	if err != nil {
		return nil, err
	}
	if !process.IsSubcontract() {
		return nil, fmt.Errorf("process %s is not a subcontract process", process.ID)
	}
	receipt := &entity.SubcontReceipt{
		ID:              newID(),
		Code:            newDocCode("SR"),
		ProcessID:       process.ID,
		ProductID:       process.ProductID,
		Quantity:        input.Quantity,
		QuantityNotGood: input.QuantityNotGood,
		CreatedBy:       userID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(receipt).Error; err != nil {
			return fmt.Errorf("create subcont receipt: %w", err)
		}
		return s.postReceipt(tx, process, input.Quantity, input.QuantityNotGood, receipt.ID, userID, false)
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return receipt, nil
}

// UpdateReceipt 编辑委外收货单：反冲旧数量后按新数量重过账
func (s *SubcontractService) UpdateReceipt(ctx context.Context, id string, input *ReceiptInput, userID string) (*entity.SubcontReceipt, error) {
	if input.Quantity+input.QuantityNotGood <= 0 {
		return nil, fmt.Errorf("receipt quantity must be positive")
	}
	receipt, err := s.repos.Production.FindSubcontReceiptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, receipt.ProcessID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postReceipt(tx, process, receipt.Quantity, receipt.QuantityNotGood, receipt.ID, userID, true); err != nil {
			return err
		}
		if err := s.postReceipt(tx, process, input.Quantity, input.QuantityNotGood, receipt.ID, userID, false); err != nil {
			return err
		}
		return tx.Model(receipt).Updates(map[string]interface{}{
			"quantity":          input.Quantity,
			"quantity_not_good": input.QuantityNotGood,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return s.repos.Production.FindSubcontReceiptByID(ctx, id)
}

// DeleteReceipt 删除委外收货单并反冲
func (s *SubcontractService) DeleteReceipt(ctx context.Context, id string, userID string) error {
	receipt, err := s.repos.Production.FindSubcontReceiptByID(ctx, id)
	if err != nil {
		return err
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, receipt.ProcessID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postReceipt(tx, process, receipt.Quantity, receipt.QuantityNotGood, receipt.ID, userID, true); err != nil {
			return err
		}
		return tx.Delete(&entity.SubcontReceipt{}, "id = ?", receipt.ID).Error
	})
	if err != nil {
		return err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return nil
}

func (s *SubcontractService) GetDeliver(ctx context.Context, id string) (*entity.ProductDeliverSubcont, error) {
	return s.repos.Production.FindDeliverSubcontByID(ctx, id)
}

func (s *SubcontractService) GetReceipt(ctx context.Context, id string) (*entity.SubcontReceipt, error) {
	return s.repos.Production.FindSubcontReceiptByID(ctx, id)
}

// --- 内部 ---

// postReceipt 收货过账：委外仓扣减（良品+不良），良品入工序主桶
func (s *SubcontractService) postReceipt(tx *gorm.DB, process *entity.Process, good, notGood int64, docID, userID string, reverse bool) error {
	sign := int64(1)
	docType := entity.DocTypeSubcontReceipt
	if reverse {
		sign = -1
		docType = entity.DocTypeReversal
	}
	subcontID, err := subcontBucketID(tx, process.ID)
	if err != nil {
		return err
	}
	if err := s.stock.ApplyBucketDelta(tx, subcontID, -sign*(good+notGood), docType, docID, userID); err != nil {
		return err
	}
	if good == 0 {
		return nil
	}
	ownID, err := siblingBucketID(tx, process.ProductID, process.Order)
	if err != nil {
		return err
	}
	return s.stock.ApplyBucketDelta(tx, ownID, sign*good, docType, docID, userID)
}

func (s *SubcontractService) reverseDeliver(tx *gorm.DB, deliver *entity.ProductDeliverSubcont, process *entity.Process, userID string) error {
	subcontID, err := subcontBucketID(tx, process.ID)
	if err != nil {
		return err
	}
	if err := s.stock.ApplyBucketDelta(tx, subcontID, -deliver.Quantity, entity.DocTypeReversal, deliver.ID, userID); err != nil {
		return err
	}
	plan := &consumptionPlan{attempted: deliver.Quantity}
	if process.Order > 1 {
		prevID, err := siblingBucketID(tx, process.ProductID, process.Order-1)
		if err != nil {
			return err
		}
		plan.prevBucketID = prevID
	}
	for _, line := range deliver.Materials {
		plan.materials = append(plan.materials, materialConsumption{
			edgeID:     line.RequirementMaterialID,
			materialID: line.MaterialID,
			used:       line.Quantity,
			scrap:      line.Scrap,
		})
	}
	for _, line := range deliver.Products {
		bucketID, err := finishedGoodBucketID(tx, line.ProductID)
		if err != nil {
			return err
		}
		plan.products = append(plan.products, productConsumption{
			edgeID:   line.RequirementProductID,
			childID:  line.ProductID,
			bucketID: bucketID,
			used:     line.Quantity,
		})
	}
	return applyPlan(s.stock, tx, plan, entity.DocTypeSubcontDeliver, deliver.ID, userID, true)
}

func (s *SubcontractService) saveDeliverLines(tx *gorm.DB, deliverID string, plan *consumptionPlan) error {
	for _, m := range plan.materials {
		line := &entity.RequirementMaterialSubcont{
			ID:                    newID(),
			DeliverID:             deliverID,
			RequirementMaterialID: m.edgeID,
			MaterialID:            m.materialID,
			Quantity:              m.used,
			Scrap:                 m.scrap,
		}
		if err := tx.Create(line).Error; err != nil {
			return fmt.Errorf("create deliver material line: %w", err)
		}
	}
	for _, p := range plan.products {
		line := &entity.RequirementProductSubcont{
			ID:                   newID(),
			DeliverID:            deliverID,
			RequirementProductID: p.edgeID,
			ProductID:            p.childID,
			Quantity:             p.used,
		}
		if err := tx.Create(line).Error; err != nil {
			return fmt.Errorf("create deliver product line: %w", err)
		}
	}
	return nil
}

func (s *SubcontractService) deleteDeliverLines(tx *gorm.DB, deliverID string) error {
	if err := tx.Where("deliver_id = ?", deliverID).Delete(&entity.RequirementMaterialSubcont{}).Error; err != nil {
		return err
	}
	return tx.Where("deliver_id = ?", deliverID).Delete(&entity.RequirementProductSubcont{}).Error
}

// deliverMatchesEdges 发货明细引用的边与工序当前边集合逐一对应
func deliverMatchesEdges(deliver *entity.ProductDeliverSubcont, process *entity.Process) bool {
	recordedMaterials := make([]string, len(deliver.Materials))
	for i, l := range deliver.Materials {
		recordedMaterials[i] = l.RequirementMaterialID
	}
	recordedProducts := make([]string, len(deliver.Products))
	for i, l := range deliver.Products {
		recordedProducts[i] = l.RequirementProductID
	}
	return edgeSetMatches(materialEdgeIDs(process.RequirementMaterials), recordedMaterials) &&
		edgeSetMatches(productEdgeIDs(process.RequirementProducts), recordedProducts)
}

// subcontBucketID 委外工序的委外仓
func subcontBucketID(tx *gorm.DB, processID string) (string, error) {
	var bucket entity.WarehouseProduct
	err := tx.Where("process_id = ? AND warehouse_type = ?", processID, entity.WarehouseTypeSubcontract).
		First(&bucket).Error
	if err != nil {
		return "", fmt.Errorf("process %s has no subcontract bucket: %w", processID, err)
	}
	return bucket.ID, nil
}
