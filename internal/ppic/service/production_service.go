package service

import (
	"context"
	"fmt"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductionService 生产报工。一张报工单在单个事务内完成：锁上游库存、
// 按BOM边扣减（良品+不良 驱动消耗）、良品入本工序库位，同时落扣减明细，
// 供后续编辑/删除反冲
type ProductionService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	stock  *StockService
	logger *zap.Logger
}

func NewProductionService(db *gorm.DB, repos *repository.Repositories, stock *StockService, logger *zap.Logger) *ProductionService {
	return &ProductionService{db: db, repos: repos, stock: stock, logger: logger}
}

// ProductionReportInput 报工单输入
type ProductionReportInput struct {
	ProcessID       string `json:"process_id" binding:"required"`
	Quantity        int64  `json:"quantity" binding:"gte=0"`
	QuantityNotGood int64  `json:"quantity_not_good" binding:"gte=0"`
	OperatorID      string `json:"operator_id"`
	MachineID       string `json:"machine_id"`
	Notes           string `json:"notes"`
}

// consumptionPlan 一笔报工/委外发货的全部库存增量，先算全、后落账
type consumptionPlan struct {
	prevBucketID string
	attempted    int64
	materials    []materialConsumption
	products     []productConsumption
}

type materialConsumption struct {
	edgeID     string
	materialID string
	used       int64
	scrap      float64
}

type productConsumption struct {
	edgeID   string
	childID  string
	bucketID string
	used     int64
}

// CreateReport 新建报工单
func (s *ProductionService) CreateReport(ctx context.Context, input *ProductionReportInput, userID string) (*entity.ProductionReport, error) {
	if input.Quantity+input.QuantityNotGood <= 0 {
		return nil, fmt.Errorf("report quantity must be positive")
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, input.ProcessID)
	if err != nil {
		return nil, err
	}
	report := &entity.ProductionReport{
		ID:              newID(),
		Code:            newDocCode("PR"),
		ProcessID:       process.ID,
		ProductID:       process.ProductID,
		Quantity:        input.Quantity,
		QuantityNotGood: input.QuantityNotGood,
		OperatorID:      input.OperatorID,
		MachineID:       input.MachineID,
		Notes:           input.Notes,
		CreatedBy:       userID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := planConsumption(tx, process, input.Quantity+input.QuantityNotGood)
		if err != nil {
			return err
		}
		if err := tx.Create(report).Error; err != nil {
			return fmt.Errorf("create production report: %w", err)
		}
		if err := applyPlan(s.stock, tx, plan, entity.DocTypeProduction, report.ID, userID, false); err != nil {
			return err
		}
		if err := s.creditOutput(tx, process, input.Quantity, entity.DocTypeProduction, report.ID, userID, false); err != nil {
			return err
		}
		return s.saveReportLines(tx, report.ID, plan)
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return s.repos.Production.FindReportByID(ctx, report.ID)
}

// UpdateReport 编辑报工单：先按留存明细整体反冲，再按当前BOM边重新过账。
// 工序的需求边集合与下单时不一致则拒绝编辑
func (s *ProductionService) UpdateReport(ctx context.Context, id string, input *ProductionReportInput, userID string) (*entity.ProductionReport, error) {
	if input.Quantity+input.QuantityNotGood <= 0 {
		return nil, fmt.Errorf("report quantity must be positive")
	}
	report, err := s.repos.Production.FindReportByID(ctx, id)
	if err != nil {
		return nil, err
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, report.ProcessID)
	if err != nil {
		return nil, err
	}
	if !reportMatchesEdges(report, process) {
		return nil, &entity.LockedRecordError{RecordID: id, ProcessID: process.ID}
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reverseReport(tx, report, process, userID); err != nil {
			return err
		}
		plan, err := planConsumption(tx, process, input.Quantity+input.QuantityNotGood)
		if err != nil {
			return err
		}
		if err := applyPlan(s.stock, tx, plan, entity.DocTypeProduction, report.ID, userID, false); err != nil {
			return err
		}
		if err := s.creditOutput(tx, process, input.Quantity, entity.DocTypeProduction, report.ID, userID, false); err != nil {
			return err
		}
		if err := tx.Model(report).Updates(map[string]interface{}{
			"quantity":          input.Quantity,
			"quantity_not_good": input.QuantityNotGood,
			"operator_id":       input.OperatorID,
			"machine_id":        input.MachineID,
			"notes":             input.Notes,
		}).Error; err != nil {
			return fmt.Errorf("update production report: %w", err)
		}
		if err := s.deleteReportLines(tx, report.ID); err != nil {
			return err
		}
		return s.saveReportLines(tx, report.ID, plan)
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return s.repos.Production.FindReportByID(ctx, id)
}

// DeleteReport 删除报工单并整体反冲。良品已被下游消耗时反冲不足，删除被拒
func (s *ProductionService) DeleteReport(ctx context.Context, id string, userID string) error {
	report, err := s.repos.Production.FindReportByID(ctx, id)
	if err != nil {
		return err
	}
	process, err := s.repos.BOM.FindProcessByID(ctx, report.ProcessID)
	if err != nil {
		return err
	}
	if !reportMatchesEdges(report, process) {
		return &entity.LockedRecordError{RecordID: id, ProcessID: process.ID}
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reverseReport(tx, report, process, userID); err != nil {
			return err
		}
		if err := s.deleteReportLines(tx, report.ID); err != nil {
			return err
		}
		return tx.Delete(&entity.ProductionReport{}, "id = ?", report.ID).Error
	})
	if err != nil {
		return err
	}
	s.stock.InvalidateRecommendationCache(ctx)
	return nil
}

func (s *ProductionService) GetReport(ctx context.Context, id string) (*entity.ProductionReport, error) {
	return s.repos.Production.FindReportByID(ctx, id)
}

func (s *ProductionService) ListReports(ctx context.Context, processID string, page, size int) ([]entity.ProductionReport, int64, error) {
	return s.repos.Production.ListReports(ctx, processID, page, size)
}

// --- 内部 ---

// planConsumption 按当前BOM边算出一次投产的全部扣减：上游工序主桶、
// 原材料（向上取整并记碎料）、子产品成品仓
func planConsumption(tx *gorm.DB, process *entity.Process, attempted int64) (*consumptionPlan, error) {
	plan := &consumptionPlan{attempted: attempted}
	if process.Order > 1 {
		prevID, err := siblingBucketID(tx, process.ProductID, process.Order-1)
		if err != nil {
			return nil, err
		}
		plan.prevBucketID = prevID
	}
	for _, edge := range process.RequirementMaterials {
		used := ceilDiv(attempted*edge.Input, edge.Output)
		scrap := float64(used) - float64(attempted*edge.Input)/float64(edge.Output)
		plan.materials = append(plan.materials, materialConsumption{
			edgeID:     edge.ID,
			materialID: edge.MaterialID,
			used:       used,
			scrap:      scrap,
		})
	}
	for _, edge := range process.RequirementProducts {
		bucketID, err := finishedGoodBucketID(tx, edge.ProductID)
		if err != nil {
			return nil, err
		}
		used := ceilDiv(attempted, edge.Output) * edge.Input
		plan.products = append(plan.products, productConsumption{
			edgeID:   edge.ID,
			childID:  edge.ProductID,
			bucketID: bucketID,
			used:     used,
		})
	}
	return plan, nil
}

// applyPlan 落账。reverse为true时按相反符号整体反冲
func applyPlan(stock *StockService, tx *gorm.DB, plan *consumptionPlan, docType, docID, userID string, reverse bool) error {
	sign := int64(-1)
	if reverse {
		sign = 1
		docType = entity.DocTypeReversal
	}
	if plan.prevBucketID != "" {
		if err := stock.ApplyBucketDelta(tx, plan.prevBucketID, sign*plan.attempted, docType, docID, userID); err != nil {
			return err
		}
	}
	for _, m := range plan.materials {
		if err := stock.ApplyMaterialDelta(tx, m.materialID, sign*m.used, float64(sign)*m.scrap, docType, docID, userID); err != nil {
			return err
		}
	}
	for _, p := range plan.products {
		if err := stock.ApplyBucketDelta(tx, p.bucketID, sign*p.used, docType, docID, userID); err != nil {
			return err
		}
	}
	return nil
}

// creditOutput 良品入本工序主桶
func (s *ProductionService) creditOutput(tx *gorm.DB, process *entity.Process, good int64, docType, docID, userID string, reverse bool) error {
	if good == 0 {
		return nil
	}
	sign := int64(1)
	if reverse {
		sign = -1
		docType = entity.DocTypeReversal
	}
	ownID, err := siblingBucketID(tx, process.ProductID, process.Order)
	if err != nil {
		return err
	}
	return s.stock.ApplyBucketDelta(tx, ownID, sign*good, docType, docID, userID)
}

// reverseReport 按留存明细反向过账
func (s *ProductionService) reverseReport(tx *gorm.DB, report *entity.ProductionReport, process *entity.Process, userID string) error {
	plan := &consumptionPlan{attempted: report.Quantity + report.QuantityNotGood}
	if process.Order > 1 {
		prevID, err := siblingBucketID(tx, process.ProductID, process.Order-1)
		if err != nil {
			return err
		}
		plan.prevBucketID = prevID
	}
	for _, line := range report.Materials {
		plan.materials = append(plan.materials, materialConsumption{
			edgeID:     line.RequirementMaterialID,
			materialID: line.MaterialID,
			used:       line.Quantity,
			scrap:      line.Scrap,
		})
	}
	for _, line := range report.Products {
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
	if err := s.creditOutput(tx, process, report.Quantity, entity.DocTypeProduction, report.ID, userID, true); err != nil {
		return err
	}
	return applyPlan(s.stock, tx, plan, entity.DocTypeProduction, report.ID, userID, true)
}

func (s *ProductionService) saveReportLines(tx *gorm.DB, reportID string, plan *consumptionPlan) error {
	for _, m := range plan.materials {
		line := &entity.MaterialProductionReport{
			ID:                    newID(),
			ReportID:              reportID,
			RequirementMaterialID: m.edgeID,
			MaterialID:            m.materialID,
			Quantity:              m.used,
			Scrap:                 m.scrap,
		}
		if err := tx.Create(line).Error; err != nil {
			return fmt.Errorf("create report material line: %w", err)
		}
	}
	for _, p := range plan.products {
		line := &entity.ProductProductionReport{
			ID:                   newID(),
			ReportID:             reportID,
			RequirementProductID: p.edgeID,
			ProductID:            p.childID,
			Quantity:             p.used,
		}
		if err := tx.Create(line).Error; err != nil {
			return fmt.Errorf("create report product line: %w", err)
		}
	}
	return nil
}

func (s *ProductionService) deleteReportLines(tx *gorm.DB, reportID string) error {
	if err := tx.Where("report_id = ?", reportID).Delete(&entity.MaterialProductionReport{}).Error; err != nil {
		return err
	}
	return tx.Where("report_id = ?", reportID).Delete(&entity.ProductProductionReport{}).Error
}

// reportMatchesEdges 留存明细引用的边与工序当前边集合逐一对应
func reportMatchesEdges(report *entity.ProductionReport, process *entity.Process) bool {
	return edgeSetMatches(
		materialEdgeIDs(process.RequirementMaterials),
		func() []string {
			ids := make([]string, len(report.Materials))
			for i, l := range report.Materials {
				ids[i] = l.RequirementMaterialID
			}
			return ids
		}(),
	) && edgeSetMatches(
		productEdgeIDs(process.RequirementProducts),
		func() []string {
			ids := make([]string, len(report.Products))
			for i, l := range report.Products {
				ids[i] = l.RequirementProductID
			}
			return ids
		}(),
	)
}

func edgeSetMatches(current, recorded []string) bool {
	if len(current) != len(recorded) {
		return false
	}
	set := make(map[string]bool, len(current))
	for _, id := range current {
		set[id] = true
	}
	for _, id := range recorded {
		if !set[id] {
			return false
		}
	}
	return true
}

func materialEdgeIDs(edges []entity.RequirementMaterial) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}

func productEdgeIDs(edges []entity.RequirementProduct) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}

// siblingBucketID 同一产品某道工序的主桶（成品仓或WIP仓）
func siblingBucketID(tx *gorm.DB, productID string, order int) (string, error) {
	var bucket entity.WarehouseProduct
	err := tx.Raw(`
		SELECT w.* FROM ppic_warehouse_products w
		JOIN ppic_processes p ON p.id = w.process_id
		WHERE p.product_id = ? AND p.process_order = ? AND w.warehouse_type <> ?
	`, productID, order, entity.WarehouseTypeSubcontract).Scan(&bucket).Error
	if err != nil {
		return "", err
	}
	if bucket.ID == "" {
		return "", fmt.Errorf("product %s has no bucket at process %d", productID, order)
	}
	return bucket.ID, nil
}

// finishedGoodBucketID 子产品成品仓
func finishedGoodBucketID(tx *gorm.DB, productID string) (string, error) {
	var bucket entity.WarehouseProduct
	err := tx.Raw(`
		SELECT w.* FROM ppic_warehouse_products w
		JOIN ppic_processes p ON p.id = w.process_id
		WHERE p.product_id = ? AND w.warehouse_type = ?
	`, productID, entity.WarehouseTypeFinishedGood).Scan(&bucket).Error
	if err != nil {
		return "", err
	}
	if bucket.ID == "" {
		return "", fmt.Errorf("product %s has no finished good bucket", productID)
	}
	return bucket.ID, nil
}
