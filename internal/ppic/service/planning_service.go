package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recommendationCacheTTL 建议结果的缓存时长
const recommendationCacheTTL = 10 * time.Minute

// PlanningService 物料需求建议：展开净需求、对账在途与已留存建议单，
// 输出采购候选行。建议单本身支持人工增删改，编辑结果在后续对账中被保留
type PlanningService struct {
	db        *gorm.DB
	repos     *repository.Repositories
	explosion *ExplosionService
	rdb       *redis.Client
	logger    *zap.Logger
}

func NewPlanningService(db *gorm.DB, repos *repository.Repositories, explosion *ExplosionService, rdb *redis.Client, logger *zap.Logger) *PlanningService {
	return &PlanningService{db: db, repos: repos, explosion: explosion, rdb: rdb, logger: logger}
}

// RecommendationLine 一行采购建议。PlanID非空表示来自已留存的建议单
type RecommendationLine struct {
	MaterialID   string                 `json:"material_id"`
	MaterialCode string                 `json:"material_code"`
	MaterialName string                 `json:"material_name"`
	Unit         string                 `json:"unit"`
	Quantity     int64                  `json:"quantity"`
	PlanID       string                 `json:"plan_id,omitempty"`
	Details      []RecommendationDetail `json:"details,omitempty"`
}

// RecommendationDetail 建议行按产品的分摊
type RecommendationDetail struct {
	ProductID          string `json:"product_id"`
	Quantity           int64  `json:"quantity"`
	QuantityProduction int64  `json:"quantity_production"`
}

// Recommend 计算当前采购建议：未交需求 → BOM展开毛需求 → 冲减材料库存、
// 采购在途与已留存建议单，残余净需求产生新候选行；留存建议单原样带出
func (s *PlanningService) Recommend(ctx context.Context) ([]RecommendationLine, error) {
	demand, err := s.repos.Order.OutstandingDemand(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate demand: %w", err)
	}
	_, requirements, err := s.explosion.ExplodeMaterials(ctx, demand)
	if err != nil {
		return nil, fmt.Errorf("explode requirements: %w", err)
	}
	onOrder, err := s.repos.Order.MaterialsOnOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate on-order: %w", err)
	}
	plans, err := s.repos.Planning.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	plansByMaterial := make(map[string][]entity.MaterialRequirementPlanning)
	for _, plan := range plans {
		plansByMaterial[plan.MaterialID] = append(plansByMaterial[plan.MaterialID], plan)
	}

	var lines []RecommendationLine
	for materialID, req := range requirements {
		net := req.Total
		stock, err := s.repos.Stock.FindMaterialStock(ctx, materialID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if stock != nil {
			net -= stock.Quantity
		}
		net -= onOrder[materialID]

		breakdown := make(map[string]*RequirementBreakdown, len(req.Breakdown))
		for productID, b := range req.Breakdown {
			copied := *b
			breakdown[productID] = &copied
		}
		for _, plan := range plansByMaterial[materialID] {
			net -= plan.Quantity
			for _, detail := range plan.Details {
				if b, ok := breakdown[detail.ProductID]; ok {
					b.Quantity -= detail.Quantity
					b.QuantityProduction -= detail.QuantityProduction
					// 任一维度被吃满即整项剔除，不留负数分摊
					if b.Quantity <= 0 || b.QuantityProduction <= 0 {
						delete(breakdown, detail.ProductID)
					}
				}
			}
		}
		if net <= 0 {
			continue
		}
		line, err := s.buildLine(ctx, materialID, net, "", breakdownDetails(breakdown))
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	for _, plan := range plans {
		details := make([]RecommendationDetail, 0, len(plan.Details))
		for _, d := range plan.Details {
			details = append(details, RecommendationDetail{
				ProductID:          d.ProductID,
				Quantity:           d.Quantity,
				QuantityProduction: d.QuantityProduction,
			})
		}
		line, err := s.buildLine(ctx, plan.MaterialID, plan.Quantity, plan.ID, details)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].MaterialCode != lines[j].MaterialCode {
			return lines[i].MaterialCode < lines[j].MaterialCode
		}
		return lines[i].PlanID < lines[j].PlanID
	})
	return lines, nil
}

// RecommendCached 优先读缓存，未命中时计算并回填
func (s *PlanningService) RecommendCached(ctx context.Context) ([]RecommendationLine, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, recommendationCacheKey).Bytes()
		if err == nil {
			var lines []RecommendationLine
			if err := json.Unmarshal(raw, &lines); err == nil {
				return lines, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read recommendation cache failed", zap.Error(err))
		}
	}
	lines, err := s.Recommend(ctx)
	if err != nil {
		return nil, err
	}
	if s.rdb != nil {
		if raw, err := json.Marshal(lines); err == nil {
			if err := s.rdb.Set(ctx, recommendationCacheKey, raw, recommendationCacheTTL).Err(); err != nil {
				s.logger.Warn("write recommendation cache failed", zap.Error(err))
			}
		}
	}
	return lines, nil
}

// RecommendProduction 生产优先级视图：各产品扣除工序库存后仍需投产的数量
func (s *PlanningService) RecommendProduction(ctx context.Context) (map[string]int64, error) {
	demand, err := s.repos.Order.OutstandingDemand(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate demand: %w", err)
	}
	return s.explosion.ExplodeProduction(ctx, demand)
}

// --- 建议单维护 ---

// PlanDetailInput 建议单分摊行。ID为空表示新增
type PlanDetailInput struct {
	ID                 string `json:"id"`
	ProductID          string `json:"product_id" binding:"required"`
	Quantity           int64  `json:"quantity" binding:"required,gt=0"`
	QuantityProduction int64  `json:"quantity_production" binding:"gte=0"`
}

// PlanInput 创建/更新建议单
type PlanInput struct {
	MaterialID string            `json:"material_id" binding:"required"`
	Quantity   int64             `json:"quantity" binding:"required,gt=0"`
	Details    []PlanDetailInput `json:"details" binding:"dive"`
}

func (s *PlanningService) CreatePlan(ctx context.Context, input *PlanInput, userID string) (*entity.MaterialRequirementPlanning, error) {
	if _, err := s.repos.Product.FindMaterialByID(ctx, input.MaterialID); err != nil {
		return nil, err
	}
	plan := &entity.MaterialRequirementPlanning{
		ID:         newID(),
		MaterialID: input.MaterialID,
		Quantity:   input.Quantity,
		CreatedBy:  userID,
	}
	for _, d := range input.Details {
		plan.Details = append(plan.Details, entity.DetailMrp{
			ID:                 newID(),
			ProductID:          d.ProductID,
			Quantity:           d.Quantity,
			QuantityProduction: d.QuantityProduction,
		})
	}
	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	s.invalidate(ctx)
	return s.repos.Planning.FindByID(ctx, plan.ID)
}

// UpdatePlan 按明细ID对账分摊行：携带ID的更新，未携带的新增，缺席的删除
func (s *PlanningService) UpdatePlan(ctx context.Context, id string, input *PlanInput, userID string) (*entity.MaterialRequirementPlanning, error) {
	plan, err := s.repos.Planning.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(plan).Updates(map[string]interface{}{
			"material_id": input.MaterialID,
			"quantity":    input.Quantity,
		}).Error; err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		keep := make(map[string]bool, len(input.Details))
		for _, d := range input.Details {
			if d.ID != "" {
				keep[d.ID] = true
				if err := tx.Model(&entity.DetailMrp{}).Where("id = ? AND mrp_id = ?", d.ID, plan.ID).
					Updates(map[string]interface{}{
						"product_id":          d.ProductID,
						"quantity":            d.Quantity,
						"quantity_production": d.QuantityProduction,
					}).Error; err != nil {
					return fmt.Errorf("update plan detail %s: %w", d.ID, err)
				}
				continue
			}
			detail := &entity.DetailMrp{
				ID:                 newID(),
				MrpID:              plan.ID,
				ProductID:          d.ProductID,
				Quantity:           d.Quantity,
				QuantityProduction: d.QuantityProduction,
			}
			if err := tx.Create(detail).Error; err != nil {
				return fmt.Errorf("create plan detail: %w", err)
			}
		}
		for _, old := range plan.Details {
			if !keep[old.ID] {
				if err := tx.Delete(&entity.DetailMrp{}, "id = ?", old.ID).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repos.Planning.FindByID(ctx, id)
}

func (s *PlanningService) DeletePlan(ctx context.Context, id string) error {
	plan, err := s.repos.Planning.FindByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mrp_id = ?", plan.ID).Delete(&entity.DetailMrp{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.MaterialRequirementPlanning{}, "id = ?", plan.ID).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *PlanningService) GetPlan(ctx context.Context, id string) (*entity.MaterialRequirementPlanning, error) {
	return s.repos.Planning.FindByID(ctx, id)
}

func (s *PlanningService) ListPlans(ctx context.Context) ([]entity.MaterialRequirementPlanning, error) {
	return s.repos.Planning.List(ctx)
}

// ExportExcel 导出当前建议为工作簿，一行一个建议行，分摊行换行展开
func (s *PlanningService) ExportExcel(ctx context.Context) (*excelize.File, error) {
	lines, err := s.Recommend(ctx)
	if err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	sheet := "MRP"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"Material Code", "Material Name", "Unit", "Quantity", "Source", "Product", "Detail Qty", "Production Qty"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	row := 2
	for _, line := range lines {
		source := "recommended"
		if line.PlanID != "" {
			source = "planned"
		}
		if len(line.Details) == 0 {
			s.writeExportRow(f, sheet, row, line, source, nil)
			row++
			continue
		}
		for i := range line.Details {
			s.writeExportRow(f, sheet, row, line, source, &line.Details[i])
			row++
		}
	}
	return f, nil
}

func (s *PlanningService) writeExportRow(f *excelize.File, sheet string, row int, line RecommendationLine, source string, detail *RecommendationDetail) {
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.MaterialCode)
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.MaterialName)
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.Unit)
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Quantity)
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), source)
	if detail != nil {
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), detail.ProductID)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), detail.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), detail.QuantityProduction)
	}
}

// --- 内部 ---

func (s *PlanningService) buildLine(ctx context.Context, materialID string, quantity int64, planID string, details []RecommendationDetail) (RecommendationLine, error) {
	line := RecommendationLine{
		MaterialID: materialID,
		Quantity:   quantity,
		PlanID:     planID,
		Details:    details,
	}
	material, err := s.repos.Product.FindMaterialByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return line, nil
		}
		return line, err
	}
	line.MaterialCode = material.Code
	line.MaterialName = material.Name
	line.Unit = material.Unit
	return line, nil
}

func breakdownDetails(breakdown map[string]*RequirementBreakdown) []RecommendationDetail {
	details := make([]RecommendationDetail, 0, len(breakdown))
	for _, b := range breakdown {
		details = append(details, RecommendationDetail{
			ProductID:          b.ProductID,
			Quantity:           b.Quantity,
			QuantityProduction: b.QuantityProduction,
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].ProductID < details[j].ProductID })
	return details
}

func (s *PlanningService) invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, recommendationCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("invalidate recommendation cache failed", zap.Error(err))
	}
}
