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

// BOMService 产品、原材料、工序与需求边的维护。所有结构性修改都在事务内
// 锁产品行串行化，改完后统一归一化库位桶并刷新工序数缓存
type BOMService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewBOMService(db *gorm.DB, repos *repository.Repositories, logger *zap.Logger) *BOMService {
	return &BOMService{db: db, repos: repos, logger: logger}
}

// --- 产品 ---

// CreateProductInput 创建产品
type CreateProductInput struct {
	Code       string  `json:"code" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	CustomerID *string `json:"customer_id"`
}

func (s *BOMService) CreateProduct(ctx context.Context, input *CreateProductInput, userID string) (*entity.Product, error) {
	product := &entity.Product{
		ID:         newID(),
		Code:       input.Code,
		Name:       input.Name,
		CustomerID: input.CustomerID,
		CreatedBy:  userID,
	}
	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdateProductInput 更新产品主数据，不触碰工序链
type UpdateProductInput struct {
	Code       string  `json:"code" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	CustomerID *string `json:"customer_id"`
}

func (s *BOMService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.repos.Product.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Code = input.Code
	product.Name = input.Name
	product.CustomerID = input.CustomerID
	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeleteProduct 软删除产品。任一工序库存非零、尚有未关闭订单或被其他产品
// 装配引用时拒绝
func (s *BOMService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.repos.Product.FindByID(ctx, id); err != nil {
		return err
	}
	total, err := s.repos.Stock.SumProductStock(ctx, id)
	if err != nil {
		return err
	}
	if total > 0 {
		return &entity.ConflictError{Resource: "product", ID: id, Reason: "process buckets still hold stock"}
	}
	open, err := s.repos.Product.HasOpenOrders(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return &entity.ConflictError{Resource: "product", ID: id, Reason: "product has open sales orders"}
	}
	used, err := s.repos.Product.IsAssemblyChild(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return &entity.ConflictError{Resource: "product", ID: id, Reason: "product is an assembly child of another product"}
	}
	return s.repos.Product.Delete(ctx, id)
}

func (s *BOMService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	return s.repos.Product.FindByID(ctx, id)
}

func (s *BOMService) ListProducts(ctx context.Context, params repository.ProductListParams) ([]entity.Product, int64, error) {
	return s.repos.Product.List(ctx, params)
}

// --- 原材料 ---

// MaterialInput 原材料主数据
type MaterialInput struct {
	Code       string  `json:"code" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Unit       string  `json:"unit"`
	SupplierID *string `json:"supplier_id"`
}

func (s *BOMService) CreateMaterial(ctx context.Context, input *MaterialInput, userID string) (*entity.Material, error) {
	material := &entity.Material{
		ID:         newID(),
		Code:       input.Code,
		Name:       input.Name,
		Unit:       input.Unit,
		SupplierID: input.SupplierID,
		CreatedBy:  userID,
	}
	if material.Unit == "" {
		material.Unit = "pcs"
	}
	if err := s.repos.Product.CreateMaterial(ctx, material); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}
	return material, nil
}

func (s *BOMService) UpdateMaterial(ctx context.Context, id string, input *MaterialInput) (*entity.Material, error) {
	material, err := s.repos.Product.FindMaterialByID(ctx, id)
	if err != nil {
		return nil, err
	}
	material.Code = input.Code
	material.Name = input.Name
	if input.Unit != "" {
		material.Unit = input.Unit
	}
	material.SupplierID = input.SupplierID
	if err := s.repos.Product.UpdateMaterial(ctx, material); err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	return material, nil
}

// DeleteMaterial 软删除原材料。仍有库存或被任何工序用料边引用时拒绝
func (s *BOMService) DeleteMaterial(ctx context.Context, id string) error {
	material, err := s.repos.Product.FindMaterialByID(ctx, id)
	if err != nil {
		return err
	}
	stock, err := s.repos.Stock.FindMaterialStock(ctx, id)
	if err != nil && err != repository.ErrNotFound {
		return err
	}
	if stock != nil && stock.Quantity > 0 {
		return &entity.ConflictError{Resource: "material", ID: id, Reason: "material still holds stock"}
	}
	var refs int64
	if err := s.db.WithContext(ctx).Model(&entity.RequirementMaterial{}).
		Where("material_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return &entity.ConflictError{Resource: "material", ID: id, Reason: "material is referenced by requirement edges"}
	}
	return s.db.WithContext(ctx).Delete(material).Error
}

func (s *BOMService) GetMaterial(ctx context.Context, id string) (*entity.Material, error) {
	return s.repos.Product.FindMaterialByID(ctx, id)
}

func (s *BOMService) ListMaterials(ctx context.Context, keyword string, page, size int) ([]entity.Material, int64, error) {
	return s.repos.Product.ListMaterials(ctx, keyword, page, size)
}

// --- 工序 ---

// MaterialEdgeInput 工序用料边。ID为空表示新增，携带ID表示更新既有边
type MaterialEdgeInput struct {
	ID         string `json:"id"`
	MaterialID string `json:"material_id" binding:"required"`
	Input      int64  `json:"input" binding:"required,gte=1"`
	Output     int64  `json:"output" binding:"required,gte=1"`
}

// ProductEdgeInput 装配边，ProductID为被消耗的子产品
type ProductEdgeInput struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id" binding:"required"`
	Input     int64  `json:"input" binding:"required,gte=1"`
	Output    int64  `json:"output" binding:"required,gte=1"`
}

// ProcessInput 创建/更新工序
type ProcessInput struct {
	Name      string              `json:"name" binding:"required"`
	Order     int                 `json:"order" binding:"required,gte=1"`
	Type      string              `json:"type"`
	Materials []MaterialEdgeInput `json:"materials" binding:"dive"`
	Products  []ProductEdgeInput  `json:"products" binding:"dive"`
}

// CreateProcess 在产品工序链末尾追加一道工序。只允许追加到 N+1 位
func (s *BOMService) CreateProcess(ctx context.Context, productID string, input *ProcessInput, userID string) (*entity.Process, error) {
	if input.Type == "" {
		input.Type = entity.ProcessTypeNormal
	}
	if input.Type != entity.ProcessTypeNormal && input.Type != entity.ProcessTypeSubcontract {
		return nil, fmt.Errorf("unknown process type %q", input.Type)
	}
	if err := s.checkAssemblyCycle(ctx, productID, childIDs(input.Products)); err != nil {
		return nil, err
	}
	process := &entity.Process{
		ID:        newID(),
		ProductID: productID,
		Name:      input.Name,
		Order:     input.Order,
		Type:      input.Type,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, procs, err := s.lockProduct(tx, productID)
		if err != nil {
			return err
		}
		if input.Order != len(procs)+1 {
			return &entity.InvalidProcessPositionError{ProductID: productID, Order: input.Order, Count: len(procs)}
		}
		if err := tx.Create(process).Error; err != nil {
			return fmt.Errorf("create process: %w", err)
		}
		if err := s.reconcileMaterialEdges(tx, process.ID, nil, input.Materials); err != nil {
			return err
		}
		if err := s.reconcileProductEdges(tx, process.ID, nil, input.Products); err != nil {
			return err
		}
		procs = append(procs, *process)
		if err := s.normalizeBuckets(tx, procs); err != nil {
			return err
		}
		return s.saveProcessCount(tx, product, len(procs))
	})
	if err != nil {
		return nil, err
	}
	return s.repos.BOM.FindProcessByID(ctx, process.ID)
}

// UpdateProcess 更新工序：改名、改类型、移动序号、按边ID对账需求边。
// 序号移动按先摘除再插入处理，其余工序顺延并重归一化库位
func (s *BOMService) UpdateProcess(ctx context.Context, processID string, input *ProcessInput) (*entity.Process, error) {
	if input.Type == "" {
		input.Type = entity.ProcessTypeNormal
	}
	if input.Type != entity.ProcessTypeNormal && input.Type != entity.ProcessTypeSubcontract {
		return nil, fmt.Errorf("unknown process type %q", input.Type)
	}
	current, err := s.repos.BOM.FindProcessByID(ctx, processID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssemblyCycle(ctx, current.ProductID, childIDs(input.Products)); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, procs, err := s.lockProduct(tx, current.ProductID)
		if err != nil {
			return err
		}
		idx := indexOfProcess(procs, processID)
		if idx < 0 {
			return repository.ErrNotFound
		}
		if input.Order < 1 || input.Order > len(procs) {
			return &entity.InvalidProcessPositionError{ProductID: current.ProductID, Order: input.Order, Count: len(procs)}
		}
		procs[idx].Name = input.Name
		procs[idx].Type = input.Type
		procs = moveProcess(procs, idx, input.Order-1)
		for i := range procs {
			procs[i].Order = i + 1
			if err := tx.Model(&entity.Process{}).Where("id = ?", procs[i].ID).
				Updates(map[string]interface{}{
					"name":          procs[i].Name,
					"process_order": procs[i].Order,
					"type":          procs[i].Type,
				}).Error; err != nil {
				return fmt.Errorf("update process %s: %w", procs[i].ID, err)
			}
		}
		if err := s.reconcileMaterialEdges(tx, processID, current.RequirementMaterials, input.Materials); err != nil {
			return err
		}
		if err := s.reconcileProductEdges(tx, processID, current.RequirementProducts, input.Products); err != nil {
			return err
		}
		if err := s.normalizeBuckets(tx, procs); err != nil {
			return err
		}
		return s.saveProcessCount(tx, product, len(procs))
	})
	if err != nil {
		return nil, err
	}
	return s.repos.BOM.FindProcessByID(ctx, processID)
}

// DeleteProcess 删除工序。要求该工序所有库位桶数量为零；删除后其余工序
// 序号压实，新的末道工序接管成品仓
func (s *BOMService) DeleteProcess(ctx context.Context, processID string) error {
	current, err := s.repos.BOM.FindProcessByID(ctx, processID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, procs, err := s.lockProduct(tx, current.ProductID)
		if err != nil {
			return err
		}
		idx := indexOfProcess(procs, processID)
		if idx < 0 {
			return repository.ErrNotFound
		}
		var buckets []entity.WarehouseProduct
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("process_id = ?", processID).Find(&buckets).Error; err != nil {
			return err
		}
		for _, b := range buckets {
			if b.Quantity != 0 {
				return &entity.ConflictError{Resource: "process", ID: processID, Reason: "bucket still holds stock"}
			}
		}
		if err := tx.Where("process_id = ?", processID).Delete(&entity.RequirementMaterial{}).Error; err != nil {
			return err
		}
		if err := tx.Where("process_id = ?", processID).Delete(&entity.RequirementProduct{}).Error; err != nil {
			return err
		}
		if err := tx.Where("process_id = ?", processID).Delete(&entity.WarehouseProduct{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.Process{}, "id = ?", processID).Error; err != nil {
			return err
		}
		procs = append(procs[:idx], procs[idx+1:]...)
		for i := range procs {
			procs[i].Order = i + 1
			if err := tx.Model(&entity.Process{}).Where("id = ?", procs[i].ID).
				Update("process_order", procs[i].Order).Error; err != nil {
				return err
			}
		}
		if err := s.normalizeBuckets(tx, procs); err != nil {
			return err
		}
		return s.saveProcessCount(tx, product, len(procs))
	})
}

func (s *BOMService) GetProcess(ctx context.Context, id string) (*entity.Process, error) {
	return s.repos.BOM.FindProcessByID(ctx, id)
}

func (s *BOMService) ListProcesses(ctx context.Context, productID string) ([]entity.Process, error) {
	return s.repos.BOM.ListProcesses(ctx, productID)
}

// --- 内部 ---

// lockProduct 锁产品行并加载当前工序链，结构性修改的入口
func (s *BOMService) lockProduct(tx *gorm.DB, productID string) (*entity.Product, []entity.Process, error) {
	var product entity.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}
	var procs []entity.Process
	if err := tx.Where("product_id = ?", productID).
		Order("process_order ASC").Find(&procs).Error; err != nil {
		return nil, nil, err
	}
	return &product, procs, nil
}

func (s *BOMService) saveProcessCount(tx *gorm.DB, product *entity.Product, count int) error {
	return tx.Model(product).Update("process_count", count).Error
}

// checkAssemblyCycle 从每个子产品沿装配边DFS，可达本产品即成环
func (s *BOMService) checkAssemblyCycle(ctx context.Context, productID string, children []string) error {
	visited := make(map[string]bool)
	var reachable func(id string) (bool, error)
	reachable = func(id string) (bool, error) {
		if id == productID {
			return true, nil
		}
		if visited[id] {
			return false, nil
		}
		visited[id] = true
		edges, err := s.repos.BOM.ListAssemblyEdges(ctx, id)
		if err != nil {
			return false, err
		}
		for _, edge := range edges {
			hit, err := reachable(edge.ProductID)
			if err != nil || hit {
				return hit, err
			}
		}
		return false, nil
	}
	for _, child := range children {
		hit, err := reachable(child)
		if err != nil {
			return err
		}
		if hit {
			return &entity.AssemblyCycleError{ProductID: productID, ChildID: child}
		}
	}
	return nil
}

// reconcileMaterialEdges 按边ID对账：携带ID的更新，未携带的新增，
// 输入中缺席的既有边删除。绝不按位置匹配
func (s *BOMService) reconcileMaterialEdges(tx *gorm.DB, processID string, existing []entity.RequirementMaterial, inputs []MaterialEdgeInput) error {
	keep := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.ID != "" {
			keep[in.ID] = true
			if err := tx.Model(&entity.RequirementMaterial{}).Where("id = ? AND process_id = ?", in.ID, processID).
				Updates(map[string]interface{}{
					"material_id": in.MaterialID,
					"input":       in.Input,
					"output":      in.Output,
				}).Error; err != nil {
				return fmt.Errorf("update material edge %s: %w", in.ID, err)
			}
			continue
		}
		edge := &entity.RequirementMaterial{
			ID:         newID(),
			ProcessID:  processID,
			MaterialID: in.MaterialID,
			Input:      in.Input,
			Output:     in.Output,
		}
		if err := tx.Create(edge).Error; err != nil {
			return fmt.Errorf("create material edge: %w", err)
		}
	}
	for _, old := range existing {
		if !keep[old.ID] {
			if err := tx.Delete(&entity.RequirementMaterial{}, "id = ?", old.ID).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BOMService) reconcileProductEdges(tx *gorm.DB, processID string, existing []entity.RequirementProduct, inputs []ProductEdgeInput) error {
	keep := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.ID != "" {
			keep[in.ID] = true
			if err := tx.Model(&entity.RequirementProduct{}).Where("id = ? AND process_id = ?", in.ID, processID).
				Updates(map[string]interface{}{
					"product_id": in.ProductID,
					"input":      in.Input,
					"output":     in.Output,
				}).Error; err != nil {
				return fmt.Errorf("update product edge %s: %w", in.ID, err)
			}
			continue
		}
		edge := &entity.RequirementProduct{
			ID:        newID(),
			ProcessID: processID,
			ProductID: in.ProductID,
			Input:     in.Input,
			Output:    in.Output,
		}
		if err := tx.Create(edge).Error; err != nil {
			return fmt.Errorf("create product edge: %w", err)
		}
	}
	for _, old := range existing {
		if !keep[old.ID] {
			if err := tx.Delete(&entity.RequirementProduct{}, "id = ?", old.ID).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeBuckets 结构性修改后重排库位桶：末道工序持成品仓，其余持与序号
// 绑定的WIP仓；委外工序另持委外仓。主桶改型保留桶ID，库存随桶走；取消委外
// 时委外仓余量并入主桶
func (s *BOMService) normalizeBuckets(tx *gorm.DB, procs []entity.Process) error {
	n := len(procs)
	for i := range procs {
		p := &procs[i]
		expected := entity.WipWarehouseType(p.Order)
		if p.Order == n {
			expected = entity.WarehouseTypeFinishedGood
		}
		var buckets []entity.WarehouseProduct
		if err := tx.Where("process_id = ?", p.ID).Find(&buckets).Error; err != nil {
			return err
		}
		var primary, subcont *entity.WarehouseProduct
		for j := range buckets {
			if buckets[j].WarehouseType == entity.WarehouseTypeSubcontract {
				subcont = &buckets[j]
				continue
			}
			if primary == nil {
				primary = &buckets[j]
				continue
			}
			// 冗余主桶，余量并入首个主桶后删除
			primary.Quantity += buckets[j].Quantity
			if err := tx.Delete(&entity.WarehouseProduct{}, "id = ?", buckets[j].ID).Error; err != nil {
				return err
			}
		}
		if primary == nil {
			primary = &entity.WarehouseProduct{ID: newID(), ProcessID: p.ID, WarehouseType: expected}
			if err := tx.Create(primary).Error; err != nil {
				return fmt.Errorf("create bucket for process %s: %w", p.ID, err)
			}
		}
		if !p.IsSubcontract() && subcont != nil {
			primary.Quantity += subcont.Quantity
			if err := tx.Delete(&entity.WarehouseProduct{}, "id = ?", subcont.ID).Error; err != nil {
				return err
			}
		}
		if p.IsSubcontract() && subcont == nil {
			bucket := &entity.WarehouseProduct{ID: newID(), ProcessID: p.ID, WarehouseType: entity.WarehouseTypeSubcontract}
			if err := tx.Create(bucket).Error; err != nil {
				return fmt.Errorf("create subcontract bucket for process %s: %w", p.ID, err)
			}
		}
		primary.WarehouseType = expected
		if err := tx.Save(primary).Error; err != nil {
			return fmt.Errorf("save bucket %s: %w", primary.ID, err)
		}
	}
	return nil
}

func childIDs(inputs []ProductEdgeInput) []string {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	return ids
}

func indexOfProcess(procs []entity.Process, id string) int {
	for i := range procs {
		if procs[i].ID == id {
			return i
		}
	}
	return -1
}

// moveProcess 把工序从from摘除后插入to，其余元素顺延
func moveProcess(procs []entity.Process, from, to int) []entity.Process {
	if from == to {
		return procs
	}
	moved := procs[from]
	procs = append(procs[:from], procs[from+1:]...)
	out := make([]entity.Process, 0, len(procs)+1)
	out = append(out, procs[:to]...)
	out = append(out, moved)
	out = append(out, procs[to:]...)
	return out
}
