package repository

import (
	"context"
	"errors"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

func (r *BOMRepository) FindProcessByID(ctx context.Context, id string) (*entity.Process, error) {
	var p entity.Process
	err := r.db.WithContext(ctx).
		Preload("Buckets").
		Preload("RequirementMaterials").
		Preload("RequirementProducts").
		Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &p, err
}

// ListProcesses 按序号升序返回产品工序链，含库存桶与需求边
func (r *BOMRepository) ListProcesses(ctx context.Context, productID string) ([]entity.Process, error) {
	var processes []entity.Process
	err := r.db.WithContext(ctx).
		Preload("Buckets").
		Preload("RequirementMaterials").
		Preload("RequirementProducts").
		Where("product_id = ?", productID).
		Order("process_order ASC").
		Find(&processes).Error
	return processes, err
}

// ListAssemblyEdges 返回某产品全部工序上的装配边，用于环检测的DFS
func (r *BOMRepository) ListAssemblyEdges(ctx context.Context, productID string) ([]entity.RequirementProduct, error) {
	var edges []entity.RequirementProduct
	err := r.db.WithContext(ctx).
		Joins("JOIN ppic_processes p ON p.id = ppic_requirement_products.process_id").
		Where("p.product_id = ?", productID).
		Find(&edges).Error
	return edges, err
}

func (r *BOMRepository) ListMaterialEdges(ctx context.Context, processID string) ([]entity.RequirementMaterial, error) {
	var edges []entity.RequirementMaterial
	err := r.db.WithContext(ctx).Where("process_id = ?", processID).Find(&edges).Error
	return edges, err
}

func (r *BOMRepository) ListProductEdges(ctx context.Context, processID string) ([]entity.RequirementProduct, error) {
	var edges []entity.RequirementProduct
	err := r.db.WithContext(ctx).Where("process_id = ?", processID).Find(&edges).Error
	return edges, err
}
