package repository

import (
	"context"
	"errors"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"gorm.io/gorm"
)

type PlanningRepository struct {
	db *gorm.DB
}

func NewPlanningRepository(db *gorm.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

func (r *PlanningRepository) FindByID(ctx context.Context, id string) (*entity.MaterialRequirementPlanning, error) {
	var plan entity.MaterialRequirementPlanning
	err := r.db.WithContext(ctx).Preload("Details").Preload("Material").
		Where("id = ?", id).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &plan, err
}

// List 返回全部需求建议单，含分解行
func (r *PlanningRepository) List(ctx context.Context) ([]entity.MaterialRequirementPlanning, error) {
	var plans []entity.MaterialRequirementPlanning
	err := r.db.WithContext(ctx).Preload("Details").Preload("Material").
		Order("created_at ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanningRepository) ListByMaterial(ctx context.Context, materialID string) ([]entity.MaterialRequirementPlanning, error) {
	var plans []entity.MaterialRequirementPlanning
	err := r.db.WithContext(ctx).Preload("Details").
		Where("material_id = ?", materialID).
		Order("created_at ASC").Find(&plans).Error
	return plans, err
}
