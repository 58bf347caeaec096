package repository

import (
	"context"
	"errors"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"gorm.io/gorm"
)

type ProductionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

func (r *ProductionRepository) FindReportByID(ctx context.Context, id string) (*entity.ProductionReport, error) {
	var report entity.ProductionReport
	err := r.db.WithContext(ctx).Preload("Materials").Preload("Products").
		Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &report, err
}

func (r *ProductionRepository) ListReports(ctx context.Context, processID string, page, size int) ([]entity.ProductionReport, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ProductionReport{})
	if processID != "" {
		query = query.Where("process_id = ?", processID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var reports []entity.ProductionReport
	err := query.Preload("Materials").Preload("Products").
		Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&reports).Error
	return reports, total, err
}

func (r *ProductionRepository) FindDeliverSubcontByID(ctx context.Context, id string) (*entity.ProductDeliverSubcont, error) {
	var deliver entity.ProductDeliverSubcont
	err := r.db.WithContext(ctx).Preload("Materials").Preload("Products").
		Where("id = ?", id).First(&deliver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &deliver, err
}

func (r *ProductionRepository) FindSubcontReceiptByID(ctx context.Context, id string) (*entity.SubcontReceipt, error) {
	var receipt entity.SubcontReceipt
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &receipt, err
}

func (r *ProductionRepository) FindDeliveryByID(ctx context.Context, id string) (*entity.ProductDelivery, error) {
	var delivery entity.ProductDelivery
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&delivery).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &delivery, err
}

func (r *ProductionRepository) FindMaterialReceiptByID(ctx context.Context, id string) (*entity.MaterialReceipt, error) {
	var receipt entity.MaterialReceipt
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &receipt, err
}
