package repository

import (
	"context"
	"errors"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"gorm.io/gorm"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) FindBucket(ctx context.Context, processID string, warehouseType int) (*entity.WarehouseProduct, error) {
	var b entity.WarehouseProduct
	err := r.db.WithContext(ctx).
		Where("process_id = ? AND warehouse_type = ?", processID, warehouseType).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *StockRepository) ListBucketsByProcess(ctx context.Context, processID string) ([]entity.WarehouseProduct, error) {
	var buckets []entity.WarehouseProduct
	err := r.db.WithContext(ctx).Where("process_id = ?", processID).
		Order("warehouse_type ASC").Find(&buckets).Error
	return buckets, err
}

// SumProductStock 产品全部工序库存桶数量之和，用于删除守卫
func (r *StockRepository) SumProductStock(ctx context.Context, productID string) (int64, error) {
	var result struct{ Total int64 }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(w.quantity), 0) AS total
		FROM ppic_warehouse_products w
		JOIN ppic_processes p ON p.id = w.process_id
		WHERE p.product_id = ?
	`, productID).Scan(&result).Error
	return result.Total, err
}

// FindFinishedGoodBucket 产品成品仓（末道工序持有）
func (r *StockRepository) FindFinishedGoodBucket(ctx context.Context, productID string) (*entity.WarehouseProduct, error) {
	var b entity.WarehouseProduct
	err := r.db.WithContext(ctx).Raw(`
		SELECT w.* FROM ppic_warehouse_products w
		JOIN ppic_processes p ON p.id = w.process_id
		WHERE p.product_id = ? AND w.warehouse_type = ?
	`, productID, entity.WarehouseTypeFinishedGood).Scan(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == "" {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *StockRepository) FindMaterialStock(ctx context.Context, materialID string) (*entity.WarehouseMaterial, error) {
	var m entity.WarehouseMaterial
	err := r.db.WithContext(ctx).Where("material_id = ?", materialID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, err
}

type MovementListParams struct {
	BucketID   string
	MaterialID string
	DocType    string
	Page       int
	Size       int
}

func (r *StockRepository) ListMovements(ctx context.Context, params MovementListParams) ([]entity.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockMovement{})
	if params.BucketID != "" {
		query = query.Where("bucket_id = ?", params.BucketID)
	}
	if params.MaterialID != "" {
		query = query.Where("material_id = ?", params.MaterialID)
	}
	if params.DocType != "" {
		query = query.Where("doc_type = ?", params.DocType)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var movements []entity.StockMovement
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&movements).Error
	return movements, total, err
}
