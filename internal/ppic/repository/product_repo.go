package repository

import (
	"context"
	"errors"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// --- Product ---

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).
		Preload("Processes", func(db *gorm.DB) *gorm.DB { return db.Order("process_order ASC") }).
		Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Product{}).Error
}

type ProductListParams struct {
	Keyword    string
	CustomerID string
	Page       int
	Size       int
}

func (r *ProductRepository) List(ctx context.Context, params ProductListParams) ([]entity.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Product{})
	if params.CustomerID != "" {
		query = query.Where("customer_id = ?", params.CustomerID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var products []entity.Product
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&products).Error
	return products, total, err
}

// HasOpenOrders 产品是否存在未完结的销售订单行。
// 母单已删除或已关闭的行不算在内
func (r *ProductRepository) HasOpenOrders(ctx context.Context, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ProductOrder{}).
		Joins("JOIN ppic_sales_orders so ON so.id = ppic_product_orders.sales_order_id").
		Where("ppic_product_orders.product_id = ? AND ppic_product_orders.done = false", productID).
		Where("so.deleted_at IS NULL AND so.closed = false").
		Count(&count).Error
	return count > 0, err
}

// IsAssemblyChild 产品是否被其他产品的装配边引用
func (r *ProductRepository) IsAssemblyChild(ctx context.Context, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.RequirementProduct{}).
		Where("product_id = ?", productID).Count(&count).Error
	return count > 0, err
}

// --- Material ---

func (r *ProductRepository) CreateMaterial(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ProductRepository) FindMaterialByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *ProductRepository) UpdateMaterial(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *ProductRepository) ListMaterials(ctx context.Context, keyword string, page, size int) ([]entity.Material, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Material{})
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var materials []entity.Material
	err := query.Order("code ASC").Offset((page - 1) * size).Limit(size).Find(&materials).Error
	return materials, total, err
}
