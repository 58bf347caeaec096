package repository

import (
	"context"
	"errors"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// --- Sales ---

func (r *OrderRepository) CreateSalesOrder(ctx context.Context, so *entity.SalesOrder) error {
	return r.db.WithContext(ctx).Create(so).Error
}

func (r *OrderRepository) FindSalesOrderByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	var so entity.SalesOrder
	err := r.db.WithContext(ctx).Preload("Orders").Preload("Orders.Product").
		Where("id = ?", id).First(&so).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &so, err
}

func (r *OrderRepository) UpdateSalesOrder(ctx context.Context, so *entity.SalesOrder) error {
	return r.db.WithContext(ctx).Save(so).Error
}

func (r *OrderRepository) FindProductOrderByID(ctx context.Context, id string) (*entity.ProductOrder, error) {
	var po entity.ProductOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &po, err
}

// OutstandingDemand 汇总已确认、未关闭销售订单的未交数量（按产品）。
// 零或负的行被HAVING过滤掉
func (r *OrderRepository) OutstandingDemand(ctx context.Context) (map[string]int64, error) {
	type demandRow struct {
		ProductID string
		Total     int64
	}
	var rows []demandRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT po.product_id, SUM(po.quantity - po.delivered) AS total
		FROM ppic_product_orders po
		JOIN ppic_sales_orders so ON so.id = po.sales_order_id
		WHERE so.fixed = true AND so.closed = false AND so.deleted_at IS NULL
		GROUP BY po.product_id
		HAVING SUM(po.quantity - po.delivered) > 0
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	demand := make(map[string]int64, len(rows))
	for _, row := range rows {
		demand[row.ProductID] = row.Total
	}
	return demand, nil
}

// --- Purchase ---

func (r *OrderRepository) CreateMaterialOrder(ctx context.Context, mo *entity.MaterialOrder) error {
	return r.db.WithContext(ctx).Create(mo).Error
}

func (r *OrderRepository) FindMaterialOrderByID(ctx context.Context, id string) (*entity.MaterialOrder, error) {
	var mo entity.MaterialOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&mo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &mo, err
}

func (r *OrderRepository) UpdateMaterialOrder(ctx context.Context, mo *entity.MaterialOrder) error {
	return r.db.WithContext(ctx).Save(mo).Error
}

// MaterialOnOrder 某原材料全部未完结采购单的在途数量（已订-已到）
func (r *OrderRepository) MaterialOnOrder(ctx context.Context, materialID string) (int64, error) {
	var result struct{ Total int64 }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity - arrived), 0) AS total
		FROM ppic_material_orders
		WHERE material_id = ? AND done = false AND deleted_at IS NULL
	`, materialID).Scan(&result).Error
	return result.Total, err
}

// MaterialsOnOrder 所有原材料的在途数量，按原材料汇总
func (r *OrderRepository) MaterialsOnOrder(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		MaterialID string
		Total      int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT material_id, COALESCE(SUM(quantity - arrived), 0) AS total
		FROM ppic_material_orders
		WHERE done = false AND deleted_at IS NULL
		GROUP BY material_id
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	onOrder := make(map[string]int64, len(rows))
	for _, row := range rows {
		onOrder[row.MaterialID] = row.Total
	}
	return onOrder, nil
}

// OrderListParams 订单列表过滤条件
type OrderListParams struct {
	Keyword string
	Fixed   *bool
	Closed  *bool
	Done    *bool
	Page    int
	Size    int
}

func (p *OrderListParams) normalize() (offset, limit int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 || p.Size > 200 {
		p.Size = 20
	}
	return (p.Page - 1) * p.Size, p.Size
}

func (r *OrderRepository) ListSalesOrders(ctx context.Context, params OrderListParams) ([]entity.SalesOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.SalesOrder{})
	if params.Keyword != "" {
		query = query.Where("code ILIKE ?", "%"+params.Keyword+"%")
	}
	if params.Fixed != nil {
		query = query.Where("fixed = ?", *params.Fixed)
	}
	if params.Closed != nil {
		query = query.Where("closed = ?", *params.Closed)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := params.normalize()
	var orders []entity.SalesOrder
	err := query.Preload("Orders").Order("date DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *OrderRepository) DeleteSalesOrder(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.SalesOrder{}).Error
}

func (r *OrderRepository) ListMaterialOrders(ctx context.Context, params OrderListParams) ([]entity.MaterialOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.MaterialOrder{})
	if params.Keyword != "" {
		query = query.Where("code ILIKE ?", "%"+params.Keyword+"%")
	}
	if params.Done != nil {
		query = query.Where("done = ?", *params.Done)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := params.normalize()
	var orders []entity.MaterialOrder
	err := query.Order("date DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}
