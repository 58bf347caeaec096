package entity

import (
	"time"
)

// 产品库位类型。成品仓和委外仓为固定编号，WIP库位编号与工序序号绑定（order k → k+2），
// 保证同一产品内库位类型互不冲突
const (
	WarehouseTypeFinishedGood = 1
	WarehouseTypeSubcontract  = 2
)

// WipWarehouseType 返回工序序号对应的WIP库位类型
func WipWarehouseType(order int) int {
	return order + 2
}

// WarehouseProduct 工序库存桶：(工序, 库位类型) → 数量
type WarehouseProduct struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProcessID     string    `json:"process_id" gorm:"size:32;not null;uniqueIndex:uniq_bucket_process_type"`
	WarehouseType int       `json:"warehouse_type" gorm:"not null;uniqueIndex:uniq_bucket_process_type"`
	Quantity      int64     `json:"quantity" gorm:"not null;default:0"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (WarehouseProduct) TableName() string {
	return "ppic_warehouse_products"
}

// WarehouseMaterial 原材料库存，每种原材料一行。ScrapQuantity记录取整多扣的碎料余量，
// 仅作展示，不参与净需求计算
type WarehouseMaterial struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	MaterialID    string    `json:"material_id" gorm:"size:32;not null;uniqueIndex"`
	Quantity      int64     `json:"quantity" gorm:"not null;default:0"`
	ScrapQuantity float64   `json:"scrap_quantity" gorm:"type:numeric(12,4);not null;default:0"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (WarehouseMaterial) TableName() string {
	return "ppic_warehouse_materials"
}

// 库存流水单据类型
const (
	DocTypeProduction      = "PRODUCTION"
	DocTypeSubcontDeliver  = "SUBCONT_DELIVER"
	DocTypeSubcontReceipt  = "SUBCONT_RECEIPT"
	DocTypeDelivery        = "DELIVERY"
	DocTypeMaterialReceipt = "MATERIAL_RECEIPT"
	DocTypeReversal        = "REVERSAL"
)

// StockMovement 追加式库存流水，每次桶/材料变动一行，关联来源单据
type StockMovement struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	BucketID   *string   `json:"bucket_id,omitempty" gorm:"size:32;index"`
	MaterialID *string   `json:"material_id,omitempty" gorm:"size:32;index"`
	QtyDelta   int64     `json:"qty_delta" gorm:"not null"`
	DocType    string    `json:"doc_type" gorm:"size:24;not null"`
	DocID      string    `json:"doc_id" gorm:"size:32;index"`
	CreatedBy  string    `json:"created_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "ppic_stock_movements"
}
