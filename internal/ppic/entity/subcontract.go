package entity

import "time"

// ProductDeliverSubcont 委外发货单：把半成品/原材料发往外协厂。
// 发货数量按委外工序的BOM边从当前库存扣减，入委外仓
type ProductDeliverSubcont struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Code       string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ProcessID  string    `json:"process_id" gorm:"size:32;not null;index"`
	ProductID  string    `json:"product_id" gorm:"size:32;not null;index"`
	SupplierID string    `json:"supplier_id" gorm:"size:32;not null"`
	Quantity   int64     `json:"quantity" gorm:"not null;default:0"`
	DriverID   string    `json:"driver_id" gorm:"size:32"`
	VehicleID  string    `json:"vehicle_id" gorm:"size:32"`
	Notes      string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy  string    `json:"created_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Materials []RequirementMaterialSubcont `json:"materials,omitempty" gorm:"foreignKey:DeliverID"`
	Products  []RequirementProductSubcont  `json:"products,omitempty" gorm:"foreignKey:DeliverID"`
}

func (ProductDeliverSubcont) TableName() string {
	return "ppic_product_deliver_subconts"
}

// RequirementMaterialSubcont 委外发货的原材料扣减明细
type RequirementMaterialSubcont struct {
	ID                    string  `json:"id" gorm:"primaryKey;size:32"`
	DeliverID             string  `json:"deliver_id" gorm:"size:32;not null;index"`
	RequirementMaterialID string  `json:"requirement_material_id" gorm:"size:32;not null"`
	MaterialID            string  `json:"material_id" gorm:"size:32;not null;index"`
	Quantity              int64   `json:"quantity" gorm:"not null;default:0"`
	Scrap                 float64 `json:"scrap" gorm:"type:numeric(12,4);not null;default:0"`
}

func (RequirementMaterialSubcont) TableName() string {
	return "ppic_requirement_material_subconts"
}

// RequirementProductSubcont 委外发货的子产品扣减明细
type RequirementProductSubcont struct {
	ID                   string `json:"id" gorm:"primaryKey;size:32"`
	DeliverID            string `json:"deliver_id" gorm:"size:32;not null;index"`
	RequirementProductID string `json:"requirement_product_id" gorm:"size:32;not null"`
	ProductID            string `json:"product_id" gorm:"size:32;not null;index"`
	Quantity             int64  `json:"quantity" gorm:"not null;default:0"`
}

func (RequirementProductSubcont) TableName() string {
	return "ppic_requirement_product_subconts"
}

// SubcontReceipt 委外收货单：良品+不良出委外仓，良品入工序库位
type SubcontReceipt struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Code            string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ProcessID       string    `json:"process_id" gorm:"size:32;not null;index"`
	ProductID       string    `json:"product_id" gorm:"size:32;not null;index"`
	Quantity        int64     `json:"quantity" gorm:"not null;default:0"`
	QuantityNotGood int64     `json:"quantity_not_good" gorm:"not null;default:0"`
	CreatedBy       string    `json:"created_by" gorm:"size:32"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (SubcontReceipt) TableName() string {
	return "ppic_subcont_receipts"
}
