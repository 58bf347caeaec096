package entity

import "time"

// ProductDelivery 客户发货单：扣成品仓，累加订单行已交数量
type ProductDelivery struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	Code           string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ProductOrderID string    `json:"product_order_id" gorm:"size:32;not null;index"`
	ProductID      string    `json:"product_id" gorm:"size:32;not null;index"`
	Quantity       int64     `json:"quantity" gorm:"not null;default:0"`
	DriverID       string    `json:"driver_id" gorm:"size:32"`
	VehicleID      string    `json:"vehicle_id" gorm:"size:32"`
	CreatedBy      string    `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (ProductDelivery) TableName() string {
	return "ppic_product_deliveries"
}

// MaterialReceipt 采购到货单：入材料库存，累加采购单已到数量
type MaterialReceipt struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Code            string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	MaterialOrderID string    `json:"material_order_id" gorm:"size:32;not null;index"`
	MaterialID      string    `json:"material_id" gorm:"size:32;not null;index"`
	Quantity        int64     `json:"quantity" gorm:"not null;default:0"`
	CreatedBy       string    `json:"created_by" gorm:"size:32"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (MaterialReceipt) TableName() string {
	return "ppic_material_receipts"
}
