package entity

import (
	"time"

	"gorm.io/gorm"
)

// SalesOrder 销售订单。Fixed且未Closed的订单参与需求汇总
type SalesOrder struct {
	ID         string         `json:"id" gorm:"primaryKey;size:32"`
	Code       string         `json:"code" gorm:"size:50;not null;uniqueIndex"`
	CustomerID string         `json:"customer_id" gorm:"size:32;not null"`
	Date       time.Time      `json:"date" gorm:"index"`
	Fixed      bool           `json:"fixed" gorm:"not null;default:false"`
	Closed     bool           `json:"closed" gorm:"not null;default:false"`
	Done       bool           `json:"done" gorm:"not null;default:false"`
	CreatedBy  string         `json:"created_by" gorm:"size:32"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	Orders []ProductOrder `json:"orders,omitempty" gorm:"foreignKey:SalesOrderID"`
}

func (SalesOrder) TableName() string {
	return "ppic_sales_orders"
}

// ProductOrder 销售订单行：未交数量 = Quantity - Delivered
type ProductOrder struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	SalesOrderID string    `json:"sales_order_id" gorm:"size:32;not null;index"`
	ProductID    string    `json:"product_id" gorm:"size:32;not null;index"`
	Quantity     int64     `json:"quantity" gorm:"not null;default:0"`
	Delivered    int64     `json:"delivered" gorm:"not null;default:0"`
	Done         bool      `json:"done" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (ProductOrder) TableName() string {
	return "ppic_product_orders"
}

// MaterialOrder 原材料采购单：在途数量 = Quantity - Arrived，未Done的单参与净需求冲减
type MaterialOrder struct {
	ID         string         `json:"id" gorm:"primaryKey;size:32"`
	Code       string         `json:"code" gorm:"size:50;not null;uniqueIndex"`
	MaterialID string         `json:"material_id" gorm:"size:32;not null;index"`
	SupplierID string         `json:"supplier_id" gorm:"size:32;not null"`
	Date       time.Time      `json:"date" gorm:"index"`
	Quantity   int64          `json:"quantity" gorm:"not null;default:0"`
	Arrived    int64          `json:"arrived" gorm:"not null;default:0"`
	Done       bool           `json:"done" gorm:"not null;default:false"`
	CreatedBy  string         `json:"created_by" gorm:"size:32"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (MaterialOrder) TableName() string {
	return "ppic_material_orders"
}
