package entity

import (
	"time"

	"gorm.io/gorm"
)

// 工序类型
const (
	ProcessTypeNormal      = "normal"
	ProcessTypeSubcontract = "subcontract"
)

// Product 产品主数据。ProcessCount为冗余缓存列，由BOM服务在工序增删时维护
type Product struct {
	ID           string         `json:"id" gorm:"primaryKey;size:32"`
	Code         string         `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name         string         `json:"name" gorm:"size:128;not null"`
	ProcessCount int            `json:"process_count" gorm:"not null;default:0"`
	CustomerID   *string        `json:"customer_id,omitempty" gorm:"size:32"`
	CreatedBy    string         `json:"created_by" gorm:"size:32"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Processes []Process `json:"processes,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "ppic_products"
}

// Process 产品的制造工序。Order为产品内1..N连续序号，最后一道工序持有成品仓
type Process struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProductID string    `json:"product_id" gorm:"size:32;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Order     int       `json:"order" gorm:"column:process_order;not null"`
	Type      string    `json:"type" gorm:"size:16;not null;default:normal"` // normal / subcontract
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Product              *Product              `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Buckets              []WarehouseProduct    `json:"buckets,omitempty" gorm:"foreignKey:ProcessID"`
	RequirementMaterials []RequirementMaterial `json:"requirement_materials,omitempty" gorm:"foreignKey:ProcessID"`
	RequirementProducts  []RequirementProduct  `json:"requirement_products,omitempty" gorm:"foreignKey:ProcessID"`
}

func (Process) TableName() string {
	return "ppic_processes"
}

// IsSubcontract 是否委外工序
func (p *Process) IsSubcontract() bool {
	return p.Type == ProcessTypeSubcontract
}

// Material 原材料主数据
type Material struct {
	ID         string         `json:"id" gorm:"primaryKey;size:32"`
	Code       string         `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name       string         `json:"name" gorm:"size:128;not null"`
	Unit       string         `json:"unit" gorm:"size:16;not null;default:pcs"`
	SupplierID *string        `json:"supplier_id,omitempty" gorm:"size:32"`
	CreatedBy  string         `json:"created_by" gorm:"size:32"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Material) TableName() string {
	return "ppic_materials"
}
