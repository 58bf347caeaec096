package entity

import "time"

// ProductionReport 生产报工单。Quantity为良品数，QuantityNotGood为不良数；
// 上游消耗按 良品+不良 计，产出入库只记良品。
// Materials/Products为实际扣减明细缓存，编辑/删除时据此反冲
type ProductionReport struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Code            string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ProcessID       string    `json:"process_id" gorm:"size:32;not null;index"`
	ProductID       string    `json:"product_id" gorm:"size:32;not null;index"`
	Quantity        int64     `json:"quantity" gorm:"not null;default:0"`
	QuantityNotGood int64     `json:"quantity_not_good" gorm:"not null;default:0"`
	OperatorID      string    `json:"operator_id" gorm:"size:32"`
	MachineID       string    `json:"machine_id" gorm:"size:32"`
	Notes           string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy       string    `json:"created_by" gorm:"size:32"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Materials []MaterialProductionReport `json:"materials,omitempty" gorm:"foreignKey:ReportID"`
	Products  []ProductProductionReport  `json:"products,omitempty" gorm:"foreignKey:ReportID"`
}

func (ProductionReport) TableName() string {
	return "ppic_production_reports"
}

// MaterialProductionReport 报工的原材料扣减明细
type MaterialProductionReport struct {
	ID                    string  `json:"id" gorm:"primaryKey;size:32"`
	ReportID              string  `json:"report_id" gorm:"size:32;not null;index"`
	RequirementMaterialID string  `json:"requirement_material_id" gorm:"size:32;not null"`
	MaterialID            string  `json:"material_id" gorm:"size:32;not null;index"`
	Quantity              int64   `json:"quantity" gorm:"not null;default:0"`
	Scrap                 float64 `json:"scrap" gorm:"type:numeric(12,4);not null;default:0"`
}

func (MaterialProductionReport) TableName() string {
	return "ppic_material_production_reports"
}

// ProductProductionReport 报工的子产品（装配件）扣减明细
type ProductProductionReport struct {
	ID                   string `json:"id" gorm:"primaryKey;size:32"`
	ReportID             string `json:"report_id" gorm:"size:32;not null;index"`
	RequirementProductID string `json:"requirement_product_id" gorm:"size:32;not null"`
	ProductID            string `json:"product_id" gorm:"size:32;not null;index"`
	Quantity             int64  `json:"quantity" gorm:"not null;default:0"`
}

func (ProductProductionReport) TableName() string {
	return "ppic_product_production_reports"
}
