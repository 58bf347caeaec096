package entity

import "time"

// MaterialRequirementPlanning 物料需求建议单：某原材料的净需求快照
type MaterialRequirementPlanning struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string    `json:"material_id" gorm:"size:32;not null;index"`
	Quantity   int64     `json:"quantity" gorm:"not null;default:0"`
	CreatedBy  string    `json:"created_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Material *Material   `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
	Details  []DetailMrp `json:"details,omitempty" gorm:"foreignKey:MrpID"`
}

func (MaterialRequirementPlanning) TableName() string {
	return "ppic_material_requirement_plannings"
}

// DetailMrp 需求建议的产品分解行。Quantity为该产品贡献的材料需求量，
// QuantityProduction为驱动该需求的生产数量
type DetailMrp struct {
	ID                 string `json:"id" gorm:"primaryKey;size:32"`
	MrpID              string `json:"mrp_id" gorm:"size:32;not null;index"`
	ProductID          string `json:"product_id" gorm:"size:32;not null;index"`
	Quantity           int64  `json:"quantity" gorm:"not null;default:0"`
	QuantityProduction int64  `json:"quantity_production" gorm:"not null;default:0"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (DetailMrp) TableName() string {
	return "ppic_detail_mrps"
}
