package entity

import "time"

// RequirementMaterial 工序用料边：消耗Output件工序产出需要Input单位原材料。
// 需求量一律按 ceil(qty*input/output) 取整
type RequirementMaterial struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	ProcessID  string    `json:"process_id" gorm:"size:32;not null;index"`
	MaterialID string    `json:"material_id" gorm:"size:32;not null;index"`
	Input      int64     `json:"input" gorm:"not null;default:1"`
	Output     int64     `json:"output" gorm:"not null;default:1"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (RequirementMaterial) TableName() string {
	return "ppic_requirement_materials"
}

// RequirementProduct 装配边：工序消耗子产品成品仓库存。装配图必须无环，
// 写入前由BOM服务做环检测
type RequirementProduct struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProcessID string    `json:"process_id" gorm:"size:32;not null;index"`
	ProductID string    `json:"product_id" gorm:"size:32;not null;index"` // 子产品
	Input     int64     `json:"input" gorm:"not null;default:1"`
	Output    int64     `json:"output" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (RequirementProduct) TableName() string {
	return "ppic_requirement_products"
}
