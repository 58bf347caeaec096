package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories PPIC仓库集合
type Repositories struct {
	Product    *ProductRepository
	BOM        *BOMRepository
	Stock      *StockRepository
	Order      *OrderRepository
	Production *ProductionRepository
	Planning   *PlanningRepository
}

// NewRepositories 创建PPIC仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:    NewProductRepository(db),
		BOM:        NewBOMRepository(db),
		Stock:      NewStockRepository(db),
		Order:      NewOrderRepository(db),
		Production: NewProductionRepository(db),
		Planning:   NewPlanningRepository(db),
	}
}
