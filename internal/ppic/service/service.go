package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 生产计划域所有服务的集合
type Services struct {
	BOM         *BOMService
	Stock       *StockService
	Demand      *DemandService
	Explosion   *ExplosionService
	Planning    *PlanningService
	Production  *ProductionService
	Subcontract *SubcontractService
	Delivery    *DeliveryService
}

func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger) *Services {
	stock := NewStockService(repos.Stock, rdb, logger)
	explosion := NewExplosionService(repos.BOM, logger)
	return &Services{
		BOM:         NewBOMService(db, repos, logger),
		Stock:       stock,
		Demand:      NewDemandService(db, repos.Order, logger),
		Explosion:   explosion,
		Planning:    NewPlanningService(db, repos, explosion, rdb, logger),
		Production:  NewProductionService(db, repos, stock, logger),
		Subcontract: NewSubcontractService(db, repos, stock, logger),
		Delivery:    NewDeliveryService(db, repos, stock, logger),
	}
}

func newID() string {
	return uuid.New().String()[:32]
}

// newDocCode 生成单据编号，如 PR-202608301504051234
func newDocCode(prefix string) string {
	now := time.Now()
	return fmt.Sprintf("%s-%s%04d", prefix, now.Format("20060102150405"), now.UnixNano()%10000)
}

// ceilDiv 向上取整除法，a ≥ 0 且 b ≥ 1
func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
