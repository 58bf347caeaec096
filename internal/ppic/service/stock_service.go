package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recommendationCacheKey 最近一次物料需求建议的缓存键，任何库存变动后失效
const recommendationCacheKey = "ppic:recommendation:latest"

// StockService 库存台账。所有变动走先检查后落账原语，且必须在调用方的
// 数据库事务内执行（行级锁覆盖整个检查-落账序列）
type StockService struct {
	repo   *repository.StockRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewStockService(repo *repository.StockRepository, rdb *redis.Client, logger *zap.Logger) *StockService {
	return &StockService{repo: repo, rdb: rdb, logger: logger}
}

// ApplyBucketDelta 对工序库存桶落一笔增量。锁行、校验 new = current + delta ≥ 0、
// 更新数量并写一条流水。校验失败返回InsufficientStockError，由事务整体回滚
func (s *StockService) ApplyBucketDelta(tx *gorm.DB, bucketID string, delta int64, docType, docID, userID string) error {
	if delta == 0 {
		return nil
	}
	var bucket entity.WarehouseProduct
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", bucketID).First(&bucket).Error; err != nil {
		return fmt.Errorf("lock bucket %s: %w", bucketID, err)
	}
	next := bucket.Quantity + delta
	if next < 0 {
		return &entity.InsufficientStockError{BucketID: bucketID, Current: bucket.Quantity, Delta: delta}
	}
	bucket.Quantity = next
	bucket.UpdatedAt = time.Now()
	if err := tx.Save(&bucket).Error; err != nil {
		return fmt.Errorf("update bucket %s: %w", bucketID, err)
	}
	movement := &entity.StockMovement{
		ID:        newID(),
		BucketID:  &bucket.ID,
		QtyDelta:  delta,
		DocType:   docType,
		DocID:     docID,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}
	return tx.Create(movement).Error
}

// ApplyMaterialDelta 对原材料库存落一笔增量。scrap为本次取整多扣的碎料余量，
// 反冲时传负值
func (s *StockService) ApplyMaterialDelta(tx *gorm.DB, materialID string, delta int64, scrap float64, docType, docID, userID string) error {
	if delta == 0 && scrap == 0 {
		return nil
	}
	var stock entity.WarehouseMaterial
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("material_id = ?", materialID).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta < 0 {
			return &entity.InsufficientStockError{MaterialID: materialID, Current: 0, Delta: delta}
		}
		stock = entity.WarehouseMaterial{ID: newID(), MaterialID: materialID}
		if err := tx.Create(&stock).Error; err != nil {
			return fmt.Errorf("create material stock %s: %w", materialID, err)
		}
	} else if err != nil {
		return fmt.Errorf("lock material stock %s: %w", materialID, err)
	}
	next := stock.Quantity + delta
	if next < 0 {
		return &entity.InsufficientStockError{MaterialID: materialID, Current: stock.Quantity, Delta: delta}
	}
	stock.Quantity = next
	stock.ScrapQuantity += scrap
	if stock.ScrapQuantity < 0 {
		s.logger.Warn("scrap reversal exceeds recorded remainder, clamping to zero",
			zap.String("material_id", materialID),
			zap.Float64("dropped", -stock.ScrapQuantity),
			zap.String("doc_type", docType),
			zap.String("doc_id", docID),
		)
		stock.ScrapQuantity = 0
	}
	stock.UpdatedAt = time.Now()
	if err := tx.Save(&stock).Error; err != nil {
		return fmt.Errorf("update material stock %s: %w", materialID, err)
	}
	movement := &entity.StockMovement{
		ID:         newID(),
		MaterialID: &materialID,
		QtyDelta:   delta,
		DocType:    docType,
		DocID:      docID,
		CreatedBy:  userID,
		CreatedAt:  time.Now(),
	}
	return tx.Create(movement).Error
}

// InvalidateRecommendationCache 库存变动提交后使建议缓存失效
func (s *StockService) InvalidateRecommendationCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, recommendationCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("invalidate recommendation cache failed", zap.Error(err))
	}
}

// --- 查询 ---

func (s *StockService) ListBucketsByProcess(ctx context.Context, processID string) ([]entity.WarehouseProduct, error) {
	return s.repo.ListBucketsByProcess(ctx, processID)
}

func (s *StockService) GetMaterialStock(ctx context.Context, materialID string) (*entity.WarehouseMaterial, error) {
	return s.repo.FindMaterialStock(ctx, materialID)
}

func (s *StockService) ListMovements(ctx context.Context, params repository.MovementListParams) ([]entity.StockMovement, int64, error) {
	return s.repo.ListMovements(ctx, params)
}
