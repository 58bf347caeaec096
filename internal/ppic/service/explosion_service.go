package service

import (
	"context"
	"sort"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"go.uber.org/zap"
)

// ExplosionService BOM展开与净需求计算引擎
type ExplosionService struct {
	bomRepo *repository.BOMRepository
	logger  *zap.Logger
}

func NewExplosionService(bomRepo *repository.BOMRepository, logger *zap.Logger) *ExplosionService {
	return &ExplosionService{bomRepo: bomRepo, logger: logger}
}

// MaterialRequirement 某一原材料的总需求量与按顶层产品的分摊明细
type MaterialRequirement struct {
	MaterialID string
	Total      int64
	Breakdown  map[string]*RequirementBreakdown
}

// RequirementBreakdown 原材料需求按顶层产品的分摊：Quantity为消耗量，
// QuantityProduction为驱动该消耗的待产量
type RequirementBreakdown struct {
	ProductID          string
	Quantity           int64
	QuantityProduction int64
}

// ExplodeProduction 仅按产品维度展开：返回每个产品扣除各工序库存后仍需生产的数量
func (s *ExplosionService) ExplodeProduction(ctx context.Context, demand map[string]int64) (map[string]int64, error) {
	run := s.newRun(ctx, false)
	if err := run.walkAll(demand); err != nil {
		return nil, err
	}
	return run.shortfall, nil
}

// ExplodeMaterials 完整展开：返回产品缺口与原材料毛需求（含顶层产品分摊）
func (s *ExplosionService) ExplodeMaterials(ctx context.Context, demand map[string]int64) (map[string]int64, map[string]*MaterialRequirement, error) {
	run := s.newRun(ctx, true)
	if err := run.walkAll(demand); err != nil {
		return nil, nil, err
	}
	return run.shortfall, run.materials, nil
}

// explosionRun 单次展开的运行态，工序快照按产品懒加载并缓存
type explosionRun struct {
	svc           *ExplosionService
	ctx           context.Context
	withMaterials bool
	processes     map[string][]entity.Process
	shortfall     map[string]int64
	materials     map[string]*MaterialRequirement
}

func (s *ExplosionService) newRun(ctx context.Context, withMaterials bool) *explosionRun {
	return &explosionRun{
		svc:           s,
		ctx:           ctx,
		withMaterials: withMaterials,
		processes:     make(map[string][]entity.Process),
		shortfall:     make(map[string]int64),
		materials:     make(map[string]*MaterialRequirement),
	}
}

func (r *explosionRun) walkAll(demand map[string]int64) error {
	// 固定遍历顺序，保证同一输入下分摊结果可复现
	ids := make([]string, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := r.walk(id, demand[id], id); err != nil {
			return err
		}
	}
	return nil
}

// walk 自末道工序向前逐级吸收各工序库存，剩余量驱动本工序的物料
// 与子产品需求，子产品按其自身工序库存继续递归
func (r *explosionRun) walk(productID string, qty int64, topProductID string) error {
	if qty <= 0 {
		return nil
	}
	procs, err := r.load(productID)
	if err != nil {
		return err
	}
	remaining := qty
	for i := len(procs) - 1; i >= 0; i-- {
		p := &procs[i]
		remaining -= bucketTotal(p)
		if remaining <= 0 {
			remaining = 0
			break
		}
		if r.withMaterials {
			for _, edge := range p.RequirementMaterials {
				used := ceilDiv(remaining*edge.Input, edge.Output)
				r.addMaterial(edge.MaterialID, topProductID, used, remaining)
			}
		}
		for _, edge := range p.RequirementProducts {
			childQty := ceilDiv(remaining, edge.Output) * edge.Input
			if err := r.walk(edge.ProductID, childQty, topProductID); err != nil {
				return err
			}
		}
	}
	if remaining > 0 {
		r.shortfall[productID] += remaining
	}
	return nil
}

func (r *explosionRun) load(productID string) ([]entity.Process, error) {
	if procs, ok := r.processes[productID]; ok {
		return procs, nil
	}
	procs, err := r.svc.bomRepo.ListProcesses(r.ctx, productID)
	if err != nil {
		return nil, err
	}
	r.processes[productID] = procs
	return procs, nil
}

func (r *explosionRun) addMaterial(materialID, topProductID string, used, remaining int64) {
	req, ok := r.materials[materialID]
	if !ok {
		req = &MaterialRequirement{MaterialID: materialID, Breakdown: make(map[string]*RequirementBreakdown)}
		r.materials[materialID] = req
	}
	req.Total += used
	b, ok := req.Breakdown[topProductID]
	if !ok {
		b = &RequirementBreakdown{ProductID: topProductID}
		req.Breakdown[topProductID] = b
	}
	b.Quantity += used
	b.QuantityProduction += remaining
}

// bucketTotal 某工序当前所有库存桶的合计（主桶与委外桶）
func bucketTotal(p *entity.Process) int64 {
	var total int64
	for _, b := range p.Buckets {
		total += b.Quantity
	}
	return total
}
