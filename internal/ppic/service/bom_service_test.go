package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
)

func TestCreateProcessOnlyAppends(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	product, _ := seedProduct(t, env, "P-ORD", &ProcessInput{Name: "first"})

	_, err := env.services.BOM.CreateProcess(ctx, product.ID, &ProcessInput{Name: "gap", Order: 3}, "tester")
	var position *entity.InvalidProcessPositionError
	if !errors.As(err, &position) {
		t.Fatalf("err = %v, want InvalidProcessPositionError", err)
	}
}

func TestBucketNormalizationOnAppend(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	product, chain := seedProduct(t, env, "P-NORM", &ProcessInput{Name: "first"})
	// 单工序产品：唯一工序持成品仓
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 0 {
		t.Fatalf("expected finished good bucket on sole process")
	}

	if _, err := env.services.BOM.CreateProcess(ctx, product.ID, &ProcessInput{Name: "second", Order: 2}, "tester"); err != nil {
		t.Fatalf("append process: %v", err)
	}
	chain, _ = env.repos.BOM.ListProcesses(ctx, product.ID)
	// 原首道降为WIP仓（order 1 → 类型3），新末道接管成品仓
	if _, err := env.repos.Stock.FindBucket(ctx, chain[0].ID, entity.WipWarehouseType(1)); err != nil {
		t.Errorf("first process should hold wip bucket: %v", err)
	}
	if _, err := env.repos.Stock.FindBucket(ctx, chain[1].ID, entity.WarehouseTypeFinishedGood); err != nil {
		t.Errorf("last process should hold finished good bucket: %v", err)
	}

	updated, err := env.repos.Product.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if updated.ProcessCount != 2 {
		t.Errorf("process count = %d, want 2", updated.ProcessCount)
	}
}

func TestSubcontractProcessGetsExtraBucket(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, chain := seedProduct(t, env, "P-SUB", &ProcessInput{Name: "plating", Type: entity.ProcessTypeSubcontract})
	if _, err := env.repos.Stock.FindBucket(ctx, chain[0].ID, entity.WarehouseTypeSubcontract); err != nil {
		t.Errorf("subcontract process should hold subcontract bucket: %v", err)
	}
	// 取消委外：委外仓余量并入主桶
	env.db.Model(&entity.WarehouseProduct{}).
		Where("process_id = ? AND warehouse_type = ?", chain[0].ID, entity.WarehouseTypeSubcontract).
		Update("quantity", 5)
	if _, err := env.services.BOM.UpdateProcess(ctx, chain[0].ID, &ProcessInput{Name: "plating", Order: 1, Type: entity.ProcessTypeNormal}); err != nil {
		t.Fatalf("toggle subcontract off: %v", err)
	}
	if _, err := env.repos.Stock.FindBucket(ctx, chain[0].ID, entity.WarehouseTypeSubcontract); err == nil {
		t.Errorf("subcontract bucket should be removed")
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 5 {
		t.Errorf("primary bucket = %d, want folded quantity 5", q)
	}
}

func TestAssemblyCycleRejected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	a, _ := seedProduct(t, env, "P-CYC-A", &ProcessInput{Name: "final"})
	b, bChain := seedProduct(t, env, "P-CYC-B", &ProcessInput{Name: "final"})

	// A 消耗 B
	aChain, _ := env.repos.BOM.ListProcesses(ctx, a.ID)
	if _, err := env.services.BOM.UpdateProcess(ctx, aChain[0].ID, &ProcessInput{
		Name:     "final",
		Order:    1,
		Products: []ProductEdgeInput{{ProductID: b.ID, Input: 1, Output: 1}},
	}); err != nil {
		t.Fatalf("add edge a->b: %v", err)
	}

	// B 再消耗 A 即成环
	_, err := env.services.BOM.UpdateProcess(ctx, bChain[0].ID, &ProcessInput{
		Name:     "final",
		Order:    1,
		Products: []ProductEdgeInput{{ProductID: a.ID, Input: 1, Output: 1}},
	})
	var cycle *entity.AssemblyCycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("err = %v, want AssemblyCycleError", err)
	}
}

func TestSelfReferenceRejected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	a, chain := seedProduct(t, env, "P-SELF", &ProcessInput{Name: "final"})
	_, err := env.services.BOM.UpdateProcess(ctx, chain[0].ID, &ProcessInput{
		Name:     "final",
		Order:    1,
		Products: []ProductEdgeInput{{ProductID: a.ID, Input: 1, Output: 1}},
	})
	var cycle *entity.AssemblyCycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("err = %v, want AssemblyCycleError", err)
	}
}

func TestDeleteProcessRequiresEmptyBuckets(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	product, chain := seedProduct(t, env, "P-DEL", &ProcessInput{Name: "first"}, &ProcessInput{Name: "second"})
	setBucketQty(t, env, chain[1].ID, 3)

	err := env.services.BOM.DeleteProcess(ctx, chain[1].ID)
	var conflict *entity.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}

	setBucketQty(t, env, chain[1].ID, 0)
	if err := env.services.BOM.DeleteProcess(ctx, chain[1].ID); err != nil {
		t.Fatalf("delete empty process: %v", err)
	}
	// 剩余工序重新接管成品仓
	if _, err := env.repos.Stock.FindBucket(ctx, chain[0].ID, entity.WarehouseTypeFinishedGood); err != nil {
		t.Errorf("remaining process should hold finished good bucket: %v", err)
	}
	updated, _ := env.repos.Product.FindByID(ctx, product.ID)
	if updated.ProcessCount != 1 {
		t.Errorf("process count = %d, want 1", updated.ProcessCount)
	}
}

func TestEdgeReconciliationByID(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m1 := seedMaterial(t, env, "M-E1")
	m2 := seedMaterial(t, env, "M-E2")
	_, chain := seedProduct(t, env, "P-EDGE", &ProcessInput{
		Name:      "only",
		Materials: []MaterialEdgeInput{{MaterialID: m1.ID, Input: 1, Output: 1}},
	})
	process, _ := env.repos.BOM.FindProcessByID(ctx, chain[0].ID)
	if len(process.RequirementMaterials) != 1 {
		t.Fatalf("edges = %d, want 1", len(process.RequirementMaterials))
	}
	keptID := process.RequirementMaterials[0].ID

	// 保留旧边（改比例）并新增一条，旧边ID必须不变
	updated, err := env.services.BOM.UpdateProcess(ctx, process.ID, &ProcessInput{
		Name:  "only",
		Order: 1,
		Materials: []MaterialEdgeInput{
			{ID: keptID, MaterialID: m1.ID, Input: 3, Output: 2},
			{MaterialID: m2.ID, Input: 1, Output: 1},
		},
	})
	if err != nil {
		t.Fatalf("update process: %v", err)
	}
	if len(updated.RequirementMaterials) != 2 {
		t.Fatalf("edges = %d, want 2", len(updated.RequirementMaterials))
	}
	found := false
	for _, e := range updated.RequirementMaterials {
		if e.ID == keptID {
			found = true
			if e.Input != 3 || e.Output != 2 {
				t.Errorf("kept edge ratio = %d/%d, want 3/2", e.Input, e.Output)
			}
		}
	}
	if !found {
		t.Errorf("edge %s should survive reconciliation", keptID)
	}
}

func TestDeleteProductGuards(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	product, chain := seedProduct(t, env, "P-GUARD", &ProcessInput{Name: "only"})
	setBucketQty(t, env, chain[0].ID, 1)

	err := env.services.BOM.DeleteProduct(ctx, product.ID)
	var conflict *entity.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError for held stock", err)
	}

	setBucketQty(t, env, chain[0].ID, 0)
	order := seedSalesOrder(t, env, product.ID, 5, 0)
	err = env.services.BOM.DeleteProduct(ctx, product.ID)
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError for open orders", err)
	}

	// 母单关闭后订单行不再挡删除
	if _, err := env.services.Demand.CloseSalesOrder(ctx, order.ID); err != nil {
		t.Fatalf("close sales order: %v", err)
	}
	if err := env.services.BOM.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("delete after close: %v", err)
	}
}
