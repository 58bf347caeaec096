package service

import (
	"context"
	"testing"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
)

// seedMaterialOrder 建一张未完成的采购订单
func seedMaterialOrder(t *testing.T, env *testEnv, materialID string, ordered, arrived int64) {
	t.Helper()
	order := &entity.MaterialOrder{
		ID:         newID(),
		Code:       "MO-" + newID()[:8],
		MaterialID: materialID,
		SupplierID: "supp-1",
		Quantity:   ordered,
		Arrived:    arrived,
	}
	if err := env.db.Create(order).Error; err != nil {
		t.Fatalf("seed material order: %v", err)
	}
}

func findLine(lines []RecommendationLine, materialID string) *RecommendationLine {
	for i := range lines {
		if lines[i].MaterialID == materialID {
			return &lines[i]
		}
	}
	return nil
}

func TestRecommendNetsStockAndOnOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-NET")
	product, _ := seedProduct(t, env, "P-NET", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 2, Output: 1}},
	})
	seedSalesOrder(t, env, product.ID, 10, 0)

	// 毛需求 20，库存 5，在途 3，净需求 12
	setMaterialStock(t, env, m.ID, 5)
	seedMaterialOrder(t, env, m.ID, 3, 0)

	lines, err := env.services.Planning.Recommend(ctx)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	line := findLine(lines, m.ID)
	if line == nil {
		t.Fatalf("no recommendation line for material, got %+v", lines)
	}
	if line.Quantity != 12 {
		t.Errorf("net quantity = %d, want 12", line.Quantity)
	}
	if line.PlanID != "" {
		t.Errorf("candidate line should carry no plan id, got %q", line.PlanID)
	}
	if len(line.Details) != 1 || line.Details[0].ProductID != product.ID {
		t.Fatalf("details = %+v, want one row for product", line.Details)
	}
	if line.Details[0].Quantity != 12 {
		t.Errorf("detail quantity = %d, want 12", line.Details[0].Quantity)
	}
}

func TestRecommendFullyCoveredDemandDropsLine(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-COVER")
	product, _ := seedProduct(t, env, "P-COVER", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}},
	})
	seedSalesOrder(t, env, product.ID, 10, 0)
	setMaterialStock(t, env, m.ID, 10)

	lines, err := env.services.Planning.Recommend(ctx)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if line := findLine(lines, m.ID); line != nil {
		t.Errorf("covered demand produced line %+v, want none", line)
	}
}

func TestRecommendPlanSuppressesCandidate(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-PLAN")
	product, _ := seedProduct(t, env, "P-PLAN", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}},
	})
	seedSalesOrder(t, env, product.ID, 10, 0)

	plan, err := env.services.Planning.CreatePlan(ctx, &PlanInput{
		MaterialID: m.ID,
		Quantity:   10,
		Details: []PlanDetailInput{{
			ProductID: product.ID,
			Quantity:  10,
		}},
	}, "tester")
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	lines, err := env.services.Planning.Recommend(ctx)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	// 净需求被建议单吃满，只剩建议单行本身
	var candidate, planned *RecommendationLine
	for i := range lines {
		if lines[i].MaterialID != m.ID {
			continue
		}
		if lines[i].PlanID == "" {
			candidate = &lines[i]
		} else {
			planned = &lines[i]
		}
	}
	if candidate != nil {
		t.Errorf("candidate line survived = %+v, want suppressed", candidate)
	}
	if planned == nil {
		t.Fatalf("planned line missing, got %+v", lines)
	}
	if planned.PlanID != plan.ID || planned.Quantity != 10 {
		t.Errorf("planned line = %+v, want plan %s quantity 10", planned, plan.ID)
	}
}

func TestRecommendPartialPlanLeavesRemainder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-PART")
	product, _ := seedProduct(t, env, "P-PART", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}},
	})
	seedSalesOrder(t, env, product.ID, 10, 0)

	if _, err := env.services.Planning.CreatePlan(ctx, &PlanInput{
		MaterialID: m.ID,
		Quantity:   4,
		Details:    []PlanDetailInput{{ProductID: product.ID, Quantity: 4}},
	}, "tester"); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	lines, err := env.services.Planning.Recommend(ctx)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var candidate *RecommendationLine
	for i := range lines {
		if lines[i].MaterialID == m.ID && lines[i].PlanID == "" {
			candidate = &lines[i]
		}
	}
	if candidate == nil {
		t.Fatalf("remainder line missing, got %+v", lines)
	}
	if candidate.Quantity != 6 {
		t.Errorf("remaining quantity = %d, want 6", candidate.Quantity)
	}
	if len(candidate.Details) != 1 || candidate.Details[0].Quantity != 6 {
		t.Errorf("remaining details = %+v, want product share 6", candidate.Details)
	}
}

func TestRecommendDropsBreakdownWhenProductionShareExhausted(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-EXH")
	product, _ := seedProduct(t, env, "P-EXH", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 2, Output: 1}},
	})
	seedSalesOrder(t, env, product.ID, 10, 0)

	// 新鲜分摊 (数量20, 投产10)；建议单只吃掉 5，但投产维度吃满
	if _, err := env.services.Planning.CreatePlan(ctx, &PlanInput{
		MaterialID: m.ID,
		Quantity:   5,
		Details: []PlanDetailInput{{
			ProductID:          product.ID,
			Quantity:           5,
			QuantityProduction: 10,
		}},
	}, "tester"); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	lines, err := env.services.Planning.Recommend(ctx)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var candidate *RecommendationLine
	for i := range lines {
		if lines[i].MaterialID == m.ID && lines[i].PlanID == "" {
			candidate = &lines[i]
		}
	}
	if candidate == nil {
		t.Fatalf("remainder line missing, got %+v", lines)
	}
	if candidate.Quantity != 15 {
		t.Errorf("remaining quantity = %d, want 15", candidate.Quantity)
	}
	// 投产维度归零的分摊项整体剔除，不得带负数出现
	if len(candidate.Details) != 0 {
		t.Errorf("details = %+v, want exhausted entry dropped", candidate.Details)
	}
}

func TestUpdatePlanReconcilesDetailsByID(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-RECON")
	a, _ := seedProduct(t, env, "P-RA", &ProcessInput{Name: "press"})
	b, _ := seedProduct(t, env, "P-RB", &ProcessInput{Name: "press"})

	plan, err := env.services.Planning.CreatePlan(ctx, &PlanInput{
		MaterialID: m.ID,
		Quantity:   10,
		Details: []PlanDetailInput{
			{ProductID: a.ID, Quantity: 6},
			{ProductID: b.ID, Quantity: 4},
		},
	}, "tester")
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	var keptID string
	for _, d := range plan.Details {
		if d.ProductID == a.ID {
			keptID = d.ID
		}
	}
	if keptID == "" {
		t.Fatalf("detail for product a not persisted: %+v", plan.Details)
	}

	// 保留 a 行改量，b 行不在输入里应删除
	updated, err := env.services.Planning.UpdatePlan(ctx, plan.ID, &PlanInput{
		MaterialID: m.ID,
		Quantity:   8,
		Details: []PlanDetailInput{
			{ID: keptID, ProductID: a.ID, Quantity: 8},
		},
	}, "tester")
	if err != nil {
		t.Fatalf("update plan: %v", err)
	}
	if len(updated.Details) != 1 {
		t.Fatalf("details = %+v, want only the kept row", updated.Details)
	}
	if updated.Details[0].ID != keptID || updated.Details[0].Quantity != 8 {
		t.Errorf("kept detail = %+v, want id %s quantity 8", updated.Details[0], keptID)
	}
}

func TestDeletePlanRestoresCandidate(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-DELP")
	product, _ := seedProduct(t, env, "P-DELP", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}},
	})
	seedSalesOrder(t, env, product.ID, 5, 0)

	plan, err := env.services.Planning.CreatePlan(ctx, &PlanInput{
		MaterialID: m.ID,
		Quantity:   5,
		Details:    []PlanDetailInput{{ProductID: product.ID, Quantity: 5}},
	}, "tester")
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if err := env.services.Planning.DeletePlan(ctx, plan.ID); err != nil {
		t.Fatalf("delete plan: %v", err)
	}

	lines, err := env.services.Planning.Recommend(ctx)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	line := findLine(lines, m.ID)
	if line == nil || line.PlanID != "" {
		t.Fatalf("candidate line not restored, got %+v", lines)
	}
	if line.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", line.Quantity)
	}
}
