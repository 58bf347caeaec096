package service

import (
	"context"
	"testing"
)

func TestExplodeMaterialsSimpleShortfall(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-PLATE")
	product, _ := seedProduct(t, env, "P-A", &ProcessInput{
		Name:      "stamping",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 2, Output: 1}},
	})

	shortfall, requirements, err := env.services.Explosion.ExplodeMaterials(ctx, map[string]int64{product.ID: 10})
	if err != nil {
		t.Fatalf("explode: %v", err)
	}
	if shortfall[product.ID] != 10 {
		t.Errorf("shortfall = %d, want 10", shortfall[product.ID])
	}
	req := requirements[m.ID]
	if req == nil || req.Total != 20 {
		t.Fatalf("material requirement = %+v, want total 20", req)
	}
	if b := req.Breakdown[product.ID]; b == nil || b.Quantity != 20 || b.QuantityProduction != 10 {
		t.Errorf("breakdown = %+v, want quantity 20 production 10", b)
	}
}

func TestExplodeMaterialsStockAbsorption(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-ROD")
	product, chain := seedProduct(t, env, "P-B", &ProcessInput{
		Name:      "machining",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}},
	})
	setBucketQty(t, env, chain[0].ID, 4)

	shortfall, requirements, err := env.services.Explosion.ExplodeMaterials(ctx, map[string]int64{product.ID: 10})
	if err != nil {
		t.Fatalf("explode: %v", err)
	}
	if shortfall[product.ID] != 6 {
		t.Errorf("shortfall = %d, want 6", shortfall[product.ID])
	}
	if req := requirements[m.ID]; req == nil || req.Total != 6 {
		t.Fatalf("material requirement = %+v, want total 6", requirements[m.ID])
	}
}

func TestExplodeMaterialsCeilRatio(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	// 每2件产出消耗3单位材料，5件需求 → ceil(7.5) = 8
	m := seedMaterial(t, env, "M-SHEET")
	product, _ := seedProduct(t, env, "P-C", &ProcessInput{
		Name:      "cutting",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 3, Output: 2}},
	})

	_, requirements, err := env.services.Explosion.ExplodeMaterials(ctx, map[string]int64{product.ID: 5})
	if err != nil {
		t.Fatalf("explode: %v", err)
	}
	if req := requirements[m.ID]; req == nil || req.Total != 8 {
		t.Fatalf("material requirement = %+v, want total 8", requirements[m.ID])
	}
}

func TestExplodeMultiStageAbsorption(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-COIL")
	product, chain := seedProduct(t, env, "P-D",
		&ProcessInput{Name: "blank", Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}}},
		&ProcessInput{Name: "form"},
		&ProcessInput{Name: "finish"},
	)
	// 末道2件、中道3件在库，需求10 → 仍需投产5
	setBucketQty(t, env, chain[2].ID, 2)
	setBucketQty(t, env, chain[1].ID, 3)

	shortfall, requirements, err := env.services.Explosion.ExplodeMaterials(ctx, map[string]int64{product.ID: 10})
	if err != nil {
		t.Fatalf("explode: %v", err)
	}
	if shortfall[product.ID] != 5 {
		t.Errorf("shortfall = %d, want 5", shortfall[product.ID])
	}
	// 材料挂在首道工序，到首道时剩余仍为5
	if req := requirements[m.ID]; req == nil || req.Total != 5 {
		t.Fatalf("material requirement = %+v, want total 5", requirements[m.ID])
	}
}

func TestExplodeAssemblyRecursion(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-BAR")
	child, childChain := seedProduct(t, env, "P-CHILD", &ProcessInput{
		Name:      "cast",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}},
	})
	parent, _ := seedProduct(t, env, "P-PARENT", &ProcessInput{
		Name:     "assemble",
		Products: []ProductEdgeInput{{ProductID: child.ID, Input: 2, Output: 1}},
	})
	// 子件成品仓有3件，父件需求4 → 子件需8，库存吸收后缺5
	setBucketQty(t, env, childChain[0].ID, 3)

	shortfall, requirements, err := env.services.Explosion.ExplodeMaterials(ctx, map[string]int64{parent.ID: 4})
	if err != nil {
		t.Fatalf("explode: %v", err)
	}
	if shortfall[parent.ID] != 4 {
		t.Errorf("parent shortfall = %d, want 4", shortfall[parent.ID])
	}
	if shortfall[child.ID] != 5 {
		t.Errorf("child shortfall = %d, want 5", shortfall[child.ID])
	}
	req := requirements[m.ID]
	if req == nil || req.Total != 5 {
		t.Fatalf("material requirement = %+v, want total 5", requirements[m.ID])
	}
	// 分摊归到顶层产品
	if b := req.Breakdown[parent.ID]; b == nil || b.Quantity != 5 {
		t.Errorf("breakdown keyed by top product = %+v, want quantity 5", b)
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{0, 1, 0},
		{5, 1, 5},
		{5, 2, 3},
		{15, 2, 8},
		{6, 3, 2},
		{7, 3, 3},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
