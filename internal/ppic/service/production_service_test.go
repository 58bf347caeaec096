package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
)

func TestCreateReportPostsLedger(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-PR")
	setMaterialStock(t, env, m.ID, 100)
	_, chain := seedProduct(t, env, "P-PR", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 2, Output: 1}},
	})

	report, err := env.services.Production.CreateReport(ctx, &ProductionReportInput{
		ProcessID:       chain[0].ID,
		Quantity:        5,
		QuantityNotGood: 1,
	}, "tester")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	// 消耗按 良品+不良 = 6 计：材料扣 6*2 = 12
	if q := materialQty(t, env, m.ID); q != 88 {
		t.Errorf("material stock = %d, want 88", q)
	}
	// 入库只记良品
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 5 {
		t.Errorf("output bucket = %d, want 5", q)
	}
	if len(report.Materials) != 1 || report.Materials[0].Quantity != 12 {
		t.Errorf("consumption line = %+v, want quantity 12", report.Materials)
	}
}

func TestCreateReportInsufficientStockAtomic(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-SHORT")
	setMaterialStock(t, env, m.ID, 3)
	_, chain := seedProduct(t, env, "P-SHORT", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 2, Output: 1}},
	})

	_, err := env.services.Production.CreateReport(ctx, &ProductionReportInput{
		ProcessID: chain[0].ID,
		Quantity:  5,
	}, "tester")
	var insufficient *entity.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	// 整体回滚：材料与产出桶都不动
	if q := materialQty(t, env, m.ID); q != 3 {
		t.Errorf("material stock = %d, want untouched 3", q)
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 0 {
		t.Errorf("output bucket = %d, want 0", q)
	}
	var count int64
	env.db.Model(&entity.ProductionReport{}).Count(&count)
	if count != 0 {
		t.Errorf("report rows = %d, want 0", count)
	}
}

func TestUpdateReportReversesThenReapplies(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-UPD")
	setMaterialStock(t, env, m.ID, 100)
	_, chain := seedProduct(t, env, "P-UPD", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 2, Output: 1}},
	})

	report, err := env.services.Production.CreateReport(ctx, &ProductionReportInput{
		ProcessID: chain[0].ID,
		Quantity:  5,
	}, "tester")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	updated, err := env.services.Production.UpdateReport(ctx, report.ID, &ProductionReportInput{
		ProcessID: chain[0].ID,
		Quantity:  3,
	}, "tester")
	if err != nil {
		t.Fatalf("update report: %v", err)
	}
	if updated.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", updated.Quantity)
	}
	// 100 - 3*2 = 94
	if q := materialQty(t, env, m.ID); q != 94 {
		t.Errorf("material stock = %d, want 94", q)
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 3 {
		t.Errorf("output bucket = %d, want 3", q)
	}
}

func TestUpdateReportLockedAfterEdgeChange(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m1 := seedMaterial(t, env, "M-L1")
	m2 := seedMaterial(t, env, "M-L2")
	setMaterialStock(t, env, m1.ID, 100)
	setMaterialStock(t, env, m2.ID, 100)
	_, chain := seedProduct(t, env, "P-LOCK", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m1.ID, Input: 1, Output: 1}},
	})

	report, err := env.services.Production.CreateReport(ctx, &ProductionReportInput{
		ProcessID: chain[0].ID,
		Quantity:  5,
	}, "tester")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	// 用料边整体替换
	if _, err := env.services.BOM.UpdateProcess(ctx, chain[0].ID, &ProcessInput{
		Name:      "press",
		Order:     1,
		Materials: []MaterialEdgeInput{{MaterialID: m2.ID, Input: 1, Output: 1}},
	}); err != nil {
		t.Fatalf("swap edge: %v", err)
	}

	_, err = env.services.Production.UpdateReport(ctx, report.ID, &ProductionReportInput{
		ProcessID: chain[0].ID,
		Quantity:  4,
	}, "tester")
	var locked *entity.LockedRecordError
	if !errors.As(err, &locked) {
		t.Fatalf("update err = %v, want LockedRecordError", err)
	}

	// 删除同样被锁，账面保持编辑前状态
	err = env.services.Production.DeleteReport(ctx, report.ID, "tester")
	if !errors.As(err, &locked) {
		t.Fatalf("delete err = %v, want LockedRecordError", err)
	}
	if q := materialQty(t, env, m1.ID); q != 95 {
		t.Errorf("material stock = %d, want 95", q)
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 5 {
		t.Errorf("output bucket = %d, want 5", q)
	}
}

func TestDeleteReportRestoresLedger(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-DEL")
	setMaterialStock(t, env, m.ID, 100)
	_, chain := seedProduct(t, env, "P-RDEL", &ProcessInput{
		Name:      "press",
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 2, Output: 1}},
	})

	report, err := env.services.Production.CreateReport(ctx, &ProductionReportInput{
		ProcessID: chain[0].ID,
		Quantity:  5,
	}, "tester")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if err := env.services.Production.DeleteReport(ctx, report.ID, "tester"); err != nil {
		t.Fatalf("delete report: %v", err)
	}
	if q := materialQty(t, env, m.ID); q != 100 {
		t.Errorf("material stock = %d, want restored 100", q)
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 0 {
		t.Errorf("output bucket = %d, want 0", q)
	}
}

func TestMultiStageReportConsumesPreviousBucket(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, chain := seedProduct(t, env, "P-CHAIN", &ProcessInput{Name: "blank"}, &ProcessInput{Name: "finish"})
	setBucketQty(t, env, chain[0].ID, 10)

	if _, err := env.services.Production.CreateReport(ctx, &ProductionReportInput{
		ProcessID: chain[1].ID,
		Quantity:  4,
	}, "tester"); err != nil {
		t.Fatalf("create report: %v", err)
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WipWarehouseType(1)); q != 6 {
		t.Errorf("previous bucket = %d, want 6", q)
	}
	if q := bucketQty(t, env, chain[1].ID, entity.WarehouseTypeFinishedGood); q != 4 {
		t.Errorf("output bucket = %d, want 4", q)
	}
}
