package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
)

func TestSubcontractDeliverAndReceiptRoundTrip(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-SC")
	setMaterialStock(t, env, m.ID, 50)
	_, chain := seedProduct(t, env, "P-SC", &ProcessInput{
		Name:      "plating",
		Type:      entity.ProcessTypeSubcontract,
		Materials: []MaterialEdgeInput{{MaterialID: m.ID, Input: 1, Output: 1}},
	})
	proc := chain[0]

	deliver, err := env.services.Subcontract.CreateDeliver(ctx, &DeliverInput{
		ProcessID:  proc.ID,
		SupplierID: "supp-1",
		Quantity:   10,
	}, "tester")
	if err != nil {
		t.Fatalf("create deliver: %v", err)
	}
	// 发外带走材料，进委外桶
	if q := materialQty(t, env, m.ID); q != 40 {
		t.Errorf("material stock = %d, want 40", q)
	}
	if q := bucketQty(t, env, proc.ID, entity.WarehouseTypeSubcontract); q != 10 {
		t.Errorf("subcontract bucket = %d, want 10", q)
	}

	receipt, err := env.services.Subcontract.CreateReceipt(ctx, &ReceiptInput{
		ProcessID:       proc.ID,
		Quantity:        7,
		QuantityNotGood: 1,
	}, "tester")
	if err != nil {
		t.Fatalf("create receipt: %v", err)
	}
	// 回厂扣委外桶 7+1，良品 7 进本工序主桶
	if q := bucketQty(t, env, proc.ID, entity.WarehouseTypeSubcontract); q != 2 {
		t.Errorf("subcontract bucket = %d, want 2", q)
	}
	if q := bucketQty(t, env, proc.ID, entity.WarehouseTypeFinishedGood); q != 7 {
		t.Errorf("finished-good bucket = %d, want 7", q)
	}

	if err := env.services.Subcontract.DeleteReceipt(ctx, receipt.ID, "tester"); err != nil {
		t.Fatalf("delete receipt: %v", err)
	}
	if err := env.services.Subcontract.DeleteDeliver(ctx, deliver.ID, "tester"); err != nil {
		t.Fatalf("delete deliver: %v", err)
	}
	if q := materialQty(t, env, m.ID); q != 50 {
		t.Errorf("material stock = %d, want restored 50", q)
	}
	if q := bucketQty(t, env, proc.ID, entity.WarehouseTypeSubcontract); q != 0 {
		t.Errorf("subcontract bucket = %d, want 0", q)
	}
}

func TestDeliverLockedAfterEdgeChange(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m1 := seedMaterial(t, env, "M-SL1")
	m2 := seedMaterial(t, env, "M-SL2")
	setMaterialStock(t, env, m1.ID, 50)
	setMaterialStock(t, env, m2.ID, 50)
	_, chain := seedProduct(t, env, "P-SLK", &ProcessInput{
		Name:      "plating",
		Type:      entity.ProcessTypeSubcontract,
		Materials: []MaterialEdgeInput{{MaterialID: m1.ID, Input: 1, Output: 1}},
	})

	deliver, err := env.services.Subcontract.CreateDeliver(ctx, &DeliverInput{
		ProcessID:  chain[0].ID,
		SupplierID: "supp-1",
		Quantity:   10,
	}, "tester")
	if err != nil {
		t.Fatalf("create deliver: %v", err)
	}

	if _, err := env.services.BOM.UpdateProcess(ctx, chain[0].ID, &ProcessInput{
		Name:      "plating",
		Order:     1,
		Type:      entity.ProcessTypeSubcontract,
		Materials: []MaterialEdgeInput{{MaterialID: m2.ID, Input: 1, Output: 1}},
	}); err != nil {
		t.Fatalf("swap edge: %v", err)
	}

	var locked *entity.LockedRecordError
	_, err = env.services.Subcontract.UpdateDeliver(ctx, deliver.ID, &DeliverInput{
		ProcessID:  chain[0].ID,
		SupplierID: "supp-1",
		Quantity:   8,
	}, "tester")
	if !errors.As(err, &locked) {
		t.Fatalf("update err = %v, want LockedRecordError", err)
	}

	err = env.services.Subcontract.DeleteDeliver(ctx, deliver.ID, "tester")
	if !errors.As(err, &locked) {
		t.Fatalf("delete err = %v, want LockedRecordError", err)
	}
	if q := materialQty(t, env, m1.ID); q != 40 {
		t.Errorf("material stock = %d, want 40", q)
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeSubcontract); q != 10 {
		t.Errorf("subcontract bucket = %d, want 10", q)
	}
}

func TestDeliverRejectsNormalProcess(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, chain := seedProduct(t, env, "P-NORM", &ProcessInput{Name: "press"})
	_, err := env.services.Subcontract.CreateDeliver(ctx, &DeliverInput{
		ProcessID:  chain[0].ID,
		SupplierID: "supp-1",
		Quantity:   5,
	}, "tester")
	if err == nil {
		t.Fatal("deliver on normal process succeeded, want error")
	}
}

func TestDeliveryCapsAtOrderedQuantity(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	product, chain := seedProduct(t, env, "P-DLV", &ProcessInput{Name: "press"})
	setBucketQty(t, env, chain[0].ID, 20)
	order := seedSalesOrder(t, env, product.ID, 10, 0)
	lineID := order.Orders[0].ID

	delivery, err := env.services.Delivery.CreateDelivery(ctx, &DeliveryInput{
		ProductOrderID: lineID,
		Quantity:       6,
	}, "tester")
	if err != nil {
		t.Fatalf("create delivery: %v", err)
	}
	if q := bucketQty(t, env, chain[0].ID, entity.WarehouseTypeFinishedGood); q != 14 {
		t.Errorf("finished-good bucket = %d, want 14", q)
	}
	var line entity.ProductOrder
	if err := env.db.First(&line, "id = ?", lineID).Error; err != nil {
		t.Fatalf("reload order line: %v", err)
	}
	if line.Delivered != 6 || line.Done {
		t.Errorf("line = delivered %d done %v, want 6/false", line.Delivered, line.Done)
	}

	// 超出在单数量
	if _, err := env.services.Delivery.CreateDelivery(ctx, &DeliveryInput{
		ProductOrderID: lineID,
		Quantity:       5,
	}, "tester"); err == nil {
		t.Fatal("over-delivery succeeded, want error")
	}

	// 交满置Done
	if _, err := env.services.Delivery.CreateDelivery(ctx, &DeliveryInput{
		ProductOrderID: lineID,
		Quantity:       4,
	}, "tester"); err != nil {
		t.Fatalf("final delivery: %v", err)
	}
	if err := env.db.First(&line, "id = ?", lineID).Error; err != nil {
		t.Fatalf("reload order line: %v", err)
	}
	if line.Delivered != 10 || !line.Done {
		t.Errorf("line = delivered %d done %v, want 10/true", line.Delivered, line.Done)
	}

	// 删除出库单回冲
	if err := env.services.Delivery.DeleteDelivery(ctx, delivery.ID, "tester"); err != nil {
		t.Fatalf("delete delivery: %v", err)
	}
	if err := env.db.First(&line, "id = ?", lineID).Error; err != nil {
		t.Fatalf("reload order line: %v", err)
	}
	if line.Delivered != 4 || line.Done {
		t.Errorf("line = delivered %d done %v, want 4/false", line.Delivered, line.Done)
	}
}

func TestMaterialReceiptUpdatesOrderAndStock(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m := seedMaterial(t, env, "M-ARR")
	order, err := env.services.Demand.CreateMaterialOrder(ctx, &CreateMaterialOrderInput{
		Code:       "MO-ARR",
		MaterialID: m.ID,
		SupplierID: "supp-1",
		Quantity:   30,
	}, "tester")
	if err != nil {
		t.Fatalf("create material order: %v", err)
	}

	if _, err := env.services.Delivery.CreateMaterialReceipt(ctx, &MaterialReceiptInput{
		MaterialOrderID: order.ID,
		Quantity:        30,
	}, "tester"); err != nil {
		t.Fatalf("create material receipt: %v", err)
	}
	if q := materialQty(t, env, m.ID); q != 30 {
		t.Errorf("material stock = %d, want 30", q)
	}
	reloaded, err := env.repos.Order.FindMaterialOrderByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload material order: %v", err)
	}
	if reloaded.Arrived != 30 || !reloaded.Done {
		t.Errorf("order = arrived %d done %v, want 30/true", reloaded.Arrived, reloaded.Done)
	}
}
