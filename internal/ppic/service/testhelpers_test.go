package service

import (
	"context"
	"testing"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/entity"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	repos    *repository.Repositories
	services *Services
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := NewServices(db, repos, nil, zap.NewNop())
	return &testEnv{db: db, repos: repos, services: services}
}

// seedProduct 建产品并依次追加工序，返回产品与工序链
func seedProduct(t *testing.T, env *testEnv, code string, processes ...*ProcessInput) (*entity.Product, []entity.Process) {
	t.Helper()
	ctx := context.Background()
	product, err := env.services.BOM.CreateProduct(ctx, &CreateProductInput{Code: code, Name: code}, "tester")
	if err != nil {
		t.Fatalf("create product %s: %v", code, err)
	}
	for i, in := range processes {
		in.Order = i + 1
		if _, err := env.services.BOM.CreateProcess(ctx, product.ID, in, "tester"); err != nil {
			t.Fatalf("create process %d of %s: %v", i+1, code, err)
		}
	}
	chain, err := env.repos.BOM.ListProcesses(ctx, product.ID)
	if err != nil {
		t.Fatalf("list processes of %s: %v", code, err)
	}
	return product, chain
}

func seedMaterial(t *testing.T, env *testEnv, code string) *entity.Material {
	t.Helper()
	material, err := env.services.BOM.CreateMaterial(context.Background(), &MaterialInput{Code: code, Name: code}, "tester")
	if err != nil {
		t.Fatalf("create material %s: %v", code, err)
	}
	return material
}

// setMaterialStock 直接落一行材料库存
func setMaterialStock(t *testing.T, env *testEnv, materialID string, qty int64) {
	t.Helper()
	stock := &entity.WarehouseMaterial{ID: newID(), MaterialID: materialID, Quantity: qty}
	if err := env.db.Create(stock).Error; err != nil {
		t.Fatalf("seed material stock: %v", err)
	}
}

// setBucketQty 直接改某工序主桶数量
func setBucketQty(t *testing.T, env *testEnv, processID string, qty int64) {
	t.Helper()
	err := env.db.Model(&entity.WarehouseProduct{}).
		Where("process_id = ? AND warehouse_type <> ?", processID, entity.WarehouseTypeSubcontract).
		Update("quantity", qty).Error
	if err != nil {
		t.Fatalf("seed bucket quantity: %v", err)
	}
}

func bucketQty(t *testing.T, env *testEnv, processID string, warehouseType int) int64 {
	t.Helper()
	bucket, err := env.repos.Stock.FindBucket(context.Background(), processID, warehouseType)
	if err != nil {
		t.Fatalf("find bucket: %v", err)
	}
	return bucket.Quantity
}

func materialQty(t *testing.T, env *testEnv, materialID string) int64 {
	t.Helper()
	stock, err := env.repos.Stock.FindMaterialStock(context.Background(), materialID)
	if err != nil {
		t.Fatalf("find material stock: %v", err)
	}
	return stock.Quantity
}

func listMovementsFor(bucketID string) repository.MovementListParams {
	return repository.MovementListParams{BucketID: bucketID, Page: 1, Size: 50}
}

// seedSalesOrder 建一张已确认销售订单
func seedSalesOrder(t *testing.T, env *testEnv, productID string, qty, delivered int64) *entity.SalesOrder {
	t.Helper()
	order := &entity.SalesOrder{
		ID:         newID(),
		Code:       "SO-" + newID()[:8],
		CustomerID: "cust-1",
		Fixed:      true,
		Orders: []entity.ProductOrder{{
			ID:        newID(),
			ProductID: productID,
			Quantity:  qty,
			Delivered: delivered,
		}},
	}
	if err := env.db.Create(order).Error; err != nil {
		t.Fatalf("seed sales order: %v", err)
	}
	return order
}
