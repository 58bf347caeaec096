package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/repository"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/service"
	"github.com/sonymuhamad/ganding-server-app-sub000/internal/ppic/testutil"
)

func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil, zap.NewNop())
	handlers := NewHandlers(services)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1/ppic")
	handlers.RegisterRoutes(api)
	return r
}

func TestProductCRUD(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "POST", "/api/v1/ppic/products", map[string]interface{}{
		"code": "PRD-001",
		"name": "支架",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	id := data["id"].(string)

	w = testutil.DoRequest(r, "GET", "/api/v1/ppic/products/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("get product status = %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	if got := resp["data"].(map[string]interface{})["code"]; got != "PRD-001" {
		t.Errorf("code = %v, want PRD-001", got)
	}

	w = testutil.DoRequest(r, "PUT", "/api/v1/ppic/products/"+id, map[string]interface{}{
		"code": "PRD-001",
		"name": "支架总成",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update product status = %d, body = %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "DELETE", "/api/v1/ppic/products/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("delete product status = %d, body = %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/ppic/products/"+id, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("get deleted product status = %d, want 404", w.Code)
	}
}

func TestProductRoutesRequireAuth(t *testing.T) {
	r := setupAPI(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/ppic/products", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/ppic/products", nil, "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}
}

func TestCreateProductValidation(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "POST", "/api/v1/ppic/products", map[string]interface{}{
		"name": "无编码",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing code status = %d, want 400", w.Code)
	}
}

func TestProcessAppendAndBuckets(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "POST", "/api/v1/ppic/products", map[string]interface{}{
		"code": "PRD-CH",
		"name": "链件",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product status = %d", w.Code)
	}
	productID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(r, "POST", "/api/v1/ppic/products/"+productID+"/processes", map[string]interface{}{
		"name":  "冲压",
		"order": 1,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create process status = %d, body = %s", w.Code, w.Body.String())
	}
	processID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// 只许追加在末尾
	w = testutil.DoRequest(r, "POST", "/api/v1/ppic/products/"+productID+"/processes", map[string]interface{}{
		"name":  "跳号",
		"order": 5,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("gapped order status = %d, want 400", w.Code)
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/ppic/processes/"+processID+"/buckets", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("list buckets status = %d", w.Code)
	}
	data := testutil.ParseResponse(w)["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("buckets = %d, want 1", len(data))
	}
	if wt := data[0].(map[string]interface{})["warehouse_type"].(float64); wt != 1 {
		t.Errorf("warehouse_type = %v, want finished-good", wt)
	}
}
