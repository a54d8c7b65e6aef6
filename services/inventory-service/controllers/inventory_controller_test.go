package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/inventory-service/controllers"
	"github.com/yashrajoria/shopswift/services/inventory-service/models"
	"github.com/yashrajoria/shopswift/services/inventory-service/routes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock InventoryService ---

type mockInventoryService struct {
	listFn    func(ctx context.Context, enabled *bool) ([]models.Product, error)
	getFn     func(ctx context.Context, id string) (*models.Product, error)
	createFn  func(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	updateFn  func(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error)
	deductFn  func(ctx context.Context, id string, qty int) (*models.Product, error)
	restockFn func(ctx context.Context, id string, qty int) (*models.Product, error)
}

func (m *mockInventoryService) ListProducts(ctx context.Context, enabled *bool) ([]models.Product, error) {
	return m.listFn(ctx, enabled)
}
func (m *mockInventoryService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return m.getFn(ctx, id)
}
func (m *mockInventoryService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	return m.createFn(ctx, req)
}
func (m *mockInventoryService) UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	return m.updateFn(ctx, id, req)
}
func (m *mockInventoryService) Deduct(ctx context.Context, id string, qty int) (*models.Product, error) {
	return m.deductFn(ctx, id, qty)
}
func (m *mockInventoryService) Restock(ctx context.Context, id string, qty int) (*models.Product, error) {
	return m.restockFn(ctx, id, qty)
}

func setupRouter(svc *mockInventoryService) *gin.Engine {
	r := gin.New()
	routes.RegisterRoutes(r, controllers.NewInventoryController(svc))
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- Tests ---

func TestController_ListProducts_EnabledFilter(t *testing.T) {
	var got *bool
	svc := &mockInventoryService{
		listFn: func(_ context.Context, enabled *bool) ([]models.Product, error) {
			got = enabled
			return []models.Product{{ID: "1", Enabled: true}}, nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodGet, "/products?enabled=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.True(t, *got)

	w = doJSON(r, http.MethodGet, "/products?enabled=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeEnvelope(t, w)["code"])
}

func TestController_GetProduct_NotFound(t *testing.T) {
	svc := &mockInventoryService{
		getFn: func(_ context.Context, id string) (*models.Product, error) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "Product %s not found", id)
		},
	}
	w := doJSON(setupRouter(svc), http.MethodGet, "/products/99", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "NOT_FOUND", resp["code"])
	assert.Equal(t, "Product 99 not found", resp["error"])
}

func TestController_CreateProduct(t *testing.T) {
	svc := &mockInventoryService{
		createFn: func(_ context.Context, req *models.CreateProductRequest) (*models.Product, error) {
			return &models.Product{ID: "new", Name: req.Name, Price: req.Price, Enabled: true}, nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/products", map[string]any{"name": "Lamp", "price": 25})
	assert.Equal(t, http.StatusCreated, w.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Lamp", p.Name)

	w = doJSON(r, http.MethodPost, "/products", map[string]any{"name": "Lamp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeEnvelope(t, w)["code"])
}

func TestController_UpdateProduct(t *testing.T) {
	svc := &mockInventoryService{
		updateFn: func(_ context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
			require.NotNil(t, req.Enabled)
			assert.Nil(t, req.Price)
			return &models.Product{ID: id, Enabled: *req.Enabled}, nil
		},
	}
	w := doJSON(setupRouter(svc), http.MethodPatch, "/products/1", map[string]any{"enabled": false})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestController_Deduct(t *testing.T) {
	svc := &mockInventoryService{
		deductFn: func(_ context.Context, id string, qty int) (*models.Product, error) {
			if qty > 3 {
				return nil, apperrors.New(apperrors.KindInsufficientStock, "Insufficient stock")
			}
			return &models.Product{ID: id, Stock: 3 - qty}, nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/products/1/deduct", models.StockRequest{Quantity: 2})
	assert.Equal(t, http.StatusOK, w.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 1, p.Stock)

	w = doJSON(r, http.MethodPost, "/products/1/deduct", models.StockRequest{Quantity: 5})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", decodeEnvelope(t, w)["code"])
}

func TestController_Restock_BadBody(t *testing.T) {
	svc := &mockInventoryService{}
	req, _ := http.NewRequest(http.MethodPost, "/products/1/restock", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
