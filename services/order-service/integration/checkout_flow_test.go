package integration

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
	"go.uber.org/zap"

	"github.com/yashrajoria/shopswift/pkg/store"
	cartclients "github.com/yashrajoria/shopswift/services/cart-service/clients"
	cartcontrollers "github.com/yashrajoria/shopswift/services/cart-service/controllers"
	cartmodels "github.com/yashrajoria/shopswift/services/cart-service/models"
	cartrepo "github.com/yashrajoria/shopswift/services/cart-service/repository"
	cartroutes "github.com/yashrajoria/shopswift/services/cart-service/routes"
	cartservices "github.com/yashrajoria/shopswift/services/cart-service/services"
	"github.com/yashrajoria/shopswift/services/common/httpclient"
	"github.com/yashrajoria/shopswift/services/common/server"
	invcontrollers "github.com/yashrajoria/shopswift/services/inventory-service/controllers"
	invmodels "github.com/yashrajoria/shopswift/services/inventory-service/models"
	invrepo "github.com/yashrajoria/shopswift/services/inventory-service/repository"
	invroutes "github.com/yashrajoria/shopswift/services/inventory-service/routes"
	invservices "github.com/yashrajoria/shopswift/services/inventory-service/services"
	orderclients "github.com/yashrajoria/shopswift/services/order-service/clients"
	ordercontrollers "github.com/yashrajoria/shopswift/services/order-service/controllers"
	orderrepo "github.com/yashrajoria/shopswift/services/order-service/repository"
	orderroutes "github.com/yashrajoria/shopswift/services/order-service/routes"
	orderservices "github.com/yashrajoria/shopswift/services/order-service/services"
	promocontrollers "github.com/yashrajoria/shopswift/services/promotion-service/controllers"
	promorepo "github.com/yashrajoria/shopswift/services/promotion-service/repository"
	promoroutes "github.com/yashrajoria/shopswift/services/promotion-service/routes"
	promoservices "github.com/yashrajoria/shopswift/services/promotion-service/services"
)

// stack runs the four services in-process on memory repositories, wired to
// each other over HTTP the same way their mains wire them.
type stack struct {
	inventory *httptest.Server
	cart      *httptest.Server
}

func newRouter(name string) *gin.Engine {
	return server.NewRouter(server.Options{Name: name, Logger: zap.NewNop()})
}

func newStack(t *testing.T, products ...invmodels.Product) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := zap.NewNop()
	settings := httpclient.DefaultSettings()

	catalog := invrepo.NewMemoryProductRepository()
	for i := range products {
		require.NoError(t, catalog.Save(ctx, &products[i]))
	}
	invRouter := newRouter("inventory-service")
	invroutes.RegisterRoutes(invRouter, invcontrollers.NewInventoryController(
		invservices.NewInventoryService(catalog, store.NewKeyMutex(), nil, nil, log)))
	invSrv := httptest.NewServer(invRouter)
	t.Cleanup(invSrv.Close)

	promotions := promorepo.NewMemoryPromotionRepository()
	_, err := promorepo.Seed(ctx, promotions)
	require.NoError(t, err)
	promoRouter := newRouter("promotion-service")
	promoroutes.RegisterPromotionRoutes(promoRouter, promocontrollers.NewPromotionController(
		promoservices.NewPromotionService(promotions, nil, nil, nil, nil, log)))
	promoSrv := httptest.NewServer(promoRouter)
	t.Cleanup(promoSrv.Close)

	orderRouter := newRouter("order-service")
	orderroutes.RegisterOrderRoutes(orderRouter, ordercontrollers.NewOrderController(
		orderservices.NewOrderService(orderrepo.NewMemoryOrderRepository(),
			orderclients.NewInventoryClient(invSrv.URL, settings), nil, nil, nil, log)))
	orderSrv := httptest.NewServer(orderRouter)
	t.Cleanup(orderSrv.Close)

	cartRouter := newRouter("cart-service")
	cartroutes.RegisterCartRoutes(cartRouter, cartcontrollers.NewCartController(
		cartservices.NewCartService(cartrepo.NewMemoryCartRepository(),
			cartclients.NewInventoryClient(invSrv.URL, settings),
			cartclients.NewPromotionClient(promoSrv.URL, settings),
			cartclients.NewOrderClient(orderSrv.URL, settings),
			nil, nil, nil, log)))
	cartSrv := httptest.NewServer(cartRouter)
	t.Cleanup(cartSrv.Close)

	return &stack{inventory: invSrv, cart: cartSrv}
}

func call(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func stockOf(t *testing.T, s *stack, id string) int {
	t.Helper()
	var p invmodels.Product
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, s.inventory.URL+"/products/"+id, nil, &p))
	return p.Stock
}

func TestCheckoutAcrossServices(t *testing.T) {
	s := newStack(t, invmodels.Product{ID: "p1", Name: "Desk Lamp", Price: 50, Stock: 2, Enabled: true})
	cartURL := s.cart.URL + "/cart/c1"

	var rejected errorBody
	status := call(t, http.MethodPost, cartURL+"/items", cartmodels.AddItemRequest{ProductID: "p1", Quantity: 3}, &rejected)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", rejected.Code)

	var cart cartmodels.Cart
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, cartURL+"/items", cartmodels.AddItemRequest{ProductID: "p1", Quantity: 2}, &cart))
	assert.Equal(t, 100.0, cart.TotalPrice)

	require.Equal(t, http.StatusOK, call(t, http.MethodPost, cartURL+"/promotion", cartmodels.ApplyPromotionRequest{Code: "SAVE10"}, &cart))
	assert.Equal(t, "SAVE10", cart.PromotionCode)
	assert.Equal(t, 10.0, cart.DiscountAmount)
	assert.Equal(t, 90.0, cart.TotalPrice)

	// Another buyer takes one unit before this customer checks out.
	require.Equal(t, http.StatusOK, call(t, http.MethodPatch, s.inventory.URL+"/products/p1", map[string]int{"stock": 1}, nil))

	var failed errorBody
	status = call(t, http.MethodPost, cartURL+"/checkout", nil, &failed)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ORDER_CREATION_FAILED", failed.Code)
	assert.Equal(t, 1, stockOf(t, s, "p1"))

	require.Equal(t, http.StatusOK, call(t, http.MethodGet, cartURL, nil, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "SAVE10", cart.PromotionCode)

	require.Equal(t, http.StatusOK, call(t, http.MethodPatch, s.inventory.URL+"/products/p1", map[string]int{"stock": 2}, nil))

	var order cartmodels.Order
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, cartURL+"/checkout", nil, &order))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "c1", order.UserID)
	assert.Equal(t, "PENDING", order.Status)
	assert.Equal(t, 100.0, order.TotalAmount)
	assert.Equal(t, 0, stockOf(t, s, "p1"))

	cart = cartmodels.Cart{}
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, cartURL, nil, &cart))
	assert.Empty(t, cart.Items)
	assert.Empty(t, cart.PromotionCode)
}
