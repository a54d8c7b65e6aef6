package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yashrajoria/shopswift/services/cart-service/models"
	"github.com/yashrajoria/shopswift/services/common/httpclient"
	"github.com/yashrajoria/shopswift/services/common/middleware"
)

type InventoryClient interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

type PromotionClient interface {
	Validate(ctx context.Context, cartTotal float64, itemCount int, code string) (*models.PromotionValidation, error)
}

type OrderClient interface {
	CreateOrder(ctx context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error)
}

// HTTPInventoryClient reads products from inventory-service. Concurrent
// lookups of the same product share one request.
type HTTPInventoryClient struct {
	http    *httpclient.Client
	group   singleflight.Group
	timeout time.Duration
}

func NewInventoryClient(baseURL string, s httpclient.Settings) *HTTPInventoryClient {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = httpclient.DefaultSettings().Timeout
	}
	return &HTTPInventoryClient{http: httpclient.New("inventory-service", baseURL, s), timeout: timeout}
}

// GetProduct waits for the shared lookup or for ctx. The shared request is not
// tied to any one caller's ctx, so a caller going away does not fail the
// others; it is bounded by the client timeout instead.
func (c *HTTPInventoryClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	ch := c.group.DoChan(productID, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		var p models.Product
		if err := c.http.Do(lctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, nil, &p); err != nil {
			return nil, err
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := res.Val.(models.Product)
		return &p, nil
	}
}

type HTTPPromotionClient struct {
	http *httpclient.Client
}

func NewPromotionClient(baseURL string, s httpclient.Settings) *HTTPPromotionClient {
	return &HTTPPromotionClient{http: httpclient.New("promotion-service", baseURL, s)}
}

type validateRequest struct {
	CartTotal float64 `json:"cartTotal"`
	ItemCount int     `json:"itemCount"`
	Code      string  `json:"code"`
}

// Validate returns the promotion-service's typed rejection (INVALID_CODE,
// COUPON_DISABLED, MINIMUM_NOT_MET, EMPTY_CART) as an error.
func (c *HTTPPromotionClient) Validate(ctx context.Context, cartTotal float64, itemCount int, code string) (*models.PromotionValidation, error) {
	var res models.PromotionValidation
	err := c.http.Do(ctx, http.MethodPost, "/promotions/validate", nil,
		validateRequest{CartTotal: cartTotal, ItemCount: itemCount, Code: code}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

type HTTPOrderClient struct {
	http *httpclient.Client
}

func NewOrderClient(baseURL string, s httpclient.Settings) *HTTPOrderClient {
	return &HTTPOrderClient{http: httpclient.New("order-service", baseURL, s)}
}

// CreateOrder posts the order on behalf of customerID.
func (c *HTTPOrderClient) CreateOrder(ctx context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error) {
	headers := http.Header{}
	headers.Set(middleware.UserIDHeader, customerID)

	var order models.Order
	if err := c.http.Do(ctx, http.MethodPost, "/orders", headers, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
