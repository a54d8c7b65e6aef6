package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yashrajoria/shopswift/services/admin-service/models"
	"github.com/yashrajoria/shopswift/services/common/httpclient"
)

// Upstream names one of the services behind the admin API.
type Upstream string

const (
	Carts      Upstream = "cart-service"
	Orders     Upstream = "order-service"
	Inventory  Upstream = "inventory-service"
	Promotions Upstream = "promotion-service"
)

// URLs holds each upstream's base URL.
type URLs struct {
	Cart      string
	Order     string
	Inventory string
	Promotion string
}

// Gateway reads dashboard data from the upstreams and forwards admin actions.
type Gateway interface {
	ListCarts(ctx context.Context) ([]models.Cart, error)
	SearchOrders(ctx context.Context, query url.Values) ([]models.Order, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListPromotions(ctx context.Context) ([]models.Promotion, error)
	Forward(ctx context.Context, to Upstream, method, path string, query url.Values, headers http.Header, body json.RawMessage) (json.RawMessage, error)
}

type GatewayClient struct {
	upstreams map[Upstream]*httpclient.Client
}

func NewGatewayClient(urls URLs, s httpclient.Settings) *GatewayClient {
	return &GatewayClient{upstreams: map[Upstream]*httpclient.Client{
		Carts:      httpclient.New(string(Carts), urls.Cart, s),
		Orders:     httpclient.New(string(Orders), urls.Order, s),
		Inventory:  httpclient.New(string(Inventory), urls.Inventory, s),
		Promotions: httpclient.New(string(Promotions), urls.Promotion, s),
	}}
}

func (g *GatewayClient) ListCarts(ctx context.Context) ([]models.Cart, error) {
	var carts []models.Cart
	if err := g.upstreams[Carts].Do(ctx, http.MethodGet, "/cart", nil, nil, &carts); err != nil {
		return nil, err
	}
	return carts, nil
}

// SearchOrders calls /orders/search; an empty query returns every order.
func (g *GatewayClient) SearchOrders(ctx context.Context, query url.Values) ([]models.Order, error) {
	var orders []models.Order
	if err := g.upstreams[Orders].Do(ctx, http.MethodGet, withQuery("/orders/search", query), nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (g *GatewayClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := g.upstreams[Inventory].Do(ctx, http.MethodGet, "/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (g *GatewayClient) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	var promotions []models.Promotion
	if err := g.upstreams[Promotions].Do(ctx, http.MethodGet, "/promotions", nil, nil, &promotions); err != nil {
		return nil, err
	}
	return promotions, nil
}

// Forward sends body (when non-empty) to the upstream and returns its raw
// JSON response. Upstream error envelopes come back as typed errors.
func (g *GatewayClient) Forward(ctx context.Context, to Upstream, method, path string, query url.Values, headers http.Header, body json.RawMessage) (json.RawMessage, error) {
	client, ok := g.upstreams[to]
	if !ok {
		return nil, fmt.Errorf("unknown upstream %q", to)
	}

	var in any
	if len(body) > 0 {
		in = body
	}
	var out json.RawMessage
	if err := client.Do(ctx, method, withQuery(path, query), headers, in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
