package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yashrajoria/shopswift/services/common/httpclient"
)

// Product is the part of an inventory record the order service reads.
type Product struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	Enabled bool    `json:"enabled"`
}

// InventoryClient communicates with the inventory service.
type InventoryClient interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	Deduct(ctx context.Context, productID string, quantity int) error
	Restock(ctx context.Context, productID string, quantity int) error
}

type stockRequest struct {
	Quantity int `json:"quantity"`
}

// HTTPInventoryClient implements InventoryClient over the inventory REST API.
type HTTPInventoryClient struct {
	http *httpclient.Client
}

func NewInventoryClient(baseURL string, s httpclient.Settings) *HTTPInventoryClient {
	return &HTTPInventoryClient{http: httpclient.New("inventory-service", baseURL, s)}
}

// GetProduct fetches a product by id.
func (c *HTTPInventoryClient) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var p Product
	if err := c.http.Do(ctx, http.MethodGet, productPath(productID), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Deduct removes quantity from stock or fails with the inventory's error kind.
func (c *HTTPInventoryClient) Deduct(ctx context.Context, productID string, quantity int) error {
	return c.http.Do(ctx, http.MethodPost, productPath(productID)+"/deduct", nil, stockRequest{Quantity: quantity}, nil)
}

// Restock returns quantity to stock.
func (c *HTTPInventoryClient) Restock(ctx context.Context, productID string, quantity int) error {
	return c.http.Do(ctx, http.MethodPost, productPath(productID)+"/restock", nil, stockRequest{Quantity: quantity}, nil)
}

func productPath(id string) string {
	return "/products/" + url.PathEscape(id)
}
