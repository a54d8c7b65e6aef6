package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yashrajoria/shopswift/services/common/httpclient"
	"github.com/yashrajoria/shopswift/services/promotion-service/models"
)

// CartReader reads a customer's cart from the cart service.
type CartReader interface {
	GetCart(ctx context.Context, customerID string) (*models.Cart, error)
}

type CartClient struct {
	http *httpclient.Client
}

func NewCartClient(baseURL string, s httpclient.Settings) *CartClient {
	return &CartClient{http: httpclient.New("cart-service", baseURL, s)}
}

func (c *CartClient) GetCart(ctx context.Context, customerID string) (*models.Cart, error) {
	var cart models.Cart
	if err := c.http.Do(ctx, http.MethodGet, "/cart/"+url.PathEscape(customerID), nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}
