package models

import (
	"time"

	"github.com/yashrajoria/shopswift/pkg/money"
)

// CartItem snapshots the product's name and price when it is first added.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Cart is one customer's cart. TotalPrice is derived by Recalculate and
// never set directly.
type Cart struct {
	CustomerID        string     `json:"customerId"`
	Items             []CartItem `json:"items"`
	TotalPrice        float64    `json:"totalPrice"`
	PromotionCode     string     `json:"promotionCode,omitempty"`
	DiscountAmount    float64    `json:"discountAmount,omitempty"`
	ShippingAddressID string     `json:"shippingAddressId,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func NewCart(customerID string) *Cart {
	return &Cart{CustomerID: customerID, Items: []CartItem{}}
}

// Subtotal is sum(price*quantity) rounded to cents.
func (c *Cart) Subtotal() float64 {
	return money.Round2(money.Subtotal(c.lines()))
}

// Recalculate sets TotalPrice to max(0, subtotal - discount).
func (c *Cart) Recalculate() {
	c.TotalPrice = money.NetTotal(c.lines(), c.DiscountAmount)
}

func (c *Cart) lines() []money.Line {
	lines := make([]money.Line, len(c.Items))
	for i, it := range c.Items {
		lines[i] = money.Line{Price: it.Price, Quantity: it.Quantity}
	}
	return lines
}

// Find returns the index of productID's line, or -1.
func (c *Cart) Find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no slices with c.
func (c Cart) Clone() Cart {
	c.Items = append([]CartItem{}, c.Items...)
	return c
}

type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type SetAddressRequest struct {
	AddressID string `json:"addressId" binding:"required"`
}

// ApplyPromotionRequest with an empty code clears the cart's promotion.
type ApplyPromotionRequest struct {
	Code string `json:"code"`
}
