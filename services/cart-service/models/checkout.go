package models

import "time"

// OrderItem is one line of the order created at checkout.
type OrderItem struct {
	ProductID       string  `json:"productId"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

// Order is the order-service response to a checkout.
type Order struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	Status            string      `json:"status"`
	TotalAmount       float64     `json:"totalAmount"`
	Items             []OrderItem `json:"items"`
	ShippingAddressID string      `json:"shippingAddressId,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

type CreateOrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateOrderRequest struct {
	Items             []CreateOrderItem `json:"items"`
	ShippingAddressID string            `json:"shippingAddressId,omitempty"`
}

// CheckoutEvent is published after the order is created and the cart deleted.
type CheckoutEvent struct {
	CustomerID     string     `json:"customerId"`
	OrderID        string     `json:"orderId"`
	TotalAmount    float64    `json:"totalAmount"`
	PromotionCode  string     `json:"promotionCode,omitempty"`
	DiscountAmount float64    `json:"discountAmount,omitempty"`
	Items          []CartItem `json:"items"`
}

// Product is the part of an inventory record the cart reads.
type Product struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	Enabled bool    `json:"enabled"`
}

// PromotionValidation mirrors the promotion-service validate response.
type PromotionValidation struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalTotal     float64 `json:"finalTotal"`
	Message        string  `json:"message"`
}
