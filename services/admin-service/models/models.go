package models

import "time"

// Upstream read models. Only the fields the dashboard summarises are decoded;
// pass-through routes forward upstream bodies untouched.

type CartItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Cart struct {
	CustomerID string     `json:"customerId"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
}

type Order struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Product struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	Enabled bool    `json:"enabled"`
}

type Promotion struct {
	Code    string  `json:"code"`
	Type    string  `json:"type"`
	Value   float64 `json:"value"`
	Enabled bool    `json:"enabled"`
}

// Dashboard is the aggregated admin overview.
type Dashboard struct {
	Carts       CartStats      `json:"carts"`
	Orders      OrderStats     `json:"orders"`
	Inventory   InventoryStats `json:"inventory"`
	Promotions  PromotionStats `json:"promotions"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

type CartStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	// Value is the sum of active cart totals.
	Value float64 `json:"value"`
}

type OrderStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	Revenue  float64        `json:"revenue"`
}

type InventoryStats struct {
	Products          int       `json:"products"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	LowStock          []Product `json:"lowStock"`
}

type PromotionStats struct {
	Total   int `json:"total"`
	Enabled int `json:"enabled"`
}
