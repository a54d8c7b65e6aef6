package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
)

// Valid reports whether s is one of the four order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID       string  `json:"productId"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

// OrderItems is stored as a jsonb column.
type OrderItems []OrderItem

func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		items = OrderItems{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (items *OrderItems) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*items = OrderItems{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("order items: unsupported type %T", src)
	}
	return json.Unmarshal(b, items)
}

// Order is immutable once created except for Status. TotalAmount is fixed at
// creation from each item's PriceAtPurchase.
type Order struct {
	ID                string      `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID            string      `gorm:"type:varchar(128);not null;index" json:"userId"`
	Status            OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	TotalAmount       float64     `gorm:"not null" json:"totalAmount"`
	Items             OrderItems  `gorm:"type:jsonb;not null" json:"items"`
	ShippingAddressID string      `gorm:"type:varchar(128)" json:"shippingAddressId,omitempty"`
	CreatedAt         time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// CreateOrderItem is one requested line. Name and Price are optional and are
// looked up from inventory when missing.
type CreateOrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateOrderRequest struct {
	Items             []CreateOrderItem `json:"items"`
	ShippingAddressID string            `json:"shippingAddressId"`
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// SearchFilter bounds are inclusive. Zero values match everything.
type SearchFilter struct {
	UserID string
	Start  *time.Time
	End    *time.Time
}

// Matches reports whether o passes the filter.
func (f SearchFilter) Matches(o Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.Start != nil && o.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && o.CreatedAt.After(*f.End) {
		return false
	}
	return true
}

// OrderStatusEvent is published when an order's status changes.
type OrderStatusEvent struct {
	OrderID  string      `json:"orderId"`
	UserID   string      `json:"userId"`
	Previous OrderStatus `json:"previous"`
	Status   OrderStatus `json:"status"`
}
