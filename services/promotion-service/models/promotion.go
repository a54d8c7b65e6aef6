package models

import (
	"time"
)

// PromotionType represents the kind of discount a promotion gives.
type PromotionType string

const (
	PromotionTypePercentage  PromotionType = "PERCENTAGE"
	PromotionTypeFixedAmount PromotionType = "FIXED_AMOUNT"
)

// Valid reports whether t is a known promotion type.
func (t PromotionType) Valid() bool {
	return t == PromotionTypePercentage || t == PromotionTypeFixedAmount
}

// Promotion is a discount code. Codes are stored uppercase and are unique.
type Promotion struct {
	Code          string        `gorm:"type:varchar(64);primaryKey" json:"code"`
	Type          PromotionType `gorm:"type:varchar(20);not null" json:"type"`
	Value         float64       `gorm:"not null" json:"value"`                    // percentage or fixed amount
	MinOrderValue *float64      `json:"minOrderValue,omitempty"`                  // nil = no minimum
	Enabled       bool          `gorm:"not null" json:"enabled"`
	Description   string        `gorm:"type:varchar(255)" json:"description,omitempty"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

// CreatePromotionRequest is the payload for creating a promotion.
type CreatePromotionRequest struct {
	Code          string        `json:"code" binding:"required,max=64"`
	Type          PromotionType `json:"type" binding:"required"`
	Value         float64       `json:"value" binding:"required"`
	MinOrderValue *float64      `json:"minOrderValue" binding:"omitempty,gte=0"`
	Enabled       *bool         `json:"enabled"`
	Description   string        `json:"description"`
}

// ValidateRequest asks whether code applies to a cart snapshot.
type ValidateRequest struct {
	CartTotal float64 `json:"cartTotal" binding:"gte=0"`
	ItemCount int     `json:"itemCount" binding:"gte=0"`
	Code      string  `json:"code"`
}

// ValidationResult is returned for a code that applies.
type ValidationResult struct {
	Valid          bool          `json:"valid"`
	Code           string        `json:"code"`
	Type           PromotionType `json:"type"`
	OriginalTotal  float64       `json:"originalTotal"`
	DiscountAmount float64       `json:"discountAmount"`
	FinalTotal     float64       `json:"finalTotal"`
	Message        string        `json:"message"`
}

// ApplyRequest applies a code to a customer's cart held by the cart service.
type ApplyRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
	CouponCode string `json:"couponCode" binding:"required"`
}

// ApplyResult is a ValidationResult tied to the cart it was computed for.
type ApplyResult struct {
	ValidationResult
	CustomerID string `json:"customerId"`
}

// CartItem and Cart mirror the cart service's response.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Cart struct {
	CustomerID string     `json:"customerId"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
}

// PromotionAppliedEvent is published when a code is applied to a cart.
type PromotionAppliedEvent struct {
	CustomerID     string        `json:"customerId"`
	Code           string        `json:"code"`
	Type           PromotionType `json:"type"`
	OriginalTotal  float64       `json:"originalTotal"`
	DiscountAmount float64       `json:"discountAmount"`
}
