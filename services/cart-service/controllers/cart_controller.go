package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/cart-service/models"
	"github.com/yashrajoria/shopswift/services/cart-service/services"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
)

type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// ListCarts returns every stored cart (admin)
func (cc *CartController) ListCarts(c *gin.Context) {
	carts, err := cc.cartService.ListCarts(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, carts)
}

// GetCart returns the current cart for a customer
func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.cartService.GetCart(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds a product or merges into its existing line
func (cc *CartController) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	cart, err := cc.cartService.AddItem(c.Request.Context(), c.Param("customerId"), req.ProductID, req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (cc *CartController) UpdateItem(c *gin.Context) {
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	cart, err := cc.cartService.UpdateItem(c.Request.Context(), c.Param("customerId"), c.Param("productId"), req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem removes a specific item from the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	cart, err := cc.cartService.RemoveItem(c.Request.Context(), c.Param("customerId"), c.Param("productId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart removes the whole cart
func (cc *CartController) ClearCart(c *gin.Context) {
	if err := cc.cartService.ClearCart(c.Request.Context(), c.Param("customerId")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (cc *CartController) SetAddress(c *gin.Context) {
	var req models.SetAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	cart, err := cc.cartService.SetAddress(c.Request.Context(), c.Param("customerId"), req.AddressID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (cc *CartController) ApplyPromotion(c *gin.Context) {
	var req models.ApplyPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	cart, err := cc.cartService.ApplyPromotion(c.Request.Context(), c.Param("customerId"), req.Code)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// Checkout turns the cart into an order and deletes the cart
func (cc *CartController) Checkout(c *gin.Context) {
	order, err := cc.cartService.Checkout(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
