package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/inventory-service/models"
	"github.com/yashrajoria/shopswift/services/inventory-service/services"
)

// InventoryController handles HTTP requests for products and stock
type InventoryController struct {
	service services.InventoryService
}

// NewInventoryController creates a new InventoryController
func NewInventoryController(service services.InventoryService) *InventoryController {
	return &InventoryController{service: service}
}

// ListProducts returns every product, optionally filtered by enabled
// GET /products?enabled=true
func (ic *InventoryController) ListProducts(c *gin.Context) {
	var enabled *bool
	if raw := c.Query("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			apperrors.Respond(c, apperrors.New(apperrors.KindInvalidInput, "enabled must be true or false"))
			return
		}
		enabled = &v
	}

	products, err := ic.service.ListProducts(c.Request.Context(), enabled)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct GET /products/:id
func (ic *InventoryController) GetProduct(c *gin.Context) {
	p, err := ic.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProduct POST /products
func (ic *InventoryController) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	p, err := ic.service.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct PATCH /products/:id
func (ic *InventoryController) UpdateProduct(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	p, err := ic.service.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Deduct POST /products/:id/deduct
func (ic *InventoryController) Deduct(c *gin.Context) {
	var req models.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	p, err := ic.service.Deduct(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Restock POST /products/:id/restock
func (ic *InventoryController) Restock(c *gin.Context) {
	var req models.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	p, err := ic.service.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
