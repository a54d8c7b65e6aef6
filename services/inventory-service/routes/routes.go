package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/inventory-service/controllers"
)

// RegisterRoutes registers all inventory service routes
func RegisterRoutes(r *gin.Engine, ctrl *controllers.InventoryController) {
	products := r.Group("/products")
	{
		products.GET("", ctrl.ListProducts)
		products.GET("/:id", ctrl.GetProduct)

		// Admin
		products.POST("", ctrl.CreateProduct)
		products.PATCH("/:id", ctrl.UpdateProduct)

		// Order service
		products.POST("/:id/deduct", ctrl.Deduct)
		products.POST("/:id/restock", ctrl.Restock)
	}
}
