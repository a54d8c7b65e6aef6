package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/cart-service/controllers"
)

func RegisterCartRoutes(r *gin.Engine, controller *controllers.CartController) {
	api := r.Group("/cart")
	{
		api.GET("", controller.ListCarts)
		api.GET("/:customerId", controller.GetCart)
		api.DELETE("/:customerId", controller.ClearCart)

		api.POST("/:customerId/items", controller.AddItem)
		api.PUT("/:customerId/items/:productId", controller.UpdateItem)
		api.DELETE("/:customerId/items/:productId", controller.RemoveItem)

		api.PUT("/:customerId/address", controller.SetAddress)
		api.POST("/:customerId/promotion", controller.ApplyPromotion)
		api.POST("/:customerId/checkout", controller.Checkout)
	}
}
