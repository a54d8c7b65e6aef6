package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/order-service/controllers"
)

func RegisterOrderRoutes(r *gin.Engine, ctrl *controllers.OrderController) {
	orderRoutes := r.Group("/orders")
	orderRoutes.GET("", ctrl.GetOrders) // Caller's own orders
	orderRoutes.GET("/search", ctrl.SearchOrders)
	orderRoutes.GET("/:id", ctrl.GetOrderByID)
	orderRoutes.PATCH("/:id/status", ctrl.UpdateOrderStatus)

	// Called by cart-service on checkout
	orderRoutes.POST("", ctrl.CreateOrder)
}
