package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/admin-service/clients"
	"github.com/yashrajoria/shopswift/services/admin-service/controllers"
)

// RegisterRoutes mounts the admin API. guards run before every /admin route.
func RegisterRoutes(r *gin.Engine, ctrl *controllers.AdminController, guards ...gin.HandlerFunc) {
	admin := r.Group("/admin")
	admin.Use(guards...)
	{
		admin.GET("/dashboard", ctrl.Dashboard)

		// Carts
		admin.GET("/carts", ctrl.Proxy(clients.Carts, http.MethodGet, "/cart", http.StatusOK))
		admin.GET("/carts/:customerId", ctrl.Proxy(clients.Carts, http.MethodGet, "/cart/:customerId", http.StatusOK))

		// Orders
		admin.GET("/orders", ctrl.Proxy(clients.Orders, http.MethodGet, "/orders/search", http.StatusOK))
		admin.GET("/orders/:id", ctrl.Proxy(clients.Orders, http.MethodGet, "/orders/:id", http.StatusOK))
		admin.PATCH("/orders/:id/status", ctrl.Proxy(clients.Orders, http.MethodPatch, "/orders/:id/status", http.StatusOK))

		// Inventory
		admin.GET("/products", ctrl.Proxy(clients.Inventory, http.MethodGet, "/products", http.StatusOK))
		admin.POST("/products", ctrl.Proxy(clients.Inventory, http.MethodPost, "/products", http.StatusCreated))
		admin.PATCH("/products/:id", ctrl.Proxy(clients.Inventory, http.MethodPatch, "/products/:id", http.StatusOK))

		// Promotions
		admin.GET("/promotions", ctrl.Proxy(clients.Promotions, http.MethodGet, "/promotions", http.StatusOK))
		admin.POST("/promotions", ctrl.Proxy(clients.Promotions, http.MethodPost, "/promotions", http.StatusCreated))
		admin.POST("/promotions/:code/toggle", ctrl.Proxy(clients.Promotions, http.MethodPost, "/promotions/:code/toggle", http.StatusOK))
	}
}
