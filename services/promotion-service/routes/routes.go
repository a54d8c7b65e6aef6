package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/promotion-service/controllers"
)

// RegisterPromotionRoutes sets up all promotion-related routes.
func RegisterPromotionRoutes(r *gin.Engine, pc *controllers.PromotionController) {
	promotionRoutes := r.Group("/promotions")

	// Cart-facing
	promotionRoutes.POST("/validate", pc.ValidatePromotion)
	promotionRoutes.POST("/apply", pc.ApplyPromotion)

	// Admin
	promotionRoutes.GET("", pc.ListPromotions)
	promotionRoutes.POST("", pc.CreatePromotion)
	promotionRoutes.GET("/:code", pc.GetPromotion)
	promotionRoutes.POST("/:code/toggle", pc.TogglePromotion)
}
