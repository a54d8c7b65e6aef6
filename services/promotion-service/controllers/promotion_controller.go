package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/promotion-service/models"
	"github.com/yashrajoria/shopswift/services/promotion-service/services"
)

// PromotionController handles HTTP requests for promotion operations.
type PromotionController struct {
	promotionService services.PromotionService
}

// NewPromotionController creates a new PromotionController.
func NewPromotionController(promotionService services.PromotionService) *PromotionController {
	return &PromotionController{promotionService: promotionService}
}

// ListPromotions handles GET /promotions.
func (pc *PromotionController) ListPromotions(ctx *gin.Context) {
	promotions, err := pc.promotionService.ListPromotions(ctx.Request.Context())
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, promotions)
}

// CreatePromotion handles POST /promotions.
func (pc *PromotionController) CreatePromotion(ctx *gin.Context) {
	var req models.CreatePromotionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, err)
		return
	}

	promotion, err := pc.promotionService.CreatePromotion(ctx.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, promotion)
}

// GetPromotion handles GET /promotions/:code.
func (pc *PromotionController) GetPromotion(ctx *gin.Context) {
	promotion, err := pc.promotionService.GetPromotion(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, promotion)
}

// TogglePromotion handles POST /promotions/:code/toggle.
func (pc *PromotionController) TogglePromotion(ctx *gin.Context) {
	promotion, err := pc.promotionService.TogglePromotion(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, promotion)
}

// ValidatePromotion handles POST /promotions/validate (called by cart-service).
func (pc *PromotionController) ValidatePromotion(ctx *gin.Context) {
	var req models.ValidateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, err)
		return
	}

	res, err := pc.promotionService.Validate(ctx.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// ApplyPromotion handles POST /promotions/apply.
func (pc *PromotionController) ApplyPromotion(ctx *gin.Context) {
	var req models.ApplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(ctx, apperrors.New(apperrors.KindInvalidInput, "customerId and couponCode are required"))
		return
	}

	res, err := pc.promotionService.Apply(ctx.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}
