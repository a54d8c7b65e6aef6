package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/middleware"
	"github.com/yashrajoria/shopswift/services/order-service/models"
	"github.com/yashrajoria/shopswift/services/order-service/services"
)

const dateLayout = "2006-01-02"

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// GetOrders returns the caller's orders, newest first.
func (oc *OrderController) GetOrders(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		apperrors.Respond(c, apperrors.New(apperrors.KindInvalidInput, "User ID is required"))
		return
	}

	orders, err := oc.orderService.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// SearchOrders handles GET /orders/search?userId&startDate&endDate.
func (oc *OrderController) SearchOrders(c *gin.Context) {
	filter := models.SearchFilter{UserID: strings.TrimSpace(c.Query("userId"))}

	if raw := strings.TrimSpace(c.Query("startDate")); raw != "" {
		start, _, err := parseDate(raw)
		if err != nil {
			apperrors.Respond(c, apperrors.Wrap(apperrors.KindInvalidInput, "Invalid startDate", err))
			return
		}
		filter.Start = &start
	}
	if raw := strings.TrimSpace(c.Query("endDate")); raw != "" {
		end, dayOnly, err := parseDate(raw)
		if err != nil {
			apperrors.Respond(c, apperrors.Wrap(apperrors.KindInvalidInput, "Invalid endDate", err))
			return
		}
		if dayOnly {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.End = &end
	}

	orders, err := oc.orderService.SearchOrders(c.Request.Context(), filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// parseDate accepts RFC3339 or YYYY-MM-DD. dayOnly reports the latter.
func parseDate(raw string) (t time.Time, dayOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	if t, err = time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), true, nil
	}
	return time.Time{}, false, err
}

func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	order, err := oc.orderService.CreateOrder(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /orders/:id/status.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, err)
		return
	}

	order, err := oc.orderService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
