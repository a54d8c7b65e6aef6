package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/admin-service/clients"
	"github.com/yashrajoria/shopswift/services/admin-service/services"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	commonmw "github.com/yashrajoria/shopswift/services/common/middleware"
)

type AdminController struct {
	admin services.AdminService
}

func NewAdminController(admin services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

// Dashboard handles GET /admin/dashboard. startDate, endDate and userId are
// passed to the orders search.
func (a *AdminController) Dashboard(c *gin.Context) {
	dash, err := a.admin.Dashboard(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		var dashErr *services.DashboardError
		if errors.As(err, &dashErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "failed to load dashboard data",
				"code":    apperrors.KindUpstreamUnavailable,
				"sources": dashErr.Sources,
			})
			return
		}
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// Proxy forwards the request to path on the upstream. Path segments written
// as :name are filled from the route's params. The caller's query string is
// forwarded on GET; the body is forwarded on every other method.
func (a *AdminController) Proxy(to clients.Upstream, method, path string, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			query url.Values
			body  json.RawMessage
		)
		if method == http.MethodGet {
			query = c.Request.URL.Query()
		} else {
			raw, err := c.GetRawData()
			if err != nil {
				apperrors.BadRequest(c, err)
				return
			}
			if len(raw) > 0 && !json.Valid(raw) {
				apperrors.Respond(c, apperrors.New(apperrors.KindInvalidInput, "Request body must be valid JSON"))
				return
			}
			body = raw
		}

		headers := http.Header{}
		if userID := c.GetString(commonmw.UserIDKey); userID != "" {
			headers.Set(commonmw.UserIDHeader, userID)
		}

		out, err := a.admin.Forward(c.Request.Context(), to, method, expandPath(path, c), query, headers, body)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if len(out) == 0 {
			c.Status(status)
			return
		}
		c.Data(status, "application/json; charset=utf-8", out)
	}
}

func expandPath(path string, c *gin.Context) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			segments[i] = url.PathEscape(c.Param(seg[1:]))
		}
	}
	return strings.Join(segments, "/")
}
