package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	commonmw "github.com/yashrajoria/shopswift/services/common/middleware"
)

// RequireIdentity rejects requests that the shared Identity middleware could
// not attribute to a user. The gateway's user_id cookie is accepted as a
// fallback.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(commonmw.UserIDKey)
		if userID == "" {
			if v, err := c.Cookie("user_id"); err == nil && v != "" {
				userID = v
				c.Set(commonmw.UserIDKey, userID)
			}
		}

		if userID == "" {
			apperrors.Respond(c, apperrors.New(apperrors.KindUnauthorized, "Unauthorized: Missing User ID"))
			c.Abort()
			return
		}
		c.Next()
	}
}
