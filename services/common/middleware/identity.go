package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/shopswift/services/common/auth"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
)

// UserIDKey is the gin context key holding the caller's user id.
const UserIDKey = "userID"

// UserIDHeader is set by the gateway after authentication.
const UserIDHeader = "X-User-ID"

// Identity resolves the caller's user id from the X-User-ID header or, when a
// parser is configured, from a bearer token. Requests without either pass
// through unidentified; handlers decide whether identity is required.
// An invalid bearer token is rejected with 401.
func Identity(parser *auth.TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(UserIDHeader)); userID != "" {
			c.Set(UserIDKey, userID)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if parser != nil && strings.HasPrefix(header, "Bearer ") {
			claims, err := parser.ParseAndValidateToken(strings.TrimPrefix(header, "Bearer "), "")
			if err != nil {
				apperrors.Respond(c, apperrors.Wrap(apperrors.KindUnauthorized, "Invalid token", err))
				c.Abort()
				return
			}
			if userID := auth.SubjectFromClaims(claims); userID != "" {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

// UserID returns the identity resolved by Identity, falling back to the
// userId query parameter.
func UserID(c *gin.Context) string {
	if v := c.GetString(UserIDKey); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("userId"))
}
