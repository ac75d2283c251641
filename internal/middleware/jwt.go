package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-travel/backend/internal/auth"
	"github.com/aura-travel/backend/pkg/ctxutil"
	"github.com/aura-travel/backend/pkg/response"
)

// ContextRole is the gin context key holding the resolved role for request logging.
const ContextRole = "user_role"

// credential returns the session token from the Authorization bearer header, falling back to the cookie.
func credential(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

// JWT authenticates routes outside the gated areas, such as /auth/me.
// The role is looked up on every request; a principal without one is refused.
func JWT(jwtService *auth.JWTService, roles RoleStore, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := credential(c, cookieName)
		if token == "" {
			response.Unauthorized(c, "missing credentials")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		role, err := roles.RoleFor(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, auth.ErrNoRole) {
				logger.Error("role lookup failed", zap.String("user_id", claims.UserID.String()), zap.Error(err))
			}
			response.Fail(c, http.StatusForbidden, string(ReasonNoRole), "this account has no access yet")
			c.Abort()
			return
		}
		p := ctxutil.Principal{UserID: claims.UserID, Email: claims.Email, Role: role}
		c.Request = c.Request.WithContext(ctxutil.WithPrincipal(c.Request.Context(), p))
		c.Set(ContextRole, string(role))
		c.Next()
	}
}
