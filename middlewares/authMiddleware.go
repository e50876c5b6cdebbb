package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wagelink/workpay_backend/utils"
)

// AuthMiddleware resolves the bearer token into the caller's wallet and role.
// Requests without a token pass through unauthenticated; operations that need
// a principal reject them later with ErrUnauthorized. A bad token is rejected
// here so a caller never proceeds with a half-valid identity.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Header("X-Correlation-Id", correlationId)

		token := bearerToken(c)
		if token == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		parsed, err := utils.JwtValidate(token)
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claims, ok := parsed.Claims.(*utils.JwtCustomClaim)
		if !ok || claims.Wallet == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx = utils.SetWalletInContext(ctx, claims.Wallet)
		ctx = utils.SetRoleInContext(ctx, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Request.Header.Get("token")
}
