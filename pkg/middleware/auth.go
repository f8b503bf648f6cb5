package middleware

import (
	"net/http"
	"strings"

	"aurumstore/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is where authenticated claims are stored in the gin context.
const ClaimsKey = "claims"

// OptionalAuth parses a Bearer token when one is present and stores the
// claims in the context. Requests without a token pass through anonymously;
// routes that branch on ownership check for claims themselves.
func OptionalAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(ClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireStoreOwner rejects requests whose token does not grant access to
// the store named in the :storeId route param.
func RequireStoreOwner(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if !claims.CanAccessStore(c.Param("storeId")) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not your store"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(c *gin.Context) (*jwt.Claims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*jwt.Claims)
	return claims, ok
}
