package delivery

import (
	"net/http"
	"strings"

	authdomain "update-tracker/internal/auth/domain"
	"update-tracker/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		principal, err := authUsecase.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireOperator rejects principals without the operator or admin role.
// It must run after AuthMiddleware.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal == nil || !principal.IsOperator() {
			c.JSON(http.StatusForbidden, gin.H{"error": "operator role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller, or nil outside AuthMiddleware
func PrincipalFrom(c *gin.Context) *authdomain.Principal {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	principal, _ := v.(*authdomain.Principal)
	return principal
}

// AllowUser aborts with 403 unless the caller may read userID's data
func AllowUser(c *gin.Context, userID string) bool {
	principal := PrincipalFrom(c)
	if principal == nil || !principal.CanAccessUser(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		c.Abort()
		return false
	}
	return true
}
