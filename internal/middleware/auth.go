package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore/internal/auth"
	"docstore/internal/domain"
	"docstore/internal/service"
)

const (
	ContextKeyUser   = "user"
	ContextKeyRole   = "role"
	ContextKeyGroups = "groups"
	ContextKeyClaims = "claims"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AuthMiddleware returns Gin middleware that validates JWT tokens and injects
// the caller's name, role and groups.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := validator.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyUser, claims.Subject)
		c.Set(ContextKeyRole, string(claims.Role))
		c.Set(ContextKeyGroups, claims.Groups)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireRole returns middleware that checks the user's role against allowed roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := domain.UserRole(GetRole(c))
		if userRole == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"code": "FORBIDDEN", "message": "role not found in context"},
			})
			return
		}

		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   gin.H{"code": "FORBIDDEN", "message": "insufficient permissions"},
		})
	}
}

// GetUser extracts the authenticated user name from the Gin context.
func GetUser(c *gin.Context) (string, error) {
	val, ok := c.Get(ContextKeyUser)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	user, _ := val.(string)
	if user == "" {
		return "", domain.ErrUnauthorized
	}
	return user, nil
}

// GetRole extracts the user role string from the Gin context.
func GetRole(c *gin.Context) string {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	role, _ := val.(string)
	return role
}

// GetGroups extracts the caller's security groups from the Gin context.
func GetGroups(c *gin.Context) []string {
	val, exists := c.Get(ContextKeyGroups)
	if !exists {
		return nil
	}
	groups, _ := val.([]string)
	return groups
}

// GetActor builds the service-layer actor for the authenticated caller.
func GetActor(c *gin.Context) (service.Actor, error) {
	user, err := GetUser(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{
		User:   user,
		Role:   domain.UserRole(GetRole(c)),
		Groups: GetGroups(c),
	}, nil
}
