package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/auth"
	"docstore/internal/domain"
	"docstore/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(v *auth.Validator) *gin.Engine {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(v))
	r.GET("/test", func(c *gin.Context) {
		actor, err := middleware.GetActor(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":   actor.User,
			"role":   actor.Role,
			"groups": actor.Groups,
		})
	})
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	v := auth.NewValidator("secret", "docstore")
	token, err := v.Issue("alice", domain.RoleUser, []string{"finance-editors"}, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	newAuthRouter(v).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["user"])
	assert.Equal(t, "user", resp["role"])
	assert.Equal(t, []interface{}{"finance-editors"}, resp["groups"])
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	newAuthRouter(auth.NewValidator("secret", "")).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	other, err := auth.NewValidator("other", "").Issue("alice", domain.RoleUser, nil, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+other)
	newAuthRouter(auth.NewValidator("secret", "")).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired token")
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin allowed", "admin", http.StatusOK},
		{"auditor allowed", "auditor", http.StatusOK},
		{"user rejected", "user", http.StatusForbidden},
		{"missing role", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.role != "" {
					c.Set(middleware.ContextKeyRole, tt.role)
				}
				c.Next()
			})
			r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleAuditor))
			r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", http.NoBody)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestGetActor_Unauthenticated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := middleware.GetActor(c)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
