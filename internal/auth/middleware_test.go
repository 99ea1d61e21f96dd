package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(svc *Service, roles ...domain.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(svc, logger.Discard())}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		user, ok := GetUserContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": user.UserID.String()})
	})
	router.GET("/protected", handlers...)
	return router
}

func doRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Success(t *testing.T) {
	svc := NewService("test-secret", "airticket")
	userID := uuid.New()
	token, err := svc.GenerateToken(userID, "a@example.com", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	w := doRequest(setupRouter(svc), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	svc := NewService("test-secret", "airticket")
	expired, err := svc.GenerateToken(uuid.New(), "a@example.com", domain.RoleUser, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewService("other-secret", "airticket").GenerateToken(uuid.New(), "a@example.com", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewService("test-secret", "someone-else").GenerateToken(uuid.New(), "a@example.com", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "missing_auth_header"},
		{"wrong scheme", "Basic abc", "invalid_auth_format"},
		{"empty token", "Bearer   ", "invalid_auth_format"},
		{"garbage", "Bearer not-a-token", "invalid_token"},
		{"expired", "Bearer " + expired, "token_expired"},
		{"foreign signature", "Bearer " + foreign, "invalid_token"},
		{"wrong issuer", "Bearer " + wrongIssuer, "invalid_token"},
	}

	router := setupRouter(svc)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tc.code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	svc := NewService("test-secret", "airticket")
	router := setupRouter(svc, domain.RoleAdmin, domain.RoleSuperAdmin)

	user, err := svc.GenerateToken(uuid.New(), "u@example.com", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	admin, err := svc.GenerateToken(uuid.New(), "a@example.com", domain.RoleSuperAdmin, time.Hour)
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_permissions")

	w = doRequest(router, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserContext_IsAdmin(t *testing.T) {
	assert.False(t, UserContext{Role: domain.RoleUser}.IsAdmin())
	assert.True(t, UserContext{Role: domain.RoleAdmin}.IsAdmin())
	assert.True(t, UserContext{Role: domain.RoleSuperAdmin}.IsAdmin())
}
