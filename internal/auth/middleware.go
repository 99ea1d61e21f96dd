package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const UserContextKey = "user"

type UserContext struct {
	UserID uuid.UUID
	Email  string
	Role   domain.UserRole
}

func (u UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin || u.Role == domain.RoleSuperAdmin
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// AuthMiddleware verifies the bearer token and stores a UserContext.
func AuthMiddleware(svc *Service, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "missing_auth_header", "authorization header is required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, "invalid_auth_format", "expected: Bearer <token>")
			return
		}

		claims, err := svc.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				abort(c, http.StatusUnauthorized, "token_expired", "access token has expired")
				return
			}
			log.WithError(err).WithFields(logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}).Warn("auth failed")
			abort(c, http.StatusUnauthorized, "invalid_token", "invalid access token")
			return
		}

		c.Set(UserContextKey, UserContext{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

// RequireRole lets the request through when the caller has any of roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing_user_context", "user context not found")
			return
		}
		if !slices.Contains(roles, user.Role) {
			abort(c, http.StatusForbidden, "insufficient_permissions", "you don't have permission to access this resource")
			return
		}
		c.Next()
	}
}

func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}
	user, ok := value.(UserContext)
	return user, ok
}
