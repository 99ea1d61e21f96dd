package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/airticket/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads ?page and ?limit; zero means "use the default".
func pagination(c *gin.Context) (int, int, bool) {
	var out [2]int
	for i, key := range []string{"page", "limit"} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid "+key)
			return 0, 0, false
		}
		out[i] = n
	}
	return out[0], out[1], true
}

func currentUser(c *gin.Context) (auth.UserContext, bool) {
	user, ok := auth.GetUserContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "user context not found", Code: "missing_user_context"})
	}
	return user, ok
}
