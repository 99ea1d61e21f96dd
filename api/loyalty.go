package api

import (
	"net/http"

	"github.com/Domenick1991/airticket/internal/service/loyalty"
	"github.com/gin-gonic/gin"
)

type LoyaltyHandler struct {
	service loyalty.LoyaltyUseCase
}

func NewLoyaltyHandler(service loyalty.LoyaltyUseCase) *LoyaltyHandler {
	return &LoyaltyHandler{service: service}
}

func (h *LoyaltyHandler) Register(router *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	router.GET("/me", h.me)
	router.DELETE("/transactions/:id", adminOnly, h.removeTransaction)
}

func (h *LoyaltyHandler) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), user.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *LoyaltyHandler) removeTransaction(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.RemoveTransaction(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
