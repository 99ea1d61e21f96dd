package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domain.ErrFlightNotFound, http.StatusNotFound, "flight_not_found"},
	{domain.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{domain.ErrLoyaltyTxnNotFound, http.StatusNotFound, "loyalty_transaction_not_found"},
	{domain.ErrSeatNotFound, http.StatusNotFound, "seat_not_found"},
	{domain.ErrNotBookingOwner, http.StatusForbidden, "not_booking_owner"},
	{domain.ErrFlightDeparted, http.StatusBadRequest, "flight_departed"},
	{domain.ErrFlightCancelled, http.StatusBadRequest, "flight_cancelled"},
	{domain.ErrInvalidClass, http.StatusBadRequest, "invalid_class"},
	{domain.ErrSeatInvalidForPlane, http.StatusBadRequest, "seat_invalid_for_plane"},
	{domain.ErrSeatClassMismatch, http.StatusBadRequest, "seat_class_mismatch"},
	{domain.ErrSeatInactive, http.StatusBadRequest, "seat_inactive"},
	{domain.ErrSeatRequired, http.StatusBadRequest, "seat_required"},
	{domain.ErrReturnLegRequired, http.StatusBadRequest, "return_leg_required"},
	{domain.ErrInvalidPoints, http.StatusBadRequest, "invalid_points"},
	{domain.ErrSeatAlreadyBooked, http.StatusConflict, "seat_already_booked"},
	{domain.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{domain.ErrInvalidBookingState, http.StatusConflict, "invalid_booking_state"},
	{domain.ErrPaymentDeclined, http.StatusPaymentRequired, "payment_declined"},
	{domain.ErrInsufficientBalance, http.StatusPaymentRequired, "insufficient_balance"},
	{domain.ErrPaymentTimeout, http.StatusGatewayTimeout, "payment_timeout"},
}

// writeError renders err as {error, code}. Errors without a mapping become
// a 500 with no detail; the cause is attached to the context for the
// request logger.
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.AbortWithStatusJSON(m.status, errorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: message, Code: "invalid_request"})
}
