package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID       uuid.UUID  `json:"flight_id"`
	SeatID         *uuid.UUID `json:"seat_id"`
	SeatNumber     string     `json:"seat_number"`
	TravelClassID  *uuid.UUID `json:"travel_class_id"`
	TravelClass    string     `json:"travel_class"`
	IsRoundTrip    bool       `json:"is_round_trip"`
	ReturnFlightID *uuid.UUID `json:"return_flight_id"`
	ReturnSeatID   *uuid.UUID `json:"return_seat_id"`
	RedeemPoints   int        `json:"redeem_points" binding:"gte=0"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type seatRequest struct {
	SeatID uuid.UUID `json:"seat_id"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the booking routes. adminOnly guards the back-office
// endpoints.
func (h *BookingHandler) Register(router *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	router.POST("", h.create)
	router.GET("/mine", h.mine)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/assign-seat", h.assignSeat)
	router.POST("/:id/change-seat", h.changeSeat)
	router.GET("/:id/seats", h.seats)

	router.GET("", adminOnly, h.list)
	router.GET("/:id", adminOnly, h.get)
	router.DELETE("/:id", adminOnly, h.remove)
}

func (h *BookingHandler) create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.FlightID == uuid.Nil {
		badRequest(c, "flight_id is required")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:         user.UserID,
		FlightID:       req.FlightID,
		SeatID:         req.SeatID,
		SeatNumber:     req.SeatNumber,
		ClassID:        req.TravelClassID,
		Class:          domain.TravelClassName(req.TravelClass),
		IsRoundTrip:    req.IsRoundTrip,
		ReturnFlightID: req.ReturnFlightID,
		ReturnSeatID:   req.ReturnSeatID,
		RedeemPoints:   req.RedeemPoints,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) mine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit, ok := pagination(c)
	if !ok {
		return
	}

	result, err := h.service.MyBookings(c.Request.Context(), user.UserID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPageResponse(result))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	// the body is optional
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	result, err := h.service.CancelBooking(c.Request.Context(), user.UserID, id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelResponse{
		Booking:      toBookingResponse(result.Booking),
		RefundRate:   result.RefundRate.StringFixed(2),
		RefundAmount: result.Booking.Price.Mul(result.RefundRate).StringFixed(2),
	})
}

func (h *BookingHandler) assignSeat(c *gin.Context) {
	h.moveSeat(c, h.service.AssignSeat)
}

func (h *BookingHandler) changeSeat(c *gin.Context) {
	h.moveSeat(c, h.service.ChangeSeat)
}

func (h *BookingHandler) moveSeat(c *gin.Context, move func(ctx context.Context, userID, bookingID, seatID uuid.UUID) (*domain.Booking, error)) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req seatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.SeatID == uuid.Nil {
		badRequest(c, "seat_id is required")
		return
	}

	b, err := move(c.Request.Context(), user.UserID, id, req.SeatID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) seats(c *gin.Context) {
	flightID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	seatMap, err := h.service.SeatMap(c.Request.Context(), flightID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seatMap)
}

func (h *BookingHandler) list(c *gin.Context) {
	page, limit, ok := pagination(c)
	if !ok {
		return
	}

	result, err := h.service.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingPageResponse(result))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) remove(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.RemoveByAdmin(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
