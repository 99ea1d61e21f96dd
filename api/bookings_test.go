package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/airticket/internal/auth"
	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*booking.CancelResult, error) {
	args := m.Called(ctx, userID, bookingID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *MockBookingUseCase) AssignSeat(ctx context.Context, userID, bookingID, seatID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, userID, bookingID, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ChangeSeat(ctx context.Context, userID, bookingID, newSeatID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, userID, bookingID, newSeatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) SeatMap(ctx context.Context, flightID uuid.UUID) (*domain.SeatMap, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatMap), args.Error(1)
}

func (m *MockBookingUseCase) MyBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.BookingPage, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingPage), args.Error(1)
}

func (m *MockBookingUseCase) ListAll(ctx context.Context, page, limit int) (*domain.BookingPage, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingPage), args.Error(1)
}

func (m *MockBookingUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) RemoveByAdmin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestContext(method, target string, body any, user *auth.UserContext) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if user != nil {
		c.Set(auth.UserContextKey, *user)
	}
	return c, w
}

func sampleBooking(userID uuid.UUID) *domain.Booking {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:            uuid.New(),
		UserID:        userID,
		FlightID:      uuid.New(),
		SeatID:        uuid.New(),
		TravelClassID: uuid.New(),
		Price:         decimal.RequireFromString("168"),
		PaymentStatus: domain.PaymentStatusPaid,
		Meta:          domain.BookingMeta{TxnID: "MOCK-1"},
		Version:       2,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}
	flightID := uuid.New()
	c, w := newTestContext(http.MethodPost, "/api/v1/bookings", map[string]any{
		"flight_id":     flightID,
		"seat_number":   "12A",
		"travel_class":  "ECONOM",
		"redeem_points": 20,
	}, &user)

	b := sampleBooking(user.UserID)
	mockService.On("CreateBooking", c.Request.Context(), booking.CreateBookingInput{
		UserID:       user.UserID,
		FlightID:     flightID,
		SeatNumber:   "12A",
		Class:        domain.TravelClassEconom,
		RedeemPoints: 20,
	}).Return(b, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, b.ID, response.ID)
	assert.Equal(t, "168.00", response.Price)
	assert.Equal(t, "PAID", response.PaymentStatus)
	assert.Equal(t, "MOCK-1", response.TxnID)
	assert.Equal(t, "2026-03-01T10:00:00Z", response.CreatedAt)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_createValidation(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)
	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}

	testCases := []struct {
		name string
		body any
	}{
		{"missing flight", map[string]any{"seat_number": "12A"}},
		{"bad uuid", map[string]any{"flight_id": "nope"}},
		{"negative points", map[string]any{"flight_id": uuid.New(), "redeem_points": -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodPost, "/api/v1/bookings", tc.body, &user)
			handler.create(c)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid_request")
		})
	}

	mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_createErrors(t *testing.T) {
	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}

	testCases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrSeatAlreadyBooked, http.StatusConflict, "seat_already_booked"},
		{fmt.Errorf("%w: Card declined", domain.ErrPaymentDeclined), http.StatusPaymentRequired, "payment_declined"},
		{domain.ErrPaymentTimeout, http.StatusGatewayTimeout, "payment_timeout"},
		{domain.ErrInsufficientBalance, http.StatusPaymentRequired, "insufficient_balance"},
		{fmt.Errorf("return leg: %w", domain.ErrFlightDeparted), http.StatusBadRequest, "flight_departed"},
		{domain.ErrFlightNotFound, http.StatusNotFound, "flight_not_found"},
		{fmt.Errorf("failed to insert booking: %w", context.DeadlineExceeded), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService)
			c, w := newTestContext(http.MethodPost, "/api/v1/bookings", map[string]any{"flight_id": uuid.New(), "seat_number": "12A"}, &user)
			mockService.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, tc.err)

			handler.create(c)

			assert.Equal(t, tc.status, w.Code)
			var response errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.code, response.Code)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, response.Error, "deadline")
			}
		})
	}
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}
	b := sampleBooking(user.UserID)
	b.PaymentStatus = domain.PaymentStatusRefunded
	b.Meta.RefundReason = "plans changed"

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/"+b.ID.String()+"/cancel", map[string]string{"reason": "plans changed"}, &user)
	c.Params = gin.Params{{Key: "id", Value: b.ID.String()}}

	mockService.On("CancelBooking", c.Request.Context(), user.UserID, b.ID, "plans changed").
		Return(&booking.CancelResult{Booking: b, RefundRate: decimal.RequireFromString("0.5")}, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response cancelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "REFUNDED", response.Booking.PaymentStatus)
	assert.Equal(t, "0.50", response.RefundRate)
	assert.Equal(t, "84.00", response.RefundAmount)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancelNotOwner(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}
	id := uuid.New()
	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/"+id.String()+"/cancel", nil, &user)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.On("CancelBooking", c.Request.Context(), user.UserID, id, "").Return(nil, domain.ErrNotBookingOwner)

	handler.cancel(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not_booking_owner")
}

func TestBookingHandler_changeSeat(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}
	b := sampleBooking(user.UserID)
	seatID := uuid.New()

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/"+b.ID.String()+"/change-seat", map[string]any{"seat_id": seatID}, &user)
	c.Params = gin.Params{{Key: "id", Value: b.ID.String()}}

	moved := *b
	moved.SeatID = seatID
	mockService.On("ChangeSeat", c.Request.Context(), user.UserID, b.ID, seatID).Return(&moved, nil)

	handler.changeSeat(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, seatID, response.SeatID)
}

func TestBookingHandler_assignSeatRequiresSeat(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}
	id := uuid.New()
	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/"+id.String()+"/assign-seat", map[string]any{}, &user)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	handler.assignSeat(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "AssignSeat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_seats(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	flightID := uuid.New()
	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/"+flightID.String()+"/seats", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: flightID.String()}}

	seatMap := &domain.SeatMap{FlightID: flightID, Seats: []domain.SeatAvailability{
		{ID: uuid.New(), SeatNumber: "12A", TravelClass: domain.TravelClassEconom, IsActive: true, IsAvailable: false},
		{ID: uuid.New(), SeatNumber: "12B", TravelClass: domain.TravelClassEconom, IsActive: true, IsAvailable: true},
	}}
	mockService.On("SeatMap", c.Request.Context(), flightID).Return(seatMap, nil)

	handler.seats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response domain.SeatMap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"12B"}, response.Available())
	assert.Equal(t, []string{"12A"}, response.Occupied())
}

func TestBookingHandler_seatsInvalidID(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/abc/seats", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.seats(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_mine(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}
	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/mine?page=2&limit=5", nil, &user)

	mockService.On("MyBookings", c.Request.Context(), user.UserID, 2, 5).Return(&domain.BookingPage{
		Total: 6, Page: 2, Limit: 5, Items: []domain.Booking{*sampleBooking(user.UserID)},
	}, nil)

	handler.mine(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response bookingPageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 6, response.Total)
	assert.Len(t, response.Items, 1)
}

func TestBookingHandler_mineBadPage(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})
	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/mine?page=x", nil, &user)
	handler.mine(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_mineWithoutUser(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/mine", nil, nil)
	handler.mine(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandler_adminRoutes(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api/v1/bookings", func(c *gin.Context) {
		c.Set(auth.UserContextKey, auth.UserContext{UserID: uuid.New(), Role: domain.UserRole(c.GetHeader("X-Role"))})
	})
	handler.Register(group, auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))

	deleted := sampleBooking(uuid.New())
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	deleted.DeletedAt = &now
	mockService.On("GetByID", mock.Anything, deleted.ID).Return(deleted, nil)
	mockService.On("RemoveByAdmin", mock.Anything, deleted.ID).Return(nil)
	mockService.On("ListAll", mock.Anything, 0, 0).Return(&domain.BookingPage{Page: 1, Limit: 50}, nil)

	do := func(method, path, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-Role", role)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/api/v1/bookings/"+deleted.ID.String(), "USER")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(http.MethodGet, "/api/v1/bookings/"+deleted.ID.String(), "ADMIN")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted_at")

	w = do(http.MethodDelete, "/api/v1/bookings/"+deleted.ID.String(), "SUPER_ADMIN")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(http.MethodGet, "/api/v1/bookings", "ADMIN")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)

	mockService.AssertExpectations(t)
}
