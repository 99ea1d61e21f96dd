package api

import (
	"time"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/google/uuid"
)

type bookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	FlightID        uuid.UUID  `json:"flight_id"`
	SeatID          uuid.UUID  `json:"seat_id"`
	TravelClassID   uuid.UUID  `json:"travel_class_id"`
	Price           string     `json:"price"`
	IsRoundTrip     bool       `json:"is_round_trip"`
	LinkedBookingID *uuid.UUID `json:"linked_booking_id"`
	PaymentStatus   string     `json:"payment_status"`
	TxnID           string     `json:"txn_id,omitempty"`
	RefundReason    string     `json:"refund_reason,omitempty"`
	Version         int        `json:"version"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
	DeletedAt       *string    `json:"deleted_at,omitempty"`
}

type bookingPageResponse struct {
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Items []bookingResponse `json:"items"`
}

type cancelResponse struct {
	Booking      bookingResponse `json:"booking"`
	RefundRate   string          `json:"refund_rate"`
	RefundAmount string          `json:"refund_amount"`
}

type flightResponse struct {
	ID               uuid.UUID `json:"id"`
	FlightNumber     string    `json:"flight_number"`
	PlaneID          uuid.UUID `json:"plane_id"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	DepartureTime    string    `json:"departure_time"`
	ArrivalTime      string    `json:"arrival_time"`
	BasePrice        string    `json:"base_price"`
	Status           string    `json:"status"`
	CancelReason     string    `json:"cancel_reason,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		FlightID:        b.FlightID,
		SeatID:          b.SeatID,
		TravelClassID:   b.TravelClassID,
		Price:           b.Price.StringFixed(2),
		IsRoundTrip:     b.IsRoundTrip,
		LinkedBookingID: b.LinkedBookingID,
		PaymentStatus:   string(b.PaymentStatus),
		TxnID:           b.Meta.TxnID,
		RefundReason:    b.Meta.RefundReason,
		Version:         b.Version,
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
	}
	if b.DeletedAt != nil {
		deleted := formatTime(*b.DeletedAt)
		resp.DeletedAt = &deleted
	}
	return resp
}

func toBookingPageResponse(p *domain.BookingPage) bookingPageResponse {
	items := make([]bookingResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, toBookingResponse(&p.Items[i]))
	}
	return bookingPageResponse{Total: p.Total, Page: p.Page, Limit: p.Limit, Items: items}
}

func toFlightResponse(f *domain.Flight) flightResponse {
	return flightResponse{
		ID:               f.ID,
		FlightNumber:     f.FlightNumber,
		PlaneID:          f.PlaneID,
		DepartureAirport: f.DepartureAirport,
		ArrivalAirport:   f.ArrivalAirport,
		DepartureTime:    formatTime(f.DepartureTime),
		ArrivalTime:      formatTime(f.ArrivalTime),
		BasePrice:        f.BasePrice.StringFixed(2),
		Status:           string(f.Status),
		CancelReason:     f.CancelReason,
	}
}
