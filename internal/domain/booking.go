package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Active reports whether a booking in this status holds its seat.
func (s PaymentStatus) Active() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// BookingMeta is the fare breakdown and audit trail stored as jsonb.
type BookingMeta struct {
	Base         decimal.Decimal  `json:"base"`
	RedeemPoints int              `json:"redeemPoints,omitempty"`
	RedeemValue  decimal.Decimal  `json:"redeemValue"`
	TaxRate      decimal.Decimal  `json:"taxRate"`
	TxnID        string           `json:"txnId,omitempty"`
	RefundRate   *decimal.Decimal `json:"refundRate,omitempty"`
	RefundReason string           `json:"refundReason,omitempty"`
}

type Booking struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	FlightID        uuid.UUID
	SeatID          uuid.UUID
	TravelClassID   uuid.UUID
	Price           decimal.Decimal
	IsRoundTrip     bool
	LinkedBookingID *uuid.UUID
	PaymentStatus   PaymentStatus
	Meta            BookingMeta
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// EarnBase is the fare loyalty points were earned on.
func (b *Booking) EarnBase() decimal.Decimal {
	if b.Meta.Base.IsPositive() {
		return b.Meta.Base
	}
	return b.Price
}

type BookingPage struct {
	Total int
	Page  int
	Limit int
	Items []Booking
}
