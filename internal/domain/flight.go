package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

type Flight struct {
	ID               uuid.UUID
	FlightNumber     string
	PlaneID          uuid.UUID
	DepartureAirport string
	ArrivalAirport   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	BasePrice        decimal.Decimal
	Status           FlightStatus
	CancelReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DepartedAt reports whether the flight has left at the given instant.
func (f *Flight) DepartedAt(now time.Time) bool {
	return !f.DepartureTime.After(now)
}
