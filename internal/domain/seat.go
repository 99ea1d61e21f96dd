package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TravelClassName string

const (
	TravelClassEconom   TravelClassName = "ECONOM"
	TravelClassBusiness TravelClassName = "BUSINESS"
	TravelClassVIP      TravelClassName = "VIP"
)

func (n TravelClassName) Valid() bool {
	switch n {
	case TravelClassEconom, TravelClassBusiness, TravelClassVIP:
		return true
	}
	return false
}

type TravelClass struct {
	ID         uuid.UUID
	Name       TravelClassName
	Multiplier decimal.Decimal
	// BasePrice is the flat per-ticket surcharge of the class.
	BasePrice decimal.Decimal
}

type Seat struct {
	ID            uuid.UUID
	PlaneID       uuid.UUID
	SeatNumber    string
	TravelClassID uuid.UUID
	ClassName     TravelClassName
	IsActive      bool
}

type SeatAvailability struct {
	ID          uuid.UUID       `json:"id"`
	SeatNumber  string          `json:"seat_number"`
	TravelClass TravelClassName `json:"travel_class"`
	IsActive    bool            `json:"is_active"`
	IsAvailable bool            `json:"is_available"`
}

type SeatMap struct {
	FlightID uuid.UUID          `json:"flight_id"`
	PlaneID  uuid.UUID          `json:"plane_id"`
	Seats    []SeatAvailability `json:"seats"`
}

func (m SeatMap) Available() []string {
	out := make([]string, 0, len(m.Seats))
	for _, s := range m.Seats {
		if s.IsAvailable {
			out = append(out, s.SeatNumber)
		}
	}
	return out
}

// Occupied lists active seats that are held by a booking.
func (m SeatMap) Occupied() []string {
	out := make([]string, 0)
	for _, s := range m.Seats {
		if s.IsActive && !s.IsAvailable {
			out = append(out, s.SeatNumber)
		}
	}
	return out
}
