package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/airticket/internal/clock"
	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/metrics"
	"github.com/Domenick1991/airticket/internal/payment"
	"github.com/Domenick1991/airticket/internal/pricing"
	"github.com/Domenick1991/airticket/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	maxClawbackPoints = 999999
	defaultMineLimit  = 20
	defaultAdminLimit = 50
	maxPageLimit      = 100
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*CancelResult, error)
	AssignSeat(ctx context.Context, userID, bookingID, seatID uuid.UUID) (*domain.Booking, error)
	ChangeSeat(ctx context.Context, userID, bookingID, newSeatID uuid.UUID) (*domain.Booking, error)
	SeatMap(ctx context.Context, flightID uuid.UUID) (*domain.SeatMap, error)
	MyBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.BookingPage, error)
	ListAll(ctx context.Context, page, limit int) (*domain.BookingPage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	RemoveByAdmin(ctx context.Context, id uuid.UUID) error
}

// PaymentProcessor charges the passenger's card.
type PaymentProcessor interface {
	Charge(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (payment.ChargeResult, error)
}

// LoyaltyLedger writes through the caller's transaction.
type LoyaltyLedger interface {
	Earn(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error
	Redeem(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error
}

type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Repositories struct {
	Bookings repository.BookingRepository
	Flights  repository.FlightRepository
	Seats    repository.SeatRepository
	Classes  repository.TravelClassRepository
	Users    repository.UserRepository
}

type BookingService struct {
	bookings repository.BookingRepository
	flights  repository.FlightRepository
	seats    repository.SeatRepository
	classes  repository.TravelClassRepository
	users    repository.UserRepository
	txm      repository.TxManager

	payments PaymentProcessor
	ledger   LoyaltyLedger
	notifier Notifier
	clock    clock.Clock
	log      *logrus.Logger

	taxRate        decimal.Decimal
	paymentTimeout time.Duration
	notifyTimeout  time.Duration

	// notifications tracks detached sends so shutdown can drain them
	notifications sync.WaitGroup
}

type CreateBookingInput struct {
	UserID   uuid.UUID
	FlightID uuid.UUID
	// SeatID wins over SeatNumber when both are set.
	SeatID     *uuid.UUID
	SeatNumber string
	// ClassID wins over Class when both are set.
	ClassID        *uuid.UUID
	Class          domain.TravelClassName
	IsRoundTrip    bool
	ReturnFlightID *uuid.UUID
	ReturnSeatID   *uuid.UUID
	RedeemPoints   int
}

type CancelResult struct {
	Booking    *domain.Booking
	RefundRate decimal.Decimal
}

type BookingServiceOption func(*BookingService)

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) { s.clock = c }
}

func WithTaxRate(rate decimal.Decimal) BookingServiceOption {
	return func(s *BookingService) { s.taxRate = rate }
}

// WithPaymentTimeout bounds the gateway call made while the booking
// transaction is open.
func WithPaymentTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.paymentTimeout = d }
}

func WithNotifyTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.notifyTimeout = d }
}

func NewBookingService(
	repos Repositories,
	txm repository.TxManager,
	payments PaymentProcessor,
	ledger LoyaltyLedger,
	notifier Notifier,
	log *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       repos.Bookings,
		flights:        repos.Flights,
		seats:          repos.Seats,
		classes:        repos.Classes,
		users:          repos.Users,
		txm:            txm,
		payments:       payments,
		ledger:         ledger,
		notifier:       notifier,
		clock:          clock.NewSystem(),
		log:            log,
		taxRate:        pricing.DefaultTaxRate,
		paymentTimeout: 5 * time.Second,
		notifyTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// createPlan is everything Create validates before opening a transaction.
type createPlan struct {
	flight       *domain.Flight
	class        *domain.TravelClass
	seat         *domain.Seat
	price        decimal.Decimal
	returnFlight *domain.Flight
	returnSeat   *domain.Seat
	returnPrice  decimal.Decimal
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	booking, email, err := s.createBooking(ctx, input)
	metrics.ObserveBooking("create", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"user_id":    booking.UserID,
		"flight_id":  booking.FlightID,
		"price":      booking.Price.StringFixed(2),
		"status":     booking.PaymentStatus,
	}).Info("booking created")

	s.notify(email, "Booking confirmed", fmt.Sprintf("Your booking %s is confirmed.", booking.ID))
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, string, error) {
	plan, err := s.planCreate(ctx, input)
	if err != nil {
		return nil, "", err
	}

	var (
		booking *domain.Booking
		email   string
	)
	err = s.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := tx.Users().GetByID(ctx, input.UserID)
		if err != nil {
			return err
		}
		email = user.Email

		redeemPoints := min(max(input.RedeemPoints, 0), user.LoyaltyPoints)
		redeemValue := pricing.RedeemValue(redeemPoints)
		finalPrice := decimal.Max(decimal.Zero, plan.price.Sub(redeemValue))

		b := &domain.Booking{
			UserID:        user.ID,
			FlightID:      plan.flight.ID,
			SeatID:        plan.seat.ID,
			TravelClassID: plan.class.ID,
			Price:         finalPrice,
			IsRoundTrip:   input.IsRoundTrip,
			PaymentStatus: domain.PaymentStatusPending,
			Meta: domain.BookingMeta{
				Base:         plan.price,
				RedeemPoints: redeemPoints,
				RedeemValue:  redeemValue,
				TaxRate:      s.taxRate,
			},
		}
		if finalPrice.IsZero() {
			b.PaymentStatus = domain.PaymentStatusPaid
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return seatConflict(err)
		}

		if finalPrice.IsPositive() {
			txnID, err := s.charge(ctx, finalPrice, b)
			if err != nil {
				return err
			}
			b.PaymentStatus = domain.PaymentStatusPaid
			b.Meta.TxnID = txnID
			if err := tx.Bookings().Save(ctx, b); err != nil {
				return seatConflict(err)
			}
			if err := tx.Users().DebitBalance(ctx, user.ID, finalPrice); err != nil {
				return err
			}
		}

		if redeemPoints > 0 {
			if err := s.ledger.Redeem(ctx, tx, user.ID, redeemPoints, "Redeem for booking "+b.ID.String()); err != nil {
				return fmt.Errorf("redeem points: %w", err)
			}
		}
		if earned := pricing.EarnedPoints(plan.price); earned > 0 {
			if err := s.ledger.Earn(ctx, tx, user.ID, earned, "Booking "+b.ID.String()); err != nil {
				return fmt.Errorf("earn points: %w", err)
			}
		}

		if input.IsRoundTrip {
			ret := &domain.Booking{
				UserID:          user.ID,
				FlightID:        plan.returnFlight.ID,
				SeatID:          plan.returnSeat.ID,
				TravelClassID:   plan.class.ID,
				Price:           plan.returnPrice,
				IsRoundTrip:     true,
				LinkedBookingID: &b.ID,
				PaymentStatus:   domain.PaymentStatusPaid,
				Meta:            domain.BookingMeta{Base: plan.returnPrice, TaxRate: s.taxRate, TxnID: b.Meta.TxnID},
			}
			if err := tx.Bookings().Create(ctx, ret); err != nil {
				return seatConflict(err)
			}
			b.LinkedBookingID = &ret.ID
			if err := tx.Bookings().Save(ctx, b); err != nil {
				return seatConflict(err)
			}
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, "", seatConflict(err)
	}
	return booking, email, nil
}

func (s *BookingService) planCreate(ctx context.Context, input CreateBookingInput) (*createPlan, error) {
	now := s.clock.Now()

	flight, err := s.bookableFlight(ctx, input.FlightID, now)
	if err != nil {
		return nil, err
	}
	class, err := s.resolveClass(ctx, input)
	if err != nil {
		return nil, err
	}
	seat, err := s.resolveSeat(ctx, flight, input.SeatID, input.SeatNumber, class)
	if err != nil {
		return nil, err
	}
	price, err := pricing.Price(flight.BasePrice, class.Multiplier, class.BasePrice, s.taxRate)
	if err != nil {
		return nil, fmt.Errorf("price booking: %w", err)
	}
	plan := &createPlan{flight: flight, class: class, seat: seat, price: price}

	if !input.IsRoundTrip {
		return plan, nil
	}
	if input.ReturnFlightID == nil || input.ReturnSeatID == nil {
		return nil, domain.ErrReturnLegRequired
	}
	if plan.returnFlight, err = s.bookableFlight(ctx, *input.ReturnFlightID, now); err != nil {
		return nil, fmt.Errorf("return leg: %w", err)
	}
	if plan.returnSeat, err = s.resolveSeat(ctx, plan.returnFlight, input.ReturnSeatID, "", class); err != nil {
		return nil, fmt.Errorf("return leg: %w", err)
	}
	if plan.returnPrice, err = pricing.Price(plan.returnFlight.BasePrice, class.Multiplier, class.BasePrice, s.taxRate); err != nil {
		return nil, fmt.Errorf("price return leg: %w", err)
	}
	return plan, nil
}

func (s *BookingService) bookableFlight(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Flight, error) {
	flight, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if flight.DepartedAt(now) {
		return nil, domain.ErrFlightDeparted
	}
	if flight.Status == domain.FlightStatusCancelled {
		return nil, domain.ErrFlightCancelled
	}
	return flight, nil
}

func (s *BookingService) resolveClass(ctx context.Context, input CreateBookingInput) (*domain.TravelClass, error) {
	if input.ClassID != nil {
		return s.classes.GetByID(ctx, *input.ClassID)
	}
	if !input.Class.Valid() {
		return nil, domain.ErrInvalidClass
	}
	return s.classes.GetByName(ctx, input.Class)
}

// resolveSeat finds the seat by id or by number on the flight's plane. A
// seat that does not exist is reported as not belonging to the plane.
func (s *BookingService) resolveSeat(ctx context.Context, flight *domain.Flight, seatID *uuid.UUID, seatNumber string, class *domain.TravelClass) (*domain.Seat, error) {
	var (
		seat *domain.Seat
		err  error
	)
	switch {
	case seatID != nil:
		seat, err = s.seats.GetByID(ctx, *seatID)
	case seatNumber != "":
		seat, err = s.seats.GetByPlaneAndNumber(ctx, flight.PlaneID, seatNumber)
	default:
		return nil, domain.ErrSeatRequired
	}
	if errors.Is(err, domain.ErrSeatNotFound) {
		return nil, domain.ErrSeatInvalidForPlane
	}
	if err != nil {
		return nil, err
	}

	if seat.PlaneID != flight.PlaneID {
		return nil, domain.ErrSeatInvalidForPlane
	}
	if seat.TravelClassID != class.ID {
		return nil, domain.ErrSeatClassMismatch
	}
	if !seat.IsActive {
		return nil, domain.ErrSeatInactive
	}
	return seat, nil
}

func (s *BookingService) charge(ctx context.Context, amount decimal.Decimal, b *domain.Booking) (string, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.payments.Charge(chargeCtx, amount, map[string]string{
		"bookingId": b.ID.String(),
		"flightId":  b.FlightID.String(),
	})
	elapsed := time.Since(start).Seconds()

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		metrics.PaymentDuration.WithLabelValues("timeout").Observe(elapsed)
		return "", domain.ErrPaymentTimeout
	case err != nil:
		metrics.PaymentDuration.WithLabelValues("error").Observe(elapsed)
		return "", fmt.Errorf("charge: %w", err)
	case !res.Success:
		metrics.PaymentDuration.WithLabelValues("declined").Observe(elapsed)
		s.log.WithFields(logrus.Fields{"booking_id": b.ID, "reason": res.Reason}).Warn("payment declined")
		return "", fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, res.Reason)
	}
	metrics.PaymentDuration.WithLabelValues("approved").Observe(elapsed)
	return res.TxnID, nil
}

// seatConflict translates the unique index violation into the domain
// error callers match on.
func seatConflict(err error) error {
	if errors.Is(err, repository.ErrUniqueViolation) {
		metrics.SeatConflicts.Inc()
		return domain.ErrSeatAlreadyBooked
	}
	return err
}

// RefundRate is the share of the fare refunded for a cancellation made
// the given time before departure. Both boundaries fall into the 50% band.
func RefundRate(untilDeparture time.Duration) decimal.Decimal {
	switch {
	case untilDeparture > 48*time.Hour:
		return decimal.NewFromInt(1)
	case untilDeparture >= 24*time.Hour:
		return decimal.RequireFromString("0.5")
	default:
		return decimal.RequireFromString("0.1")
	}
}

func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*CancelResult, error) {
	res, err := s.cancelBooking(ctx, userID, bookingID, reason)
	metrics.ObserveBooking("cancel", err)
	return res, err
}

func (s *BookingService) cancelBooking(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*CancelResult, error) {
	b, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus != domain.PaymentStatusPaid {
		return nil, domain.ErrInvalidBookingState
	}
	flight, err := s.flights.GetByID(ctx, b.FlightID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if flight.DepartedAt(now) {
		return nil, domain.ErrFlightDeparted
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rate := RefundRate(flight.DepartureTime.Sub(now))
	err = s.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b.PaymentStatus = domain.PaymentStatusRefunded
		b.Meta.RefundRate = &rate
		b.Meta.RefundReason = reason
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}

		clawback := min(pricing.EarnedPoints(b.EarnBase()), maxClawbackPoints)
		if clawback > 0 {
			if err := s.ledger.Redeem(ctx, tx, userID, clawback, "Refund of booking "+b.ID.String()); err != nil {
				return fmt.Errorf("claw back points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"user_id":     userID,
		"refund_rate": rate.String(),
	}).Info("booking cancelled")

	s.notify(user.Email, "Booking cancelled",
		fmt.Sprintf("Booking %s has been cancelled. Refund %s%%", b.ID, rate.Mul(decimal.NewFromInt(100)).StringFixed(0)))
	return &CancelResult{Booking: b, RefundRate: rate}, nil
}

func (s *BookingService) AssignSeat(ctx context.Context, userID, bookingID, seatID uuid.UUID) (*domain.Booking, error) {
	b, err := s.moveSeat(ctx, userID, bookingID, seatID, domain.PaymentStatusPending, false)
	metrics.ObserveBooking("assign_seat", err)
	return b, err
}

func (s *BookingService) ChangeSeat(ctx context.Context, userID, bookingID, newSeatID uuid.UUID) (*domain.Booking, error) {
	b, err := s.moveSeat(ctx, userID, bookingID, newSeatID, domain.PaymentStatusPaid, true)
	metrics.ObserveBooking("change_seat", err)
	return b, err
}

// moveSeat reassigns a booking in the required status to another seat on
// the same plane. The unique index rejects a seat held by someone else.
func (s *BookingService) moveSeat(ctx context.Context, userID, bookingID, seatID uuid.UUID, required domain.PaymentStatus, requireActive bool) (*domain.Booking, error) {
	b, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus != required {
		return nil, domain.ErrInvalidBookingState
	}
	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if requireActive && !seat.IsActive {
		return nil, domain.ErrSeatInactive
	}
	flight, err := s.flights.GetByID(ctx, b.FlightID)
	if err != nil {
		return nil, err
	}
	if seat.PlaneID != flight.PlaneID {
		return nil, domain.ErrSeatInvalidForPlane
	}

	b.SeatID = seat.ID
	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, seatConflict(err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "seat": seat.SeatNumber}).Info("seat reassigned")
	return b, nil
}

func (s *BookingService) ownedBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID, false)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, domain.ErrNotBookingOwner
	}
	return b, nil
}

// SeatMap is recomputed from booking rows on every call.
func (s *BookingService) SeatMap(ctx context.Context, flightID uuid.UUID) (*domain.SeatMap, error) {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	seats, err := s.seats.ListByPlane(ctx, flight.PlaneID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.bookings.ActiveSeatIDs(ctx, flightID)
	if err != nil {
		return nil, err
	}

	out := &domain.SeatMap{FlightID: flight.ID, PlaneID: flight.PlaneID, Seats: make([]domain.SeatAvailability, 0, len(seats))}
	for _, seat := range seats {
		_, taken := occupied[seat.ID]
		out.Seats = append(out.Seats, domain.SeatAvailability{
			ID:          seat.ID,
			SeatNumber:  seat.SeatNumber,
			TravelClass: seat.ClassName,
			IsActive:    seat.IsActive,
			IsAvailable: seat.IsActive && !taken,
		})
	}
	return out, nil
}

func (s *BookingService) MyBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.BookingPage, error) {
	page, limit = normalizePage(page, limit, defaultMineLimit)
	return s.bookings.ListByUser(ctx, userID, page, limit)
}

func (s *BookingService) ListAll(ctx context.Context, page, limit int) (*domain.BookingPage, error) {
	page, limit = normalizePage(page, limit, defaultAdminLimit)
	return s.bookings.ListAll(ctx, page, limit)
}

// GetByID is the administrative lookup and includes soft-deleted rows.
func (s *BookingService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id, true)
}

func (s *BookingService) RemoveByAdmin(ctx context.Context, id uuid.UUID) error {
	err := s.bookings.SoftDelete(ctx, id)
	metrics.ObserveBooking("remove", err)
	if err == nil {
		s.log.WithField("booking_id", id).Info("booking soft-deleted")
	}
	return err
}

func normalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	return page, min(limit, maxPageLimit)
}

// notify sends on a detached goroutine. Failures are logged and counted,
// never returned.
func (s *BookingService) notify(to, subject, body string) {
	if s.notifier == nil || to == "" {
		return
	}
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.Send(ctx, to, subject, body); err != nil {
			metrics.NotificationFailures.Inc()
			s.log.WithError(err).WithFields(logrus.Fields{"to": to, "subject": subject}).Warn("notification failed")
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx ends.
func (s *BookingService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ BookingUseCase = (*BookingService)(nil)
