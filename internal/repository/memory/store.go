// Package memory is an in-process implementation of the repository
// interfaces used by service tests. Transactions are serialised by a
// single mutex and roll back by restoring a snapshot; the active-seat
// uniqueness rule mirrors uniq_active_seat_flight.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	bookings     map[uuid.UUID]domain.Booking
	bookingOrder []uuid.UUID
	users        map[uuid.UUID]domain.User
	loyalty      map[uuid.UUID]domain.LoyaltyTransaction
	loyaltyOrder []uuid.UUID
}

func newState() *state {
	return &state{
		bookings: make(map[uuid.UUID]domain.Booking),
		users:    make(map[uuid.UUID]domain.User),
		loyalty:  make(map[uuid.UUID]domain.LoyaltyTransaction),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.loyalty {
		c.loyalty[k] = v
	}
	c.bookingOrder = append([]uuid.UUID(nil), s.bookingOrder...)
	c.loyaltyOrder = append([]uuid.UUID(nil), s.loyaltyOrder...)
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state

	refMu   sync.RWMutex
	flights map[uuid.UUID]domain.Flight
	seats   map[uuid.UUID]domain.Seat
	classes map[uuid.UUID]domain.TravelClass
}

func NewStore() *Store {
	return &Store{
		state:   newState(),
		flights: make(map[uuid.UUID]domain.Flight),
		seats:   make(map[uuid.UUID]domain.Seat),
		classes: make(map[uuid.UUID]domain.TravelClass),
	}
}

func (s *Store) AddFlight(f domain.Flight) domain.Flight {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Status == "" {
		f.Status = domain.FlightStatusScheduled
	}
	s.refMu.Lock()
	s.flights[f.ID] = f
	s.refMu.Unlock()
	return f
}

func (s *Store) AddClass(c domain.TravelClass) domain.TravelClass {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.refMu.Lock()
	s.classes[c.ID] = c
	s.refMu.Unlock()
	return c
}

// AddSeat stores a seat, filling ClassName from its travel class.
func (s *Store) AddSeat(seat domain.Seat) domain.Seat {
	if seat.ID == uuid.Nil {
		seat.ID = uuid.New()
	}
	s.refMu.Lock()
	if c, ok := s.classes[seat.TravelClassID]; ok {
		seat.ClassName = c.Name
	}
	s.seats[seat.ID] = seat
	s.refMu.Unlock()
	return seat
}

func (s *Store) AddUser(u domain.User) domain.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Tier == "" {
		u.Tier = domain.TierBronze
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	s.mu.Lock()
	s.state.users[u.ID] = u
	s.mu.Unlock()
	return u
}

// Bookings returns a snapshot of every stored booking, soft-deleted ones
// included, in insertion order.
func (s *Store) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Booking, 0, len(s.state.bookingOrder))
	for _, id := range s.state.bookingOrder {
		out = append(out, s.state.bookings[id])
	}
	return out
}

func (s *Store) LoyaltyEntries(userID uuid.UUID) []domain.LoyaltyTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LoyaltyTransaction, 0)
	for _, id := range s.state.loyaltyOrder {
		if t := s.state.loyalty[id]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) User(id uuid.UUID) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	return u, ok
}

func (s *Store) BookingRepository() repository.BookingRepository { return &bookingRepo{s: s} }
func (s *Store) UserRepository() repository.UserRepository       { return &userRepo{s: s} }
func (s *Store) LoyaltyRepository() repository.LoyaltyRepository { return &loyaltyRepo{s: s} }
func (s *Store) FlightRepository() repository.FlightRepository   { return &flightRepo{s: s} }
func (s *Store) SeatRepository() repository.SeatRepository       { return &seatRepo{s: s} }
func (s *Store) TravelClassRepository() repository.TravelClassRepository {
	return &classRepo{s: s}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, memTx{s: s}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

type memTx struct {
	s *Store
}

func (t memTx) Bookings() repository.BookingRepository { return &bookingRepo{s: t.s, inTx: true} }
func (t memTx) Users() repository.UserRepository       { return &userRepo{s: t.s, inTx: true} }
func (t memTx) Loyalty() repository.LoyaltyRepository  { return &loyaltyRepo{s: t.s, inTx: true} }

// lock acquires the store mutex unless the caller already holds it
// through WithTx.
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type bookingRepo struct {
	s    *Store
	inTx bool
}

func (r *bookingRepo) seatTaken(b *domain.Booking) bool {
	for _, other := range r.s.state.bookings {
		if other.ID == b.ID || other.DeletedAt != nil || !other.PaymentStatus.Active() {
			continue
		}
		if other.FlightID == b.FlightID && other.SeatID == b.SeatID {
			return true
		}
	}
	return false
}

func (r *bookingRepo) Create(_ context.Context, b *domain.Booking) error {
	defer r.s.lock(r.inTx)()

	b.ID = uuid.New()
	if b.PaymentStatus.Active() && r.seatTaken(b) {
		return repository.ErrUniqueViolation
	}
	now := time.Now().UTC()
	b.Version = 1
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.state.bookings[b.ID] = *b
	r.s.state.bookingOrder = append(r.s.state.bookingOrder, b.ID)
	return nil
}

func (r *bookingRepo) Save(_ context.Context, b *domain.Booking) error {
	defer r.s.lock(r.inTx)()

	cur, ok := r.s.state.bookings[b.ID]
	if !ok || cur.DeletedAt != nil || cur.Version != b.Version {
		return domain.ErrConcurrentUpdate
	}
	if b.PaymentStatus.Active() && r.seatTaken(b) {
		return repository.ErrUniqueViolation
	}
	cur.SeatID = b.SeatID
	cur.PaymentStatus = b.PaymentStatus
	cur.LinkedBookingID = b.LinkedBookingID
	cur.Meta = b.Meta
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	r.s.state.bookings[b.ID] = cur
	b.Version, b.UpdatedAt = cur.Version, cur.UpdatedAt
	return nil
}

func (r *bookingRepo) GetByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*domain.Booking, error) {
	defer r.s.lock(r.inTx)()

	b, ok := r.s.state.bookings[id]
	if !ok || (b.DeletedAt != nil && !includeDeleted) {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (r *bookingRepo) list(match func(domain.Booking) bool, page, limit int) *domain.BookingPage {
	defer r.s.lock(r.inTx)()

	items := make([]domain.Booking, 0)
	for i := len(r.s.state.bookingOrder) - 1; i >= 0; i-- {
		b := r.s.state.bookings[r.s.state.bookingOrder[i]]
		if b.DeletedAt == nil && match(b) {
			items = append(items, b)
		}
	}
	return &domain.BookingPage{Total: len(items), Page: page, Limit: limit, Items: paginate(items, page, limit)}
}

func (r *bookingRepo) ListByUser(_ context.Context, userID uuid.UUID, page, limit int) (*domain.BookingPage, error) {
	return r.list(func(b domain.Booking) bool { return b.UserID == userID }, page, limit), nil
}

func (r *bookingRepo) ListAll(_ context.Context, page, limit int) (*domain.BookingPage, error) {
	return r.list(func(domain.Booking) bool { return true }, page, limit), nil
}

func (r *bookingRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock(r.inTx)()

	b, ok := r.s.state.bookings[id]
	if !ok || b.DeletedAt != nil {
		return domain.ErrBookingNotFound
	}
	now := time.Now().UTC()
	b.DeletedAt = &now
	r.s.state.bookings[id] = b
	return nil
}

func (r *bookingRepo) ActiveSeatIDs(_ context.Context, flightID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	defer r.s.lock(r.inTx)()

	out := make(map[uuid.UUID]struct{})
	for _, b := range r.s.state.bookings {
		if b.FlightID == flightID && b.DeletedAt == nil && b.PaymentStatus.Active() {
			out[b.SeatID] = struct{}{}
		}
	}
	return out, nil
}

type userRepo struct {
	s    *Store
	inTx bool
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.s.lock(r.inTx)()

	u, ok := r.s.state.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) DebitBalance(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	defer r.s.lock(r.inTx)()

	u, ok := r.s.state.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	u.Balance = u.Balance.Sub(amount)
	r.s.state.users[id] = u
	return nil
}

func (r *userRepo) SetLoyalty(_ context.Context, id uuid.UUID, points int, tier domain.LoyaltyTier) error {
	defer r.s.lock(r.inTx)()

	u, ok := r.s.state.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LoyaltyPoints, u.Tier = points, tier
	r.s.state.users[id] = u
	return nil
}

type loyaltyRepo struct {
	s    *Store
	inTx bool
}

func (r *loyaltyRepo) Append(_ context.Context, t *domain.LoyaltyTransaction) error {
	defer r.s.lock(r.inTx)()

	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	r.s.state.loyalty[t.ID] = *t
	r.s.state.loyaltyOrder = append(r.s.state.loyaltyOrder, t.ID)
	return nil
}

func (r *loyaltyRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.LoyaltyTransaction, error) {
	defer r.s.lock(r.inTx)()

	t, ok := r.s.state.loyalty[id]
	if !ok {
		return nil, domain.ErrLoyaltyTxnNotFound
	}
	return &t, nil
}

func (r *loyaltyRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.LoyaltyTransaction, error) {
	defer r.s.lock(r.inTx)()

	out := make([]domain.LoyaltyTransaction, 0)
	for i := len(r.s.state.loyaltyOrder) - 1; i >= 0 && len(out) < limit; i-- {
		if t := r.s.state.loyalty[r.s.state.loyaltyOrder[i]]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *loyaltyRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.state.loyalty[id]; !ok {
		return domain.ErrLoyaltyTxnNotFound
	}
	delete(r.s.state.loyalty, id)
	order := r.s.state.loyaltyOrder[:0]
	for _, v := range r.s.state.loyaltyOrder {
		if v != id {
			order = append(order, v)
		}
	}
	r.s.state.loyaltyOrder = order
	return nil
}

type flightRepo struct {
	s *Store
}

func (r *flightRepo) List(context.Context) ([]domain.Flight, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()

	out := make([]domain.Flight, 0, len(r.s.flights))
	for _, f := range r.s.flights {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (r *flightRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Flight, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()

	f, ok := r.s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	return &f, nil
}

type seatRepo struct {
	s *Store
}

func (r *seatRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Seat, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()

	seat, ok := r.s.seats[id]
	if !ok {
		return nil, domain.ErrSeatNotFound
	}
	return &seat, nil
}

func (r *seatRepo) GetByPlaneAndNumber(_ context.Context, planeID uuid.UUID, seatNumber string) (*domain.Seat, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()

	for _, seat := range r.s.seats {
		if seat.PlaneID == planeID && seat.SeatNumber == seatNumber {
			return &seat, nil
		}
	}
	return nil, domain.ErrSeatNotFound
}

func (r *seatRepo) ListByPlane(_ context.Context, planeID uuid.UUID) ([]domain.Seat, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()

	out := make([]domain.Seat, 0)
	for _, seat := range r.s.seats {
		if seat.PlaneID == planeID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

type classRepo struct {
	s *Store
}

func (r *classRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.TravelClass, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()

	c, ok := r.s.classes[id]
	if !ok {
		return nil, domain.ErrInvalidClass
	}
	return &c, nil
}

func (r *classRepo) GetByName(_ context.Context, name domain.TravelClassName) (*domain.TravelClass, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()

	for _, c := range r.s.classes {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, domain.ErrInvalidClass
}

var (
	_ repository.TxManager             = (*Store)(nil)
	_ repository.BookingRepository     = (*bookingRepo)(nil)
	_ repository.UserRepository        = (*userRepo)(nil)
	_ repository.LoyaltyRepository     = (*loyaltyRepo)(nil)
	_ repository.FlightRepository      = (*flightRepo)(nil)
	_ repository.SeatRepository        = (*seatRepo)(nil)
	_ repository.TravelClassRepository = (*classRepo)(nil)
)
