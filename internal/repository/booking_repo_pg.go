package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	// Save persists status, seat, link and meta, guarded by the version
	// the booking was read with.
	Save(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.BookingPage, error)
	ListAll(ctx context.Context, page, limit int) (*domain.BookingPage, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ActiveSeatIDs(ctx context.Context, flightID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

type PGBookingRepository struct {
	db Querier
}

func NewBookingRepository(db Querier) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, flight_id, seat_id, travel_class_id, price, is_round_trip, linked_booking_id, payment_status, meta, version, created_at, updated_at, deleted_at`

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.FlightID, &b.SeatID, &b.TravelClassID, &b.Price, &b.IsRoundTrip,
		&b.LinkedBookingID, &b.PaymentStatus, &b.Meta, &b.Version, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (user_id, flight_id, seat_id, travel_class_id, price, is_round_trip, linked_booking_id, payment_status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, version, created_at, updated_at`,
		booking.UserID, booking.FlightID, booking.SeatID, booking.TravelClassID, booking.Price, booking.IsRoundTrip,
		booking.LinkedBookingID, booking.PaymentStatus, booking.Meta).
		Scan(&booking.ID, &booking.Version, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert booking: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `UPDATE bookings
		SET seat_id = $3, payment_status = $4, linked_booking_id = $5, meta = $6, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
		RETURNING version, updated_at`,
		booking.ID, booking.Version, booking.SeatID, booking.PaymentStatus, booking.LinkedBookingID, booking.Meta).
		Scan(&booking.Version, &booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update booking: %w", ErrUniqueViolation)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrConcurrentUpdate
		}
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.BookingPage, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND deleted_at IS NULL`, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	items, err := collectBookings(rows)
	if err != nil {
		return nil, err
	}
	return &domain.BookingPage{Total: total, Page: page, Limit: limit, Items: items}, nil
}

func (r *PGBookingRepository) ListAll(ctx context.Context, page, limit int) (*domain.BookingPage, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	items, err := collectBookings(rows)
	if err != nil {
		return nil, err
	}
	return &domain.BookingPage{Total: total, Page: page, Limit: limit, Items: items}, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	items := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

func (r *PGBookingRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete booking: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// ActiveSeatIDs returns the seats held by PENDING or PAID bookings on a
// flight, matching the rows covered by uniq_active_seat_flight.
func (r *PGBookingRepository) ActiveSeatIDs(ctx context.Context, flightID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_id FROM bookings
		WHERE flight_id = $1 AND payment_status IN ('PENDING', 'PAID') AND deleted_at IS NULL`, flightID)
	if err != nil {
		return nil, fmt.Errorf("active seats: %w", err)
	}
	defer rows.Close()

	occupied := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seat id: %w", err)
		}
		occupied[id] = struct{}{}
	}
	return occupied, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
