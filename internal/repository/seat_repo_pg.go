package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SeatRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Seat, error)
	GetByPlaneAndNumber(ctx context.Context, planeID uuid.UUID, seatNumber string) (*domain.Seat, error)
	ListByPlane(ctx context.Context, planeID uuid.UUID) ([]domain.Seat, error)
}

type PGSeatRepository struct {
	db Querier
}

func NewSeatRepository(db Querier) SeatRepository {
	return &PGSeatRepository{db: db}
}

const seatSelect = `SELECT s.id, s.plane_id, s.seat_number, s.travel_class_id, tc.name, s.is_active
	FROM seats s JOIN travel_classes tc ON tc.id = s.travel_class_id`

func scanSeat(row scanner) (*domain.Seat, error) {
	var s domain.Seat
	if err := row.Scan(&s.ID, &s.PlaneID, &s.SeatNumber, &s.TravelClassID, &s.ClassName, &s.IsActive); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGSeatRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seat, error) {
	s, err := scanSeat(r.db.QueryRow(ctx, seatSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeatNotFound
		}
		return nil, fmt.Errorf("get seat: %w", err)
	}
	return s, nil
}

func (r *PGSeatRepository) GetByPlaneAndNumber(ctx context.Context, planeID uuid.UUID, seatNumber string) (*domain.Seat, error) {
	s, err := scanSeat(r.db.QueryRow(ctx, seatSelect+` WHERE s.plane_id = $1 AND s.seat_number = $2`, planeID, seatNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeatNotFound
		}
		return nil, fmt.Errorf("get seat by number: %w", err)
	}
	return s, nil
}

func (r *PGSeatRepository) ListByPlane(ctx context.Context, planeID uuid.UUID) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, seatSelect+` WHERE s.plane_id = $1 ORDER BY s.seat_number`, planeID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, *s)
	}
	return seats, rows.Err()
}

var _ SeatRepository = (*PGSeatRepository)(nil)
