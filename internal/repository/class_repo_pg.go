package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TravelClassRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TravelClass, error)
	GetByName(ctx context.Context, name domain.TravelClassName) (*domain.TravelClass, error)
}

type PGTravelClassRepository struct {
	db Querier
}

func NewTravelClassRepository(db Querier) TravelClassRepository {
	return &PGTravelClassRepository{db: db}
}

func (r *PGTravelClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TravelClass, error) {
	return r.get(ctx, `SELECT id, name, multiplier, base_price FROM travel_classes WHERE id = $1`, id)
}

func (r *PGTravelClassRepository) GetByName(ctx context.Context, name domain.TravelClassName) (*domain.TravelClass, error) {
	return r.get(ctx, `SELECT id, name, multiplier, base_price FROM travel_classes WHERE name = $1`, string(name))
}

func (r *PGTravelClassRepository) get(ctx context.Context, query string, arg any) (*domain.TravelClass, error) {
	var c domain.TravelClass
	if err := r.db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Multiplier, &c.BasePrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidClass
		}
		return nil, fmt.Errorf("get travel class: %w", err)
	}
	return &c, nil
}

var _ TravelClassRepository = (*PGTravelClassRepository)(nil)
