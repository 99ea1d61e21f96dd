package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetForUpdate locks the user row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	SetLoyalty(ctx context.Context, id uuid.UUID, points int, tier domain.LoyaltyTier) error
}

type PGUserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) UserRepository {
	return &PGUserRepository{db: db}
}

const userSelect = `SELECT id, email, role, balance, loyalty_points, tier FROM users WHERE id = $1`

func (r *PGUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.get(ctx, userSelect, id)
}

func (r *PGUserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.get(ctx, userSelect+` FOR UPDATE`, id)
}

func (r *PGUserRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Role, &u.Balance, &u.LoyaltyPoints, &u.Tier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// DebitBalance subtracts amount only when the balance covers it, so two
// concurrent debits can never drive it negative.
func (r *PGUserRepository) DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET balance = balance - $2, updated_at = now() WHERE id = $1 AND balance >= $2`, id, amount)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (r *PGUserRepository) SetLoyalty(ctx context.Context, id uuid.UUID, points int, tier domain.LoyaltyTier) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET loyalty_points = $2, tier = $3, updated_at = now() WHERE id = $1`, id, points, string(tier))
	if err != nil {
		return fmt.Errorf("set loyalty: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
