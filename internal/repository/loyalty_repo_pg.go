package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LoyaltyRepository interface {
	Append(ctx context.Context, txn *domain.LoyaltyTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoyaltyTransaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LoyaltyTransaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PGLoyaltyRepository struct {
	db Querier
}

func NewLoyaltyRepository(db Querier) LoyaltyRepository {
	return &PGLoyaltyRepository{db: db}
}

func (r *PGLoyaltyRepository) Append(ctx context.Context, txn *domain.LoyaltyTransaction) error {
	err := r.db.QueryRow(ctx, `INSERT INTO loyalty_transactions (user_id, points, type, reason)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		txn.UserID, txn.Points, string(txn.Type), txn.Reason).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("append loyalty transaction: %w", err)
	}
	return nil
}

func (r *PGLoyaltyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoyaltyTransaction, error) {
	var t domain.LoyaltyTransaction
	err := r.db.QueryRow(ctx, `SELECT id, user_id, points, type, reason, created_at FROM loyalty_transactions WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.Points, &t.Type, &t.Reason, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoyaltyTxnNotFound
		}
		return nil, fmt.Errorf("get loyalty transaction: %w", err)
	}
	return &t, nil
}

func (r *PGLoyaltyRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LoyaltyTransaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, points, type, reason, created_at FROM loyalty_transactions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list loyalty transactions: %w", err)
	}
	defer rows.Close()

	history := make([]domain.LoyaltyTransaction, 0)
	for rows.Next() {
		var t domain.LoyaltyTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Points, &t.Type, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan loyalty transaction: %w", err)
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

func (r *PGLoyaltyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM loyalty_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete loyalty transaction: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrLoyaltyTxnNotFound
	}
	return nil
}

var _ LoyaltyRepository = (*PGLoyaltyRepository)(nil)
