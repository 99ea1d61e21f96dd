package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUniqueViolation is returned when a write hits a unique constraint,
// including the active seat index on bookings.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the unit of work handed to a transactional callback. Every
// repository it returns writes through the same database transaction.
type Tx interface {
	Bookings() BookingRepository
	Users() UserRepository
	Loyalty() LoyaltyRepository
}

type TxManager interface {
	// WithTx runs fn in a READ COMMITTED transaction, committing when fn
	// returns nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type PGTxManager struct {
	db *pgxpool.Pool
}

func NewTxManager(db *pgxpool.Pool) *PGTxManager {
	return &PGTxManager{db: db}
}

func (m *PGTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback must still run when ctx has expired mid-transaction.
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(ctx, pgTx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("commit: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type pgTx struct {
	q Querier
}

func (t pgTx) Bookings() BookingRepository { return NewBookingRepository(t.q) }
func (t pgTx) Users() UserRepository       { return NewUserRepository(t.q) }
func (t pgTx) Loyalty() LoyaltyRepository  { return NewLoyaltyRepository(t.q) }

var _ TxManager = (*PGTxManager)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
