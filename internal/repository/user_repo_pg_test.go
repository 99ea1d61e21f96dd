package repository

import (
	"context"
	"testing"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_DebitBalance(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	id := testutil.InsertUser(t, ctx, pool, "wallet@example.com", decimal.NewFromInt(100))
	repo := NewUserRepository(pool)

	require.NoError(t, repo.DebitBalance(ctx, id, decimal.RequireFromString("60.50")))
	assert.ErrorIs(t, repo.DebitBalance(ctx, id, decimal.NewFromInt(40)), domain.ErrInsufficientBalance)
	assert.ErrorIs(t, repo.DebitBalance(ctx, uuid.New(), decimal.NewFromInt(1)), domain.ErrUserNotFound)

	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.Balance.Equal(decimal.RequireFromString("39.50")))
}

func TestLoyaltyRepository_AppendListDelete(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	userID := testutil.InsertUser(t, ctx, pool, "points@example.com", decimal.Zero)
	users := NewUserRepository(pool)
	repo := NewLoyaltyRepository(pool)

	earn := &domain.LoyaltyTransaction{UserID: userID, Points: 16, Type: domain.LoyaltyEarn, Reason: "booking"}
	require.NoError(t, repo.Append(ctx, earn))
	require.NoError(t, users.SetLoyalty(ctx, userID, 16, domain.TierBronze))

	history, err := repo.ListByUser(ctx, userID, 50)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 16, history[0].Points)

	got, err := repo.GetByID(ctx, earn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoyaltyEarn, got.Type)

	require.NoError(t, repo.Delete(ctx, earn.ID))
	assert.ErrorIs(t, repo.Delete(ctx, earn.ID), domain.ErrLoyaltyTxnNotFound)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	userID := testutil.InsertUser(t, ctx, pool, "rollback@example.com", decimal.Zero)
	m := NewTxManager(pool)

	err := m.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Loyalty().Append(ctx, &domain.LoyaltyTransaction{UserID: userID, Points: 5, Type: domain.LoyaltyEarn}); err != nil {
			return err
		}
		return domain.ErrPaymentDeclined
	})
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)

	history, err := NewLoyaltyRepository(pool).ListByUser(ctx, userID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
