package loyalty

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	silverThreshold = 1000
	goldThreshold   = 2000
	historyLimit    = 50
)

type LoyaltyUseCase interface {
	Earn(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error
	Redeem(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error
	Summary(ctx context.Context, userID uuid.UUID) (*domain.LoyaltySummary, error)
	RemoveTransaction(ctx context.Context, id uuid.UUID) error
}

type LoyaltyService struct {
	txm     repository.TxManager
	users   repository.UserRepository
	entries repository.LoyaltyRepository
	log     *logrus.Logger
}

func NewLoyaltyService(txm repository.TxManager, users repository.UserRepository, entries repository.LoyaltyRepository, log *logrus.Logger) *LoyaltyService {
	return &LoyaltyService{txm: txm, users: users, entries: entries, log: log}
}

// ComputeTier maps a point balance to its tier.
func ComputeTier(points int) domain.LoyaltyTier {
	switch {
	case points >= goldThreshold:
		return domain.TierGold
	case points >= silverThreshold:
		return domain.TierSilver
	default:
		return domain.TierBronze
	}
}

// Earn credits points inside tx, or in a transaction of its own when tx
// is nil.
func (s *LoyaltyService) Earn(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error {
	return s.apply(ctx, tx, userID, points, domain.LoyaltyEarn, reason)
}

// Redeem debits points. The cached balance never goes below zero, but the
// ledger row records the full amount requested.
func (s *LoyaltyService) Redeem(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error {
	return s.apply(ctx, tx, userID, points, domain.LoyaltyRedeem, reason)
}

func (s *LoyaltyService) apply(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, kind domain.LoyaltyTxnType, reason string) error {
	if points <= 0 {
		return domain.ErrInvalidPoints
	}
	if tx == nil {
		return s.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return s.applyTx(ctx, tx, userID, points, kind, reason)
		})
	}
	return s.applyTx(ctx, tx, userID, points, kind, reason)
}

func (s *LoyaltyService) applyTx(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, kind domain.LoyaltyTxnType, reason string) error {
	user, err := tx.Users().GetForUpdate(ctx, userID)
	if err != nil {
		return err
	}

	entry := &domain.LoyaltyTransaction{UserID: userID, Type: kind, Reason: reason}
	balance := user.LoyaltyPoints
	if kind == domain.LoyaltyEarn {
		entry.Points = points
		balance += points
	} else {
		entry.Points = -points
		balance = max(0, balance-points)
	}

	if err := tx.Loyalty().Append(ctx, entry); err != nil {
		return err
	}
	if err := tx.Users().SetLoyalty(ctx, userID, balance, ComputeTier(balance)); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"type":    kind,
		"points":  entry.Points,
		"balance": balance,
	}).Debug("loyalty ledger updated")
	return nil
}

func (s *LoyaltyService) Summary(ctx context.Context, userID uuid.UUID) (*domain.LoyaltySummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.entries.ListByUser(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("loyalty history: %w", err)
	}
	return &domain.LoyaltySummary{Points: user.LoyaltyPoints, Tier: user.Tier, History: history}, nil
}

// RemoveTransaction reverses an entry's effect on the cached balance and
// deletes it.
func (s *LoyaltyService) RemoveTransaction(ctx context.Context, id uuid.UUID) error {
	return s.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		entry, err := tx.Loyalty().GetByID(ctx, id)
		if err != nil {
			return err
		}
		user, err := tx.Users().GetForUpdate(ctx, entry.UserID)
		if err != nil {
			return err
		}

		balance := max(0, user.LoyaltyPoints-entry.Points)
		if err := tx.Users().SetLoyalty(ctx, user.ID, balance, ComputeTier(balance)); err != nil {
			return err
		}
		if err := tx.Loyalty().Delete(ctx, id); err != nil {
			return err
		}

		s.log.WithFields(logrus.Fields{"txn_id": id, "user_id": user.ID, "balance": balance}).Info("loyalty transaction removed")
		return nil
	})
}

var _ LoyaltyUseCase = (*LoyaltyService)(nil)
