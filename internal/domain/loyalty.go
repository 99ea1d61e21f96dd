package domain

import (
	"time"

	"github.com/google/uuid"
)

type LoyaltyTxnType string

const (
	LoyaltyEarn   LoyaltyTxnType = "EARN"
	LoyaltyRedeem LoyaltyTxnType = "REDEEM"
)

// LoyaltyTransaction is one ledger entry. Points is signed: positive for
// EARN, negative for REDEEM.
type LoyaltyTransaction struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Points    int            `json:"points"`
	Type      LoyaltyTxnType `json:"type"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type LoyaltySummary struct {
	Points  int                  `json:"points"`
	Tier    LoyaltyTier          `json:"tier"`
	History []LoyaltyTransaction `json:"history"`
}
