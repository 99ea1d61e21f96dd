package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/airticket/internal/auth"
	"github.com/Domenick1991/airticket/internal/domain"
	"github.com/Domenick1991/airticket/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLoyaltyUseCase struct {
	mock.Mock
}

func (m *MockLoyaltyUseCase) Earn(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error {
	return m.Called(ctx, tx, userID, points, reason).Error(0)
}

func (m *MockLoyaltyUseCase) Redeem(ctx context.Context, tx repository.Tx, userID uuid.UUID, points int, reason string) error {
	return m.Called(ctx, tx, userID, points, reason).Error(0)
}

func (m *MockLoyaltyUseCase) Summary(ctx context.Context, userID uuid.UUID) (*domain.LoyaltySummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoyaltySummary), args.Error(1)
}

func (m *MockLoyaltyUseCase) RemoveTransaction(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestLoyaltyHandler_me(t *testing.T) {
	mockService := &MockLoyaltyUseCase{}
	handler := NewLoyaltyHandler(mockService)

	user := auth.UserContext{UserID: uuid.New(), Role: domain.RoleUser}
	c, w := newTestContext(http.MethodGet, "/api/v1/loyalty/me", nil, &user)

	mockService.On("Summary", c.Request.Context(), user.UserID).Return(&domain.LoyaltySummary{
		Points: 56,
		Tier:   domain.TierBronze,
		History: []domain.LoyaltyTransaction{
			{ID: uuid.New(), UserID: user.UserID, Points: 16, Type: domain.LoyaltyEarn},
		},
	}, nil)

	handler.me(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response domain.LoyaltySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 56, response.Points)
	assert.Len(t, response.History, 1)
}

func TestLoyaltyHandler_removeTransaction(t *testing.T) {
	mockService := &MockLoyaltyUseCase{}
	handler := NewLoyaltyHandler(mockService)

	id := uuid.New()
	c, w := newTestContext(http.MethodDelete, "/api/v1/loyalty/transactions/"+id.String(), nil, nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.On("RemoveTransaction", c.Request.Context(), id).Return(domain.ErrLoyaltyTxnNotFound)

	handler.removeTransaction(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "loyalty_transaction_not_found")
}
