package payment

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeResult is the outcome of a charge the gateway answered. A decline
// is a result, not an error; errors mean the gateway could not be reached
// or the context ended first.
type ChargeResult struct {
	Success bool
	TxnID   string
	Reason  string
}

type Gateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (ChargeResult, error)
}

// MockGateway approves charges after a fixed latency and declines a
// configurable fraction of them.
type MockGateway struct {
	latency     time.Duration
	declineRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*MockGateway)

func WithLatency(d time.Duration) Option {
	return func(g *MockGateway) { g.latency = d }
}

func WithDeclineRate(rate float64) Option {
	return func(g *MockGateway) { g.declineRate = rate }
}

// WithSeed makes the decline sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(g *MockGateway) { g.rnd = rand.New(rand.NewPCG(seed, seed)) }
}

func NewMockGateway(opts ...Option) *MockGateway {
	g := &MockGateway{
		latency:     200 * time.Millisecond,
		declineRate: 0.02,
		rnd:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *MockGateway) Charge(ctx context.Context, amount decimal.Decimal, _ map[string]string) (ChargeResult, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ChargeResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	if amount.IsNegative() {
		return ChargeResult{Success: false, Reason: "Invalid amount"}, nil
	}

	g.mu.Lock()
	declined := g.rnd.Float64() < g.declineRate
	g.mu.Unlock()
	if declined {
		return ChargeResult{Success: false, Reason: "Card declined"}, nil
	}
	return ChargeResult{Success: true, TxnID: "MOCK-" + uuid.NewString()}, nil
}

var _ Gateway = (*MockGateway)(nil)
