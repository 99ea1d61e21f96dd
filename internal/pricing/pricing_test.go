package pricing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		multiplier string
		surcharge  string
		taxRate    string
		want       string
	}{
		{name: "business multiplier", base: "100", multiplier: "1.5", surcharge: "0", taxRate: "0.12", want: "168.00"},
		{name: "economy", base: "100", multiplier: "1.0", surcharge: "0", taxRate: "0.12", want: "112.00"},
		{name: "rounds down below half", base: "99.995", multiplier: "1.0", surcharge: "0", taxRate: "0.12", want: "111.99"},
		{name: "half rounds up", base: "1.005", multiplier: "1", surcharge: "0", taxRate: "0", want: "1.01"},
		{name: "surcharge rounded separately", base: "100", multiplier: "1", surcharge: "25.005", taxRate: "0.12", want: "137.01"},
		{name: "zero fare", base: "0", multiplier: "2", surcharge: "0", taxRate: "0.12", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(d(tt.base), d(tt.multiplier), d(tt.surcharge), d(tt.taxRate))
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestPrice_Deterministic(t *testing.T) {
	first, err := Price(d("321.45"), d("2"), d("10"), DefaultTaxRate)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Price(d("321.45"), d("2"), d("10"), DefaultTaxRate)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}

func TestPrice_RejectsNegative(t *testing.T) {
	_, err := Price(d("-1"), d("1"), d("0"), DefaultTaxRate)
	assert.ErrorIs(t, err, ErrNegativeInput)

	_, err = Price(d("1"), d("1"), d("0"), d("-0.1"))
	assert.ErrorIs(t, err, ErrNegativeInput)
}

func TestFromFloat(t *testing.T) {
	v, err := FromFloat(0.12)
	require.NoError(t, err)
	assert.True(t, DefaultTaxRate.Equal(v))

	_, err = FromFloat(math.NaN())
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = FromFloat(math.Inf(1))
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestRedeemValue(t *testing.T) {
	assert.True(t, RedeemValue(0).IsZero())
	assert.True(t, RedeemValue(99).IsZero())
	assert.True(t, d("10").Equal(RedeemValue(100)))
	assert.True(t, d("50").Equal(RedeemValue(599)))
	assert.True(t, RedeemValue(-5).IsZero())
}

func TestEarnedPoints(t *testing.T) {
	assert.Equal(t, 16, EarnedPoints(d("168.00")))
	assert.Equal(t, 0, EarnedPoints(d("9.99")))
	assert.Equal(t, 0, EarnedPoints(decimal.Zero))
	assert.Equal(t, 11, EarnedPoints(d("112")))
}
