// Package pricing computes advertised fares and loyalty conversions.
package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeInput = errors.New("pricing: negative input")
	ErrNonFinite     = errors.New("pricing: non-finite input")
)

// DefaultTaxRate is applied to every fare.
var DefaultTaxRate = decimal.RequireFromString("0.12")

const (
	pointsPerRedeemUnit = 100
	redeemUnitValue     = 10
	earnDivisor         = 10
)

// Price returns round2(base*multiplier*(1+taxRate)) + round2(surcharge).
// Rounding is half-up at two decimal places.
func Price(baseFare, multiplier, surcharge, taxRate decimal.Decimal) (decimal.Decimal, error) {
	for _, v := range []decimal.Decimal{baseFare, multiplier, surcharge, taxRate} {
		if v.IsNegative() {
			return decimal.Zero, ErrNegativeInput
		}
	}

	fare := baseFare.Mul(multiplier)
	taxes := fare.Mul(taxRate)
	return fare.Add(taxes).Round(2).Add(surcharge.Round(2)), nil
}

// FromFloat converts a configuration value, rejecting NaN and infinities.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrNonFinite
	}
	return decimal.NewFromFloat(f), nil
}

// RedeemValue is the money value of redeemed points: every full 100
// points is worth 10.
func RedeemValue(points int) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(points / pointsPerRedeemUnit * redeemUnitValue))
}

// EarnedPoints is floor(price/10).
func EarnedPoints(price decimal.Decimal) int {
	if !price.IsPositive() {
		return 0
	}
	return int(price.Div(decimal.NewFromInt(earnDivisor)).Floor().IntPart())
}
