package pricing

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary amount in major units (e.g. 12.34).
type Money = float64

const (
	// CentPlaces is the precision used for prices, reductions and running totals.
	CentPlaces = 2
	// SharePlaces is the precision used for allocation shares.
	SharePlaces = 4
)

// Round rounds v to the given number of decimal places, ties away from zero.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundCents rounds v to two decimal places.
func RoundCents(v Money) Money {
	return Round(v, CentPlaces)
}

// NonNegative clamps negative amounts to zero.
func NonNegative(v Money) Money {
	if v < 0 {
		return 0
	}
	return v
}

// Format renders v with two decimals for human-readable descriptions.
func Format(v Money) string {
	return decimal.NewFromFloat(v).StringFixed(CentPlaces)
}

// Trim renders v without trailing zeros (0.90 -> "0.9", 200.00 -> "200").
func Trim(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// PercentOff converts a pay rate (0.9 = pay 90%) into the percentage taken off ("10").
func PercentOff(rate float64) string {
	one := decimal.NewFromInt(1)
	return one.Sub(decimal.NewFromFloat(rate)).Mul(decimal.NewFromInt(100)).String()
}
