package domain

import "math"

// DollarsToCents converts a dollar amount to int64 cents. It rejects inputs
// with more than 2 decimal places. Rounds after scaling to absorb
// floating-point representation artifacts (e.g. 1.10 * 1000 = 1099.999...).
func DollarsToCents(f float64) (int64, error) {
	if f < 0 {
		return 0, ErrInvalidPrice
	}
	scaled := math.Round(f * 1000)
	if math.Mod(scaled, 10) != 0 {
		return 0, ErrInvalidPrice
	}
	return int64(math.Round(f * 100)), nil
}

// CentsToDollars converts int64 cents to a float64 dollar amount for the
// JSON boundary.
func CentsToDollars(c int64) float64 {
	return float64(c) / 100.0
}
