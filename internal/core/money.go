// Package core holds the domain model of the budgeting system: entities,
// money handling, validation, and the pure aggregation arithmetic.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied amount string to a decimal rounded
// to kopecks. It accepts both dot (12.34) and comma (12,34) separators and
// rejects zero and negative values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Kopecks returns the amount as an integer number of kopecks, the unit the
// store persists. Half-up rounding on fractional kopecks.
func Kopecks(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromKopecks converts a stored kopeck count back to a decimal amount.
func FromKopecks(k int64) decimal.Decimal {
	return decimal.New(k, -2)
}
