// Package money provides integer minor-unit currency arithmetic. Amounts are
// carried as cents everywhere; decimal arithmetic is only used at the edges
// where percentages or display formatting would otherwise force floats.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Share returns the portion of amountCents covered by percent, rounded
// half-up to a whole cent.
func Share(amountCents int64, percent int) int64 {
	amount := decimal.NewFromInt(amountCents)
	share := amount.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
	return share.Round(0).IntPart()
}

// SplitByAllocations returns the cent share for each percent in order. The
// last share absorbs the rounding remainder so the shares always sum to the
// allocated portion of the amount.
func SplitByAllocations(amountCents int64, percents []int) []int64 {
	shares := make([]int64, len(percents))
	if len(percents) == 0 {
		return shares
	}

	totalPercent := 0
	for _, p := range percents {
		totalPercent += p
	}
	allocated := Share(amountCents, totalPercent)

	var assigned int64
	for i, p := range percents[:len(percents)-1] {
		shares[i] = Share(amountCents, p)
		assigned += shares[i]
	}
	shares[len(percents)-1] = allocated - assigned
	return shares
}

// FormatCents renders cents as a decimal currency string, e.g. 123450 -> "1234.50".
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
}

// FormatEUR renders cents with a euro suffix, e.g. "1234.50 EUR".
func FormatEUR(cents int64) string {
	return fmt.Sprintf("%s EUR", FormatCents(cents))
}
