// Package projection computes balance projections and calendar aggregates
// from an already loaded transaction set. Every function is pure.
package projection

import (
	"time"

	"saldo/internal/core"
)

// RollForwardTotal sums income transactions dated on or before today.
func RollForwardTotal(txs []core.Transaction, today core.Date) core.Money {
	var total core.Money
	for _, t := range txs {
		if t.Category.IsIncome() && !t.Date.After(today) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// RollForwardSince is RollForwardTotal restricted to dates after the given marker.
// A zero marker counts everything up to today.
func RollForwardSince(txs []core.Transaction, marker, today core.Date) core.Money {
	var total core.Money
	for _, t := range txs {
		if !t.Category.IsIncome() || t.Date.After(today) {
			continue
		}
		if !marker.IsZero() && !t.Date.After(marker) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

// ExpectedBalance adds every transaction in (today, target] to balance.
func ExpectedBalance(balance core.Money, txs []core.Transaction, today, target core.Date) core.Money {
	out := balance
	for _, t := range txs {
		if t.Date.After(today) && !t.Date.After(target) {
			out = out.Add(t.Amount)
		}
	}
	return out
}

// Weekday returns the Monday=0 .. Sunday=6 index of d.
func Weekday(d core.Date) int {
	return (int(d.Weekday()) + 6) % 7
}

// DaysRemaining counts days from today through the end of its month, today included.
func DaysRemaining(today core.Date) int {
	end := today.MonthEnd()
	return int(end.Sub(today.Time)/(24*time.Hour)) + 1
}
