package projection

import (
	"sort"

	"saldo/internal/core"
)

// HighlightCount is how many of the largest positive days get highlighted.
const HighlightCount = 5

// MonthCalendar returns one aggregate per day of the month, zero-filled.
func MonthCalendar(txs []core.Transaction, year, month int) []core.DayAggregate {
	first := core.NewDate(year, month, 1)
	last := first.MonthEnd()

	days := make([]core.DayAggregate, last.Day())
	for i := range days {
		days[i] = core.DayAggregate{Date: first.AddDays(i)}
	}
	for _, t := range txs {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		idx := t.Date.Day() - 1
		days[idx].Total = days[idx].Total.Add(t.Amount)
	}

	top := make(map[int]bool, HighlightCount)
	for _, i := range TopPositiveDays(days, HighlightCount) {
		top[i] = true
	}
	for i := range days {
		days[i].Class = classify(days[i].Total, top[i])
	}
	return days
}

// TopPositiveDays returns the indexes of the n largest positive totals, largest
// first. Equal totals keep the earlier day first.
func TopPositiveDays(days []core.DayAggregate, n int) []int {
	var idx []int
	for i, d := range days {
		if d.Total.Cents > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return days[idx[a]].Total.Cents > days[idx[b]].Total.Cents
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}

func classify(total core.Money, top bool) core.DayClass {
	switch {
	case total.Cents > 0 && top:
		return core.DayHighlight
	case total.Cents > 0:
		return core.DayPositive
	case total.Cents < 0:
		return core.DayNegative
	default:
		return core.DayNeutral
	}
}

// Totals splits the month's transactions into inflow and outflow.
func Totals(txs []core.Transaction, year, month int) core.MonthTotals {
	mt := core.MonthTotals{Year: year, Month: month}
	for _, t := range txs {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		if t.Amount.Cents >= 0 {
			mt.Inflow = mt.Inflow.Add(t.Amount)
		} else {
			mt.Outflow = mt.Outflow.Add(t.Amount)
		}
	}
	mt.Net = mt.Inflow.Add(mt.Outflow)
	return mt
}
