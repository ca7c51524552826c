package core

import (
	"sort"
)

// MaxConsecutiveDays bounds how many rows a single add may create.
const MaxConsecutiveDays = 5

const (
	WarnNotConsecutive = "select up to 5 consecutive days; only the first day was kept"
	WarnTooManyDays    = "select at most 5 consecutive days; only the first 5 were kept"
)

// SelectDates sorts the picked dates and truncates invalid selections.
//
// A non-consecutive selection keeps only its first day; a consecutive run longer
// than MaxConsecutiveDays keeps its first MaxConsecutiveDays days. Truncation is
// reported as a warning, never as an error.
func SelectDates(dates []Date) ([]Date, string, error) {
	if len(dates) == 0 {
		return nil, "", ErrNoDates
	}
	for _, d := range dates {
		if err := d.Validate(); err != nil {
			return nil, "", err
		}
	}

	sorted := append([]Date(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	if len(sorted) == 1 {
		return sorted, "", nil
	}
	for i := 1; i < len(sorted); i++ {
		if !sorted[i-1].AddDays(1).Equal(sorted[i]) {
			return sorted[:1], WarnNotConsecutive, nil
		}
	}
	if len(sorted) > MaxConsecutiveDays {
		return sorted[:MaxConsecutiveDays], WarnTooManyDays, nil
	}
	return sorted, "", nil
}

// DateRange expands from..to inclusive. It returns nil when to is before from.
func DateRange(from, to Date) []Date {
	var out []Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}
