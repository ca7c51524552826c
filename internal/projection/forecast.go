package projection

import (
	"fmt"

	"saldo/internal/core"
)

// Increments holds the heuristic amount added per weekday, indexed Monday=0.
type Increments [7]core.Money

// DefaultIncrements: Tue +50, Thu/Fri/Sat +80, Sun +60.
var DefaultIncrements = Increments{
	0: core.Cents(0),
	1: core.Cents(5000),
	2: core.Cents(0),
	3: core.Cents(8000),
	4: core.Cents(8000),
	5: core.Cents(8000),
	6: core.Cents(6000),
}

var weekdayKeys = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// IncrementsFromMap overrides the defaults with amounts keyed by lower-case
// English weekday name, e.g. {"tuesday": "50"}.
func IncrementsFromMap(m map[string]string) (Increments, error) {
	inc := DefaultIncrements
	for i, key := range weekdayKeys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		v, err := core.ParseAmount(raw)
		if err != nil {
			return Increments{}, fmt.Errorf("forecast increment %s: %w", key, err)
		}
		inc[i] = v
	}
	for key := range m {
		if !knownWeekday(key) {
			return Increments{}, fmt.Errorf("forecast increment: unknown weekday %q", key)
		}
	}
	return inc, nil
}

func knownWeekday(key string) bool {
	for _, k := range weekdayKeys {
		if k == key {
			return true
		}
	}
	return false
}

// MonthEndForecast walks today..month end and adds the weekday increment of
// each day to balance. Recorded transactions play no part.
func MonthEndForecast(balance core.Money, today core.Date, inc Increments) core.Money {
	out := balance
	end := today.MonthEnd()
	for d := today; !d.After(end); d = d.AddDays(1) {
		out = out.Add(inc[Weekday(d)])
	}
	return out
}
