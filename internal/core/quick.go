package core

import (
	"fmt"
	"strings"
)

// QuickLineError describes a quick-entry line that could not be used.
type QuickLineError struct {
	Line int
	Text string
	Err  error
}

func (e QuickLineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e QuickLineError) Unwrap() error { return e.Err }

// ParseQuickEntries turns lines like "-50 ifood" into transactions dated today.
//
// The first field is a signed amount and the rest is the description, which gets
// the MiscPrefix. Negative amounts are outflows, everything else variable income.
// Blank lines are ignored; malformed lines are returned as QuickLineError values
// and do not stop the remaining lines from being parsed.
func ParseQuickEntries(text string, today Date) ([]Transaction, []QuickLineError) {
	var (
		txs  []Transaction
		bad  []QuickLineError
		line int
	)
	for _, raw := range strings.Split(text, "\n") {
		line++
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			bad = append(bad, QuickLineError{Line: line, Text: trimmed, Err: ErrEmptyDescription})
			continue
		}
		amount, err := ParseAmount(fields[0])
		if err != nil {
			bad = append(bad, QuickLineError{Line: line, Text: trimmed, Err: err})
			continue
		}
		category := VariableIncome
		if amount.Cents < 0 {
			category = Outflow
		}
		desc := MiscPrefix + " " + strings.Join(fields[1:], " ")
		t, err := NewTransaction(today, desc, amount, category)
		if err != nil {
			bad = append(bad, QuickLineError{Line: line, Text: trimmed, Err: err})
			continue
		}
		txs = append(txs, t)
	}
	return txs, bad
}
