package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

// FormatMoney renders cents as "R$ 1,234.56", with a leading minus for debits.
func FormatMoney(m core.Money) string {
	if m.Cents < 0 {
		return "-" + FormatMoney(m.Neg())
	}
	return fmt.Sprintf("R$ %s.%02d", FormatNumber(m.Cents/100), m.Cents%100)
}

// FormatDecimal renders a decimal amount with two places.
func FormatDecimal(d decimal.Decimal) string {
	return FormatMoney(core.MoneyFromDecimal(d))
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDayOfWeek returns a 3-letter day abbreviation for a Monday-based index.
func FormatDayOfWeek(idx int) string {
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if idx >= 0 && idx < 7 {
		return days[idx]
	}
	return "???"
}
