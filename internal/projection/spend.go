package projection

import (
	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

// DailySpend divides balance evenly over the days left in the month.
// The result is not rounded; callers format it to two decimals.
func DailySpend(balance core.Money, today core.Date) decimal.Decimal {
	days := DaysRemaining(today)
	if days <= 0 {
		return decimal.Zero
	}
	return balance.Decimal().DivRound(decimal.NewFromInt(int64(days)), 8)
}
