package core

// DayClass is the rendering bucket of a calendar day.
type DayClass string

const (
	DayHighlight DayClass = "highlight"
	DayPositive  DayClass = "positive"
	DayNegative  DayClass = "negative"
	DayNeutral   DayClass = "neutral"
)

// DayAggregate is the net sum of all transactions dated on one day.
type DayAggregate struct {
	Date  Date
	Total Money
	Class DayClass
}

// MonthTotals splits a month's transactions by direction.
type MonthTotals struct {
	Year    int
	Month   int // 1-12
	Inflow  Money
	Outflow Money
	Net     Money
}
