package http

import (
	"fmt"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
)

type categoryOption struct {
	Code  string
	Label string
}

func categoryOptions() []categoryOption {
	cats := core.Categories()
	out := make([]categoryOption, len(cats))
	for i, c := range cats {
		out[i] = categoryOption{Code: c.String(), Label: c.Label()}
	}
	return out
}

type projectionsView struct {
	Today            string
	Target           string
	DaysRemaining    int
	DailySpend       string
	Forecast         string
	Expected         string
	ExpectedNegative bool
}

func newProjectionsView(p services.Projections) projectionsView {
	return projectionsView{
		Today:            p.Today.String(),
		Target:           p.Target.String(),
		DaysRemaining:    p.DaysRemaining,
		DailySpend:       formatDecimal(p.DailySpend),
		Forecast:         formatMoney(p.Forecast),
		Expected:         formatMoney(p.Expected),
		ExpectedNegative: p.Expected.Cents < 0,
	}
}

type dayView struct {
	Date   string
	Day    int
	Total  string
	Class  string
	Height int
}

type calendarView struct {
	Year, Month         int
	Title               string
	PrevYear, PrevMonth int
	NextYear, NextMonth int
	Inflow              string
	Outflow             string
	Net                 string
	Days                []dayView
}

func newCalendarView(year, month int, days []core.DayAggregate, totals core.MonthTotals) calendarView {
	v := calendarView{
		Year:    year,
		Month:   month,
		Title:   fmt.Sprintf("%s %d", time.Month(month), year),
		Inflow:  formatMoney(totals.Inflow),
		Outflow: formatMoney(totals.Outflow),
		Net:     formatMoney(totals.Net),
	}
	v.PrevYear, v.PrevMonth = year, month-1
	if v.PrevMonth < 1 {
		v.PrevYear, v.PrevMonth = year-1, 12
	}
	v.NextYear, v.NextMonth = year, month+1
	if v.NextMonth > 12 {
		v.NextYear, v.NextMonth = year+1, 1
	}

	var peak int64
	for _, d := range days {
		if c := d.Total.Abs().Cents; c > peak {
			peak = c
		}
	}
	v.Days = make([]dayView, len(days))
	for i, d := range days {
		height := 0
		if peak > 0 {
			height = int(d.Total.Abs().Cents * 100 / peak)
		}
		v.Days[i] = dayView{
			Date:   d.Date.String(),
			Day:    d.Date.Day(),
			Total:  formatMoney(d.Total),
			Class:  string(d.Class),
			Height: height,
		}
	}
	return v
}

type txRow struct {
	ID          int64
	Date        string
	Description string
	AmountValue string
	Negative    bool
	Category    string
}

type tableView struct {
	Rows       []txRow
	Categories []categoryOption
}

type transactionsView struct {
	Regular tableView
	Misc    tableView
}

func newTableView(txs []core.Transaction) tableView {
	rows := make([]txRow, len(txs))
	for i, t := range txs {
		rows[i] = txRow{
			ID:          t.ID,
			Date:        t.Date.String(),
			Description: t.Description,
			AmountValue: t.Amount.String(),
			Negative:    t.Amount.Cents < 0,
			Category:    t.Category.String(),
		}
	}
	return tableView{Rows: rows, Categories: categoryOptions()}
}

func newTransactionsView(regular, misc []core.Transaction) transactionsView {
	return transactionsView{Regular: newTableView(regular), Misc: newTableView(misc)}
}

// splitMisc separates quick-entry rows from the rest.
func splitMisc(txs []core.Transaction) (regular, misc []core.Transaction) {
	for _, t := range txs {
		if t.IsMisc() {
			misc = append(misc, t)
		} else {
			regular = append(regular, t)
		}
	}
	return regular, misc
}

type indexView struct {
	Today           string
	Balance         string
	BalanceValue    string
	BalanceNegative bool
	Mode            string
	Categories      []categoryOption
	Projections     projectionsView
	Calendar        calendarView
	Transactions    transactionsView
}

func newIndexView(s services.Snapshot) indexView {
	return indexView{
		Today:           s.Today.String(),
		Balance:         formatMoney(s.Balance),
		BalanceValue:    s.Balance.String(),
		BalanceNegative: s.Balance.Cents < 0,
		Mode:            string(s.Mode),
		Categories:      categoryOptions(),
		Projections: newProjectionsView(services.Projections{
			Today:         s.Today,
			Target:        s.Today.MonthEnd(),
			Balance:       s.Balance,
			Expected:      s.ExpectedMonthEnd,
			Forecast:      s.Forecast,
			DailySpend:    s.DailySpend,
			DaysRemaining: s.DaysRemaining,
		}),
		Calendar:     newCalendarView(s.Today.Year(), s.Today.Month(), s.Calendar, s.Totals),
		Transactions: newTransactionsView(s.Transactions, s.Misc),
	}
}

// projectionsJSON is the payload of GET /api/projections.
type projectionsJSON struct {
	Today         string `json:"today"`
	Target        string `json:"target"`
	BalanceCents  int64  `json:"balance_cents"`
	ExpectedCents int64  `json:"expected_cents"`
	ForecastCents int64  `json:"forecast_cents"`
	DailySpend    string `json:"daily_spend"`
	DaysRemaining int    `json:"days_remaining"`
}

func newProjectionsJSON(p services.Projections) projectionsJSON {
	return projectionsJSON{
		Today:         p.Today.String(),
		Target:        p.Target.String(),
		BalanceCents:  p.Balance.Cents,
		ExpectedCents: p.Expected.Cents,
		ForecastCents: p.Forecast.Cents,
		DailySpend:    p.DailySpend.StringFixed(2),
		DaysRemaining: p.DaysRemaining,
	}
}
