package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FixedIncome    Category = "fixed_income"
	VariableIncome Category = "variable_income"
	Outflow        Category = "outflow"
)

// MiscPrefix marks transactions created through quick entry.
const MiscPrefix = "[Diversos]"

type (
	// Category is the closed set of transaction kinds.
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Date        Date
		Description string
		Amount      Money
		Category    Category
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrZeroAmount       = errors.New("amount must not be zero")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrNoDates          = errors.New("no dates selected")
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{FixedIncome, VariableIncome, Outflow}
}

var categoryAliases = map[string]Category{
	"fixed_income":     FixedIncome,
	"fixed income":     FixedIncome,
	"fixedincome":      FixedIncome,
	"entrada fixa":     FixedIncome,
	"variable_income":  VariableIncome,
	"variable income":  VariableIncome,
	"variableincome":   VariableIncome,
	"entrada variável": VariableIncome,
	"entrada variavel": VariableIncome,
	"outflow":          Outflow,
	"saída":            Outflow,
	"saida":            Outflow,
}

// ParseCategory accepts stored codes, display labels and the legacy Portuguese labels.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Valid() bool {
	switch c {
	case FixedIncome, VariableIncome, Outflow:
		return true
	default:
		return false
	}
}

// IsIncome reports whether the category is folded into the balance on roll-forward.
func (c Category) IsIncome() bool {
	return c == FixedIncome || c == VariableIncome
}

// Label returns the human readable name.
func (c Category) Label() string {
	switch c {
	case FixedIncome:
		return "Fixed income"
	case VariableIncome:
		return "Variable income"
	case Outflow:
		return "Outflow"
	default:
		return string(c)
	}
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether both values name the same calendar day.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// MonthEnd returns the last day of d's month.
func (d Date) MonthEnd() Date {
	return NewDate(d.Year(), d.Month()+1, 0)
}

// NewTransaction builds a transaction and normalizes the outflow sign.
// Outflows always carry -|amount| regardless of the sign entered.
func NewTransaction(date Date, description string, amount Money, category Category) (Transaction, error) {
	t := Transaction{
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Category:    category,
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Normalize enforces the outflow sign invariant in place.
func (t *Transaction) Normalize() {
	if t.Category == Outflow {
		t.Amount = t.Amount.Abs().Neg()
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(t.Category))
	}
	if t.Category == Outflow && t.Amount.Cents > 0 {
		return fmt.Errorf("%w: outflow must not be positive", ErrInvalidAmount)
	}
	return nil
}

// IsMisc reports whether the transaction came from quick entry.
func (t Transaction) IsMisc() bool {
	return strings.HasPrefix(t.Description, MiscPrefix)
}
