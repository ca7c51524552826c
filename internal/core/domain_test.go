package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	d := NewDate(2024, 2, 14)
	if got := d.MonthStart(); !got.Equal(NewDate(2024, 2, 1)) {
		t.Fatalf("month start = %s", got)
	}
	if got := d.MonthEnd(); !got.Equal(NewDate(2024, 2, 29)) {
		t.Fatalf("leap month end = %s", got)
	}
	if got := NewDate(2023, 12, 5).MonthEnd(); !got.Equal(NewDate(2023, 12, 31)) {
		t.Fatalf("december end = %s", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-03-15 ")
	if err != nil || !d.Equal(NewDate(2024, 3, 15)) {
		t.Fatalf("unexpected parse: %v %v", d, err)
	}
	if _, err := ParseDate("15/03/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"fixed_income", FixedIncome, true},
		{"Variable income", VariableIncome, true},
		{"Saída", Outflow, true},
		{"Entrada Fixa", FixedIncome, true},
		{" OUTFLOW ", Outflow, true},
		{"savings", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("%q expected ErrInvalidCategory, got %v", tc.in, err)
		}
	}
}

func TestCategoryIsIncome(t *testing.T) {
	if !FixedIncome.IsIncome() || !VariableIncome.IsIncome() {
		t.Fatalf("income categories must report IsIncome")
	}
	if Outflow.IsIncome() {
		t.Fatalf("outflow must not be income")
	}
}

func TestNewTransactionNormalizesOutflow(t *testing.T) {
	tx, err := NewTransaction(NewDate(2024, 3, 15), "groceries", Cents(5000), Outflow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Amount.Cents != -5000 {
		t.Fatalf("outflow 50 must be stored as -50, got %s", tx.Amount)
	}

	tx, err = NewTransaction(NewDate(2024, 3, 15), "refund", Cents(-5000), Outflow)
	if err != nil || tx.Amount.Cents != -5000 {
		t.Fatalf("negative outflow must stay negative: %v %v", tx.Amount, err)
	}

	tx, err = NewTransaction(NewDate(2024, 3, 15), "salary", Cents(-100), FixedIncome)
	if err != nil || tx.Amount.Cents != -100 {
		t.Fatalf("income sign must be kept as entered: %v %v", tx.Amount, err)
	}
}

func TestNewTransactionValidation(t *testing.T) {
	day := NewDate(2024, 3, 15)
	cases := []struct {
		name string
		desc string
		amt  Money
		cat  Category
		want error
	}{
		{"empty description", "  ", Cents(100), VariableIncome, ErrEmptyDescription},
		{"zero amount", "x", Cents(0), VariableIncome, ErrZeroAmount},
		{"unknown category", "x", Cents(100), Category("gift"), ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTransaction(day, tc.desc, tc.amt, tc.cat)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if _, err := NewTransaction(Date{}, "x", Cents(1), Outflow); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestTransactionIsMisc(t *testing.T) {
	if !(Transaction{Description: "[Diversos] ifood"}).IsMisc() {
		t.Fatalf("quick entry row must be misc")
	}
	if (Transaction{Description: "Rent"}).IsMisc() {
		t.Fatalf("regular row must not be misc")
	}
}
