package core

import (
	"errors"
	"testing"
)

func TestParseQuickEntries(t *testing.T) {
	today := NewDate(2024, 3, 15)
	text := "-50 ifood\n\n120 freelance gig\nbroken\nabc lunch\n0 nothing\n  -7,5   bus ticket  "

	txs, bad := ParseQuickEntries(text, today)
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d: %+v", len(txs), txs)
	}

	want := []struct {
		desc  string
		cents int64
		cat   Category
	}{
		{"[Diversos] ifood", -5000, Outflow},
		{"[Diversos] freelance gig", 12000, VariableIncome},
		{"[Diversos] bus ticket", -750, Outflow},
	}
	for i, w := range want {
		got := txs[i]
		if got.Description != w.desc || got.Amount.Cents != w.cents || got.Category != w.cat {
			t.Fatalf("entry %d: got %+v, want %+v", i, got, w)
		}
		if !got.Date.Equal(today) {
			t.Fatalf("entry %d dated %s, want today", i, got.Date)
		}
		if !got.IsMisc() {
			t.Fatalf("entry %d must be misc", i)
		}
	}

	if len(bad) != 3 {
		t.Fatalf("expected 3 bad lines, got %d: %v", len(bad), bad)
	}
	if bad[0].Line != 4 || !errors.Is(bad[0], ErrEmptyDescription) {
		t.Fatalf("unexpected first bad line: %+v", bad[0])
	}
	if !errors.Is(bad[1], ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", bad[1].Err)
	}
	if !errors.Is(bad[2], ErrZeroAmount) {
		t.Fatalf("expected zero amount, got %v", bad[2].Err)
	}
}
