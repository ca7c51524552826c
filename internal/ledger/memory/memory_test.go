package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

func mustTx(t *testing.T, d core.Date, desc string, cents int64, cat core.Category) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(d, desc, core.Cents(cents), cat)
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	return tx
}

func TestStoreInsertListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	id1, err := s.Insert(ctx, mustTx(t, core.NewDate(2024, 3, 20), "later", 100, core.VariableIncome))
	if err != nil || id1 != 1 {
		t.Fatalf("unexpected insert: id=%d err=%v", id1, err)
	}
	id2, _ := s.Insert(ctx, mustTx(t, core.NewDate(2024, 3, 1), "earlier", 100, core.VariableIncome))
	id3, _ := s.Insert(ctx, mustTx(t, core.NewDate(2024, 3, 20), "same day", 100, core.VariableIncome))

	txs, err := s.List(ctx)
	if err != nil || len(txs) != 3 {
		t.Fatalf("unexpected list: %v %v", txs, err)
	}
	if txs[0].ID != id2 || txs[1].ID != id1 || txs[2].ID != id3 {
		t.Fatalf("unexpected order: %d %d %d", txs[0].ID, txs[1].ID, txs[2].ID)
	}

	if _, err := s.Insert(ctx, core.Transaction{Date: core.NewDate(2024, 1, 1), Amount: core.Cents(1), Category: core.Outflow}); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New(mustTx(t, core.NewDate(2024, 3, 1), "rent", 90000, core.Outflow))

	if err := s.Update(ctx, 1, "rent march", core.Cents(-95000), core.Outflow); err != nil {
		t.Fatalf("update: %v", err)
	}
	txs, _ := s.List(ctx)
	if txs[0].Description != "rent march" || txs[0].Amount.Cents != -95000 || !txs[0].Date.Equal(core.NewDate(2024, 3, 1)) {
		t.Fatalf("unexpected row after update: %+v", txs[0])
	}

	if err := s.Update(ctx, 42, "x", core.Cents(1), core.VariableIncome); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, 1); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStoreBalance(t *testing.T) {
	ctx := context.Background()
	s := New()
	if b, _ := s.GetBalance(ctx); !b.IsZero() {
		t.Fatalf("unset balance must be zero, got %s", b)
	}
	_ = s.SetBalance(ctx, core.Cents(1234))
	_ = s.SetBalance(ctx, core.Cents(5678))
	if b, _ := s.GetBalance(ctx); b.Cents != 5678 {
		t.Fatalf("balance must be overwritten, got %s", b)
	}
	if d, _ := s.GetProcessedThrough(ctx); !d.IsZero() {
		t.Fatalf("marker must start unset")
	}
	_ = s.SetProcessedThrough(ctx, core.NewDate(2024, 3, 15))
	if d, _ := s.GetProcessedThrough(ctx); !d.Equal(core.NewDate(2024, 3, 15)) {
		t.Fatalf("unexpected marker %s", d)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.txt"))
	if err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}
	if txs, _ := s.List(context.Background()); len(txs) != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.txt")
	content := "# date;amount;category;description\n2024-03-01;2500;fixed_income;Salary\n\n2024-03-02;40;Saída;Groceries; weekly\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	txs, _ := s.List(context.Background())
	if len(txs) != 2 {
		t.Fatalf("expected 2 seeded rows, got %d", len(txs))
	}
	if txs[1].Amount.Cents != -4000 || txs[1].Description != "Groceries; weekly" {
		t.Fatalf("unexpected seeded outflow: %+v", txs[1])
	}

	if err := os.WriteFile(path, []byte("2024-03-01;abc;outflow;x\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected error for bad amount")
	}
}
