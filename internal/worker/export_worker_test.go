package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/ledger/memory"
)

type fakeSheets struct {
	mu    sync.Mutex
	calls int
	last  []core.Transaction
	err   error
}

func (f *fakeSheets) ExportWorkbook(_ context.Context, txs []core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = txs
	return f.err
}

func seededStore() *memory.Store {
	return memory.New(
		core.Transaction{Date: core.NewDate(2024, 3, 1), Description: "salary", Amount: core.Cents(250000), Category: core.FixedIncome},
		core.Transaction{Date: core.NewDate(2024, 4, 2), Description: "rent", Amount: core.Cents(-90000), Category: core.Outflow},
	)
}

func TestHandleLedgerChangedWritesTargets(t *testing.T) {
	dir := t.TempDir()
	sheets := &fakeSheets{}
	w := NewExportWorker(seededStore(), sheets, dir)

	if err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChanged(amqp.OpCreate, 2)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sheets.calls != 1 || len(sheets.last) != 2 {
		t.Fatalf("sheets not exported: %+v", sheets)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "controle_financeiro.xlsx"))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList(); len(got) != 2 || got[0] != "March_2024" || got[1] != "April_2024" {
		t.Fatalf("unexpected sheets %v", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
	if at, n := w.LastRun(); at.IsZero() || n != 2 {
		t.Fatalf("last run not recorded: %v %d", at, n)
	}
}

func TestExportPropagatesSheetsError(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("quota")}
	w := NewExportWorker(seededStore(), sheets, "")
	if err := w.Export(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if at, _ := w.LastRun(); !at.IsZero() {
		t.Fatal("failed export must not be recorded")
	}
}

func TestExportWithoutTargets(t *testing.T) {
	w := NewExportWorker(seededStore(), nil, "")
	if w.Enabled() || w.Path() != "" {
		t.Fatal("worker must be disabled")
	}
	if err := w.StartupExport(context.Background()); err != nil {
		t.Fatalf("startup export: %v", err)
	}
}

func TestRunPeriodic(t *testing.T) {
	sheets := &fakeSheets{}
	w := NewExportWorker(seededStore(), sheets, "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.RunPeriodic(ctx, 10*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		sheets.mu.Lock()
		n := sheets.calls
		sheets.mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("periodic export did not run, calls=%d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run periodic: %v", err)
	}
}
