package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/export"
	"saldo/internal/ledger"
)

// SheetsExporter mirrors the whole ledger to a remote spreadsheet.
type SheetsExporter interface {
	ExportWorkbook(ctx context.Context, txs []core.Transaction) error
}

// ExportWorker keeps the workbook copies of the ledger up to date.
type ExportWorker struct {
	store  ledger.TransactionStore
	sheets SheetsExporter
	dir    string

	mu       sync.Mutex
	lastRun  time.Time
	lastSeen int
}

// NewExportWorker writes to dir when it is not empty and to sheets when it is not nil.
func NewExportWorker(store ledger.TransactionStore, sheets SheetsExporter, dir string) *ExportWorker {
	return &ExportWorker{store: store, sheets: sheets, dir: dir}
}

// Enabled reports whether at least one export target is configured.
func (w *ExportWorker) Enabled() bool {
	return w.dir != "" || w.sheets != nil
}

// HandleLedgerChanged re-exports the ledger after a change notification.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChanged) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"message_id", msg.ID,
		"op", msg.Op,
		"transaction_id", msg.TransactionID)

	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("export after %s: %w", msg.Op, err)
	}
	return nil
}

// Export writes every configured target. Targets run concurrently and the
// first failure is returned.
func (w *ExportWorker) Export(ctx context.Context) error {
	if !w.Enabled() {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	txs, err := w.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.dir != "" {
		g.Go(func() error {
			return w.writeFile(txs)
		})
	}
	if w.sheets != nil {
		g.Go(func() error {
			return w.sheets.ExportWorkbook(gctx, txs)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.lastRun = time.Now()
	w.lastSeen = len(txs)
	slog.InfoContext(ctx, "Ledger exported",
		"transactions", len(txs),
		"dir", w.dir,
		"sheets", w.sheets != nil)
	return nil
}

// writeFile replaces the workbook atomically so readers never see a partial file.
func (w *ExportWorker) writeFile(txs []core.Transaction) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(w.dir, ".saldo-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := export.WriteXLSX(tmp, txs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path()); err != nil {
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

// Path is where the local workbook is written.
func (w *ExportWorker) Path() string {
	if w.dir == "" {
		return ""
	}
	return filepath.Join(w.dir, export.Filename)
}

// LastRun returns when the last successful export finished and how many
// transactions it contained.
func (w *ExportWorker) LastRun() (time.Time, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun, w.lastSeen
}

// StartupExport runs one export so targets catch up with changes made while
// the worker was down.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	if !w.Enabled() {
		slog.InfoContext(ctx, "No export target configured, skipping startup export")
		return nil
	}
	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("startup export: %w", err)
	}
	return nil
}

// RunPeriodic exports every interval until ctx is cancelled.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Export(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}
