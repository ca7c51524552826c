package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"saldo/internal/core"
	"saldo/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ledger.Store on a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Date:        t.Date.String(),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Category:    string(t.Category),
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"date", t.Date.String(),
		"amount_cents", t.Amount.Cents,
		"category", string(t.Category))

	return id, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func rowToTransaction(row TransactionRow) (core.Transaction, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	cat, err := core.ParseCategory(row.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          row.ID,
		Date:        d,
		Description: row.Description,
		Amount:      core.Cents(row.AmountCents),
		Category:    cat,
	}, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, description string, amount core.Money, category core.Category) error {
	n, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		Description: description,
		AmountCents: amount.Cents,
		Category:    string(category),
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) balanceRow(ctx context.Context) (BalanceRow, error) {
	row, err := r.queries.GetBalance(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return BalanceRow{}, nil
	}
	if err != nil {
		return BalanceRow{}, fmt.Errorf("get balance: %w", err)
	}
	return row, nil
}

func (r *SQLiteRepository) GetBalance(ctx context.Context) (core.Money, error) {
	row, err := r.balanceRow(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return core.Cents(row.AmountCents), nil
}

func (r *SQLiteRepository) SetBalance(ctx context.Context, m core.Money) error {
	if err := r.queries.UpsertBalance(ctx, m.Cents); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetProcessedThrough(ctx context.Context) (core.Date, error) {
	row, err := r.balanceRow(ctx)
	if err != nil {
		return core.Date{}, err
	}
	if !row.ProcessedThrough.Valid {
		return core.Date{}, nil
	}
	return core.ParseDate(row.ProcessedThrough.String)
}

func (r *SQLiteRepository) SetProcessedThrough(ctx context.Context, d core.Date) error {
	v := sql.NullString{}
	if !d.IsZero() {
		v = sql.NullString{String: d.Format(time.DateOnly), Valid: true}
	}
	if err := r.queries.UpsertProcessedThrough(ctx, v); err != nil {
		return fmt.Errorf("set processed through: %w", err)
	}
	return nil
}

var _ ledger.Store = (*SQLiteRepository)(nil)
