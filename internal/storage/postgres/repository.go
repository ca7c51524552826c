// Package postgres stores the ledger in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

type Repository struct{ db *pgxpool.Pool }

// Open connects, migrates and returns a ready repository.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	databaseURL = NormalizeURL(databaseURL)
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{db: pool}, nil
}

func NewRepository(db *pgxpool.Pool) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
	r.db.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error { return r.db.Ping(ctx) }

// NormalizeURL rewrites postgresql:// to postgres:// and defaults sslmode to disable.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "postgresql://") {
		u = "postgres://" + strings.TrimPrefix(u, "postgresql://")
	}
	if u != "" && !strings.Contains(u, "sslmode=") {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "sslmode=disable"
	}
	return u
}

func (r *Repository) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO transactions("date",description,amount,category)
		 VALUES($1,$2,$3,$4) RETURNING id`,
		t.Date.Time, t.Description, t.Amount.Decimal().StringFixed(2), string(t.Category),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (r *Repository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id,"date",description,amount::text,category
		  FROM transactions
		  ORDER BY "date", id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t   core.Transaction
			d   time.Time
			amt string
			cat string
		)
		if err := rows.Scan(&t.ID, &d, &t.Description, &amt, &cat); err != nil {
			return nil, err
		}
		dec, err := decimal.NewFromString(amt)
		if err != nil {
			return nil, fmt.Errorf("transaction %d amount: %w", t.ID, err)
		}
		if t.Category, err = core.ParseCategory(cat); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		t.Date = core.DateOf(d)
		t.Amount = core.MoneyFromDecimal(dec)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id int64, description string, amount core.Money, category core.Category) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET description=$1, amount=$2, category=$3, updated_at=now() WHERE id=$4`,
		description, amount.Decimal().StringFixed(2), string(category), id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetBalance(ctx context.Context) (core.Money, error) {
	var amt string
	err := r.db.QueryRow(ctx, `SELECT amount::text FROM balance WHERE id=1`).Scan(&amt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("get balance: %w", err)
	}
	dec, err := decimal.NewFromString(amt)
	if err != nil {
		return core.Money{}, fmt.Errorf("balance amount: %w", err)
	}
	return core.MoneyFromDecimal(dec), nil
}

func (r *Repository) SetBalance(ctx context.Context, m core.Money) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO balance(id,amount) VALUES(1,$1)
		 ON CONFLICT(id) DO UPDATE SET amount=EXCLUDED.amount, updated_at=now()`,
		m.Decimal().StringFixed(2))
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (r *Repository) GetProcessedThrough(ctx context.Context) (core.Date, error) {
	var d *time.Time
	err := r.db.QueryRow(ctx, `SELECT processed_through FROM balance WHERE id=1`).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Date{}, nil
	}
	if err != nil {
		return core.Date{}, fmt.Errorf("get processed through: %w", err)
	}
	if d == nil {
		return core.Date{}, nil
	}
	return core.DateOf(*d), nil
}

func (r *Repository) SetProcessedThrough(ctx context.Context, d core.Date) error {
	var v *time.Time
	if !d.IsZero() {
		v = &d.Time
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO balance(id,processed_through) VALUES(1,$1)
		 ON CONFLICT(id) DO UPDATE SET processed_through=EXCLUDED.processed_through, updated_at=now()`,
		v)
	if err != nil {
		return fmt.Errorf("set processed through: %w", err)
	}
	return nil
}

var _ ledger.Store = (*Repository)(nil)
