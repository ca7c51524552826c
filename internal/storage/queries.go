package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow mirrors the transactions table.
type TransactionRow struct {
	ID          int64
	Date        string
	Description string
	AmountCents int64
	Category    string
}

type BalanceRow struct {
	AmountCents      int64
	ProcessedThrough sql.NullString
}

const createTransaction = `INSERT INTO transactions (date, description, amount_cents, category)
VALUES (?, ?, ?, ?)
RETURNING id`

type CreateTransactionParams struct {
	Date        string
	Description string
	AmountCents int64
	Category    string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction, arg.Date, arg.Description, arg.AmountCents, arg.Category)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listTransactions = `SELECT id, date, description, amount_cents, category
FROM transactions
ORDER BY date, id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.Description, &i.AmountCents, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransaction = `UPDATE transactions
SET description = ?, amount_cents = ?, category = ?, updated_at = datetime('now')
WHERE id = ?`

type UpdateTransactionParams struct {
	Description string
	AmountCents int64
	Category    string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction, arg.Description, arg.AmountCents, arg.Category, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getBalance = `SELECT amount_cents, processed_through FROM balance WHERE id = 1`

func (q *Queries) GetBalance(ctx context.Context) (BalanceRow, error) {
	row := q.db.QueryRowContext(ctx, getBalance)
	var i BalanceRow
	err := row.Scan(&i.AmountCents, &i.ProcessedThrough)
	return i, err
}

const upsertBalance = `INSERT INTO balance (id, amount_cents) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET amount_cents = excluded.amount_cents, updated_at = datetime('now')`

func (q *Queries) UpsertBalance(ctx context.Context, amountCents int64) error {
	_, err := q.db.ExecContext(ctx, upsertBalance, amountCents)
	return err
}

const upsertProcessedThrough = `INSERT INTO balance (id, processed_through) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET processed_through = excluded.processed_through, updated_at = datetime('now')`

func (q *Queries) UpsertProcessedThrough(ctx context.Context, date sql.NullString) error {
	_, err := q.db.ExecContext(ctx, upsertProcessedThrough, date)
	return err
}
