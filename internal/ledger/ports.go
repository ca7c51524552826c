// Package ledger declares the storage ports used by the ledger service.
package ledger

import (
	"context"
	"errors"

	"saldo/internal/core"
)

// ErrNotFound is returned when a transaction id does not exist.
var ErrNotFound = errors.New("transaction not found")

// Ports for outbound adapters.
type (
	TransactionStore interface {
		// Insert stores t and returns the id assigned by the store.
		Insert(ctx context.Context, t core.Transaction) (int64, error)
		// List returns every transaction ordered by date, then id.
		List(ctx context.Context) ([]core.Transaction, error)
		// Update rewrites description, amount and category. The date is immutable.
		Update(ctx context.Context, id int64, description string, amount core.Money, category core.Category) error
		Delete(ctx context.Context, id int64) error
	}

	BalanceStore interface {
		// GetBalance returns zero when no balance was ever set.
		GetBalance(ctx context.Context) (core.Money, error)
		SetBalance(ctx context.Context, m core.Money) error
		// GetProcessedThrough returns the roll-forward marker, zero if unset.
		GetProcessedThrough(ctx context.Context) (core.Date, error)
		SetProcessedThrough(ctx context.Context, d core.Date) error
	}

	// Store is the full persistence surface of a backend.
	Store interface {
		TransactionStore
		BalanceStore
	}
)
