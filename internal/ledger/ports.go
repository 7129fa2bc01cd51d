// Package ledger declares the ports through which the reporting core and the
// record services reach persisted transactions and budgets.
package ledger

import (
	"context"

	"fintrack/internal/core"
)

// TransactionFilter narrows an owner-scoped transaction query. Zero values
// match everything.
type TransactionFilter struct {
	Type     core.TransactionType
	Category string
	Window   *core.Window
}

// Match reports whether tx satisfies the filter. Owner scoping is applied
// separately by every store.
func (f TransactionFilter) Match(tx core.Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.Window != nil && !f.Window.Contains(tx.Date) {
		return false
	}
	return true
}

// Ports for outbound adapters.
type (
	// TransactionFinder returns an owner's transactions ordered by date
	// ascending, ties broken by insertion order.
	TransactionFinder interface {
		FindTransactions(ctx context.Context, owner string, f TransactionFilter) ([]core.Transaction, error)
	}

	TransactionStore interface {
		TransactionFinder
		GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
		InsertTransaction(ctx context.Context, tx core.Transaction) error
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, owner, id string) error
	}

	// BudgetReader returns core.ErrNotFound for budgets that are absent or
	// belong to another owner.
	BudgetReader interface {
		GetBudget(ctx context.Context, owner, id string) (core.Budget, error)
		ListBudgets(ctx context.Context, owner string) ([]core.Budget, error)
	}

	BudgetStore interface {
		BudgetReader
		InsertBudget(ctx context.Context, b core.Budget) error
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, owner, id string) error
	}

	// Store is a complete ledger backend.
	Store interface {
		TransactionStore
		BudgetStore
		Ping(ctx context.Context) error
		Close() error
	}
)
