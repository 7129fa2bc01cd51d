package aggregate

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// ReadTimeout bounds every ledger read issued by the engine.
const ReadTimeout = 7 * time.Second

// Engine runs owner-scoped ledger reads and applies the grouping functions.
// Store failures surface as *core.RetrievalError.
type Engine struct {
	finder ledger.TransactionFinder
	loc    *time.Location
}

// NewEngine returns an engine reading through finder. A nil loc means UTC.
func NewEngine(finder ledger.TransactionFinder, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{finder: finder, loc: loc}
}

// Location is the zone month boundaries are computed in.
func (e *Engine) Location() *time.Location { return e.loc }

// Find returns the owner's transactions matching f.
func (e *Engine) Find(ctx context.Context, owner string, f ledger.TransactionFilter) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, ReadTimeout)
	defer cancel()
	txs, err := e.finder.FindTransactions(ctx, owner, f)
	if err != nil {
		return nil, core.Retrieval("find transactions", err)
	}
	return txs, nil
}

// MonthlySummary returns the 12 month slots of year.
func (e *Engine) MonthlySummary(ctx context.Context, owner string, year int) ([]core.MonthSlot, error) {
	w := core.YearWindow(time.Date(year, time.January, 1, 0, 0, 0, 0, e.loc))
	txs, err := e.Find(ctx, owner, ledger.TransactionFilter{Window: &w})
	if err != nil {
		return nil, err
	}
	return Monthly(txs, year, e.loc), nil
}

// CategoryBreakdown groups expenses by category. A nil window means all time.
func (e *Engine) CategoryBreakdown(ctx context.Context, owner string, w *core.Window) ([]core.CategoryTotal, error) {
	txs, err := e.Find(ctx, owner, ledger.TransactionFilter{Type: core.Expense, Window: w})
	if err != nil {
		return nil, err
	}
	return ByCategory(txs), nil
}

// Totals sums income and expense. A nil window means all time.
func (e *Engine) Totals(ctx context.Context, owner string, w *core.Window) (core.Totals, error) {
	txs, err := e.Find(ctx, owner, ledger.TransactionFilter{Window: w})
	if err != nil {
		return core.Totals{}, err
	}
	return Totals(txs), nil
}

// Progress computes spend against b, restricted to w when it is non-nil.
func (e *Engine) Progress(ctx context.Context, b core.Budget, w *core.Window) (core.BudgetProgress, error) {
	txs, err := e.Find(ctx, b.Owner, ledger.TransactionFilter{Type: core.Expense, Category: b.Category, Window: w})
	if err != nil {
		return core.BudgetProgress{}, err
	}
	p := Progress(b, txs)
	if w != nil {
		p.Scope = core.ScopePeriod
		p.Window = w
	}
	return p, nil
}

// Trend returns one slot per calendar month of w, oldest first.
func (e *Engine) Trend(ctx context.Context, owner string, w core.Window) ([]core.TrendSlot, error) {
	txs, err := e.Find(ctx, owner, ledger.TransactionFilter{Window: &w})
	if err != nil {
		return nil, err
	}
	return Trend(txs, w.Months(), e.loc), nil
}
