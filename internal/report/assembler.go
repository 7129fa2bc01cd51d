// Package report assembles the public report shapes from aggregation engine
// calls. Every report is rebuilt from the ledger on each call.
package report

import (
	"context"
	"strings"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/ledger"

	"golang.org/x/sync/errgroup"
)

// trendMonths is the length of the trailing trend in an insight snapshot.
const trendMonths = 3

// topCategories caps topExpenseCategories in an insight snapshot.
const topCategories = 5

// Assembler builds the report payloads served by the HTTP layer.
type Assembler struct {
	engine  *aggregate.Engine
	budgets ledger.BudgetReader
	clock   func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock replaces time.Now as the source of the current date.
func WithClock(clock func() time.Time) Option {
	return func(a *Assembler) { a.clock = clock }
}

// NewAssembler returns an assembler reading records through engine and budgets.
func NewAssembler(engine *aggregate.Engine, budgets ledger.BudgetReader, opts ...Option) *Assembler {
	a := &Assembler{engine: engine, budgets: budgets, clock: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Now returns the current time in the reporting zone.
func (a *Assembler) Now() time.Time {
	return a.clock().In(a.engine.Location())
}

// MonthlySummary covers the current calendar year.
func (a *Assembler) MonthlySummary(ctx context.Context, owner string) ([]core.MonthSlot, error) {
	return a.MonthlySummaryFor(ctx, owner, a.Now().Year())
}

// MonthlySummaryFor covers an explicit calendar year.
func (a *Assembler) MonthlySummaryFor(ctx context.Context, owner string, year int) ([]core.MonthSlot, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if year < 1970 || year > 9999 {
		v := &core.ValidationError{}
		v.Add("year", "Year must be between 1970 and 9999")
		return nil, v
	}
	return a.engine.MonthlySummary(ctx, owner, year)
}

// CategoryBreakdown covers all time.
func (a *Assembler) CategoryBreakdown(ctx context.Context, owner string) ([]core.CategoryTotal, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return a.engine.CategoryBreakdown(ctx, owner, nil)
}

// Totals covers all time.
func (a *Assembler) Totals(ctx context.Context, owner string) (core.Totals, error) {
	if err := requireOwner(owner); err != nil {
		return core.Totals{}, err
	}
	return a.engine.Totals(ctx, owner, nil)
}

// BudgetProgress loads the owner's budget and derives its spend. With
// core.ScopePeriod only expenses in the budget's current period count;
// otherwise spend is all time. Returns core.ErrNotFound for budgets that are
// absent or owned by someone else.
func (a *Assembler) BudgetProgress(ctx context.Context, owner, budgetID string, scope core.SpendScope) (core.BudgetProgress, error) {
	v := &core.ValidationError{}
	if strings.TrimSpace(owner) == "" {
		v.Add("owner", "Owner is required")
	}
	if strings.TrimSpace(budgetID) == "" {
		v.Add("id", "Budget id is required")
	}
	switch scope {
	case "", core.ScopeAllTime, core.ScopePeriod:
	default:
		v.Add("scope", "Scope must be all or period")
	}
	if err := v.OrNil(); err != nil {
		return core.BudgetProgress{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, aggregate.ReadTimeout)
	b, err := a.budgets.GetBudget(rctx, owner, budgetID)
	cancel()
	if err != nil {
		return core.BudgetProgress{}, core.Retrieval("get budget", err)
	}

	var w *core.Window
	if scope == core.ScopePeriod {
		pw := core.PeriodWindow(b.Period, a.Now())
		w = &pw
	}
	return a.engine.Progress(ctx, b, w)
}

// Snapshot reads the current month and the trailing trend concurrently.
// Any failed read fails the whole snapshot.
func (a *Assembler) Snapshot(ctx context.Context, owner string) (core.InsightSnapshot, error) {
	if err := requireOwner(owner); err != nil {
		return core.InsightSnapshot{}, err
	}
	now := a.Now()
	month := core.MonthWindow(now)
	trailing := core.TrailingMonths(now, trendMonths)

	var (
		monthTxs []core.Transaction
		trend    []core.TrendSlot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		monthTxs, err = a.engine.Find(gctx, owner, ledger.TransactionFilter{Window: &month})
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = a.engine.Trend(gctx, owner, trailing)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.InsightSnapshot{}, err
	}

	totals := aggregate.Totals(monthTxs)
	breakdown := aggregate.ByCategory(monthTxs)
	top := breakdown[:min(topCategories, len(breakdown))]

	return core.InsightSnapshot{
		CurrentMonth: core.MonthSnapshot{
			Month:             int(now.Month()),
			Year:              now.Year(),
			Income:            totals.Income,
			Expenses:          totals.Expense,
			Balance:           totals.Balance,
			CategoryBreakdown: breakdown,
			TransactionCount:  len(monthTxs),
		},
		Last3Months:          trend,
		TopExpenseCategories: top,
	}, nil
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		v := &core.ValidationError{}
		v.Add("owner", "Owner is required")
		return v
	}
	return nil
}
