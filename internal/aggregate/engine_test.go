package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
)

type failingFinder struct{ err error }

func (f failingFinder) FindTransactions(context.Context, string, ledger.TransactionFilter) ([]core.Transaction, error) {
	return nil, f.err
}

func TestEngineWrapsStoreFailures(t *testing.T) {
	base := errors.New("connection reset")
	e := NewEngine(failingFinder{err: base}, time.UTC)

	_, err := e.Totals(context.Background(), "u", nil)
	var re *core.RetrievalError
	if !errors.As(err, &re) || !errors.Is(err, base) {
		t.Fatalf("expected retrieval error wrapping cause, got %v", err)
	}
}

func TestEngineIsolatesOwners(t *testing.T) {
	s := memory.New()
	s.Seed(
		core.Transaction{ID: "1", Owner: "alice", Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 500}, Date: day(2025, time.January, 1)},
		core.Transaction{ID: "2", Owner: "bob", Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 700}, Date: day(2025, time.January, 1)},
	)
	e := NewEngine(s, time.UTC)
	ctx := context.Background()

	tot, err := e.Totals(ctx, "alice", nil)
	if err != nil || tot.Expense.Cents != 500 {
		t.Fatalf("unexpected alice totals: %+v err=%v", tot, err)
	}
	again, _ := e.Totals(ctx, "alice", nil)
	if again != tot {
		t.Fatalf("totals not idempotent: %+v vs %+v", again, tot)
	}
	cats, _ := e.CategoryBreakdown(ctx, "carol", nil)
	if len(cats) != 0 {
		t.Fatalf("expected empty breakdown for unknown owner: %+v", cats)
	}
}

func TestEngineProgressWindow(t *testing.T) {
	s := memory.New()
	s.Seed(
		core.Transaction{ID: "1", Owner: "u", Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 6000}, Date: day(2025, time.January, 5)},
		core.Transaction{ID: "2", Owner: "u", Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 7000}, Date: day(2025, time.February, 5)},
	)
	e := NewEngine(s, time.UTC)
	b := core.Budget{ID: "b", Owner: "u", Category: "Food", Amount: core.Money{Cents: 10000}, Period: core.Monthly}

	all, err := e.Progress(context.Background(), b, nil)
	if err != nil || all.Spent.Cents != 13000 || all.Remaining.Cents != -3000 || all.Scope != core.ScopeAllTime {
		t.Fatalf("unexpected all-time progress: %+v err=%v", all, err)
	}

	w := core.PeriodWindow(b.Period, day(2025, time.February, 20))
	period, err := e.Progress(context.Background(), b, &w)
	if err != nil || period.Spent.Cents != 7000 || period.Remaining.Cents != 3000 || period.Scope != core.ScopePeriod {
		t.Fatalf("unexpected period progress: %+v err=%v", period, err)
	}
}
