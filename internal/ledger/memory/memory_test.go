package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func tx(id, owner string, typ core.TransactionType, cat string, cents int64, date time.Time) core.Transaction {
	return core.Transaction{ID: id, Owner: owner, Type: typ, Category: cat, Amount: core.Money{Cents: cents}, Date: date}
}

func TestFindFiltersByOwnerAndOrdersByDate(t *testing.T) {
	s := New()
	ctx := context.Background()
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, x := range []core.Transaction{
		tx("1", "alice", core.Expense, "Food", 100, feb),
		tx("2", "bob", core.Expense, "Food", 999, jan),
		tx("3", "alice", core.Income, "Salary", 5000, jan),
	} {
		if err := s.InsertTransaction(ctx, x); err != nil {
			t.Fatalf("insert %s: %v", x.ID, err)
		}
	}

	got, err := s.FindTransactions(ctx, "alice", ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].ID != "3" || got[1].ID != "1" {
		t.Fatalf("unexpected result: %+v", got)
	}

	w := core.MonthWindow(feb)
	got, _ = s.FindTransactions(ctx, "alice", ledger.TransactionFilter{Type: core.Expense, Window: &w})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected filtered result: %+v", got)
	}
}

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()
	b := core.Budget{ID: "b1", Owner: "alice", Category: "Food", Amount: core.Money{Cents: 100}, Period: core.Monthly}
	if err := s.InsertBudget(ctx, b); err != nil {
		t.Fatalf("insert budget: %v", err)
	}
	if _, err := s.GetBudget(ctx, "bob", "b1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteBudget(ctx, "bob", "b1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	b.Owner = "bob"
	if err := s.UpdateBudget(ctx, b); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if got, _ := s.GetBudget(ctx, "alice", "b1"); got.Amount.Cents != 100 {
		t.Fatalf("budget changed: %+v", got)
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	s := New()
	err := s.InsertTransaction(context.Background(), core.Transaction{Owner: "u", Type: "gift"})
	if !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_ = s.InsertTransaction(ctx, tx("1", "u", core.Expense, "Food", 100, d))

	upd := tx("1", "u", core.Expense, "Rent", 200, d)
	if err := s.UpdateTransaction(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetTransaction(ctx, "u", "1")
	if err != nil || got.Category != "Rent" || got.Amount.Cents != 200 {
		t.Fatalf("unexpected after update: %+v err=%v", got, err)
	}
	if err := s.DeleteTransaction(ctx, "u", "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u", "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
