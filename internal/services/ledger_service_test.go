package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ledger/memory"
)

type recordingPublisher struct {
	events []events.LedgerEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, e events.LedgerEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(pub events.Publisher) (*LedgerService, *memory.Store) {
	store := memory.New()
	s := NewLedgerService(store, pub)
	s.clock = func() time.Time { return now }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s, store
}

func TestCreateTransactionDefaultsDateAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newService(pub)

	tx, err := s.CreateTransaction(context.Background(), "alice", TransactionInput{
		Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 1250},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.ID != "id-1" || !tx.Date.Equal(now) || !tx.CreatedAt.Equal(now) {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != events.TransactionCreated || pub.events[0].EntityID != "id-1" {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newService(pub)

	_, err := s.CreateTransaction(context.Background(), "alice", TransactionInput{Type: "gift", Category: "Food"})
	var v *core.ValidationError
	if !errors.As(err, &v) || v.Fields[0].Field != "type" {
		t.Fatalf("expected type validation error, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event expected for rejected input")
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s, store := newService(pub)

	b, err := s.CreateBudget(context.Background(), "alice", BudgetInput{Category: "Food", Amount: core.Money{Cents: 10000}})
	if err != nil {
		t.Fatalf("create budget should succeed despite publish failure: %v", err)
	}
	if b.Period != core.Monthly {
		t.Fatalf("expected default monthly period, got %q", b.Period)
	}
	if _, err := store.GetBudget(context.Background(), "alice", b.ID); err != nil {
		t.Fatalf("budget not stored: %v", err)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	s, _ := newService(nil)
	ctx := context.Background()
	for i, d := range []time.Time{now.AddDate(0, -2, 0), now, now.AddDate(0, -1, 0)} {
		d := d
		if _, err := s.CreateTransaction(ctx, "alice", TransactionInput{Type: core.Income, Category: "Salary", Amount: core.Money{Cents: int64(i + 1)}, Date: &d}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	txs, err := s.ListTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 3 || txs[0].ID != "id-2" || txs[1].ID != "id-3" || txs[2].ID != "id-1" {
		t.Fatalf("unexpected order: %v %v %v", txs[0].ID, txs[1].ID, txs[2].ID)
	}
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newService(pub)
	ctx := context.Background()

	tx, _ := s.CreateTransaction(ctx, "alice", TransactionInput{Type: core.Expense, Category: "Food", Amount: core.Money{Cents: 100}})

	rent := "Rent"
	if _, err := s.UpdateTransaction(ctx, "bob", tx.ID, TransactionPatch{Category: &rent}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for foreign update, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "bob", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for foreign delete, got %v", err)
	}

	upd, err := s.UpdateTransaction(ctx, "alice", tx.ID, TransactionPatch{Category: &rent, Amount: &core.Money{Cents: 900}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Category != "Rent" || upd.Type != core.Expense || !upd.Date.Equal(tx.Date) || !upd.CreatedAt.Equal(tx.CreatedAt) {
		t.Fatalf("unexpected update result: %+v", upd)
	}
	if err := s.DeleteTransaction(ctx, "alice", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	kinds := []events.Kind{}
	for _, e := range pub.events {
		kinds = append(kinds, e.Kind)
	}
	want := []events.Kind{events.TransactionCreated, events.TransactionUpdated, events.TransactionDeleted}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
}

func TestUpdateBudgetKeepsPeriodWhenOmitted(t *testing.T) {
	s, _ := newService(nil)
	ctx := context.Background()
	b, _ := s.CreateBudget(ctx, "alice", BudgetInput{Category: "Food", Amount: core.Money{Cents: 100}, Period: core.Yearly})

	upd, err := s.UpdateBudget(ctx, "alice", b.ID, BudgetPatch{Amount: &core.Money{Cents: 200}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Period != core.Yearly || upd.Category != "Food" || upd.Amount.Cents != 200 {
		t.Fatalf("unexpected budget: %+v", upd)
	}
	zero := core.Money{}
	if _, err := s.UpdateBudget(ctx, "alice", b.ID, BudgetPatch{Amount: &zero}); err == nil {
		t.Fatal("expected validation error for zero ceiling")
	}
	if _, err := s.UpdateBudget(ctx, "alice", "missing", BudgetPatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListBudgetsEmpty(t *testing.T) {
	s, _ := newService(nil)
	bs, err := s.ListBudgets(context.Background(), "nobody")
	if err != nil || bs == nil || len(bs) != 0 {
		t.Fatalf("expected empty list, got %#v err=%v", bs, err)
	}
}

func TestLedgerService_Close(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newService(pub)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}
}
