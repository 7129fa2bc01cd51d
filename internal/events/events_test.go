package events

import (
	"testing"
	"time"
)

func TestNewLedgerEvent(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	e := NewLedgerEvent(TransactionCreated, "alice", "tx-1", at)
	if e.ID == "" || e.Kind != TransactionCreated || e.Owner != "alice" || e.EntityID != "tx-1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.OccurredAt.Location() != time.UTC || !e.OccurredAt.Equal(at) {
		t.Fatalf("occurredAt not UTC: %v", e.OccurredAt)
	}
	other := NewLedgerEvent(TransactionCreated, "alice", "tx-1", at)
	if other.ID == e.ID {
		t.Fatalf("event ids must differ")
	}
}

func TestLedgerEventFromJSON(t *testing.T) {
	e := NewLedgerEvent(BudgetDeleted, "bob", "b-9", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	b, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := LedgerEventFromJSON(b)
	if err != nil || got != e {
		t.Fatalf("decoded %+v (err=%v), want %+v", got, err, e)
	}
	if _, err := LedgerEventFromJSON([]byte(`{"occurredAt": 12}`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
