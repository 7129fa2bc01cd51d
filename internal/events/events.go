// Package events defines the ledger change events published after record
// writes and the publisher port they go through.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
	BudgetCreated      Kind = "budget.created"
	BudgetUpdated      Kind = "budget.updated"
	BudgetDeleted      Kind = "budget.deleted"
)

// LedgerEvent announces a change to an owner's ledger. It carries only
// identifiers; consumers read the record itself from the store.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Owner      string    `json:"owner"`
	EntityID   string    `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewLedgerEvent stamps a new event with a random id.
func NewLedgerEvent(kind Kind, owner, entityID string, at time.Time) LedgerEvent {
	return LedgerEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Owner:      owner,
		EntityID:   entityID,
		OccurredAt: at.UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event produced by ToJSON.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}

// Publisher delivers ledger events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e LedgerEvent) error
	Close() error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, LedgerEvent) error { return nil }

func (Noop) Close() error { return nil }
