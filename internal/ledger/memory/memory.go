// Package memory provides an in-process ledger store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	budgets []core.Budget
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Seed appends transactions without validation. Intended for tests.
func (s *Store) Seed(txs ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, txs...)
}

// FindTransactions implements ledger.TransactionFinder.
func (s *Store) FindTransactions(_ context.Context, owner string, f ledger.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if tx.Owner == owner && f.Match(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.txIndex(owner, id); i >= 0 {
		return s.txs[i], nil
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(tx.Owner, tx.ID)
	if i < 0 {
		return core.ErrNotFound
	}
	s.txs[i] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(owner, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	return nil
}

func (s *Store) GetBudget(_ context.Context, owner, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.budgetIndex(owner, id); i >= 0 {
		return s.budgets[i], nil
	}
	return core.Budget{}, core.ErrNotFound
}

func (s *Store) ListBudgets(_ context.Context, owner string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Owner == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) InsertBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(b.Owner, b.ID)
	if i < 0 {
		return core.ErrNotFound
	}
	s.budgets[i] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(owner, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// caller holds s.mu
func (s *Store) txIndex(owner, id string) int {
	for i, tx := range s.txs {
		if tx.ID == id && tx.Owner == owner {
			return i
		}
	}
	return -1
}

// caller holds s.mu
func (s *Store) budgetIndex(owner, id string) int {
	for i, b := range s.budgets {
		if b.ID == id && b.Owner == owner {
			return i
		}
	}
	return -1
}
