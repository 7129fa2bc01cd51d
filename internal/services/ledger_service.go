package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ledger"
	"fintrack/internal/log"

	"github.com/google/uuid"
)

// TransactionInput carries the caller-controlled fields of a transaction.
// A nil Date means "now".
type TransactionInput struct {
	Type     core.TransactionType
	Category string
	Amount   core.Money
	Date     *time.Time
	Note     string
}

// BudgetInput carries the caller-controlled fields of a budget. An empty
// Period defaults to monthly.
type BudgetInput struct {
	Category string
	Amount   core.Money
	Period   core.BudgetPeriod
}

// TransactionPatch carries the fields of a partial transaction update. Nil
// fields are left unchanged.
type TransactionPatch struct {
	Type     *core.TransactionType
	Category *string
	Amount   *core.Money
	Date     *time.Time
	Note     *string
}

// BudgetPatch carries the fields of a partial budget update.
type BudgetPatch struct {
	Category *string
	Amount   *core.Money
	Period   *core.BudgetPeriod
}

// LedgerService orchestrates record writes across the store and the event
// publisher. The store is the source of truth: a failed publish is logged and
// never fails the request.
type LedgerService struct {
	store     ledger.Store
	publisher events.Publisher
	clock     func() time.Time
	newID     func() string
}

func NewLedgerService(store ledger.Store, publisher events.Publisher) *LedgerService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, owner string, in TransactionInput) (core.Transaction, error) {
	now := s.clock().UTC()
	tx := core.Transaction{
		ID:        s.newID(),
		Owner:     owner,
		Type:      in.Type,
		Category:  in.Category,
		Amount:    in.Amount,
		Date:      now,
		Note:      in.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Date != nil {
		tx.Date = in.Date.UTC()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, asValidation(err)
	}

	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, events.TransactionCreated, owner, tx.ID)
	return tx, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, aggregate.ReadTimeout)
	defer cancel()
	tx, err := s.store.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, core.Retrieval("get transaction", err)
	}
	return tx, nil
}

// ListTransactions returns the owner's transactions, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, aggregate.ReadTimeout)
	defer cancel()
	txs, err := s.store.FindTransactions(ctx, owner, ledger.TransactionFilter{})
	if err != nil {
		return nil, core.Retrieval("list transactions", err)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	return txs, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, owner, id string, p TransactionPatch) (core.Transaction, error) {
	cur, err := s.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if p.Type != nil {
		cur.Type = *p.Type
	}
	if p.Category != nil {
		cur.Category = *p.Category
	}
	if p.Amount != nil {
		cur.Amount = *p.Amount
	}
	if p.Date != nil {
		cur.Date = p.Date.UTC()
	}
	if p.Note != nil {
		cur.Note = *p.Note
	}
	cur.UpdatedAt = s.clock().UTC()
	if err := cur.Validate(); err != nil {
		return core.Transaction{}, asValidation(err)
	}

	if err := s.store.UpdateTransaction(ctx, cur); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, events.TransactionUpdated, owner, id)
	return cur, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteTransaction(ctx, owner, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, events.TransactionDeleted, owner, id)
	return nil
}

func (s *LedgerService) CreateBudget(ctx context.Context, owner string, in BudgetInput) (core.Budget, error) {
	now := s.clock().UTC()
	b := core.Budget{
		ID:        s.newID(),
		Owner:     owner,
		Category:  in.Category,
		Amount:    in.Amount,
		Period:    in.Period,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if b.Period == "" {
		b.Period = core.Monthly
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, asValidation(err)
	}

	if err := s.store.InsertBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	s.publish(ctx, events.BudgetCreated, owner, b.ID)
	return b, nil
}

func (s *LedgerService) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	ctx, cancel := context.WithTimeout(ctx, aggregate.ReadTimeout)
	defer cancel()
	bs, err := s.store.ListBudgets(ctx, owner)
	if err != nil {
		return nil, core.Retrieval("list budgets", err)
	}
	if bs == nil {
		bs = []core.Budget{}
	}
	return bs, nil
}

func (s *LedgerService) UpdateBudget(ctx context.Context, owner, id string, p BudgetPatch) (core.Budget, error) {
	rctx, cancel := context.WithTimeout(ctx, aggregate.ReadTimeout)
	cur, err := s.store.GetBudget(rctx, owner, id)
	cancel()
	if err != nil {
		return core.Budget{}, core.Retrieval("get budget", err)
	}
	if p.Category != nil {
		cur.Category = *p.Category
	}
	if p.Amount != nil {
		cur.Amount = *p.Amount
	}
	if p.Period != nil {
		cur.Period = *p.Period
	}
	cur.UpdatedAt = s.clock().UTC()
	if err := cur.Validate(); err != nil {
		return core.Budget{}, asValidation(err)
	}

	if err := s.store.UpdateBudget(ctx, cur); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Budget{}, err
		}
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	s.publish(ctx, events.BudgetUpdated, owner, id)
	return cur, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteBudget(ctx, owner, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete budget: %w", err)
	}
	s.publish(ctx, events.BudgetDeleted, owner, id)
	return nil
}

// Ping reports whether the store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *LedgerService) publish(ctx context.Context, kind events.Kind, owner, entityID string) {
	e := events.NewLedgerEvent(kind, owner, entityID, s.clock())
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldComponent, log.ComponentEvents,
			log.FieldEventKind, kind,
			log.FieldEntityID, entityID,
			log.FieldError, err)
		// Don't fail the request - the record is saved
	}
}

// Close closes both the store and the publisher
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}

var domainFields = []struct {
	err   error
	field string
}{
	{core.ErrEmptyOwner, "owner"},
	{core.ErrInvalidType, "type"},
	{core.ErrEmptyCategory, "category"},
	{core.ErrCategoryTooLong, "category"},
	{core.ErrInvalidAmount, "amount"},
	{core.ErrZeroDate, "date"},
	{core.ErrNoteTooLong, "note"},
	{core.ErrInvalidPeriod, "period"},
}

// asValidation maps a domain validation sentinel onto the request field it
// concerns.
func asValidation(err error) error {
	for _, f := range domainFields {
		if errors.Is(err, f.err) {
			v := &core.ValidationError{}
			v.Add(f.field, err.Error())
			return v
		}
	}
	return err
}
