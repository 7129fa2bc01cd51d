package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Monthly BudgetPeriod = "monthly"
	Yearly  BudgetPeriod = "yearly"
)

const (
	maxCategoryLen = 100
	maxNoteLen     = 500
)

type (
	TransactionType string

	BudgetPeriod string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID        string
		Owner     string
		Type      TransactionType
		Category  string
		Amount    Money
		Date      time.Time
		Note      string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Budget struct {
		ID        string
		Owner     string
		Category  string
		Amount    Money
		Period    BudgetPeriod
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("type must be income or expense")
	ErrInvalidPeriod   = errors.New("period must be monthly or yearly")
	ErrEmptyCategory   = errors.New("category is required")
	ErrCategoryTooLong = errors.New("category too long (max 100 characters)")
	ErrNoteTooLong     = errors.New("note too long (max 500 characters)")
	ErrEmptyOwner      = errors.New("owner is required")
	ErrZeroDate        = errors.New("date cannot be zero")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p BudgetPeriod) Valid() bool {
	return p == Monthly || p == Yearly
}

// Validate accepts zero: transactions may record a zero amount.
func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m minus o. The result may be negative.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := validateCategory(t.Category); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Note) > maxNoteLen {
		return ErrNoteTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Owner) == "" {
		return ErrEmptyOwner
	}
	if err := validateCategory(b.Category); err != nil {
		return err
	}
	// the ceiling must be strictly positive
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func validateCategory(c string) error {
	if strings.TrimSpace(c) == "" {
		return ErrEmptyCategory
	}
	if len(c) > maxCategoryLen {
		return ErrCategoryTooLong
	}
	return nil
}
