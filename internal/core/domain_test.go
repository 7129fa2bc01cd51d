package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be accepted, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
	if err := (Money{Cents: MaxCents}).Validate(); err != nil {
		t.Fatalf("expected MaxCents to be accepted, got %v", err)
	}
	if err := (Money{Cents: MaxCents + 1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount above MaxCents, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	good := Transaction{
		Owner:    "u1",
		Type:     Expense,
		Category: "Food",
		Amount:   Money{Cents: 5000},
		Date:     date,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Type: Expense, Category: "c", Amount: Money{Cents: 1}, Date: date}, ErrEmptyOwner},
		{Transaction{Owner: "u", Type: "transfer", Category: "c", Amount: Money{Cents: 1}, Date: date}, ErrInvalidType},
		{Transaction{Owner: "u", Type: Income, Category: "  ", Amount: Money{Cents: 1}, Date: date}, ErrEmptyCategory},
		{Transaction{Owner: "u", Type: Income, Category: "c", Amount: Money{Cents: -1}, Date: date}, ErrInvalidAmount},
		{Transaction{Owner: "u", Type: Income, Category: "c", Amount: Money{Cents: 1}}, ErrZeroDate},
		{Transaction{Owner: "u", Type: Income, Category: "c", Amount: Money{Cents: 1}, Date: date, Note: strings.Repeat("x", 501)}, ErrNoteTooLong},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Owner: "u1", Category: "Food", Amount: Money{Cents: 10000}, Period: Monthly}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = Money{}
	if err := zero.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero ceiling, got %v", err)
	}
	weekly := good
	weekly.Period = "weekly"
	if err := weekly.Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestRetrievalWrapping(t *testing.T) {
	base := errors.New("connection refused")
	err := Retrieval("find transactions", base)
	var re *RetrievalError
	if !errors.As(err, &re) || re.Op != "find transactions" || !errors.Is(err, base) {
		t.Fatalf("unexpected wrapping: %v", err)
	}
	if again := Retrieval("outer", err); again != err {
		t.Fatalf("expected retrieval error to pass through unchanged")
	}
	if nf := Retrieval("get budget", ErrNotFound); !errors.Is(nf, ErrNotFound) {
		t.Fatalf("expected not found to pass through")
	}
	if Retrieval("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestValidationErrorOrNil(t *testing.T) {
	var v ValidationError
	if v.OrNil() != nil {
		t.Fatalf("expected nil with no fields")
	}
	v.Add("amount", "Amount must be a number")
	err := v.OrNil()
	if err == nil || !strings.Contains(err.Error(), "amount: Amount must be a number") {
		t.Fatalf("unexpected error: %v", err)
	}
}
