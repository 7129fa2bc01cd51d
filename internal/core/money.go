// Package core provides the ledger domain types and money handling utilities.
//
// This file contains functions for parsing monetary amounts and converting
// between integer cents and their decimal representations. All arithmetic
// on amounts happens in cents.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxCents is the largest amount a single record may carry (100 billion in
// major units). Sums over any realistic number of records stay within int64.
const MaxCents int64 = 10_000_000_000_000

// Exponent bounds for decoded decimals. Values outside them are rejected
// before any rescaling, which costs time proportional to the exponent.
const (
	minDecimalExponent = -32
	maxDecimalExponent = 20
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is accepted; negative values,
// signs, malformed input and amounts above MaxCents return ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if iv > MaxCents/100 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents > MaxCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MoneyFromDecimal converts a decoded request amount into cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	if d.IsZero() {
		return Money{}, nil
	}
	if !exponentInRange(d) {
		return Money{}, ErrInvalidAmount
	}
	cents, err := ParseDecimalToCents(d.String())
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// Decimal returns the amount in major units without loss of precision.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Fixed formats the amount with exactly two fractional digits, e.g. "1920.00".
func (m Money) Fixed() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits the amount as a JSON number in major units (2000, 12.5, -30).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	if d.IsZero() {
		m.Cents = 0
		return nil
	}
	if !exponentInRange(d) {
		return ErrInvalidAmount
	}
	// stored amounts may legitimately be negative (balances, remaining)
	d = d.Shift(2).Round(0)
	if d.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return ErrInvalidAmount
	}
	m.Cents = d.IntPart()
	return nil
}

func exponentInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= minDecimalExponent && exp <= maxDecimalExponent
}
