// Package http exposes the ledger, report and insight operations as a JSON
// API.
//
// This file decodes request bodies and query parameters into typed inputs.
// Every rejected field of one request is reported together in a single
// *core.ValidationError before any store call is made.
package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies; records are small.
const maxBodyBytes = 1 << 20

const (
	msgType       = "Type must be income or expense"
	msgCategory   = "Category is required"
	msgCategoryLn = "Category must be at most 100 characters"
	msgAmount     = "Amount must be a number"
	msgNegative   = "Amount must not be negative"
	msgPositive   = "Amount must be greater than zero"
	msgDate       = "Date must be YYYY-MM-DD or RFC3339"
	msgNote       = "Note must be at most 500 characters"
	msgPeriod     = "Period must be monthly or yearly"
)

// transactionRequest mirrors the JSON body of transaction writes. Pointer
// fields distinguish "absent" from "empty" for partial updates.
type transactionRequest struct {
	Type     *string         `json:"type"`
	Category *string         `json:"category"`
	Amount   json.RawMessage `json:"amount"`
	Date     *string         `json:"date"`
	Note     *string         `json:"note"`
}

type budgetRequest struct {
	Category *string         `json:"category"`
	Amount   json.RawMessage `json:"amount"`
	Period   *string         `json:"period"`
}

// decodeBody reads a single JSON object from r. Unknown fields are ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return invalid("body", "Request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return invalid("body", "Request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return invalid("body", "Malformed JSON body")
	}
	return nil
}

func invalid(field, msg string) error {
	v := &core.ValidationError{}
	v.Add(field, msg)
	return v
}

// ParseTransactionCreate validates a create body. type, category and amount
// are required; a missing date means now.
func ParseTransactionCreate(w http.ResponseWriter, r *http.Request) (services.TransactionInput, error) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		return services.TransactionInput{}, err
	}

	v := &core.ValidationError{}
	in := services.TransactionInput{}
	if req.Type == nil {
		v.Add("type", msgType)
	} else if t, ok := parseType(*req.Type, v); ok {
		in.Type = t
	}
	if req.Category == nil {
		v.Add("category", msgCategory)
	} else {
		in.Category, _ = parseCategory(*req.Category, v)
	}
	if req.Amount == nil {
		v.Add("amount", msgAmount)
	} else if m, ok := parseAmount(req.Amount, false, v); ok {
		in.Amount = m
	}
	if req.Date != nil {
		if d, ok := parseDate(*req.Date, v); ok {
			in.Date = &d
		}
	}
	if req.Note != nil {
		in.Note, _ = parseNote(*req.Note, v)
	}
	return in, v.OrNil()
}

// ParseTransactionPatch validates an update body where every field is
// optional.
func ParseTransactionPatch(w http.ResponseWriter, r *http.Request) (services.TransactionPatch, error) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		return services.TransactionPatch{}, err
	}

	v := &core.ValidationError{}
	p := services.TransactionPatch{}
	if req.Type != nil {
		if t, ok := parseType(*req.Type, v); ok {
			p.Type = &t
		}
	}
	if req.Category != nil {
		if c, ok := parseCategory(*req.Category, v); ok {
			p.Category = &c
		}
	}
	if req.Amount != nil {
		if m, ok := parseAmount(req.Amount, false, v); ok {
			p.Amount = &m
		}
	}
	if req.Date != nil {
		if d, ok := parseDate(*req.Date, v); ok {
			p.Date = &d
		}
	}
	if req.Note != nil {
		if n, ok := parseNote(*req.Note, v); ok {
			p.Note = &n
		}
	}
	return p, v.OrNil()
}

// ParseBudgetCreate validates a budget body. period defaults to monthly.
func ParseBudgetCreate(w http.ResponseWriter, r *http.Request) (services.BudgetInput, error) {
	var req budgetRequest
	if err := decodeBody(w, r, &req); err != nil {
		return services.BudgetInput{}, err
	}

	v := &core.ValidationError{}
	in := services.BudgetInput{Period: core.Monthly}
	if req.Category == nil {
		v.Add("category", msgCategory)
	} else {
		in.Category, _ = parseCategory(*req.Category, v)
	}
	if req.Amount == nil {
		v.Add("amount", msgAmount)
	} else if m, ok := parseAmount(req.Amount, true, v); ok {
		in.Amount = m
	}
	if req.Period != nil {
		if p, ok := parsePeriod(*req.Period, v); ok {
			in.Period = p
		}
	}
	return in, v.OrNil()
}

// ParseBudgetPatch validates a partial budget update.
func ParseBudgetPatch(w http.ResponseWriter, r *http.Request) (services.BudgetPatch, error) {
	var req budgetRequest
	if err := decodeBody(w, r, &req); err != nil {
		return services.BudgetPatch{}, err
	}

	v := &core.ValidationError{}
	p := services.BudgetPatch{}
	if req.Category != nil {
		if c, ok := parseCategory(*req.Category, v); ok {
			p.Category = &c
		}
	}
	if req.Amount != nil {
		if m, ok := parseAmount(req.Amount, true, v); ok {
			p.Amount = &m
		}
	}
	if req.Period != nil {
		if per, ok := parsePeriod(*req.Period, v); ok {
			p.Period = &per
		}
	}
	return p, v.OrNil()
}

func parseType(s string, v *core.ValidationError) (core.TransactionType, bool) {
	t := core.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		v.Add("type", msgType)
		return "", false
	}
	return t, true
}

func parseCategory(s string, v *core.ValidationError) (string, bool) {
	c := sanitizeInput(s)
	switch {
	case c == "":
		v.Add("category", msgCategory)
		return "", false
	case len(c) > 100:
		v.Add("category", msgCategoryLn)
		return "", false
	}
	return c, true
}

// parseAmount accepts a JSON number or a quoted decimal string.
func parseAmount(raw json.RawMessage, positive bool, v *core.ValidationError) (core.Money, bool) {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			v.Add("amount", msgAmount)
			return core.Money{}, false
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		v.Add("amount", msgAmount)
		return core.Money{}, false
	}
	if d.IsNegative() {
		v.Add("amount", msgNegative)
		return core.Money{}, false
	}
	m, err := core.MoneyFromDecimal(d)
	if err != nil {
		v.Add("amount", msgAmount)
		return core.Money{}, false
	}
	if positive && m.Cents == 0 {
		v.Add("amount", msgPositive)
		return core.Money{}, false
	}
	return m, true
}

// parseDate accepts a calendar date (taken as UTC midnight) or an RFC3339
// timestamp.
func parseDate(s string, v *core.ValidationError) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	v.Add("date", msgDate)
	return time.Time{}, false
}

func parseNote(s string, v *core.ValidationError) (string, bool) {
	n := sanitizeInput(s)
	if len(n) > 500 {
		v.Add("note", msgNote)
		return "", false
	}
	return n, true
}

func parsePeriod(s string, v *core.ValidationError) (core.BudgetPeriod, bool) {
	p := core.BudgetPeriod(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		v.Add("period", msgPeriod)
		return "", false
	}
	return p, true
}

// ParseYear reads the optional year query parameter. ok is false when the
// parameter is absent.
func ParseYear(r *http.Request) (year int, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return 0, false, nil
	}
	y, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return 0, false, invalid("year", "Year must be an integer")
	}
	return y, true, nil
}

// ParseScope reads the scope query parameter of budget progress. Values are
// checked by the report assembler.
func ParseScope(r *http.Request) core.SpendScope {
	return core.SpendScope(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope"))))
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
