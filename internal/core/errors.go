package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a record that is absent or not owned by the caller.
var ErrNotFound = errors.New("not found")

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError collects every rejected field of a request. It is raised
// before any ledger read or aggregation happens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a rejected field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Msg: msg})
}

// OrNil returns nil when no field was rejected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// RetrievalError wraps a failed ledger query.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError wraps a failed call to the text-generation provider.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate insights: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retrieval wraps err as a RetrievalError unless it already is one or
// reports a missing record.
func Retrieval(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RetrievalError
	if errors.As(err, &re) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &RetrievalError{Op: op, Err: err}
}
