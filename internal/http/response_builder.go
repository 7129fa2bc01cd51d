package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// transactionResponse is the wire shape of a stored transaction.
type transactionResponse struct {
	ID        string     `json:"_id"`
	Type      string     `json:"type"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	Date      time.Time  `json:"date"`
	Note      string     `json:"note,omitempty"`
	User      string     `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type budgetResponse struct {
	ID        string     `json:"_id"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	Period    string     `json:"period"`
	User      string     `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// budgetProgressResponse flattens the budget fields next to the derived
// spend. periodStart/periodEnd are present only for period scope.
type budgetProgressResponse struct {
	budgetResponse
	Spent       core.Money `json:"spent"`
	Remaining   core.Money `json:"remaining"`
	Scope       string     `json:"scope"`
	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
}

type insightResponse struct {
	Success       bool                 `json:"success"`
	FinancialData core.InsightSnapshot `json:"financialData"`
	AIInsights    string               `json:"aiInsights"`
	GeneratedAt   string               `json:"generatedAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type validationResponse struct {
	Errors []core.FieldError `json:"errors"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:        tx.ID,
		Type:      string(tx.Type),
		Category:  tx.Category,
		Amount:    tx.Amount,
		Date:      tx.Date.UTC(),
		Note:      tx.Note,
		User:      tx.Owner,
		CreatedAt: tx.CreatedAt.UTC(),
		UpdatedAt: tx.UpdatedAt.UTC(),
	}
}

func toTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:        b.ID,
		Category:  b.Category,
		Amount:    b.Amount,
		Period:    string(b.Period),
		User:      b.Owner,
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
	}
}

func toBudgetList(bs []core.Budget) []budgetResponse {
	out := make([]budgetResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBudgetResponse(b))
	}
	return out
}

func toBudgetProgressResponse(p core.BudgetProgress) budgetProgressResponse {
	resp := budgetProgressResponse{
		budgetResponse: toBudgetResponse(p.Budget),
		Spent:          p.Spent,
		Remaining:      p.Remaining,
		Scope:          string(p.Scope),
	}
	if resp.Scope == "" {
		resp.Scope = string(core.ScopeAllTime)
	}
	if p.Window != nil {
		start, end := p.Window.Start, p.Window.End
		resp.PeriodStart, resp.PeriodEnd = &start, &end
	}
	return resp
}

func toInsightResponse(in core.Insight) insightResponse {
	return insightResponse{
		Success:       true,
		FinancialData: in.FinancialData,
		AIInsights:    in.Text,
		GeneratedAt:   in.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error onto its HTTP status and body. entity names the
// record kind in not-found messages ("Budget not found").
func writeError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var (
		ve *core.ValidationError
		ge *core.GenerationError
		re *core.RetrievalError
	)
	ctx := r.Context()
	logger := log.FromContext(ctx)
	sl := log.NewStructuredLogger(logger)

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: ve.Fields})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: entity + " not found"})
	case errors.As(err, &ge):
		details := ge.Error()
		if ge.Err != nil {
			details = ge.Err.Error()
		}
		sl.LogError(ctx, "Insight generation failed", ge, log.ComponentInsight, log.OpGenerate,
			log.NewFields().WithErrorType(log.ErrorTypeGeneration))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to generate AI insights",
			Details: details,
		})
	default:
		errorType := log.ErrorTypeInternal
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			errorType = log.ErrorTypeTimeout
		case errors.As(err, &re):
			errorType = log.ErrorTypeDatabase
		}
		sl.LogError(ctx, "Request failed", err, logger.Component(), operationFor(r.Method),
			log.NewFields().WithErrorType(errorType).WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return log.OpCreate
	case http.MethodPut, http.MethodPatch:
		return log.OpUpdate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpRead
	}
}
