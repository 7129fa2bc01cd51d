package http

import (
	"net/http"

	"fintrack/internal/log"

	"github.com/go-chi/chi/v5"
)

const entityBudget = "Budget"

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	in, err := ParseBudgetCreate(w, r)
	if err != nil {
		writeError(w, r, err, entityBudget)
		return
	}

	b, err := s.ledger.CreateBudget(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, err, entityBudget)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRecordSaved(r.Context(), log.OpCreate, owner, "budget", b.ID, b.Category, b.Amount.Cents)
	writeJSON(w, http.StatusCreated, toBudgetResponse(b))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	bs, err := s.ledger.ListBudgets(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, entityBudget)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetList(bs))
}

// handleBudgetProgress returns the budget with its spend. ?scope=period
// limits spend to the budget's current month or year.
func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	p, err := s.reports.BudgetProgress(r.Context(), owner, chi.URLParam(r, "id"), ParseScope(r))
	if err != nil {
		writeError(w, r, err, entityBudget)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetProgressResponse(p))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	patch, err := ParseBudgetPatch(w, r)
	if err != nil {
		writeError(w, r, err, entityBudget)
		return
	}

	b, err := s.ledger.UpdateBudget(r.Context(), owner, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err, entityBudget)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRecordSaved(r.Context(), log.OpUpdate, owner, "budget", b.ID, b.Category, b.Amount.Cents)
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteBudget(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, entityBudget)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Budget deleted"})
}
