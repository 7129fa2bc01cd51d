package http

import (
	"net/http"

	"fintrack/internal/log"

	"github.com/go-chi/chi/v5"
)

const entityTransaction = "Transaction"

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	in, err := ParseTransactionCreate(w, r)
	if err != nil {
		writeError(w, r, err, entityTransaction)
		return
	}

	tx, err := s.ledger.CreateTransaction(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, err, entityTransaction)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRecordSaved(r.Context(), log.OpCreate, owner, string(tx.Type), tx.ID, tx.Category, tx.Amount.Cents)
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, entityTransaction)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionList(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.ledger.GetTransaction(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, entityTransaction)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	patch, err := ParseTransactionPatch(w, r)
	if err != nil {
		writeError(w, r, err, entityTransaction)
		return
	}

	tx, err := s.ledger.UpdateTransaction(r.Context(), owner, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err, entityTransaction)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRecordSaved(r.Context(), log.OpUpdate, owner, string(tx.Type), tx.ID, tx.Category, tx.Amount.Cents)
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, entityTransaction)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Transaction deleted"})
}
