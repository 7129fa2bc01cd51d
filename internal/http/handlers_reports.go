package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const entityReport = "Report"

func (s *Server) reportServed(r *http.Request, report string, size int, start time.Time) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogReportServed(r.Context(), report, OwnerFromContext(r.Context()), size, time.Since(start).Milliseconds())
}

// handleMonthlySummary returns twelve month slots for the current year, or
// for ?year= when given.
func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	owner := OwnerFromContext(r.Context())
	year, ok, err := ParseYear(r)
	if err != nil {
		writeError(w, r, err, entityReport)
		return
	}

	var slots []core.MonthSlot
	if ok {
		slots, err = s.reports.MonthlySummaryFor(r.Context(), owner, year)
	} else {
		slots, err = s.reports.MonthlySummary(r.Context(), owner)
	}
	if err != nil {
		writeError(w, r, err, entityReport)
		return
	}
	s.reportServed(r, "monthly", len(slots), start)
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cats, err := s.reports.CategoryBreakdown(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, entityReport)
		return
	}
	s.reportServed(r, "categories", len(cats), start)
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	totals, err := s.reports.Totals(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, entityReport)
		return
	}
	s.reportServed(r, "totals", 1, start)
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleAIInsights(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	insight, err := s.insights.Build(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, entityReport)
		return
	}
	s.reportServed(r, "ai-insights", len(insight.Text), start)
	writeJSON(w, http.StatusOK, toInsightResponse(insight))
}
