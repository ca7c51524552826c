package http

import (
	"bytes"
	"net/http"
	"strings"
	"sync/atomic"

	"saldo/internal/core"
	"saldo/internal/export"
	"saldo/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "index.html", newIndexView(snap))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	p := ParseMonthParams(r.URL.Query(), s.ledger.Today())
	days, err := s.ledger.Calendar(r.Context(), p.Year, p.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	totals, err := s.ledger.MonthTotals(r.Context(), p.Year, p.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "calendar.html", newCalendarView(p.Year, p.Month, days, totals))
}

// parseTarget reads the optional ?target=YYYY-MM-DD; empty means month end.
func parseTarget(r *http.Request) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("target"))
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	target, err := parseTarget(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.ledger.Project(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "projections.html", newProjectionsView(p))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "transactions.html", newTransactionsView(splitMisc(txs)))
}

func (s *Server) handleAPIProjections(w http.ResponseWriter, r *http.Request) {
	target, err := parseTarget(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	p, err := s.ledger.Project(r.Context(), target)
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		s.logger.ErrorContext(r.Context(), "Projection failed", log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, newProjectionsJSON(p))
}

// handleExport streams the workbook with one sheet per month.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, txs); err != nil {
		s.logger.ErrorContext(r.Context(), "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		InternalServerError("export failed").Write(w)
		return
	}
	atomic.AddInt64(&s.metrics.exports, 1)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	_, _ = buf.WriteTo(w)
}
