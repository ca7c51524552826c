package http

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/services"
)

// parseBody reads the request body, answering 400 when it is unreadable.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Malformed request body").Write(w)
		return nil, false
	}
	return p, true
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	desc, amount, cat, err := parseDraft(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dates, err := parseDates(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.ledger.AddTransaction(r.Context(), services.Draft{
		Description: desc,
		Amount:      amount,
		Category:    cat,
	}, dates)
	s.metrics.recordWrite(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	msg := "Saved " + plural(len(res.IDs), "transaction")
	if res.Warning != "" {
		msg += ". " + res.Warning
	}
	NewHTMXResponse().
		TriggerLedgerChanged(string(amqp.OpCreate)).
		TriggerFormReset().
		Notice("success", msg).
		Write(w)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	desc, amount, cat, err := parseDraft(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	err = s.ledger.EditTransaction(r.Context(), id, desc, amount, cat)
	s.metrics.recordWrite(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(string(amqp.OpUpdate)).
		Notice("success", fmt.Sprintf("Transaction %d updated", id)).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.ledger.DeleteTransaction(r.Context(), id)
	s.metrics.recordWrite(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(string(amqp.OpDelete)).
		Notice("success", fmt.Sprintf("Transaction %d deleted", id)).
		Write(w)
}

// handleQuickEntry stores every valid line and lists the rejected ones.
func (s *Server) handleQuickEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	text := p.Get("text")
	if text == "" {
		UnprocessableEntityError("Nothing to add").Write(w)
		return
	}

	res, err := s.ledger.QuickAdd(r.Context(), text)
	s.metrics.recordWrite(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.metrics.quickRejects, int64(len(res.Rejected)))

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<div class="success">Saved %d of %d lines</div>`, len(res.IDs), len(res.IDs)+len(res.Rejected)))
	if len(res.Rejected) > 0 {
		b.WriteString(`<ul class="error">`)
		for _, rej := range res.Rejected {
			b.WriteString("<li>" + template.HTMLEscapeString(rej.Error()) + "</li>")
		}
		b.WriteString("</ul>")
	}

	resp := NewHTMXResponse().BodyHTML(b.String())
	if len(res.IDs) > 0 {
		resp.TriggerLedgerChanged(string(amqp.OpQuick)).TriggerFormReset()
	} else {
		resp.Status(http.StatusUnprocessableEntity)
	}
	resp.Write(w)
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.ledger.SetBalance(r.Context(), amount)
	s.metrics.recordWrite(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(string(amqp.OpBalance)).
		Notice("success", "Balance set to "+formatMoney(amount)).
		Write(w)
}

func (s *Server) handleRollForward(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.RollForward(r.Context())
	s.metrics.recordWrite(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := NewHTMXResponse()
	if res.Added.IsZero() {
		resp.Notice("success", "No income to roll forward")
	} else {
		resp.TriggerLedgerChanged(string(amqp.OpBalance)).
			Notice("success", fmt.Sprintf("Added %s, balance is now %s",
				formatMoney(res.Added), formatMoney(res.Balance)))
	}
	resp.Write(w)
}
