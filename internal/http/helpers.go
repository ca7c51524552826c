package http

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/cli"
	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/log"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
)

type appMetrics struct {
	uptime       time.Time
	writes       int64
	writeErrors  int64
	quickRejects int64
	exports      int64
}

func (m *appMetrics) recordWrite(err error) {
	if err != nil {
		atomic.AddInt64(&m.writeErrors, 1)
		return
	}
	atomic.AddInt64(&m.writes, 1)
}

func formatMoney(m core.Money) string {
	return cli.FormatMoney(m)
}

func formatDecimal(d decimal.Decimal) string {
	return cli.FormatDecimal(d)
}

// isValidationError reports errors caused by user input.
func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrZeroAmount,
		core.ErrEmptyDescription,
		core.ErrInvalidCategory,
		core.ErrNoDates,
		services.ErrTargetInPast,
		errBadID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError maps domain errors onto status codes. Store failures are logged
// and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, ledger.ErrNotFound):
		NotFoundError("Transaction not found").Write(w)
	default:
		log.NewStructuredLogger(s.logger).LogError(r.Context(), "Request failed", err, r.Method,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		msg := "Something went wrong, please try again"
		if id := trace.GetRequestID(r.Context()); id != "" {
			msg += " (ref " + id + ")"
		}
		InternalServerError(msg).Write(w)
	}
}
