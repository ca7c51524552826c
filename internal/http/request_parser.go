package http

// Helpers for reading form and JSON request bodies.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"saldo/internal/core"
)

const (
	maxBodyBytes = 64 << 10
	maxRangeDays = 31
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month from the query, defaulting to the
// month of today. Invalid values fall back to the default.
func ParseMonthParams(query url.Values, today core.Date) MonthParams {
	params := MonthParams{Year: today.Year(), Month: today.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}
	return params
}

// RequestBodyParser reads a body once and serves values from either a JSON
// object or form encoding.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a sanitized string value.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetAll returns every value for key: repeated form fields or a JSON array.
func (p *RequestBodyParser) GetAll(key string) []string {
	var raw []string
	switch {
	case p.jsonData != nil:
		switch v := p.jsonData[key].(type) {
		case []interface{}:
			for _, item := range v {
				raw = append(raw, stringValue(item))
			}
		case nil:
		default:
			raw = append(raw, stringValue(v))
		}
	case p.formData != nil:
		raw = p.formData[key]
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

var errBadID = errors.New("invalid transaction id")

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errBadID, r.PathValue("id"))
	}
	return id, nil
}

// parseDates accepts repeated "date" values, or a "from"/"to" range. A range
// longer than 31 days is refused before it is expanded.
func parseDates(p *RequestBodyParser) ([]core.Date, error) {
	var dates []core.Date
	for _, v := range p.GetAll("date") {
		d, err := core.ParseDate(v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if len(dates) > 0 {
		return dates, nil
	}

	fromStr := p.Get("from")
	if fromStr == "" {
		return nil, core.ErrNoDates
	}
	from, err := core.ParseDate(fromStr)
	if err != nil {
		return nil, err
	}
	to := from
	if toStr := p.Get("to"); toStr != "" {
		if to, err = core.ParseDate(toStr); err != nil {
			return nil, err
		}
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end before start", core.ErrInvalidDate)
	}
	if to.After(from.AddDays(maxRangeDays - 1)) {
		return nil, fmt.Errorf("%w: range too long", core.ErrInvalidDate)
	}
	return core.DateRange(from, to), nil
}

// parseDraft reads description, amount and category.
func parseDraft(p *RequestBodyParser) (string, core.Money, core.Category, error) {
	desc := p.Get("description")
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return "", core.Money{}, "", err
	}
	cat, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return "", core.Money{}, "", err
	}
	return desc, amount, cat, nil
}
