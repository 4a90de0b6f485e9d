// This file parses expense submissions and view filters from requests. Form
// posts and JSON bodies share one code path.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a body once and exposes its fields whether it was
// sent as JSON or form-encoded.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err != nil {
		p.err = fmt.Errorf("read body: %w", p.err)
	}
	return p
}

// parseErrorStatus maps a Parse error to 413 for oversized bodies, 400
// otherwise.
func parseErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// Parse decodes the body as JSON when it looks like an object, form data
// otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.Contains(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		dec := json.NewDecoder(bytes.NewReader([]byte(body)))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a trimmed, sanitized field value.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Expense builds a record from the parsed fields. A category that does not
// name one of the fixed categories is passed through so validation rejects it.
func (p *RequestBodyParser) Expense() core.Expense {
	e := core.Expense{
		ID:     p.Get("id"),
		Title:  p.Get("title"),
		Amount: p.Get("amount"),
		Date:   p.Get("date"),
	}
	raw := p.Get("category")
	if cat, err := core.ParseCategory(raw); err == nil {
		e.Category = cat
	} else {
		e.Category = core.Category(raw)
	}
	return e
}

// parseFilter reads search and category query parameters. The search term
// keeps its whitespace since it is matched as a raw substring.
func parseFilter(q url.Values) core.Filter {
	f := core.Filter{Search: stripControl(q.Get("search"))}
	raw := sanitizeInput(q.Get("category"))
	if strings.EqualFold(raw, core.AllCategories) || raw == "" {
		f.Category = core.AllCategories
	} else if cat, err := core.ParseCategory(raw); err == nil {
		f.Category = string(cat)
	} else {
		// unknown category matches nothing, like the exact comparison does
		f.Category = raw
	}
	return f
}

// hasFilterParams reports whether the query sets any filter field.
func hasFilterParams(q url.Values) bool {
	return q.Has("search") || q.Has("category")
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
