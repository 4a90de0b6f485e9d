// This file implements a small builder for JSON and HTML responses so
// handlers set status, headers and body in one place.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/core"
)

type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the body. Encoding failures turn the response into a 500.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	b.headers["Content-Type"] = "application/json"
	b.body = append(data, '\n')
	return b
}

func (b *ResponseBuilder) HTML(content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = content
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// apiError is the JSON error body.
type apiError struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(apiError{Error: message})
}

// ErrorFromDomain maps tracker and validation errors to a JSON response.
func ErrorFromDomain(err error) *ResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return NewResponse().Status(http.StatusUnprocessableEntity).
			JSON(apiError{Error: err.Error(), Fields: verr.Fields})
	case errors.Is(err, core.ErrInvalidCategory), errors.Is(err, core.ErrInvalidRequest):
		return ErrorResponse(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, err.Error())
	default:
		return ErrorResponse(http.StatusInternalServerError, "internal error")
	}
}
