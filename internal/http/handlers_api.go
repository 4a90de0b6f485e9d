package http

import (
	"bytes"
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
	applog "expensetracker/internal/log"
)

// handleAPIList returns the records matching the query filters, or all records
// when none are given.
func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r.URL.Query())
	NewResponse().JSON(s.tracker.Query(f)).Write(w)
}

func (s *Server) handleAPIGet(w http.ResponseWriter, r *http.Request) {
	e, err := s.tracker.Get(r.PathValue("id"))
	if err != nil {
		ErrorFromDomain(err).Write(w)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		ErrorResponse(parseErrorStatus(err), "invalid request body").Write(w)
		return
	}

	draft := p.Expense()
	draft.ID = ""
	created, err := s.tracker.Add(r.Context(), draft)
	if err != nil {
		ErrorFromDomain(err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+created.ID).
		JSON(created).Write(w)
}

func (s *Server) handleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		ErrorResponse(parseErrorStatus(err), "invalid request body").Write(w)
		return
	}

	e := p.Expense()
	e.ID = r.PathValue("id")
	updated, err := s.tracker.Update(r.Context(), e)
	if err != nil {
		ErrorFromDomain(err).Write(w)
		return
	}
	NewResponse().JSON(updated).Write(w)
}

// handleAPIDelete always succeeds; deleted reports whether a record matched.
func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	deleted := s.tracker.Delete(r.Context(), r.PathValue("id"))
	NewResponse().JSON(map[string]bool{"deleted": deleted}).Write(w)
}

type summaryResponse struct {
	core.Summary
	Currency       string `json:"currency"`
	TotalFormatted string `json:"total_formatted"`
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum := s.tracker.Summary(parseFilter(r.URL.Query()))
	NewResponse().JSON(summaryResponse{
		Summary:        sum,
		Currency:       s.currency.Code,
		TotalFormatted: s.currency.Format(sum.Total),
	}).Write(w)
}

type stateResponse struct {
	Editing *core.Expense `json:"editing"`
	Filter  core.Filter   `json:"filter"`
	Action  string        `json:"action"`
}

// handleAPIState reports the edit buffer and stored filters.
func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{Filter: s.tracker.Filter(), Action: s.tracker.NextAction()}
	if e, ok := s.tracker.Editing(); ok {
		resp.Editing = &e
	}
	NewResponse().JSON(resp).Write(w)
}

// handleExport streams a spreadsheet of the records matching the query filters.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records := s.tracker.Query(parseFilter(r.URL.Query()))

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records, s.currency); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to export expenses",
			applog.FieldOperation, applog.OpExport, applog.FieldError, err)
		ErrorResponse(http.StatusInternalServerError, "export failed").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
