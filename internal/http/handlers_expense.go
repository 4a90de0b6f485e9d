package http

import (
	"bytes"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/tracker"
)

// EmptyMessage is shown when no record passes the filters.
const EmptyMessage = "No expenses found."

type formData struct {
	ID       string
	Title    string
	Amount   string
	Category string
	Date     string
	Mode     string
	Label    string
}

type rowData struct {
	ID       string
	Title    string
	Amount   string
	Category string
	Date     string
}

type pageData struct {
	Form           formData
	Filter         core.Filter
	FilterCategory string
	Categories     []core.Category
	FilterOptions  []string
	Rows           []rowData
	Count          int
	Total          string
	EmptyMessage   string
}

func formFor(e core.Expense, kind core.RequestKind) formData {
	f := formData{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount,
		Category: string(e.Category),
		Date:     e.Date,
		Mode:     kind.String(),
		Label:    tracker.ActionAdd,
	}
	if kind == core.KindUpdate {
		f.Label = tracker.ActionUpdate
	}
	if f.Category == "" {
		f.Category = string(core.DefaultCategory)
	}
	return f
}

// handleIndex renders the form and the filtered list. Filter query parameters
// replace the stored view filters.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query(); hasFilterParams(q) {
		s.tracker.SetFilter(parseFilter(q))
	}
	s.renderPage(w, r, nil)
}

// renderPage writes the page. A non-nil draft is shown in the form instead of
// the edit buffer.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, draft *formData) {
	form := formFor(core.Expense{}, core.KindAdd)
	if e, ok := s.tracker.Editing(); ok {
		form = formFor(e, core.KindUpdate)
	}
	if draft != nil {
		form = *draft
	}

	filter := s.tracker.Filter()
	view := s.tracker.View()

	data := pageData{
		Form:           form,
		Filter:         filter,
		FilterCategory: filter.Category,
		Categories:     core.Categories(),
		FilterOptions:  []string{core.AllCategories},
		Rows:           make([]rowData, 0, len(view)),
		Count:          len(view),
		Total:          s.currency.Format(core.Summarize(view).Total),
		EmptyMessage:   EmptyMessage,
	}
	if filter.IsAll() {
		data.FilterCategory = core.AllCategories
	}
	for _, c := range core.Categories() {
		data.FilterOptions = append(data.FilterOptions, string(c))
	}
	for _, e := range view {
		data.Rows = append(data.Rows, rowData{
			ID:       e.ID,
			Title:    e.Title,
			Amount:   s.currency.FormatText(e.Amount),
			Category: string(e.Category),
			Date:     e.Date,
		})
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render page", applog.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	NewResponse().HTML(buf.Bytes()).Write(w)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSubmitExpense handles the add/update form. Missing fields re-render
// the form with the entered values and no message.
func (s *Server) handleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse form error", applog.FieldError, err)
		http.Error(w, "invalid request body", parseErrorStatus(err))
		return
	}

	kind, err := core.ParseRequestKind(p.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	draft := p.Expense()
	res, err := s.tracker.Submit(ctx, core.Request{Kind: kind, Expense: draft})
	if err != nil {
		if tracker.IsValidation(err) {
			logger.DebugContext(ctx, "Submission ignored", applog.FieldError, err)
			form := formFor(draft, kind)
			s.renderPage(w, r, &form)
			return
		}
		ErrorFromDomain(err).Write(w)
		return
	}

	if res.Changed {
		logger.InfoContext(ctx, "Expense saved",
			applog.NewFields().
				WithOperation(kind.String()).
				WithExpense(res.Expense.ID, res.Expense.Title, string(res.Expense.Category))...)
	}
	redirectHome(w, r)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	s.tracker.Edit(r.PathValue("id"))
	redirectHome(w, r)
}

// handleDeleteExpense removes the record immediately; an unknown id is ignored.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.tracker.Delete(r.Context(), r.PathValue("id"))
	redirectHome(w, r)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	s.tracker.CancelEdit()
	redirectHome(w, r)
}
