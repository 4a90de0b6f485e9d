package core

import "strings"

// Filter is the ephemeral view state: a free text search over titles and a
// category selector that may be AllCategories.
type Filter struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

// IsAll reports whether the category selector matches every record.
func (f Filter) IsAll() bool {
	return f.Category == "" || f.Category == AllCategories
}

// Matches applies both predicates to a single record.
func (f Filter) Matches(e Expense) bool {
	if !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
		return false
	}
	return f.IsAll() || string(e.Category) == f.Category
}

// Apply returns the matching records in their original order. records is not
// modified.
func (f Filter) Apply(records []Expense) []Expense {
	out := make([]Expense, 0, len(records))
	for _, e := range records {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Key is a stable cache key for the filter.
func (f Filter) Key() string {
	c := f.Category
	if f.IsAll() {
		c = AllCategories
	}
	return c + "\x00" + strings.ToLower(f.Search)
}
