package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	Food          Category = "Food"
	Rent          Category = "Rent"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"

	// AllCategories is the wildcard selector accepted by view filters only.
	AllCategories = "All"

	// DefaultCategory is applied when a submission leaves the category blank.
	DefaultCategory = Food
)

type (
	Category string

	// Expense is one persisted record. Amount and Date keep the text the user
	// entered; only their presence is checked.
	Expense struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Amount   string   `json:"amount"`
		Category Category `json:"category"`
		Date     string   `json:"date"`
	}

	// RequestKind tells the tracker whether a submission creates a record or
	// replaces an existing one.
	RequestKind int

	Request struct {
		Kind    RequestKind
		Expense Expense
	}
)

const (
	KindAdd RequestKind = iota + 1
	KindUpdate
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRequest  = errors.New("invalid request kind")
	ErrNotFound        = errors.New("expense not found")
)

// Categories returns the selectable categories in display order.
func Categories() []Category {
	return []Category{Food, Rent, Utilities, Entertainment}
}

func (c Category) IsValid() bool {
	switch c {
	case Food, Rent, Utilities, Entertainment:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts a category name case-insensitively. A blank name
// yields DefaultCategory.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory, nil
	}
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (k RequestKind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// ParseRequestKind maps "add"/"update" to a RequestKind.
func ParseRequestKind(s string) (RequestKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "":
		return KindAdd, nil
	case "update":
		return KindUpdate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRequest, s)
	}
}

// ValidationError lists the required fields left blank by a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrMissingField
}

// Validate performs the presence checks applied at the input boundary.
// Whitespace-only values count as missing.
func (e Expense) Validate() error {
	var missing []string
	if strings.TrimSpace(e.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(e.Amount) == "" {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(e.Date) == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	if e.Category != "" && !e.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	return nil
}

// UnmarshalJSON accepts id and amount as JSON strings or numbers. A number
// keeps its literal text, so 12.30 loads as "12.30".
func (e *Expense) UnmarshalJSON(data []byte) error {
	type plain Expense
	aux := struct {
		*plain
		ID     looseText `json:"id"`
		Amount looseText `json:"amount"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.ID = string(aux.ID)
	e.Amount = string(aux.Amount)
	return nil
}

// looseText is a string field that may also arrive as a JSON number.
type looseText string

func (t *looseText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = looseText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", data)
	}
	*t = looseText(n.String())
	return nil
}

// normalize fills the default category.
func (e Expense) normalize() Expense {
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	return e
}
