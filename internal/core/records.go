package core

import (
	"github.com/google/uuid"
)

// IDGenerator produces candidate record ids. Add rejects candidates that are
// already present, so a generator only needs to be collision resistant.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// UUIDGenerator issues random version 4 UUIDs.
var UUIDGenerator IDGenerator = IDFunc(func() string {
	return uuid.NewString()
})

// maxIDAttempts bounds the retries on an id collision.
const maxIDAttempts = 8

// Add appends draft to records under a freshly generated id. The input slice is
// never modified; on a validation failure it is returned as is.
func Add(records []Expense, draft Expense, gen IDGenerator) ([]Expense, Expense, error) {
	if err := draft.Validate(); err != nil {
		return records, Expense{}, err
	}
	if gen == nil {
		gen = UUIDGenerator
	}

	id := gen.NewID()
	for attempt := 1; id == "" || IndexOf(records, id) >= 0; attempt++ {
		if attempt < maxIDAttempts {
			id = gen.NewID()
		} else {
			// generator keeps colliding, fall back to a random UUID
			id = uuid.NewString()
		}
	}

	created := draft.normalize()
	created.ID = id

	out := make([]Expense, len(records), len(records)+1)
	copy(out, records)
	return append(out, created), created, nil
}

// Update replaces the record sharing e's id, keeping its position. It reports
// false and returns records unchanged when no record matches.
func Update(records []Expense, e Expense) ([]Expense, bool, error) {
	if err := e.Validate(); err != nil {
		return records, false, err
	}
	i := IndexOf(records, e.ID)
	if e.ID == "" || i < 0 {
		return records, false, nil
	}

	out := make([]Expense, len(records))
	copy(out, records)
	out[i] = e.normalize()
	return out, true, nil
}

// Delete drops every record with the given id. A missing id is a no-op.
func Delete(records []Expense, id string) ([]Expense, bool) {
	if IndexOf(records, id) < 0 {
		return records, false
	}
	out := make([]Expense, 0, len(records)-1)
	for _, e := range records {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out, true
}

// Find returns a copy of the record with the given id.
func Find(records []Expense, id string) (Expense, bool) {
	if i := IndexOf(records, id); i >= 0 {
		return records[i], true
	}
	return Expense{}, false
}

// IndexOf returns the position of the record with the given id, or -1.
func IndexOf(records []Expense, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
