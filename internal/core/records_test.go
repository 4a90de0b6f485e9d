package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns ids "id-1", "id-2", ...
func sequence() IDGenerator {
	n := 0
	return IDFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func sample() []Expense {
	return []Expense{
		{ID: "1", Title: "Rent", Amount: "1000", Category: Rent, Date: "2024-01-01"},
		{ID: "2", Title: "Pizza", Amount: "12", Category: Food, Date: "2024-01-02"},
	}
}

func TestAddAppendsWithFreshID(t *testing.T) {
	out, created, err := Add(nil, Expense{Title: "Coffee", Amount: "50", Category: Food, Date: "2024-01-01"}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Coffee", out[0].Title)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created, out[0])
}

func TestAddDefaultsCategory(t *testing.T) {
	_, created, err := Add(nil, Expense{Title: "Bread", Amount: "3", Date: "2024-01-01"}, sequence())
	require.NoError(t, err)
	assert.Equal(t, Food, created.Category)
}

func TestAddSkipsCollidingIDs(t *testing.T) {
	records := []Expense{{ID: "id-1", Title: "a", Amount: "1", Date: "d"}, {ID: "id-2", Title: "b", Amount: "1", Date: "d"}}
	out, created, err := Add(records, Expense{Title: "c", Amount: "1", Date: "d"}, sequence())
	require.NoError(t, err)
	assert.Equal(t, "id-3", created.ID)
	assert.Len(t, out, 3)
}

func TestAddFallsBackWhenGeneratorIsStuck(t *testing.T) {
	stuck := IDFunc(func() string { return "same" })
	records := []Expense{{ID: "same", Title: "a", Amount: "1", Date: "d"}}
	out, created, err := Add(records, Expense{Title: "b", Amount: "1", Date: "d"}, stuck)
	require.NoError(t, err)
	assert.NotEqual(t, "same", created.ID)
	assert.Len(t, out, 2)
}

func TestAddDoesNotTouchInput(t *testing.T) {
	records := make([]Expense, 2, 10)
	copy(records, sample())
	out, _, err := Add(records, Expense{Title: "x", Amount: "1", Date: "d"}, sequence())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, out, 3)
	out[0].Title = "changed"
	assert.Equal(t, "Rent", records[0].Title)
}

func TestAddMissingFieldIsNoop(t *testing.T) {
	records := sample()
	out, _, err := Add(records, Expense{Title: "Coffee", Amount: "", Category: Food, Date: "2024-01-01"}, nil)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, records, out)
}

func TestAddUniqueIDs(t *testing.T) {
	var records []Expense
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		var created Expense
		var err error
		before := len(records)
		records, created, err = Add(records, Expense{Title: "t", Amount: "1", Date: "d"}, nil)
		require.NoError(t, err)
		require.Len(t, records, before+1)
		require.False(t, seen[created.ID], "duplicate id %s", created.ID)
		seen[created.ID] = true
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	records := sample()
	edited := Expense{ID: "2", Title: "Pizza Large", Amount: "15", Category: Food, Date: "2024-01-02"}
	out, ok, err := Update(records, edited)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, "Pizza Large", out[1].Title)
	assert.Equal(t, records[0], out[0])
	assert.Equal(t, "Pizza", records[1].Title, "input slice must be unchanged")
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	records := sample()
	out, ok, err := Update(records, Expense{ID: "9", Title: "x", Amount: "1", Date: "d"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, records, out)
}

func TestUpdateMissingFieldIsNoop(t *testing.T) {
	records := sample()
	out, ok, err := Update(records, Expense{ID: "2", Title: "", Amount: "1", Date: "d"})
	assert.ErrorIs(t, err, ErrMissingField)
	assert.False(t, ok)
	assert.Equal(t, records, out)
}

func TestDelete(t *testing.T) {
	records := sample()
	out, ok := Delete(records, "1")
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, -1, IndexOf(out, "1"))

	again, ok := Delete(out, "1")
	assert.False(t, ok)
	assert.Equal(t, out, again)
}

func TestFind(t *testing.T) {
	e, ok := Find(sample(), "2")
	require.True(t, ok)
	assert.Equal(t, "Pizza", e.Title)

	_, ok = Find(sample(), "nope")
	assert.False(t, ok)
}
