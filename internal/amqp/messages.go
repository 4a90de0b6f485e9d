package amqp

import (
	"encoding/json"
	"time"

	"expensetracker/internal/core"
)

// Change events published after a successful mutation
const (
	EventAdded   = "expense.added"
	EventUpdated = "expense.updated"
	EventDeleted = "expense.deleted"
)

// ExpenseChangeMessage announces a mutation of the record store. Deletions
// carry only the id.
type ExpenseChangeMessage struct {
	Event     string        `json:"event"`
	ID        string        `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseChangeMessage builds a message stamped with the current time
func NewExpenseChangeMessage(event string, e core.Expense) *ExpenseChangeMessage {
	msg := &ExpenseChangeMessage{
		Event:     event,
		ID:        e.ID,
		Timestamp: time.Now().UTC(),
	}
	if event != EventDeleted {
		msg.Expense = &e
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangeMessageFromJSON decodes a message body
func ExpenseChangeMessageFromJSON(data []byte) (*ExpenseChangeMessage, error) {
	var msg ExpenseChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
