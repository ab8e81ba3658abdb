package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Ledger event types double as routing keys on the topic exchange.
const (
	EventExpenseCreated = "expense.created"
	EventExpenseUpdated = "expense.updated"
	EventExpenseDeleted = "expense.deleted"
	EventIncomeCreated  = "income.created"
)

// LedgerEvent announces a committed ledger write. It carries only the entity
// id; consumers read the row back if they need it.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EntityID   int64     `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLedgerEvent creates an event with a fresh id stamped now.
func NewLedgerEvent(eventType string, entityID int64) *LedgerEvent {
	return &LedgerEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
