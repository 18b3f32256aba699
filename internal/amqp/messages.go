package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"despesas/internal/core"
)

type EventType string

const (
	EventRecordCreated EventType = "record.created"
	EventRecordUpdated EventType = "record.updated"
	EventRecordDeleted EventType = "record.deleted"
	// EventUpcomingPaid carries the paid upcoming id and the realized expense id.
	EventUpcomingPaid EventType = "upcoming.paid"
)

// LedgerEvent is a lightweight notification about a ledger write. It holds
// ids only; consumers read the current row from the database. PreviousOn is
// the record's date before an update or delete, so consumers can find rows
// filed under the old date.
type LedgerEvent struct {
	Type       EventType `json:"type"`
	Kind       core.Kind `json:"kind"`
	RecordID   string    `json:"record_id"`
	ExpenseID  string    `json:"expense_id,omitempty"`
	PreviousOn core.Date `json:"previous_on"`
	UserID     string    `json:"user_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(t EventType, kind core.Kind, recordID, userID string) *LedgerEvent {
	return &LedgerEvent{
		Type:      t,
		Kind:      kind,
		RecordID:  recordID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the fields every consumer relies on.
func (e *LedgerEvent) Validate() error {
	switch e.Type {
	case EventRecordCreated, EventRecordUpdated, EventRecordDeleted, EventUpcomingPaid:
	default:
		return errors.New("unknown event type")
	}
	if !e.Kind.Valid() {
		return core.ErrInvalidKind
	}
	if e.RecordID == "" {
		return errors.New("missing record id")
	}
	if e.Type == EventUpcomingPaid && e.ExpenseID == "" {
		return errors.New("missing realized expense id")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and validates a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
