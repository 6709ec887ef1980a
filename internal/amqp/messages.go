package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wallet/internal/core"
)

// Operation is what happened to the referenced record.
type Operation string

const (
	OpUpsert Operation = "upsert"
	OpDelete Operation = "delete"
	// OpReconcile asks the worker to rewrite the whole mirror, e.g. after a
	// category rename changed many rows at once.
	OpReconcile Operation = "reconcile"
)

// SyncMessage is a lightweight notice that a ledger record changed. It
// carries no record data; the worker reads the current state from the
// store, so replays and reordering are harmless.
type SyncMessage struct {
	MessageID string    `json:"message_id"`
	Kind      core.Kind `json:"kind,omitempty"`
	RecordID  int64     `json:"record_id,omitempty"`
	Operation Operation `json:"operation"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncMessage stamps a message with a fresh id and the current time.
func NewSyncMessage(kind core.Kind, recordID int64, op Operation, revision int64) *SyncMessage {
	return &SyncMessage{
		MessageID: uuid.NewString(),
		Kind:      kind,
		RecordID:  recordID,
		Operation: op,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// Validate checks the operation and, for record operations, the target.
func (m *SyncMessage) Validate() error {
	switch m.Operation {
	case OpReconcile:
		return nil
	case OpUpsert, OpDelete:
	default:
		return fmt.Errorf("unknown operation %q", m.Operation)
	}
	if m.Kind != core.KindIncome && m.Kind != core.KindExpense {
		return fmt.Errorf("unknown kind %q", m.Kind)
	}
	if m.RecordID <= 0 {
		return fmt.Errorf("invalid record id %d", m.RecordID)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON decodes and validates a message.
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
