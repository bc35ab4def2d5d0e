// Package amqp publishes and consumes transaction change events over
// RabbitMQ. Messages carry only the record id and action; consumers
// fetch the current row from storage, so late or duplicated deliveries
// stay harmless.
package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage announces that a transaction changed. Version
// is the record's last_modified in unix milliseconds; consumers use it
// to drop deliveries older than what they already exported.
type TransactionEventMessage struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(id, action string, version int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:        id,
		Action:    action,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *TransactionEventMessage) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("event without transaction id")
	}
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return nil
	default:
		return fmt.Errorf("unknown event action %q", m.Action)
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
