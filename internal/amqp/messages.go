package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Op names the mutation that produced a LedgerChanged event.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpBalance Op = "balance"
	OpQuick   Op = "quick"
)

func (o Op) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete, OpBalance, OpQuick:
		return true
	}
	return false
}

// LedgerChanged is a lightweight notification that the ledger was mutated.
// Consumers reload what they need from the store.
type LedgerChanged struct {
	ID            string    `json:"id"`
	Op            Op        `json:"op"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerChanged(op Op, transactionID int64) *LedgerChanged {
	return &LedgerChanged{
		ID:            uuid.NewString(),
		Op:            op,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedFromJSON decodes and validates a message body.
func LedgerChangedFromJSON(data []byte) (*LedgerChanged, error) {
	var msg LedgerChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("invalid message id %q: %w", msg.ID, err)
	}
	if !msg.Op.Valid() {
		return nil, fmt.Errorf("invalid op %q", msg.Op)
	}
	return &msg, nil
}
