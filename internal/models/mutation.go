// ABOUTME: PendingMutation model for the local sync outbox.
// ABOUTME: Each entry records one table write awaiting remote application.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Op is the kind of write an outbox entry replays.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// IsValidOp reports whether s names a known operation.
func IsValidOp(s string) bool {
	switch Op(s) {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// PendingMutation is one outbox entry.
type PendingMutation struct {
	ID        string          `json:"id" yaml:"id"`
	Table     string          `json:"table" yaml:"table"`
	Op        Op              `json:"op" yaml:"op"`
	Payload   json.RawMessage `json:"payload" yaml:"-"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
}

// NewPendingMutation builds an outbox entry with a time-sortable id.
func NewPendingMutation(table string, op Op, payload any, at time.Time) (*PendingMutation, error) {
	if !IsValidOp(string(op)) {
		return nil, fmt.Errorf("mutation op %q: %w", op, ErrInvalid)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal mutation payload: %w", err)
	}
	return &PendingMutation{
		ID:        ulid.Make().String(),
		Table:     table,
		Op:        op,
		Payload:   data,
		CreatedAt: at.UTC(),
	}, nil
}

// TargetID extracts the "id" field of the payload, or "" when absent.
func (m *PendingMutation) TargetID() string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(m.Payload, &head); err != nil {
		return ""
	}
	return head.ID
}
