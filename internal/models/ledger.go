package models

import "time"

// TransactionType is the direction of an allocation change.
type TransactionType string

const (
	TypeAdd      TransactionType = "add"
	TypeSubtract TransactionType = "subtract"
)

// ParseTransactionType maps a client-supplied type onto the two known kinds.
// Only the exact string "add" credits the ledger; every other value,
// including unknown ones, debits it. The second return value is false when
// the input was not one of the two canonical names.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TypeAdd:
		return TypeAdd, true
	case TypeSubtract:
		return TypeSubtract, true
	default:
		return TypeSubtract, false
	}
}

// Project is the ledger row holding the running allocation for one state.
type Project struct {
	ID         int64   `json:"id"`
	State      string  `json:"state"`
	Allocation float64 `json:"allocation"`
}

// AuditEntry is an immutable record of one applied transaction.
type AuditEntry struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	User      string          `json:"user"`
	State     string          `json:"state"`
	Type      TransactionType `json:"type"`
	Amount    float64         `json:"amount"`
	Note      string          `json:"note"`

	// RequestedType is the type string the client sent when it was not a
	// canonical name; empty otherwise.
	RequestedType string `json:"requested_type,omitempty"`
}

// Funds is a read snapshot of every allocation and the audit trail, newest entry first.
type Funds struct {
	Allocations map[string]float64
	Logs        []AuditEntry
}

// ResetRequest is a queued password-reset request awaiting manual handling.
type ResetRequest struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
