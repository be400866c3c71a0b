package dto

import (
	"encoding/json"
	"strings"

	"github.com/nhm-india/fund-tracker/internal/models"
)

// LogTimeLayout is the minute-resolution layout used for audit timestamps on the wire.
const LogTimeLayout = "2006-01-02 15:04"

// SyncRequest carries one transaction. Amount is kept raw so that both JSON
// numbers and numeric strings are accepted and parsed by the ledger service.
type SyncRequest struct {
	State  string          `json:"state"`
	Amount json.RawMessage `json:"amount"`
	Type   string          `json:"type"`
	Note   string          `json:"note"`
	User   string          `json:"user"`
}

// AmountText returns the amount as text, unquoting a JSON string if needed.
func (r SyncRequest) AmountText() string {
	raw := strings.TrimSpace(string(r.Amount))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Amount, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return raw
}

type SyncResponse struct {
	Success bool `json:"success"`
}

// AuditLogView is the compact audit row shape the dashboard clients read.
type AuditLogView struct {
	Time   string  `json:"time"`
	User   string  `json:"user"`
	State  string  `json:"s"`
	Type   string  `json:"type"`
	Amount float64 `json:"a"`
	Note   string  `json:"n"`

	// RequestedType is set when the client sent a non-canonical type.
	RequestedType string `json:"requested_type,omitempty"`
}

type FundsResponse struct {
	Funds map[string]float64 `json:"funds"`
	Logs  []AuditLogView     `json:"logs"`
}

// NewFundsResponse converts a ledger snapshot into its wire form.
func NewFundsResponse(f models.Funds) FundsResponse {
	out := FundsResponse{
		Funds: f.Allocations,
		Logs:  make([]AuditLogView, 0, len(f.Logs)),
	}
	if out.Funds == nil {
		out.Funds = map[string]float64{}
	}
	for _, l := range f.Logs {
		out.Logs = append(out.Logs, AuditLogView{
			Time:          l.CreatedAt.UTC().Format(LogTimeLayout),
			User:          l.User,
			State:         l.State,
			Type:          string(l.Type),
			Amount:        l.Amount,
			Note:          l.Note,
			RequestedType: l.RequestedType,
		})
	}
	return out
}
