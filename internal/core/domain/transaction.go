package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/hera_engine/internal/apperrors"
)

// TransactionStatus is the header lifecycle state.
type TransactionStatus string

const (
	TxnDraft    TransactionStatus = "draft"
	TxnPending  TransactionStatus = "pending"
	TxnPosted   TransactionStatus = "posted"
	TxnReversed TransactionStatus = "reversed"
	TxnVoided   TransactionStatus = "voided"
	TxnError    TransactionStatus = "error"
)

// ParseTransactionStatus validates a status string.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TxnDraft, TxnPending, TxnPosted, TxnReversed, TxnVoided, TxnError:
		return st, nil
	}
	return "", apperrors.NewValidationError("status", "INVALID_STATUS",
		fmt.Sprintf("unknown transaction status %q", s)).
		WithHint("use one of draft, pending, posted, reversed, voided, error")
}

var transitions = map[TransactionStatus][]TransactionStatus{
	TxnDraft:   {TxnPosted, TxnVoided},
	TxnPending: {TxnPosted, TxnError, TxnVoided},
	TxnError:   {TxnPending, TxnVoided},
	TxnPosted:  {TxnReversed},
}

// CanTransitionTo reports whether from -> to is a legal status change.
func (from TransactionStatus) CanTransitionTo(to TransactionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LinesEditable reports whether lines may still be replaced in this status.
func (from TransactionStatus) LinesEditable() bool {
	return from == TxnDraft || from == TxnPending || from == TxnError
}

// IsTerminal reports whether no further transition exists.
func (from TransactionStatus) IsTerminal() bool {
	return len(transitions[from]) == 0
}

// LineSide marks a line amount as a debit or a credit.
type LineSide string

const (
	SideDebit  LineSide = "DEBIT"
	SideCredit LineSide = "CREDIT"
	SideNone   LineSide = ""
)

// ParseLineSide accepts DEBIT/CREDIT (and DR/CR) case-insensitively.
func ParseLineSide(s string) (LineSide, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return SideNone, nil
	case "DEBIT", "DR":
		return SideDebit, nil
	case "CREDIT", "CR":
		return SideCredit, nil
	}
	return "", apperrors.NewValidationError("side", "INVALID_SIDE", fmt.Sprintf("line side %q must be DEBIT or CREDIT", s))
}

// Opposite swaps debit and credit.
func (s LineSide) Opposite() LineSide {
	switch s {
	case SideDebit:
		return SideCredit
	case SideCredit:
		return SideDebit
	}
	return SideNone
}

// Transaction is a business event header.
type Transaction struct {
	TransactionID   string            `json:"transaction_id"`
	OrganizationID  string            `json:"organization_id"`
	TransactionType string            `json:"transaction_type"`
	TransactionCode string            `json:"transaction_code"`
	TransactionDate time.Time         `json:"transaction_date"`
	SourceEntityID  *string           `json:"source_entity_id,omitempty"`
	TargetEntityID  *string           `json:"target_entity_id,omitempty"`
	BranchEntityID  *string           `json:"branch_entity_id,omitempty"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	Currency        string            `json:"currency"`
	Status          TransactionStatus `json:"status"`
	SmartCode       string            `json:"smart_code"`
	ReversalOfID    *string           `json:"reversal_of_id,omitempty"`
	ReversedByID    *string           `json:"reversed_by_id,omitempty"`
	Metadata        json.RawMessage   `json:"metadata,omitempty"`
	AuditFields

	Lines         []TransactionLine       `json:"lines,omitempty"`
	DynamicFields map[string]DynamicField `json:"dynamic_fields,omitempty"`
}

// EntityIDs returns every entity referenced by the header.
func (t Transaction) EntityIDs() []string {
	ids := make([]string, 0, 3)
	for _, p := range []*string{t.SourceEntityID, t.TargetEntityID, t.BranchEntityID} {
		if p != nil && *p != "" {
			ids = append(ids, *p)
		}
	}
	return ids
}

// TransactionLine is one line of a transaction. LineAmount is never negative;
// the sign lives in Side.
type TransactionLine struct {
	LineID         string          `json:"line_id"`
	TransactionID  string          `json:"transaction_id"`
	OrganizationID string          `json:"organization_id"`
	LineNumber     int             `json:"line_number"`
	LineType       string          `json:"line_type"`
	EntityID       *string         `json:"entity_id,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitAmount     decimal.Decimal `json:"unit_amount"`
	LineAmount     decimal.Decimal `json:"line_amount"`
	Side           LineSide        `json:"side,omitempty"`
	Currency       string          `json:"currency"`
	LineData       json.RawMessage `json:"line_data,omitempty"`
	SmartCode      string          `json:"smart_code"`
	AuditFields
}

// SignedAmount is +amount for debits, -amount for credits and the raw amount otherwise.
func (l TransactionLine) SignedAmount() decimal.Decimal {
	if l.Side == SideCredit {
		return l.LineAmount.Neg()
	}
	return l.LineAmount
}

// DataValue decodes one key of LineData; ok is false when absent or LineData is not an object.
func (l TransactionLine) DataValue(key string) (json.RawMessage, bool) {
	if len(l.LineData) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(l.LineData, &m); err != nil {
		return nil, false
	}
	v, ok := m[key]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

// DataString returns a string-valued LineData key.
func (l TransactionLine) DataString(key string) (string, bool) {
	raw, ok := l.DataValue(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// DataDecimal returns a numeric LineData key, accepting JSON numbers or numeric strings.
func (l TransactionLine) DataDecimal(key string) (decimal.Decimal, bool) {
	raw, ok := l.DataValue(key)
	if !ok {
		return decimal.Zero, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NormalizeTransactionType upper-cases and trims a transaction type.
func NormalizeTransactionType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// NormalizeCurrency upper-cases and trims an ISO currency code.
func NormalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
