package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of universal_transactions.
type Transaction struct {
	TransactionID   string          `db:"transaction_id"`
	OrganizationID  string          `db:"organization_id"`
	TransactionType string          `db:"transaction_type"`
	TransactionCode string          `db:"transaction_code"`
	TransactionDate time.Time       `db:"transaction_date"`
	SourceEntityID  *string         `db:"source_entity_id"`
	TargetEntityID  *string         `db:"target_entity_id"`
	BranchEntityID  *string         `db:"branch_entity_id"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Currency        string          `db:"currency"`
	Status          string          `db:"status"`
	SmartCode       string          `db:"smart_code"`
	ReversalOfID    *string         `db:"reversal_of_id"`
	ReversedByID    *string         `db:"reversed_by_id"`
	Metadata        []byte          `db:"metadata"` // jsonb, nullable
	AuditFields
}

// TransactionLine is a row of universal_transaction_lines. LineAmount is never
// negative; Side carries the sign.
type TransactionLine struct {
	LineID         string          `db:"line_id"`
	TransactionID  string          `db:"transaction_id"`
	OrganizationID string          `db:"organization_id"`
	LineNumber     int             `db:"line_number"`
	LineType       string          `db:"line_type"`
	EntityID       *string         `db:"entity_id"`
	Quantity       decimal.Decimal `db:"quantity"`
	UnitAmount     decimal.Decimal `db:"unit_amount"`
	LineAmount     decimal.Decimal `db:"line_amount"`
	Side           *string         `db:"side"` // DEBIT, CREDIT or NULL
	Currency       string          `db:"currency"`
	LineData       []byte          `db:"line_data"` // jsonb, nullable
	SmartCode      string          `db:"smart_code"`
	AuditFields
}
