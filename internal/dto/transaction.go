package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// TransactionPayload carries header attributes. Lines nil means "unchanged" on UPDATE.
type TransactionPayload struct {
	TransactionID   *string                `json:"transaction_id,omitempty"`
	TransactionType *string                `json:"transaction_type,omitempty" example:"JOURNAL_ENTRY"`
	TransactionCode *string                `json:"transaction_code,omitempty"`
	TransactionDate *FlexTime              `json:"transaction_date,omitempty" swaggertype:"string" example:"2025-01-15"`
	SourceEntityID  *string                `json:"source_entity_id,omitempty"`
	TargetEntityID  *string                `json:"target_entity_id,omitempty"`
	BranchEntityID  *string                `json:"branch_entity_id,omitempty"`
	TotalAmount     *decimal.Decimal       `json:"total_amount,omitempty" swaggertype:"number"`
	Currency        *string                `json:"currency,omitempty" example:"USD"`
	Status          *string                `json:"status,omitempty" enums:"draft,pending,posted,reversed,voided,error"`
	SmartCode       *string                `json:"smart_code,omitempty" binding:"omitempty,smartcode" example:"HERA.FIN.GL.TXN.JOURNAL.V1"`
	Metadata        json.RawMessage        `json:"metadata,omitempty" swaggertype:"object"`
	Lines           []TransactionLineInput `json:"lines,omitempty" binding:"omitempty,dive"`
}

// TransactionLineInput accepts three amount conventions: debit/credit columns,
// line_amount plus side, or a signed line_amount.
type TransactionLineInput struct {
	LineNumber int              `json:"line_number,omitempty"`
	LineType   string           `json:"line_type,omitempty" example:"GL"`
	EntityID   *string          `json:"entity_id,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty" swaggertype:"number"`
	UnitAmount *decimal.Decimal `json:"unit_amount,omitempty" swaggertype:"number"`
	LineAmount *decimal.Decimal `json:"line_amount,omitempty" swaggertype:"number"`
	Debit      *decimal.Decimal `json:"debit,omitempty" swaggertype:"number"`
	Credit     *decimal.Decimal `json:"credit,omitempty" swaggertype:"number"`
	Side       string           `json:"side,omitempty" enums:"DEBIT,CREDIT"`
	Currency   string           `json:"currency,omitempty"`
	LineData   json.RawMessage  `json:"line_data,omitempty" swaggertype:"object"`
	SmartCode  string           `json:"smart_code" binding:"omitempty,smartcode" example:"HERA.FIN.GL.TXN.LINE.V1"`
}

// TransactionRequest is the orchestrator input for every transaction action.
type TransactionRequest struct {
	Transaction   TransactionPayload
	Dynamic       map[string]DynamicFieldInput
	Relationships map[string][]RelationshipInput
	Options       Options
}

// TransactionRequestFrom maps the gateway request onto the orchestrator input.
// Top-level lines are used when the payload carries none.
func TransactionRequestFrom(r RPCRequest) TransactionRequest {
	req := TransactionRequest{Dynamic: r.Dynamic, Relationships: r.Relationships, Options: r.Options}
	if r.Transaction != nil {
		req.Transaction = *r.Transaction
	}
	if req.Transaction.Lines == nil && r.Lines != nil {
		req.Transaction.Lines = r.Lines
	}
	return req
}

// TransactionPage is a page of transactions.
type TransactionPage = Page[domain.Transaction]
