package dto

import (
	"encoding/json"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// RPC actions.
const (
	ActionCreate = "CREATE"
	ActionRead   = "READ"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionUpsert = "UPSERT"
)

// RPCRequest is the uniform request body of every gateway operation.
type RPCRequest struct {
	Action         string                         `json:"action" binding:"required" example:"CREATE"`
	ActorUserID    string                         `json:"actor_user_id" example:"7f9c2b1e-0d7c-4d8e-9a55-1c1f0e0b6a11"`
	OrganizationID string                         `json:"organization_id" example:"0b8f5c8e-4c36-4d8b-a8f3-0a4c1c5d2e77"`
	Entity         *EntityPayload                 `json:"entity,omitempty"`
	Transaction    *TransactionPayload            `json:"transaction,omitempty"`
	Lines          []TransactionLineInput         `json:"lines,omitempty" binding:"omitempty,dive"`
	Dynamic        map[string]DynamicFieldInput   `json:"dynamic,omitempty"`
	Relationships  map[string][]RelationshipInput `json:"relationships,omitempty"`
	Options        Options                        `json:"options"`
}

// ActorContext extracts the explicit tenant + actor pair.
func (r RPCRequest) ActorContext() domain.ActorContext {
	return domain.ActorContext{OrganizationID: r.OrganizationID, ActorUserID: r.ActorUserID}
}

// Options carries the recognized request flags.
type Options struct {
	IncludeDynamic       bool  `json:"include_dynamic"`
	IncludeRelationships bool  `json:"include_relationships"`
	IncludeLines         *bool `json:"include_lines,omitempty"`
	IncludeDeleted       bool  `json:"include_deleted"`
	Limit                int   `json:"limit"`
	Offset               int   `json:"offset"`
	// NextToken is an opaque cursor returned by a previous page; it wins over Offset.
	NextToken string `json:"next_token,omitempty"`

	HardDelete     bool `json:"hard_delete"`
	CascadeDynamic bool `json:"cascade_dynamic"`

	// RelationshipsMode is UPSERT (default) or REPLACE.
	RelationshipsMode       string                        `json:"relationships_mode,omitempty" enums:"UPSERT,REPLACE"`
	RelationshipCardinality map[string]domain.Cardinality `json:"relationship_cardinality,omitempty"`

	ReversalDate *FlexTime `json:"reversal_date,omitempty"`
	DateFrom     *FlexTime `json:"date_from,omitempty"`
	DateTo       *FlexTime `json:"date_to,omitempty"`
	EntityID     string    `json:"entity_id,omitempty"`
}

// LinesRequested defaults include_lines to true.
func (o Options) LinesRequested() bool {
	return o.IncludeLines == nil || *o.IncludeLines
}

// Envelope is the uniform response of every gateway operation.
type Envelope struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Error       string `json:"error,omitempty" example:"VALIDATION_ERROR"`
	ErrorDetail string `json:"error_detail,omitempty"`
	ErrorHint   string `json:"error_hint,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// DynamicFieldInput is one typed attribute on the wire.
type DynamicFieldInput struct {
	FieldType string          `json:"field_type" example:"number"`
	Value     json.RawMessage `json:"value" swaggertype:"object"`
	SmartCode string          `json:"smart_code" example:"HERA.CRM.CUST.DYN.CREDIT.V1"`
}

// RelationshipInput is one edge keyed by relationship type in RPCRequest.Relationships.
// FromEntityID defaults to the entity being written; when FromEntityID is set
// and ToEntityID is empty the edge points at the entity being written.
type RelationshipInput struct {
	FromEntityID     string          `json:"from_entity_id,omitempty"`
	ToEntityID       string          `json:"to_entity_id,omitempty"`
	RelationshipData json.RawMessage `json:"relationship_data,omitempty" swaggertype:"object"`
	SmartCode        string          `json:"smart_code"`
	EffectiveDate    *FlexTime       `json:"effective_date,omitempty"`
	ExpirationDate   *FlexTime       `json:"expiration_date,omitempty"`
	IsActive         *bool           `json:"is_active,omitempty"`
}

// DeleteResult reports what a DELETE did.
type DeleteResult struct {
	ID                    string `json:"id"`
	Mode                  string `json:"mode"`
	Status                string `json:"status,omitempty"`
	ReversalTransactionID string `json:"reversal_transaction_id,omitempty"`
	DeletedDynamicFields  int    `json:"deleted_dynamic_fields,omitempty"`
}
