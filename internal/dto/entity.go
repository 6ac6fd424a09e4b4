package dto

import (
	"encoding/json"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// EntityPayload carries entity attributes. Nil pointers mean "not supplied",
// which on UPDATE leaves the stored value untouched. On READ the same fields
// act as filters.
type EntityPayload struct {
	EntityID       *string         `json:"entity_id,omitempty"`
	EntityType     *string         `json:"entity_type,omitempty" example:"CUSTOMER"`
	EntityName     *string         `json:"entity_name,omitempty" example:"Acme"`
	EntityCode     *string         `json:"entity_code,omitempty"`
	SmartCode      *string         `json:"smart_code,omitempty" binding:"omitempty,smartcode" example:"HERA.CRM.CUST.ENT.PROF.V1"`
	Status         *string         `json:"status,omitempty" enums:"active,archived,deleted"`
	ParentEntityID *string         `json:"parent_entity_id,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// EntityRequest is the orchestrator input for every entity action.
type EntityRequest struct {
	Entity        EntityPayload
	Dynamic       map[string]DynamicFieldInput
	Relationships map[string][]RelationshipInput
	Options       Options
}

// EntityRequestFrom maps the gateway request onto the orchestrator input.
func EntityRequestFrom(r RPCRequest) EntityRequest {
	req := EntityRequest{Dynamic: r.Dynamic, Relationships: r.Relationships, Options: r.Options}
	if r.Entity != nil {
		req.Entity = *r.Entity
	}
	return req
}

// EntityPage is a page of entities.
type EntityPage = Page[domain.Entity]
