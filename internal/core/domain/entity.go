package domain

import (
	"encoding/json"
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
)

// EntityStatus is the lifecycle state of an entity row.
type EntityStatus string

const (
	EntityActive   EntityStatus = "active"
	EntityArchived EntityStatus = "archived"
	EntityDeleted  EntityStatus = "deleted"
)

// ParseEntityStatus validates a status string.
func ParseEntityStatus(s string) (EntityStatus, error) {
	switch st := EntityStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case EntityActive, EntityArchived, EntityDeleted:
		return st, nil
	}
	return "", apperrors.NewValidationError("status", "INVALID_STATUS", "entity status must be active, archived or deleted")
}

// Well-known entity types the engine itself reads. Everything else is free-form.
const (
	EntityTypeBranch       = "BRANCH"
	EntityTypeFiscalPeriod = "FISCAL_PERIOD"
)

// Entity is any addressable business object.
type Entity struct {
	EntityID       string          `json:"entity_id"`
	OrganizationID string          `json:"organization_id"`
	EntityType     string          `json:"entity_type"`
	EntityName     string          `json:"entity_name"`
	EntityCode     string          `json:"entity_code,omitempty"`
	SmartCode      string          `json:"smart_code"`
	Status         EntityStatus    `json:"status"`
	ParentEntityID *string         `json:"parent_entity_id,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	AuditFields

	// Hydrated on READ when requested.
	DynamicFields map[string]DynamicField `json:"dynamic_fields,omitempty"`
	Relationships []Relationship          `json:"relationships,omitempty"`
}

// NormalizeEntityType upper-cases and trims a free-form entity type.
func NormalizeEntityType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
