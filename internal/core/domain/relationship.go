package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Relationship is a directed, typed, time-bounded edge between two entities of
// one organization. Its natural key is (OrganizationID, FromEntityID, ToEntityID, RelationshipType).
type Relationship struct {
	RelationshipID   string          `json:"relationship_id"`
	OrganizationID   string          `json:"organization_id"`
	FromEntityID     string          `json:"from_entity_id"`
	ToEntityID       string          `json:"to_entity_id"`
	RelationshipType string          `json:"relationship_type"`
	RelationshipData json.RawMessage `json:"relationship_data,omitempty"`
	SmartCode        string          `json:"smart_code"`
	EffectiveDate    time.Time       `json:"effective_date"`
	ExpirationDate   *time.Time      `json:"expiration_date,omitempty"`
	IsActive         bool            `json:"is_active"`
	AuditFields
}

// ActiveAt reports whether the edge is in force at t.
func (r Relationship) ActiveAt(t time.Time) bool {
	if !r.IsActive || r.EffectiveDate.After(t) {
		return false
	}
	return r.ExpirationDate == nil || t.Before(*r.ExpirationDate)
}

// Touches reports whether entityID is either endpoint.
func (r Relationship) Touches(entityID string) bool {
	return r.FromEntityID == entityID || r.ToEntityID == entityID
}

// RelationshipSide selects which endpoint a query matches on.
type RelationshipSide string

const (
	SideFrom   RelationshipSide = "from"
	SideTo     RelationshipSide = "to"
	SideEither RelationshipSide = "either"
)

// Cardinality is declared per relationship type by the calling domain.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// NormalizeRelationshipType upper-cases and trims a relationship type.
func NormalizeRelationshipType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
