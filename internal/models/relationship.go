package models

import "time"

// Relationship is a row of core_relationships.
type Relationship struct {
	RelationshipID   string     `db:"relationship_id"`
	OrganizationID   string     `db:"organization_id"`
	FromEntityID     string     `db:"from_entity_id"`
	ToEntityID       string     `db:"to_entity_id"`
	RelationshipType string     `db:"relationship_type"`
	RelationshipData []byte     `db:"relationship_data"` // jsonb, nullable
	SmartCode        string     `db:"smart_code"`
	EffectiveDate    time.Time  `db:"effective_date"`
	ExpirationDate   *time.Time `db:"expiration_date"` // Nullable
	IsActive         bool       `db:"is_active"`
	AuditFields
}
