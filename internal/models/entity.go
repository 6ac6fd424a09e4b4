package models

// Entity is a row of core_entities.
type Entity struct {
	EntityID       string   `db:"entity_id"`
	OrganizationID string   `db:"organization_id"`
	EntityType     string   `db:"entity_type"`
	EntityName     string   `db:"entity_name"`
	EntityCode     *string  `db:"entity_code"` // Nullable
	SmartCode      string   `db:"smart_code"`
	Status         string   `db:"status"`
	ParentEntityID *string  `db:"parent_entity_id"` // Nullable
	Tags           []string `db:"tags"`
	Metadata       []byte   `db:"metadata"` // jsonb, nullable
	AuditFields
}
