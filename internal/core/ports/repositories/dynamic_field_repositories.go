package repositories

import (
	"context"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// DynamicFieldReader defines read operations for dynamic fields. The owner id
// may be an entity id or a transaction id.
type DynamicFieldReader interface {
	// FindByEntityID returns fields keyed by name, limited to names when given.
	FindByEntityID(ctx context.Context, organizationID, entityID string, names ...string) (map[string]domain.DynamicField, error)
	FindByEntityIDs(ctx context.Context, organizationID string, entityIDs []string) (map[string]map[string]domain.DynamicField, error)
	CountByEntityID(ctx context.Context, organizationID, entityID string) (int, error)
}

// DynamicFieldWriter defines write operations for dynamic fields.
type DynamicFieldWriter interface {
	// Upsert inserts or overwrites by (organization_id, entity_id, field_name),
	// keeping the original created_at/created_by.
	Upsert(ctx context.Context, field domain.DynamicField) error
	DeleteByEntityID(ctx context.Context, organizationID, entityID string) (int, error)
}

// DynamicFieldRepositoryFacade combines dynamic field reads and writes.
type DynamicFieldRepositoryFacade interface {
	DynamicFieldReader
	DynamicFieldWriter
}
