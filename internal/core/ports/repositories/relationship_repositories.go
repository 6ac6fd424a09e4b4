package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// RelationshipQuery filters edges around one entity.
type RelationshipQuery struct {
	OrganizationID   string
	EntityID         string
	Side             domain.RelationshipSide
	RelationshipType string
	ActiveOnly       bool
	// AsOf evaluates ActiveOnly at this instant instead of now.
	AsOf *time.Time
}

// RelationshipReader defines read operations for the relationship graph.
type RelationshipReader interface {
	Query(ctx context.Context, q RelationshipQuery) ([]domain.Relationship, error)
	// FindByEntityIDs groups edges by every endpoint in entityIDs.
	FindByEntityIDs(ctx context.Context, organizationID string, entityIDs []string, activeOnly bool) (map[string][]domain.Relationship, error)
	// ListActiveOfType returns the active edges of relType across the organization.
	ListActiveOfType(ctx context.Context, organizationID, relType string) ([]domain.Relationship, error)
	// CountActiveByEntityID counts active edges naming entityID as either endpoint.
	CountActiveByEntityID(ctx context.Context, organizationID, entityID string) (int, error)
}

// RelationshipWriter defines write operations for the relationship graph.
type RelationshipWriter interface {
	// Upsert writes by natural key and returns the stored edge; an existing
	// edge keeps its id and creation stamp.
	Upsert(ctx context.Context, rel domain.Relationship) (domain.Relationship, error)
	Deactivate(ctx context.Context, organizationID string, relationshipIDs []string, actorID string, at time.Time) error
	// DeleteByEntityID removes every edge touching entityID, active or not.
	DeleteByEntityID(ctx context.Context, organizationID, entityID string) (int, error)
}

// RelationshipRepositoryFacade combines relationship reads and writes.
type RelationshipRepositoryFacade interface {
	RelationshipReader
	RelationshipWriter
}
