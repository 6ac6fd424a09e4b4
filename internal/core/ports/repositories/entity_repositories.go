package repositories

import (
	"context"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// EntityQuery filters entity reads. OrganizationID is mandatory.
type EntityQuery struct {
	OrganizationID string
	EntityIDs      []string
	EntityType     string
	EntityCode     string
	SmartCode      string
	Statuses       []domain.EntityStatus
	ParentEntityID *string
	// IncludeDeleted keeps status=deleted rows when Statuses is empty.
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// EntityReader defines read operations for entities.
type EntityReader interface {
	// FindByID returns apperrors.ErrNotFound when the id is not in organizationID.
	FindByID(ctx context.Context, organizationID, entityID string) (*domain.Entity, error)
	// FindByIDForUpdate is FindByID that also locks the row until the scope ends.
	FindByIDForUpdate(ctx context.Context, organizationID, entityID string) (*domain.Entity, error)
	// FindByIDs returns the subset of ids that exist in organizationID.
	FindByIDs(ctx context.Context, organizationID string, entityIDs []string) (map[string]domain.Entity, error)
	// FindOwners maps each existing id to its organization, across all tenants.
	FindOwners(ctx context.Context, entityIDs []string) (map[string]string, error)
	List(ctx context.Context, q EntityQuery) ([]domain.Entity, error)
	Count(ctx context.Context, q EntityQuery) (int, error)
	CountChildren(ctx context.Context, organizationID, entityID string) (int, error)
}

// EntityWriter defines write operations for entities.
type EntityWriter interface {
	Create(ctx context.Context, entity domain.Entity) error
	// Update overwrites every mutable column of an existing row.
	Update(ctx context.Context, entity domain.Entity) error
	Delete(ctx context.Context, organizationID, entityID string) error
}

// EntityRepositoryFacade combines entity reads and writes.
type EntityRepositoryFacade interface {
	EntityReader
	EntityWriter
}
