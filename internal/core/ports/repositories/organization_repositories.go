package repositories

import (
	"context"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// OrganizationReader defines read operations for tenants and memberships.
type OrganizationReader interface {
	// FindByID returns apperrors.ErrNotFound when the organization does not exist.
	FindByID(ctx context.Context, organizationID string) (*domain.Organization, error)
	// FindMember returns apperrors.ErrNotFound when userID is not a member.
	FindMember(ctx context.Context, organizationID, userID string) (*domain.OrganizationMember, error)
	ListMembers(ctx context.Context, organizationID string) ([]domain.OrganizationMember, error)
}

// OrganizationWriter defines write operations for tenants and memberships.
type OrganizationWriter interface {
	Create(ctx context.Context, org domain.Organization) error
	UpdateStatus(ctx context.Context, organizationID string, status domain.OrganizationStatus, actorID string) error
	// UpsertMember inserts the membership or updates its role.
	UpsertMember(ctx context.Context, member domain.OrganizationMember) error
}

// OrganizationRepositoryFacade combines organization reads and writes.
type OrganizationRepositoryFacade interface {
	OrganizationReader
	OrganizationWriter
}
