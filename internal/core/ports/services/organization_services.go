package services

import (
	"context"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/dto"
)

// OrganizationAuthorizerSvc is the organization-filter guard.
type OrganizationAuthorizerSvc interface {
	// Authorize checks that the organization is active and the actor is a
	// member allowed to read, or to write when write is set.
	Authorize(ctx context.Context, actx domain.ActorContext, write bool) (*domain.Organization, error)
}

// OrganizationSvcFacade covers tenant onboarding and membership.
type OrganizationSvcFacade interface {
	OrganizationAuthorizerSvc
	CreateOrganization(ctx context.Context, req dto.CreateOrganizationRequest) (*domain.Organization, error)
	GetOrganization(ctx context.Context, actx domain.ActorContext) (*domain.Organization, error)
	AddMember(ctx context.Context, actx domain.ActorContext, req dto.AddMemberRequest) (*domain.OrganizationMember, error)
}
