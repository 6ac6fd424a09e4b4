package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/dto"
)

type organizationService struct {
	BaseService
	uow portsrepo.UnitOfWork
	now func() time.Time
}

// NewOrganizationService creates the tenant service. It is also the organization guard
// every other service authorizes through.
func NewOrganizationService(uow portsrepo.UnitOfWork, opts ...ServiceOption) portssvc.OrganizationSvcFacade {
	cfg := newServiceConfig(opts)
	svc := &organizationService{uow: uow, now: cfg.now}
	svc.OrgAuthorizer = svc
	return svc
}

// Authorize is the organization-filter guard: the organization must exist and be
// active, and the actor must hold a role allowing the requested access.
func (s *organizationService) Authorize(ctx context.Context, actx domain.ActorContext, write bool) (*domain.Organization, error) {
	if err := actx.Validate(); err != nil {
		return nil, err
	}

	var (
		org    *domain.Organization
		member *domain.OrganizationMember
	)
	err := s.uow.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		org, err = repos.Organizations().FindByID(ctx, actx.OrganizationID)
		if err != nil {
			return err
		}
		member, err = repos.Organizations().FindMember(ctx, actx.OrganizationID, actx.ActorUserID)
		if errors.Is(err, apperrors.ErrNotFound) {
			member = nil
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("organization %s not found", actx.OrganizationID))
		}
		s.LogError(ctx, err, "Failed to load organization for authorization",
			slog.String("organization_id", actx.OrganizationID))
		return nil, fmt.Errorf("failed to authorize actor: %w", err)
	}

	if org.Status != domain.OrganizationActive {
		return nil, apperrors.NewAppError(403, fmt.Sprintf("organization %s is %s", org.OrganizationID, org.Status), apperrors.ErrForbidden)
	}
	if member == nil || !member.Role.CanRead() {
		s.LogSecurityEvent(ctx, actx, "Actor is not a member of the organization")
		return nil, apperrors.NewAppError(403, "actor is not a member of the organization", apperrors.ErrForbidden)
	}
	if write && !member.Role.CanWrite() {
		s.LogSecurityEvent(ctx, actx, "Read-only actor attempted a write", slog.String("role", string(member.Role)))
		return nil, apperrors.NewAppError(403, fmt.Sprintf("role %s may not write", member.Role), apperrors.ErrForbidden)
	}
	return org, nil
}

func (s *organizationService) CreateOrganization(ctx context.Context, req dto.CreateOrganizationRequest) (*domain.Organization, error) {
	if strings.TrimSpace(req.OwnerUserID) == "" {
		return nil, apperrors.NewValidationError("owner_user_id", "ACTOR_REQUIRED", "owner_user_id is required")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
		return nil, apperrors.NewValidationError("organization_name", "REQUIRED", "organization_name and organization_code are required")
	}
	currency := domain.NormalizeCurrency(req.Currency)
	if len(currency) != 3 {
		return nil, apperrors.NewValidationError("currency", "INVALID_CURRENCY", "currency must be a three-letter ISO 4217 code")
	}
	month := req.FiscalYearStartMonth
	if month == 0 {
		month = 1
	}
	if month < 1 || month > 12 {
		return nil, apperrors.NewValidationError("fiscal_year_start_month", "INVALID_MONTH", "fiscal_year_start_month must be 1-12")
	}

	now := s.now()
	org := domain.Organization{
		OrganizationID:       uuid.NewString(),
		Name:                 strings.TrimSpace(req.Name),
		Code:                 strings.ToUpper(strings.TrimSpace(req.Code)),
		Status:               domain.OrganizationActive,
		Currency:             currency,
		FiscalYearStartMonth: month,
	}
	org.Stamp(req.OwnerUserID, now)

	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		if err := repos.Organizations().Create(ctx, org); err != nil {
			return err
		}
		return repos.Organizations().UpsertMember(ctx, domain.OrganizationMember{
			OrganizationID: org.OrganizationID,
			UserID:         req.OwnerUserID,
			Role:           domain.RoleOwner,
			JoinedAt:       now,
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create organization", slog.String("organization_code", org.Code))
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.LogInfo(ctx, "Organization created",
		slog.String("organization_id", org.OrganizationID),
		slog.String("owner_user_id", req.OwnerUserID))
	return &org, nil
}

func (s *organizationService) GetOrganization(ctx context.Context, actx domain.ActorContext) (*domain.Organization, error) {
	return s.Authorize(ctx, actx, false)
}

// AddMember grants or changes a role. Only owners and admins may manage members.
func (s *organizationService) AddMember(ctx context.Context, actx domain.ActorContext, req dto.AddMemberRequest) (*domain.OrganizationMember, error) {
	if _, err := s.Authorize(ctx, actx, true); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, apperrors.NewValidationError("user_id", "REQUIRED", "user_id is required")
	}
	role := domain.MemberRole(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember, domain.RoleReadOnly, domain.RoleRemoved:
	default:
		return nil, apperrors.NewValidationError("role", "INVALID_ROLE", fmt.Sprintf("unknown role %q", req.Role)).
			WithHint("use one of OWNER, ADMIN, MEMBER, READONLY, REMOVED")
	}

	member := domain.OrganizationMember{
		OrganizationID: actx.OrganizationID,
		UserID:         req.UserID,
		Role:           role,
		JoinedAt:       s.now(),
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		caller, err := repos.Organizations().FindMember(ctx, actx.OrganizationID, actx.ActorUserID)
		if err != nil {
			return err
		}
		if caller.Role != domain.RoleOwner && caller.Role != domain.RoleAdmin {
			return apperrors.NewAppError(403, "only owners and admins may manage members", apperrors.ErrForbidden)
		}
		if req.UserID == actx.ActorUserID && caller.Role == domain.RoleOwner && role != domain.RoleOwner {
			return apperrors.NewValidationError("role", "OWNER_DEMOTION", "an owner cannot demote themselves")
		}
		if err := repos.Organizations().UpsertMember(ctx, member); err != nil {
			return err
		}
		stored, err := repos.Organizations().FindMember(ctx, actx.OrganizationID, req.UserID)
		if err != nil {
			return err
		}
		member = *stored
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to add member",
			slog.String("organization_id", actx.OrganizationID),
			slog.String("user_id", req.UserID))
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.LogInfo(ctx, "Member role set",
		slog.String("organization_id", actx.OrganizationID),
		slog.String("user_id", req.UserID),
		slog.String("role", string(role)))
	return &member, nil
}
