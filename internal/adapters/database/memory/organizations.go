package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
)

type organizationRepo struct{ *repos }

func (r *organizationRepo) FindByID(_ context.Context, organizationID string) (*domain.Organization, error) {
	org, ok := r.st.orgs[organizationID]
	if !ok {
		return nil, notFound("organization", organizationID)
	}
	return &org, nil
}

func (r *organizationRepo) FindMember(_ context.Context, organizationID, userID string) (*domain.OrganizationMember, error) {
	m, ok := r.st.members[organizationID][userID]
	if !ok {
		return nil, notFound("member", userID)
	}
	return &m, nil
}

func (r *organizationRepo) ListMembers(_ context.Context, organizationID string) ([]domain.OrganizationMember, error) {
	out := make([]domain.OrganizationMember, 0, len(r.st.members[organizationID]))
	for _, m := range r.st.members[organizationID] {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b domain.OrganizationMember) int { return strings.Compare(a.UserID, b.UserID) })
	return out, nil
}

func (r *organizationRepo) Create(_ context.Context, org domain.Organization) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, ok := r.st.orgs[org.OrganizationID]; ok {
		return apperrors.NewConflictError("organization " + org.OrganizationID + " already exists")
	}
	for _, o := range r.st.orgs {
		if strings.EqualFold(o.Code, org.Code) {
			return apperrors.NewConflictError("organization code " + org.Code + " already exists")
		}
	}
	r.st.orgs[org.OrganizationID] = org
	return nil
}

func (r *organizationRepo) UpdateStatus(_ context.Context, organizationID string, status domain.OrganizationStatus, actorID string) error {
	if err := r.writable(); err != nil {
		return err
	}
	org, ok := r.st.orgs[organizationID]
	if !ok {
		return notFound("organization", organizationID)
	}
	org.Status = status
	org.Touch(actorID, time.Now().UTC())
	r.st.orgs[organizationID] = org
	return nil
}

func (r *organizationRepo) UpsertMember(_ context.Context, member domain.OrganizationMember) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, ok := r.st.orgs[member.OrganizationID]; !ok {
		return notFound("organization", member.OrganizationID)
	}
	if r.st.members[member.OrganizationID] == nil {
		r.st.members[member.OrganizationID] = map[string]domain.OrganizationMember{}
	}
	if existing, ok := r.st.members[member.OrganizationID][member.UserID]; ok {
		member.JoinedAt = existing.JoinedAt
	}
	r.st.members[member.OrganizationID][member.UserID] = member
	return nil
}
