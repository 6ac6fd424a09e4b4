package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	"github.com/SscSPs/hera_engine/internal/models"
	"github.com/SscSPs/hera_engine/internal/utils/mapping"
)

const organizationColumns = `organization_id, organization_name, organization_code, status, currency,
	fiscal_year_start_month, created_at, created_by, updated_at, updated_by`

const memberColumns = `organization_id, user_id, role, joined_at`

type organizationRepository struct {
	db querier
}

var _ portsrepo.OrganizationRepositoryFacade = (*organizationRepository)(nil)

func (r *organizationRepository) FindByID(ctx context.Context, organizationID string) (*domain.Organization, error) {
	rows, _ := r.db.Query(ctx, `SELECT `+organizationColumns+` FROM core_organizations WHERE organization_id = $1`, organizationID)
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Organization])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("organization", organizationID)
	}
	if err != nil {
		return nil, mapError(err, "failed to query organization "+organizationID)
	}
	org := mapping.ToDomainOrganization(m)
	return &org, nil
}

func (r *organizationRepository) FindMember(ctx context.Context, organizationID, userID string) (*domain.OrganizationMember, error) {
	rows, _ := r.db.Query(ctx, `SELECT `+memberColumns+` FROM core_organization_members
		WHERE organization_id = $1 AND user_id = $2`, organizationID, userID)
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.OrganizationMember])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("member", userID)
	}
	if err != nil {
		return nil, mapError(err, "failed to query member "+userID)
	}
	member := mapping.ToDomainOrganizationMember(m)
	return &member, nil
}

func (r *organizationRepository) ListMembers(ctx context.Context, organizationID string) ([]domain.OrganizationMember, error) {
	rows, _ := r.db.Query(ctx, `SELECT `+memberColumns+` FROM core_organization_members
		WHERE organization_id = $1 ORDER BY user_id`, organizationID)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.OrganizationMember])
	if err != nil {
		return nil, mapError(err, "failed to list members of "+organizationID)
	}
	out := make([]domain.OrganizationMember, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapping.ToDomainOrganizationMember(m))
	}
	return out, nil
}

func (r *organizationRepository) Create(ctx context.Context, org domain.Organization) error {
	m := mapping.ToModelOrganization(org)
	_, err := r.db.Exec(ctx, `
		INSERT INTO core_organizations (`+organizationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.OrganizationID, m.Name, m.Code, m.Status, m.Currency, m.FiscalYearStartMonth,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapError(err, "failed to insert organization "+org.Code)
}

func (r *organizationRepository) UpdateStatus(ctx context.Context, organizationID string, status domain.OrganizationStatus, actorID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE core_organizations SET status = $2, updated_at = $3, updated_by = $4
		WHERE organization_id = $1`,
		organizationID, string(status), time.Now().UTC(), actorID,
	)
	if err != nil {
		return mapError(err, "failed to update organization "+organizationID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("organization", organizationID)
	}
	return nil
}

// UpsertMember keeps joined_at of an existing membership.
func (r *organizationRepository) UpsertMember(ctx context.Context, member domain.OrganizationMember) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO core_organization_members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		member.OrganizationID, member.UserID, string(member.Role), member.JoinedAt,
	)
	if pgErr := pgErrorOf(err); pgErr != nil && pgErr.ConstraintName == constraintMemberOrg {
		return notFound("organization", member.OrganizationID)
	}
	return mapError(err, "failed to upsert member "+member.UserID)
}
