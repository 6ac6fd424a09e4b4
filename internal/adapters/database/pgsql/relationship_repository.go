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

const relationshipColumns = `relationship_id, organization_id, from_entity_id, to_entity_id,
	relationship_type, relationship_data, smart_code, effective_date, expiration_date, is_active,
	created_at, created_by, updated_at, updated_by`

// activeAt is true for an edge in force at the instant bound to the placeholder.
const activeAt = `is_active AND effective_date <= $%[1]d AND (expiration_date IS NULL OR expiration_date > $%[1]d)`

type relationshipRepository struct {
	db querier
}

var _ portsrepo.RelationshipRepositoryFacade = (*relationshipRepository)(nil)

func (r *relationshipRepository) list(ctx context.Context, f *filter, msg string) ([]domain.Relationship, error) {
	rows, _ := r.db.Query(ctx, `SELECT `+relationshipColumns+` FROM core_relationships`+f.where()+
		` ORDER BY effective_date, relationship_id`, f.args...)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Relationship])
	if err != nil {
		return nil, mapError(err, msg)
	}
	out := make([]domain.Relationship, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapping.ToDomainRelationship(m))
	}
	return out, nil
}

func (r *relationshipRepository) Query(ctx context.Context, q portsrepo.RelationshipQuery) ([]domain.Relationship, error) {
	f := &filter{}
	f.add("organization_id = $%d", q.OrganizationID)
	switch q.Side {
	case domain.SideFrom:
		f.add("from_entity_id = $%d", q.EntityID)
	case domain.SideTo:
		f.add("to_entity_id = $%d", q.EntityID)
	default:
		if q.EntityID != "" {
			f.add("(from_entity_id = $%[1]d OR to_entity_id = $%[1]d)", q.EntityID)
		}
	}
	if q.RelationshipType != "" {
		f.add("upper(relationship_type) = upper($%d)", q.RelationshipType)
	}
	if q.ActiveOnly {
		at := time.Now().UTC()
		if q.AsOf != nil {
			at = *q.AsOf
		}
		f.add(activeAt, at)
	}
	return r.list(ctx, f, "failed to query relationships")
}

func (r *relationshipRepository) FindByEntityIDs(ctx context.Context, organizationID string, entityIDs []string, activeOnly bool) (map[string][]domain.Relationship, error) {
	out := map[string][]domain.Relationship{}
	if len(entityIDs) == 0 {
		return out, nil
	}
	f := &filter{}
	f.add("organization_id = $%d", organizationID)
	f.add("(from_entity_id = ANY($%[1]d) OR to_entity_id = ANY($%[1]d))", entityIDs)
	if activeOnly {
		f.add(activeAt, time.Now().UTC())
	}
	edges, err := r.list(ctx, f, "failed to query relationships")
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(entityIDs))
	for _, id := range entityIDs {
		wanted[id] = true
	}
	for _, rel := range edges {
		if wanted[rel.FromEntityID] {
			out[rel.FromEntityID] = append(out[rel.FromEntityID], rel)
		}
		if wanted[rel.ToEntityID] && rel.ToEntityID != rel.FromEntityID {
			out[rel.ToEntityID] = append(out[rel.ToEntityID], rel)
		}
	}
	return out, nil
}

func (r *relationshipRepository) ListActiveOfType(ctx context.Context, organizationID, relType string) ([]domain.Relationship, error) {
	f := &filter{}
	f.add("organization_id = $%d", organizationID)
	f.add("upper(relationship_type) = upper($%d)", relType)
	f.add(activeAt, time.Now().UTC())
	return r.list(ctx, f, "failed to list "+relType+" relationships")
}

func (r *relationshipRepository) CountActiveByEntityID(ctx context.Context, organizationID, entityID string) (int, error) {
	f := &filter{}
	f.add("organization_id = $%d", organizationID)
	f.add("(from_entity_id = $%[1]d OR to_entity_id = $%[1]d)", entityID)
	f.add(activeAt, time.Now().UTC())
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM core_relationships`+f.where(), f.args...).Scan(&n); err != nil {
		return 0, mapError(err, "failed to count relationships of "+entityID)
	}
	return n, nil
}

// Upsert returns the stored row, so a conflicting insert yields the original id and creation stamp.
func (r *relationshipRepository) Upsert(ctx context.Context, rel domain.Relationship) (domain.Relationship, error) {
	m := mapping.ToModelRelationship(rel)
	rows, _ := r.db.Query(ctx, `
		INSERT INTO core_relationships (`+relationshipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (organization_id, from_entity_id, to_entity_id, relationship_type) DO UPDATE SET
			relationship_data = EXCLUDED.relationship_data,
			smart_code = EXCLUDED.smart_code,
			effective_date = EXCLUDED.effective_date,
			expiration_date = EXCLUDED.expiration_date,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
		RETURNING `+relationshipColumns,
		m.RelationshipID, m.OrganizationID, m.FromEntityID, m.ToEntityID,
		m.RelationshipType, m.RelationshipData, m.SmartCode, m.EffectiveDate, m.ExpirationDate, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	stored, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Relationship])
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Relationship{}, mapError(err, "relationship upsert returned no row")
	}
	if err != nil {
		return domain.Relationship{}, mapError(err, "failed to upsert relationship "+rel.RelationshipType)
	}
	return mapping.ToDomainRelationship(stored), nil
}

// Deactivate only pulls expiration_date earlier, never later.
func (r *relationshipRepository) Deactivate(ctx context.Context, organizationID string, relationshipIDs []string, actorID string, at time.Time) error {
	if len(relationshipIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE core_relationships SET
			is_active = FALSE,
			expiration_date = CASE WHEN expiration_date IS NULL OR expiration_date > $3 THEN $3 ELSE expiration_date END,
			updated_at = $3,
			updated_by = $4
		WHERE organization_id = $1 AND relationship_id = ANY($2)`,
		organizationID, relationshipIDs, at, actorID,
	)
	return mapError(err, "failed to deactivate relationships")
}

func (r *relationshipRepository) DeleteByEntityID(ctx context.Context, organizationID, entityID string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM core_relationships
		WHERE organization_id = $1 AND (from_entity_id = $2 OR to_entity_id = $2)`, organizationID, entityID)
	if err != nil {
		return 0, mapError(err, "failed to delete relationships of "+entityID)
	}
	return int(tag.RowsAffected()), nil
}
