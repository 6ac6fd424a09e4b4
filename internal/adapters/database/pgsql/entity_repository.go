package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	"github.com/SscSPs/hera_engine/internal/models"
	"github.com/SscSPs/hera_engine/internal/utils/mapping"
)

const entityColumns = `entity_id, organization_id, entity_type, entity_name, entity_code, smart_code,
	status, parent_entity_id, tags, metadata, created_at, created_by, updated_at, updated_by`

type entityRepository struct {
	db querier
}

var _ portsrepo.EntityRepositoryFacade = (*entityRepository)(nil)

func (r *entityRepository) findOne(ctx context.Context, organizationID, entityID, suffix string) (*domain.Entity, error) {
	rows, _ := r.db.Query(ctx, `SELECT `+entityColumns+` FROM core_entities
		WHERE organization_id = $1 AND entity_id = $2`+suffix, organizationID, entityID)
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Entity])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("entity", entityID)
	}
	if err != nil {
		return nil, mapError(err, "failed to query entity "+entityID)
	}
	e := mapping.ToDomainEntity(m)
	return &e, nil
}

func (r *entityRepository) FindByID(ctx context.Context, organizationID, entityID string) (*domain.Entity, error) {
	return r.findOne(ctx, organizationID, entityID, "")
}

func (r *entityRepository) FindByIDForUpdate(ctx context.Context, organizationID, entityID string) (*domain.Entity, error) {
	return r.findOne(ctx, organizationID, entityID, " FOR UPDATE")
}

func (r *entityRepository) FindByIDs(ctx context.Context, organizationID string, entityIDs []string) (map[string]domain.Entity, error) {
	out := make(map[string]domain.Entity, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	rows, _ := r.db.Query(ctx, `SELECT `+entityColumns+` FROM core_entities
		WHERE organization_id = $1 AND entity_id = ANY($2)`, organizationID, entityIDs)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Entity])
	if err != nil {
		return nil, mapError(err, "failed to query entities")
	}
	for _, m := range ms {
		out[m.EntityID] = mapping.ToDomainEntity(m)
	}
	return out, nil
}

func (r *entityRepository) FindOwners(ctx context.Context, entityIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT entity_id, organization_id FROM core_entities WHERE entity_id = ANY($1)`, entityIDs)
	if err != nil {
		return nil, mapError(err, "failed to query entity owners")
	}
	var id, org string
	_, err = pgx.ForEachRow(rows, []any{&id, &org}, func() error {
		out[id] = org
		return nil
	})
	if err != nil {
		return nil, mapError(err, "failed to scan entity owners")
	}
	return out, nil
}

func entityFilter(q portsrepo.EntityQuery) *filter {
	f := &filter{}
	f.add("organization_id = $%d", q.OrganizationID)
	if len(q.EntityIDs) > 0 {
		f.add("entity_id = ANY($%d)", q.EntityIDs)
	}
	if q.EntityType != "" {
		f.add("upper(entity_type) = upper($%d)", q.EntityType)
	}
	if q.EntityCode != "" {
		f.add("entity_code = $%d", q.EntityCode)
	}
	if q.SmartCode != "" {
		f.add("smart_code = $%d", q.SmartCode)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		f.add("status = ANY($%d)", statuses)
	} else if !q.IncludeDeleted {
		f.add("status <> $%d", string(domain.EntityDeleted))
	}
	if q.ParentEntityID != nil {
		f.add("parent_entity_id = $%d", *q.ParentEntityID)
	}
	return f
}

func (r *entityRepository) List(ctx context.Context, q portsrepo.EntityQuery) ([]domain.Entity, error) {
	f := entityFilter(q)
	sql := `SELECT ` + entityColumns + ` FROM core_entities` + f.where() +
		` ORDER BY created_at, entity_id` + f.page(q.Limit, q.Offset)
	rows, _ := r.db.Query(ctx, sql, f.args...)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Entity])
	if err != nil {
		return nil, mapError(err, "failed to list entities")
	}
	out := make([]domain.Entity, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapping.ToDomainEntity(m))
	}
	return out, nil
}

func (r *entityRepository) Count(ctx context.Context, q portsrepo.EntityQuery) (int, error) {
	f := entityFilter(q)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM core_entities`+f.where(), f.args...).Scan(&n); err != nil {
		return 0, mapError(err, "failed to count entities")
	}
	return n, nil
}

func (r *entityRepository) CountChildren(ctx context.Context, organizationID, entityID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM core_entities
		WHERE organization_id = $1 AND parent_entity_id = $2`, organizationID, entityID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "failed to count children of "+entityID)
	}
	return n, nil
}

func (r *entityRepository) Create(ctx context.Context, entity domain.Entity) error {
	m := mapping.ToModelEntity(entity)
	_, err := r.db.Exec(ctx, `
		INSERT INTO core_entities (`+entityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.EntityID, m.OrganizationID, m.EntityType, m.EntityName, m.EntityCode, m.SmartCode,
		m.Status, m.ParentEntityID, m.Tags, m.Metadata,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapError(err, "failed to insert entity "+entity.EntityID)
}

// Update leaves created_at and created_by untouched.
func (r *entityRepository) Update(ctx context.Context, entity domain.Entity) error {
	m := mapping.ToModelEntity(entity)
	tag, err := r.db.Exec(ctx, `
		UPDATE core_entities SET
			entity_type = $3, entity_name = $4, entity_code = $5, smart_code = $6, status = $7,
			parent_entity_id = $8, tags = $9, metadata = $10, updated_at = $11, updated_by = $12
		WHERE organization_id = $1 AND entity_id = $2`,
		m.OrganizationID, m.EntityID, m.EntityType, m.EntityName, m.EntityCode, m.SmartCode, m.Status,
		m.ParentEntityID, m.Tags, m.Metadata, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "failed to update entity "+entity.EntityID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("entity", entity.EntityID)
	}
	return nil
}

// Delete relies on the foreign keys to refuse removing a referenced row.
func (r *entityRepository) Delete(ctx context.Context, organizationID, entityID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM core_entities WHERE organization_id = $1 AND entity_id = $2`, organizationID, entityID)
	if err != nil {
		return mapError(err, "failed to delete entity "+entityID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("entity", entityID)
	}
	return nil
}
