package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	"github.com/SscSPs/hera_engine/internal/models"
	"github.com/SscSPs/hera_engine/internal/utils/mapping"
)

const dynamicDataColumns = `organization_id, entity_id, field_name, field_type,
	field_value_text, field_value_number, field_value_boolean, field_value_date,
	field_value_datetime, field_value_json, smart_code, created_at, created_by, updated_at, updated_by`

type dynamicFieldRepository struct {
	db querier
}

var _ portsrepo.DynamicFieldRepositoryFacade = (*dynamicFieldRepository)(nil)

func (r *dynamicFieldRepository) collect(rows pgx.Rows, queryErrMsg string) ([]domain.DynamicField, error) {
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.DynamicData])
	if err != nil {
		return nil, mapError(err, queryErrMsg)
	}
	out := make([]domain.DynamicField, 0, len(ms))
	for _, m := range ms {
		f, err := mapping.ToDomainDynamicField(m)
		if err != nil {
			return nil, mapError(err, queryErrMsg)
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *dynamicFieldRepository) FindByEntityID(ctx context.Context, organizationID, entityID string, names ...string) (map[string]domain.DynamicField, error) {
	f := &filter{}
	f.add("organization_id = $%d", organizationID)
	f.add("entity_id = $%d", entityID)
	if len(names) > 0 {
		f.add("field_name = ANY($%d)", names)
	}
	rows, _ := r.db.Query(ctx, `SELECT `+dynamicDataColumns+` FROM core_dynamic_data`+f.where(), f.args...)
	fields, err := r.collect(rows, "failed to query dynamic fields of "+entityID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.DynamicField, len(fields))
	for _, fd := range fields {
		out[fd.FieldName] = fd
	}
	return out, nil
}

func (r *dynamicFieldRepository) FindByEntityIDs(ctx context.Context, organizationID string, entityIDs []string) (map[string]map[string]domain.DynamicField, error) {
	out := map[string]map[string]domain.DynamicField{}
	if len(entityIDs) == 0 {
		return out, nil
	}
	rows, _ := r.db.Query(ctx, `SELECT `+dynamicDataColumns+` FROM core_dynamic_data
		WHERE organization_id = $1 AND entity_id = ANY($2)`, organizationID, entityIDs)
	fields, err := r.collect(rows, "failed to query dynamic fields")
	if err != nil {
		return nil, err
	}
	for _, fd := range fields {
		if out[fd.EntityID] == nil {
			out[fd.EntityID] = map[string]domain.DynamicField{}
		}
		out[fd.EntityID][fd.FieldName] = fd
	}
	return out, nil
}

func (r *dynamicFieldRepository) CountByEntityID(ctx context.Context, organizationID, entityID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM core_dynamic_data
		WHERE organization_id = $1 AND entity_id = $2`, organizationID, entityID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "failed to count dynamic fields of "+entityID)
	}
	return n, nil
}

// Upsert clears the value columns a type change leaves behind.
func (r *dynamicFieldRepository) Upsert(ctx context.Context, field domain.DynamicField) error {
	m := mapping.ToModelDynamicData(field)
	_, err := r.db.Exec(ctx, `
		INSERT INTO core_dynamic_data (`+dynamicDataColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (organization_id, entity_id, field_name) DO UPDATE SET
			field_type = EXCLUDED.field_type,
			field_value_text = EXCLUDED.field_value_text,
			field_value_number = EXCLUDED.field_value_number,
			field_value_boolean = EXCLUDED.field_value_boolean,
			field_value_date = EXCLUDED.field_value_date,
			field_value_datetime = EXCLUDED.field_value_datetime,
			field_value_json = EXCLUDED.field_value_json,
			smart_code = EXCLUDED.smart_code,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`,
		m.OrganizationID, m.EntityID, m.FieldName, m.FieldType,
		m.FieldValueText, m.FieldValueNumber, m.FieldValueBoolean, m.FieldValueDate,
		m.FieldValueDateTime, m.FieldValueJSON, m.SmartCode,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapError(err, "failed to upsert dynamic field "+field.FieldName)
}

func (r *dynamicFieldRepository) DeleteByEntityID(ctx context.Context, organizationID, entityID string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM core_dynamic_data WHERE organization_id = $1 AND entity_id = $2`, organizationID, entityID)
	if err != nil {
		return 0, mapError(err, "failed to delete dynamic fields of "+entityID)
	}
	return int(tag.RowsAffected()), nil
}
