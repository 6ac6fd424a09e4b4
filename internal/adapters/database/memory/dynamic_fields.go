package memory

import (
	"context"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

type dynamicFieldRepo struct{ *repos }

func (r *dynamicFieldRepo) FindByEntityID(_ context.Context, organizationID, entityID string, names ...string) (map[string]domain.DynamicField, error) {
	out := map[string]domain.DynamicField{}
	if len(names) > 0 {
		for _, n := range names {
			if f, ok := r.st.fields[fieldKey{organizationID, entityID, n}]; ok {
				out[n] = f
			}
		}
		return out, nil
	}
	for k, f := range r.st.fields {
		if k.org == organizationID && k.owner == entityID {
			out[k.name] = f
		}
	}
	return out, nil
}

func (r *dynamicFieldRepo) FindByEntityIDs(_ context.Context, organizationID string, entityIDs []string) (map[string]map[string]domain.DynamicField, error) {
	wanted := make(map[string]bool, len(entityIDs))
	for _, id := range entityIDs {
		wanted[id] = true
	}
	out := map[string]map[string]domain.DynamicField{}
	for k, f := range r.st.fields {
		if k.org != organizationID || !wanted[k.owner] {
			continue
		}
		if out[k.owner] == nil {
			out[k.owner] = map[string]domain.DynamicField{}
		}
		out[k.owner][k.name] = f
	}
	return out, nil
}

func (r *dynamicFieldRepo) CountByEntityID(_ context.Context, organizationID, entityID string) (int, error) {
	n := 0
	for k := range r.st.fields {
		if k.org == organizationID && k.owner == entityID {
			n++
		}
	}
	return n, nil
}

func (r *dynamicFieldRepo) Upsert(_ context.Context, field domain.DynamicField) error {
	if err := r.writable(); err != nil {
		return err
	}
	k := fieldKey{field.OrganizationID, field.EntityID, field.FieldName}
	if existing, ok := r.st.fields[k]; ok {
		field.CreatedAt, field.CreatedBy = existing.CreatedAt, existing.CreatedBy
	}
	r.st.fields[k] = field
	return nil
}

func (r *dynamicFieldRepo) DeleteByEntityID(_ context.Context, organizationID, entityID string) (int, error) {
	if err := r.writable(); err != nil {
		return 0, err
	}
	n := 0
	for k := range r.st.fields {
		if k.org == organizationID && k.owner == entityID {
			delete(r.st.fields, k)
			n++
		}
	}
	return n, nil
}
