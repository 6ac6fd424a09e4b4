package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
)

type entityRepo struct{ *repos }

func (r *entityRepo) FindByID(_ context.Context, organizationID, entityID string) (*domain.Entity, error) {
	e, ok := r.st.entities[entityID]
	if !ok || e.OrganizationID != organizationID {
		return nil, notFound("entity", entityID)
	}
	return &e, nil
}

// FindByIDForUpdate needs no extra locking: WithinTx already holds the writer lock.
func (r *entityRepo) FindByIDForUpdate(ctx context.Context, organizationID, entityID string) (*domain.Entity, error) {
	return r.FindByID(ctx, organizationID, entityID)
}

func (r *entityRepo) FindByIDs(_ context.Context, organizationID string, entityIDs []string) (map[string]domain.Entity, error) {
	out := make(map[string]domain.Entity, len(entityIDs))
	for _, id := range entityIDs {
		if e, ok := r.st.entities[id]; ok && e.OrganizationID == organizationID {
			out[id] = e
		}
	}
	return out, nil
}

func (r *entityRepo) FindOwners(_ context.Context, entityIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(entityIDs))
	for _, id := range entityIDs {
		if e, ok := r.st.entities[id]; ok {
			out[id] = e.OrganizationID
		}
	}
	return out, nil
}

func (r *entityRepo) matching(q portsrepo.EntityQuery) []domain.Entity {
	var out []domain.Entity
	for _, e := range r.st.entities {
		if e.OrganizationID != q.OrganizationID {
			continue
		}
		if len(q.EntityIDs) > 0 && !slices.Contains(q.EntityIDs, e.EntityID) {
			continue
		}
		if q.EntityType != "" && !strings.EqualFold(e.EntityType, q.EntityType) {
			continue
		}
		if q.EntityCode != "" && e.EntityCode != q.EntityCode {
			continue
		}
		if q.SmartCode != "" && e.SmartCode != q.SmartCode {
			continue
		}
		if len(q.Statuses) > 0 {
			if !slices.Contains(q.Statuses, e.Status) {
				continue
			}
		} else if !q.IncludeDeleted && e.Status == domain.EntityDeleted {
			continue
		}
		if q.ParentEntityID != nil && (e.ParentEntityID == nil || *e.ParentEntityID != *q.ParentEntityID) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b domain.Entity) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.EntityID, b.EntityID)
	})
	return out
}

func (r *entityRepo) List(_ context.Context, q portsrepo.EntityQuery) ([]domain.Entity, error) {
	all := r.matching(q)
	from, to := window(len(all), q.Limit, q.Offset)
	return all[from:to], nil
}

func (r *entityRepo) Count(_ context.Context, q portsrepo.EntityQuery) (int, error) {
	return len(r.matching(q)), nil
}

func (r *entityRepo) CountChildren(_ context.Context, organizationID, entityID string) (int, error) {
	n := 0
	for _, e := range r.st.entities {
		if e.OrganizationID == organizationID && e.ParentEntityID != nil && *e.ParentEntityID == entityID {
			n++
		}
	}
	return n, nil
}

func (r *entityRepo) Create(_ context.Context, entity domain.Entity) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, ok := r.st.entities[entity.EntityID]; ok {
		return apperrors.NewConflictError("entity " + entity.EntityID + " already exists")
	}
	r.st.entities[entity.EntityID] = stripEntity(entity)
	return nil
}

func (r *entityRepo) Update(_ context.Context, entity domain.Entity) error {
	if err := r.writable(); err != nil {
		return err
	}
	existing, ok := r.st.entities[entity.EntityID]
	if !ok || existing.OrganizationID != entity.OrganizationID {
		return notFound("entity", entity.EntityID)
	}
	entity.CreatedAt, entity.CreatedBy = existing.CreatedAt, existing.CreatedBy
	r.st.entities[entity.EntityID] = stripEntity(entity)
	return nil
}

// Delete mirrors the foreign keys of the SQL schema.
func (r *entityRepo) Delete(_ context.Context, organizationID, entityID string) error {
	if err := r.writable(); err != nil {
		return err
	}
	e, ok := r.st.entities[entityID]
	if !ok || e.OrganizationID != organizationID {
		return notFound("entity", entityID)
	}
	for _, rel := range r.st.relationships {
		if rel.Touches(entityID) {
			return apperrors.NewConflictError("entity " + entityID + " is still referenced by a relationship")
		}
	}
	for _, t := range r.st.transactions {
		if slices.Contains(t.EntityIDs(), entityID) {
			return apperrors.NewConflictError("entity " + entityID + " is still referenced by transaction " + t.TransactionID)
		}
	}
	for _, lines := range r.st.lines {
		for _, l := range lines {
			if l.EntityID != nil && *l.EntityID == entityID {
				return apperrors.NewConflictError("entity " + entityID + " is still referenced by a transaction line")
			}
		}
	}
	for _, c := range r.st.entities {
		if c.ParentEntityID != nil && *c.ParentEntityID == entityID {
			return apperrors.NewConflictError("entity " + entityID + " still has child entities")
		}
	}
	delete(r.st.entities, entityID)
	return nil
}

// stripEntity drops hydrated data and copies slices so later edits by the caller cannot leak in.
func stripEntity(e domain.Entity) domain.Entity {
	e.DynamicFields = nil
	e.Relationships = nil
	e.Tags = slices.Clone(e.Tags)
	e.Metadata = slices.Clone(e.Metadata)
	return e
}
