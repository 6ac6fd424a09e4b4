package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
)

type relationshipRepo struct{ *repos }

func sortEdges(edges []domain.Relationship) {
	slices.SortFunc(edges, func(a, b domain.Relationship) int {
		if c := a.EffectiveDate.Compare(b.EffectiveDate); c != 0 {
			return c
		}
		return strings.Compare(a.RelationshipID, b.RelationshipID)
	})
}

func (r *relationshipRepo) Query(_ context.Context, q portsrepo.RelationshipQuery) ([]domain.Relationship, error) {
	at := time.Now().UTC()
	if q.AsOf != nil {
		at = *q.AsOf
	}
	var out []domain.Relationship
	for _, rel := range r.st.relationships {
		if rel.OrganizationID != q.OrganizationID {
			continue
		}
		switch q.Side {
		case domain.SideFrom:
			if rel.FromEntityID != q.EntityID {
				continue
			}
		case domain.SideTo:
			if rel.ToEntityID != q.EntityID {
				continue
			}
		default:
			if q.EntityID != "" && !rel.Touches(q.EntityID) {
				continue
			}
		}
		if q.RelationshipType != "" && !strings.EqualFold(rel.RelationshipType, q.RelationshipType) {
			continue
		}
		if q.ActiveOnly && !rel.ActiveAt(at) {
			continue
		}
		out = append(out, rel)
	}
	sortEdges(out)
	return out, nil
}

func (r *relationshipRepo) FindByEntityIDs(_ context.Context, organizationID string, entityIDs []string, activeOnly bool) (map[string][]domain.Relationship, error) {
	now := time.Now().UTC()
	wanted := make(map[string]bool, len(entityIDs))
	for _, id := range entityIDs {
		wanted[id] = true
	}
	out := map[string][]domain.Relationship{}
	for _, rel := range r.st.relationships {
		if rel.OrganizationID != organizationID || (activeOnly && !rel.ActiveAt(now)) {
			continue
		}
		if wanted[rel.FromEntityID] {
			out[rel.FromEntityID] = append(out[rel.FromEntityID], rel)
		}
		if wanted[rel.ToEntityID] && rel.ToEntityID != rel.FromEntityID {
			out[rel.ToEntityID] = append(out[rel.ToEntityID], rel)
		}
	}
	for _, edges := range out {
		sortEdges(edges)
	}
	return out, nil
}

func (r *relationshipRepo) ListActiveOfType(_ context.Context, organizationID, relType string) ([]domain.Relationship, error) {
	now := time.Now().UTC()
	var out []domain.Relationship
	for _, rel := range r.st.relationships {
		if rel.OrganizationID == organizationID && strings.EqualFold(rel.RelationshipType, relType) && rel.ActiveAt(now) {
			out = append(out, rel)
		}
	}
	sortEdges(out)
	return out, nil
}

func (r *relationshipRepo) CountActiveByEntityID(_ context.Context, organizationID, entityID string) (int, error) {
	now := time.Now().UTC()
	n := 0
	for _, rel := range r.st.relationships {
		if rel.OrganizationID == organizationID && rel.Touches(entityID) && rel.ActiveAt(now) {
			n++
		}
	}
	return n, nil
}

func (r *relationshipRepo) Upsert(_ context.Context, rel domain.Relationship) (domain.Relationship, error) {
	if err := r.writable(); err != nil {
		return domain.Relationship{}, err
	}
	for id, existing := range r.st.relationships {
		if existing.OrganizationID == rel.OrganizationID && existing.FromEntityID == rel.FromEntityID &&
			existing.ToEntityID == rel.ToEntityID && strings.EqualFold(existing.RelationshipType, rel.RelationshipType) {
			rel.RelationshipID = id
			rel.CreatedAt, rel.CreatedBy = existing.CreatedAt, existing.CreatedBy
			break
		}
	}
	rel.RelationshipData = slices.Clone(rel.RelationshipData)
	r.st.relationships[rel.RelationshipID] = rel
	return rel, nil
}

func (r *relationshipRepo) Deactivate(_ context.Context, organizationID string, relationshipIDs []string, actorID string, at time.Time) error {
	if err := r.writable(); err != nil {
		return err
	}
	for _, id := range relationshipIDs {
		rel, ok := r.st.relationships[id]
		if !ok || rel.OrganizationID != organizationID {
			continue
		}
		rel.IsActive = false
		if rel.ExpirationDate == nil || rel.ExpirationDate.After(at) {
			exp := at
			rel.ExpirationDate = &exp
		}
		rel.Touch(actorID, at)
		r.st.relationships[id] = rel
	}
	return nil
}

func (r *relationshipRepo) DeleteByEntityID(_ context.Context, organizationID, entityID string) (int, error) {
	if err := r.writable(); err != nil {
		return 0, err
	}
	n := 0
	for id, rel := range r.st.relationships {
		if rel.OrganizationID == organizationID && rel.Touches(entityID) {
			delete(r.st.relationships, id)
			n++
		}
	}
	return n, nil
}
