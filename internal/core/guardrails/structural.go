package guardrails

import (
	"fmt"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
)

func structuralRules(p Policy) []Rule {
	hasParent := func(s Subject) bool {
		e := asEntity(s)
		return e.Entity.ParentEntityID != nil && *e.Entity.ParentEntityID != ""
	}
	return []Rule{
		{
			Name: "STRUCT_PARENT_CYCLE", Category: Structural, Stage: StageStructural, Kind: EntityKind,
			Applies: hasParent,
			Check: func(s Subject) Result {
				e := asEntity(s)
				self := e.Entity.EntityID
				if *e.Entity.ParentEntityID == self {
					return Fail("PARENT_IS_SELF", "an entity cannot be its own parent")
				}
				for _, id := range e.ParentChain {
					if id == self {
						return Fail("PARENT_CYCLE", fmt.Sprintf("setting parent %s would make entity %s its own ancestor", *e.Entity.ParentEntityID, self))
					}
				}
				return Ok()
			},
		},
		{
			Name: "STRUCT_HIERARCHY_DEPTH", Category: Structural, Stage: StageStructural, Kind: EntityKind,
			Applies: hasParent,
			Check: func(s Subject) Result {
				depth := len(asEntity(s).ParentChain) + 1
				if depth > p.MaxHierarchyDepth {
					return Fail("HIERARCHY_TOO_DEEP", fmt.Sprintf("hierarchy depth %d exceeds the limit of %d", depth, p.MaxHierarchyDepth))
				}
				return Ok()
			},
		},
		{
			Name: "STRUCT_SELF_RELATIONSHIP", Category: Structural, Stage: StageStructural, Kind: EntityKind,
			Check: func(s Subject) Result {
				var vs []apperrors.Violation
				for _, r := range asEntity(s).NewEdges {
					if r.FromEntityID == r.ToEntityID {
						vs = append(vs, apperrors.Violation{Code: "SELF_RELATIONSHIP",
							Message: fmt.Sprintf("%s relationship from %s to itself", r.RelationshipType, r.FromEntityID)})
					}
				}
				return Err(vs...)
			},
		},
		{
			Name: "STRUCT_RELATIONSHIP_CYCLE", Category: Structural, Stage: StageStructural, Kind: EntityKind,
			Check: func(s Subject) Result {
				e := asEntity(s)
				var vs []apperrors.Violation
				for _, r := range e.NewEdges {
					if !p.IsAcyclic(r.RelationshipType) || r.FromEntityID == r.ToEntityID {
						continue
					}
					if reaches(edgesOfType(e, r.RelationshipType), r.ToEntityID, r.FromEntityID) {
						vs = append(vs, apperrors.Violation{Code: "RELATIONSHIP_CYCLE",
							Message: fmt.Sprintf("%s edge %s -> %s would create a cycle", r.RelationshipType, r.FromEntityID, r.ToEntityID)})
					}
				}
				return Err(vs...)
			},
		},
		{
			Name: "STRUCT_RELATIONSHIP_CARDINALITY", Category: Structural, Stage: StageStructural, Kind: EntityKind,
			Check: func(s Subject) Result {
				e := asEntity(s)
				type key struct{ from, relType string }
				targets := map[key]map[string]bool{}
				add := func(r domain.Relationship) {
					k := key{r.FromEntityID, domain.NormalizeRelationshipType(r.RelationshipType)}
					if targets[k] == nil {
						targets[k] = map[string]bool{}
					}
					targets[k][r.ToEntityID] = true
				}
				for _, r := range e.ExistingEdges {
					add(r)
				}
				for _, r := range e.NewEdges {
					add(r)
				}

				var vs []apperrors.Violation
				reported := map[key]bool{}
				for _, r := range e.NewEdges {
					k := key{r.FromEntityID, domain.NormalizeRelationshipType(r.RelationshipType)}
					if reported[k] || p.Cardinality(k.relType, e.Cardinality) != domain.CardinalityOne {
						continue
					}
					if n := len(targets[k]); n > 1 {
						reported[k] = true
						vs = append(vs, apperrors.Violation{Code: "CARDINALITY_EXCEEDED",
							Message: fmt.Sprintf("%s allows one active edge from %s, found %d", k.relType, k.from, n)})
					}
				}
				return Err(vs...)
			},
		},
	}
}

// edgesOfType returns the combined existing and new adjacency for relType.
func edgesOfType(e *EntitySubject, relType string) map[string][]string {
	relType = domain.NormalizeRelationshipType(relType)
	adj := map[string][]string{}
	for _, list := range [][]domain.Relationship{e.ExistingEdges, e.NewEdges} {
		for _, r := range list {
			if domain.NormalizeRelationshipType(r.RelationshipType) == relType {
				adj[r.FromEntityID] = append(adj[r.FromEntityID], r.ToEntityID)
			}
		}
	}
	return adj
}

// reaches reports whether target is reachable from start.
func reaches(adj map[string][]string, start, target string) bool {
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		for _, next := range adj[n] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
