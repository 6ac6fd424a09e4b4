package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	"github.com/SscSPs/hera_engine/internal/core/smartcode"
	"github.com/SscSPs/hera_engine/internal/dto"
	"github.com/SscSPs/hera_engine/internal/utils/pagination"
)

const maxFieldNameLen = 100

// orchestrator is the machinery shared by the entity and transaction services.
type orchestrator struct {
	BaseService
	uow      portsrepo.UnitOfWork
	registry *guardrails.Registry
	cfg      serviceConfig
}

func newOrchestrator(uow portsrepo.UnitOfWork, registry *guardrails.Registry, opts []ServiceOption) orchestrator {
	cfg := newServiceConfig(opts)
	if registry == nil {
		registry = guardrails.NewRegistry(guardrails.DefaultPolicy())
	}
	return orchestrator{
		BaseService: BaseService{OrgAuthorizer: cfg.authorizer},
		uow:         uow,
		registry:    registry,
		cfg:         cfg,
	}
}

func (o *orchestrator) policy() guardrails.Policy { return o.registry.Policy() }

// smartCode runs the smart-code guard on one code. A lowercase version rewritten
// by the normalization policy is logged, never silently accepted.
func (o *orchestrator) smartCode(ctx context.Context, field, code string) (smartcode.Code, error) {
	if strings.TrimSpace(code) == "" {
		return smartcode.Code{}, apperrors.NewValidationError(field, "SMART_CODE_REQUIRED", "smart_code is required").
			WithHint("codes look like HERA.<MODULE>.<SEGMENT>.<SEGMENT>.<SEGMENT>.V1")
	}
	parsed, rewritten, err := o.cfg.validator.Validate(code)
	if err != nil {
		var scErr *smartcode.Error
		if errors.As(err, &scErr) {
			hint := "codes look like HERA.<MODULE>.<SEGMENT>.<SEGMENT>.<SEGMENT>.V1"
			if scErr.Suggestion != "" {
				hint = fmt.Sprintf("use %s", scErr.Suggestion)
			}
			return smartcode.Code{}, apperrors.NewValidationError(field, scErr.Kind.String(), err.Error()).WithHint(hint)
		}
		return smartcode.Code{}, err
	}
	if rewritten {
		o.LogInfo(ctx, "Smart code normalized",
			slog.String("field", field),
			slog.String("input", code),
			slog.String("normalized", parsed.String()))
	}
	return parsed, nil
}

// pendingField is a validated dynamic field not yet bound to an owner.
type pendingField struct {
	name      string
	value     domain.FieldValue
	smartCode string
}

func (o *orchestrator) parseDynamic(ctx context.Context, inputs map[string]dto.DynamicFieldInput) ([]pendingField, error) {
	out := make([]pendingField, 0, len(inputs))
	for rawName, in := range inputs {
		name := strings.TrimSpace(rawName)
		if name == "" || len(name) > maxFieldNameLen {
			return nil, apperrors.NewValidationError("dynamic", "INVALID_FIELD_NAME",
				fmt.Sprintf("field name %q must be 1-%d characters", rawName, maxFieldNameLen))
		}
		path := "dynamic." + name
		ft, err := domain.ParseFieldType(in.FieldType)
		if err != nil {
			return nil, prefixField(err, path)
		}
		value, err := domain.ParseFieldValue(ft, in.Value)
		if err != nil {
			return nil, prefixField(err, path)
		}
		code, err := o.smartCode(ctx, path+".smart_code", in.SmartCode)
		if err != nil {
			return nil, err
		}
		out = append(out, pendingField{name: name, value: value, smartCode: code.String()})
	}
	slices.SortFunc(out, func(a, b pendingField) int { return strings.Compare(a.name, b.name) })
	return out, nil
}

func bindFields(pending []pendingField, organizationID, ownerID, actorID string, now time.Time) []domain.DynamicField {
	out := make([]domain.DynamicField, len(pending))
	for i, p := range pending {
		out[i] = domain.DynamicField{
			OrganizationID: organizationID,
			EntityID:       ownerID,
			FieldName:      p.name,
			Value:          p.value,
			SmartCode:      p.smartCode,
		}
		out[i].Stamp(actorID, now)
	}
	return out
}

func (o *orchestrator) writeFields(ctx context.Context, repos portsrepo.Repositories, fields []domain.DynamicField) error {
	for _, f := range fields {
		if err := repos.DynamicFields().Upsert(ctx, f); err != nil {
			return fmt.Errorf("failed to write dynamic field %s: %w", f.FieldName, err)
		}
	}
	return nil
}

// pendingEdge is a validated relationship input whose default endpoint is not yet known.
type pendingEdge struct {
	relType   string
	in        dto.RelationshipInput
	smartCode string
	data      json.RawMessage
	effective *time.Time
	expires   *time.Time
	active    bool
}

func (o *orchestrator) parseRelationships(ctx context.Context, inputs map[string][]dto.RelationshipInput) ([]pendingEdge, error) {
	var out []pendingEdge
	types := make([]string, 0, len(inputs))
	for t := range inputs {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, rawType := range types {
		relType := domain.NormalizeRelationshipType(rawType)
		if relType == "" {
			return nil, apperrors.NewValidationError("relationships", "RELATIONSHIP_TYPE_REQUIRED", "relationship type must not be empty")
		}
		for i, in := range inputs[rawType] {
			path := fmt.Sprintf("relationships.%s[%d]", relType, i)
			code, err := o.smartCode(ctx, path+".smart_code", in.SmartCode)
			if err != nil {
				return nil, err
			}
			data, err := jsonObject(path+".relationship_data", in.RelationshipData)
			if err != nil {
				return nil, err
			}
			effective, expires := in.EffectiveDate.TimePtr(), in.ExpirationDate.TimePtr()
			if effective != nil && expires != nil && !expires.After(*effective) {
				return nil, apperrors.NewValidationError(path+".expiration_date", "INVALID_WINDOW",
					"expiration_date must be after effective_date")
			}
			active := in.IsActive == nil || *in.IsActive
			out = append(out, pendingEdge{
				relType: relType, in: in, smartCode: code.String(), data: data,
				effective: effective, expires: expires, active: active,
			})
		}
	}
	return out, nil
}

// bindEdges fills the default endpoint with selfID. Every edge must touch selfID.
func bindEdges(pending []pendingEdge, organizationID, selfID, actorID string, now time.Time) ([]domain.Relationship, error) {
	out := make([]domain.Relationship, 0, len(pending))
	for _, p := range pending {
		from, to := strings.TrimSpace(p.in.FromEntityID), strings.TrimSpace(p.in.ToEntityID)
		switch {
		case from == "" && to == "":
			return nil, apperrors.NewValidationError("relationships."+p.relType, "ENDPOINT_REQUIRED",
				"relationship needs from_entity_id or to_entity_id")
		case from == "":
			from = selfID
		case to == "":
			to = selfID
		}
		if from != selfID && to != selfID {
			return nil, apperrors.NewValidationError("relationships."+p.relType, "FOREIGN_EDGE",
				fmt.Sprintf("relationship %s -> %s does not touch %s", from, to, selfID))
		}
		rel := domain.Relationship{
			RelationshipID:   uuid.NewString(),
			OrganizationID:   organizationID,
			FromEntityID:     from,
			ToEntityID:       to,
			RelationshipType: p.relType,
			RelationshipData: p.data,
			SmartCode:        p.smartCode,
			EffectiveDate:    now,
			ExpirationDate:   p.expires,
			IsActive:         p.active,
		}
		if p.effective != nil {
			rel.EffectiveDate = *p.effective
		}
		rel.Stamp(actorID, now)
		out = append(out, rel)
	}
	return out, nil
}

// edgePlan is the relationship side of a write, computed before anything is stored.
type edgePlan struct {
	edges      []domain.Relationship
	deactivate []string
	// existing are the active edges of the submitted types that survive the write.
	existing []domain.Relationship
}

// active returns the edges that will be in force once written.
func (p edgePlan) active() []domain.Relationship {
	out := make([]domain.Relationship, 0, len(p.edges))
	for _, r := range p.edges {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// planEdges loads the active edges of every submitted type. In replace mode the
// edges touching selfID that the request does not restate are deactivated.
func (o *orchestrator) planEdges(ctx context.Context, repos portsrepo.Repositories, organizationID, selfID string, edges []domain.Relationship, replace bool) (edgePlan, error) {
	plan := edgePlan{edges: edges}
	if len(edges) == 0 {
		return plan, nil
	}
	type natural struct{ from, to, relType string }
	submitted := map[natural]bool{}
	var types []string
	for _, r := range edges {
		submitted[natural{r.FromEntityID, r.ToEntityID, r.RelationshipType}] = true
		if !slices.Contains(types, r.RelationshipType) {
			types = append(types, r.RelationshipType)
		}
	}

	for _, relType := range types {
		current, err := repos.Relationships().ListActiveOfType(ctx, organizationID, relType)
		if err != nil {
			return edgePlan{}, fmt.Errorf("failed to load %s relationships: %w", relType, err)
		}
		for _, r := range current {
			key := natural{r.FromEntityID, r.ToEntityID, domain.NormalizeRelationshipType(r.RelationshipType)}
			if submitted[key] {
				// Restated edges are refreshed by the write and judged as new.
				continue
			}
			if replace && r.Touches(selfID) {
				plan.deactivate = append(plan.deactivate, r.RelationshipID)
				continue
			}
			plan.existing = append(plan.existing, r)
		}
	}
	return plan, nil
}

// applyEdges deactivates replaced edges and upserts the submitted ones.
func (o *orchestrator) applyEdges(ctx context.Context, repos portsrepo.Repositories, organizationID, actorID string, now time.Time, plan edgePlan) ([]domain.Relationship, error) {
	if len(plan.deactivate) > 0 {
		if err := repos.Relationships().Deactivate(ctx, organizationID, plan.deactivate, actorID, now); err != nil {
			return nil, fmt.Errorf("failed to deactivate replaced relationships: %w", err)
		}
	}
	stored := make([]domain.Relationship, 0, len(plan.edges))
	for _, r := range plan.edges {
		saved, err := repos.Relationships().Upsert(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s relationship: %w", r.RelationshipType, err)
		}
		stored = append(stored, saved)
	}
	return stored, nil
}

// resolveEntities loads the named entities of the caller's organization. An id
// owned by another organization fails with a CrossTenantError; ids that exist
// nowhere are returned in unknown.
func (o *orchestrator) resolveEntities(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, resource string, ids []string) (map[string]domain.Entity, []string, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return map[string]domain.Entity{}, nil, nil
	}
	found, err := repos.Entities().FindByIDs(ctx, actx.OrganizationID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", resource, err)
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return found, nil, nil
	}
	owners, err := repos.Entities().FindOwners(ctx, missing)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s owners: %w", resource, err)
	}
	var unknown []string
	for _, id := range missing {
		if owner, ok := owners[id]; ok && owner != actx.OrganizationID {
			o.LogSecurityEvent(ctx, actx, "Cross-tenant reference rejected",
				slog.String("resource", resource),
				slog.String("id", id))
			return nil, nil, &apperrors.CrossTenantError{Resource: resource, ID: id}
		}
		unknown = append(unknown, id)
	}
	return found, unknown, nil
}

// requireEntities is resolveEntities where unknown or deleted ids are validation errors.
func (o *orchestrator) requireEntities(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, resource string, ids []string) (map[string]domain.Entity, error) {
	found, unknown, err := o.resolveEntities(ctx, repos, actx, resource, ids)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewValidationError(resource, "UNKNOWN_ENTITY",
			fmt.Sprintf("%s %s does not exist", resource, strings.Join(unknown, ", ")))
	}
	for _, id := range distinct(ids) {
		if found[id].Status == domain.EntityDeleted {
			return nil, apperrors.NewValidationError(resource, "ENTITY_DELETED",
				fmt.Sprintf("%s %s is deleted", resource, id)).
				WithHint("restore the entity with UPDATE status=active first")
		}
	}
	return found, nil
}

// window resolves pagination options into a clamped window.
func (o *orchestrator) window(opts dto.Options) (pagination.Window, error) {
	w, err := pagination.Resolve(opts.Limit, opts.Offset, opts.NextToken, o.cfg.defaultLimit, o.cfg.maxLimit)
	if err != nil {
		return pagination.Window{}, apperrors.NewValidationError("options", "INVALID_PAGINATION", err.Error())
	}
	return w, nil
}

// jsonObject accepts an absent value or a JSON object.
func jsonObject(field string, raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(raw) || raw[0] != '{' {
		return nil, apperrors.NewValidationError(field, "INVALID_JSON", "must be a JSON object")
	}
	compact := new(bytes.Buffer)
	if err := json.Compact(compact, raw); err != nil {
		return nil, apperrors.NewValidationError(field, "INVALID_JSON", err.Error())
	}
	return compact.Bytes(), nil
}

func prefixField(err error, path string) error {
	var valErr *apperrors.ValidationError
	if errors.As(err, &valErr) {
		cp := *valErr
		cp.Field = path + "." + valErr.Field
		return &cp
	}
	return err
}

func distinct(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func newID() string { return uuid.NewString() }
