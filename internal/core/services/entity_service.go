package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/dto"
)

type entityService struct {
	orchestrator
}

// NewEntityService creates the entity orchestrator.
func NewEntityService(uow portsrepo.UnitOfWork, registry *guardrails.Registry, opts ...ServiceOption) portssvc.EntitySvcFacade {
	return &entityService{orchestrator: newOrchestrator(uow, registry, opts)}
}

type writeMode string

const (
	modeCreate writeMode = dto.ActionCreate
	modeUpdate writeMode = dto.ActionUpdate
	modeUpsert writeMode = dto.ActionUpsert
)

// entityInput is a request that passed every check needing no storage.
type entityInput struct {
	id          string
	payload     dto.EntityPayload
	smartCode   string
	status      domain.EntityStatus
	metadata    []byte
	fields      []pendingField
	edges       []pendingEdge
	replace     bool
	cardinality map[string]domain.Cardinality
}

func (s *entityService) CreateEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error) {
	return s.write(ctx, actx, req, modeCreate)
}

func (s *entityService) UpdateEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error) {
	return s.write(ctx, actx, req, modeUpdate)
}

func (s *entityService) UpsertEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error) {
	return s.write(ctx, actx, req, modeUpsert)
}

func (s *entityService) prepare(ctx context.Context, req dto.EntityRequest, mode writeMode) (*entityInput, error) {
	in := &entityInput{payload: req.Entity, id: deref(req.Entity.EntityID)}

	switch mode {
	case modeCreate:
		if in.id != "" {
			return nil, apperrors.NewValidationError("entity.entity_id", "ID_NOT_ALLOWED", "entity_id is assigned on CREATE").
				WithHint("use UPSERT to write an entity under a caller-chosen id")
		}
	case modeUpdate:
		if in.id == "" {
			return nil, apperrors.NewValidationError("entity.entity_id", "ID_REQUIRED", "entity_id is required for UPDATE")
		}
	case modeUpsert:
		if in.id != "" {
			if _, err := uuid.Parse(in.id); err != nil {
				return nil, apperrors.NewValidationError("entity.entity_id", "INVALID_ID", "entity_id must be a UUID")
			}
		}
	}

	if req.Entity.SmartCode != nil {
		code, err := s.smartCode(ctx, "entity.smart_code", *req.Entity.SmartCode)
		if err != nil {
			return nil, err
		}
		in.smartCode = code.String()
	}
	if req.Entity.Status != nil {
		st, err := domain.ParseEntityStatus(*req.Entity.Status)
		if err != nil {
			return nil, prefixField(err, "entity")
		}
		in.status = st
	}
	metadata, err := jsonObject("entity.metadata", req.Entity.Metadata)
	if err != nil {
		return nil, err
	}
	in.metadata = metadata

	if in.fields, err = s.parseDynamic(ctx, req.Dynamic); err != nil {
		return nil, err
	}
	if in.edges, err = s.parseRelationships(ctx, req.Relationships); err != nil {
		return nil, err
	}

	switch strings.ToUpper(strings.TrimSpace(req.Options.RelationshipsMode)) {
	case "", "UPSERT":
	case "REPLACE":
		in.replace = true
	default:
		return nil, apperrors.NewValidationError("options.relationships_mode", "INVALID_MODE",
			"relationships_mode must be UPSERT or REPLACE")
	}
	in.cardinality = make(map[string]domain.Cardinality, len(req.Options.RelationshipCardinality))
	for t, c := range req.Options.RelationshipCardinality {
		if c != domain.CardinalityOne && c != domain.CardinalityMany {
			return nil, apperrors.NewValidationError("options.relationship_cardinality", "INVALID_CARDINALITY",
				fmt.Sprintf("cardinality for %s must be one or many", t))
		}
		in.cardinality[domain.NormalizeRelationshipType(t)] = c
	}
	return in, nil
}

// build returns the entity to store: a new row when existing is nil, otherwise
// existing with every supplied attribute applied.
func (in *entityInput) build(existing *domain.Entity, organizationID string) (domain.Entity, error) {
	p := in.payload
	var ent domain.Entity
	if existing != nil {
		ent = *existing
	} else {
		ent = domain.Entity{
			EntityID:       in.id,
			OrganizationID: organizationID,
			Status:         domain.EntityActive,
		}
		if ent.EntityID == "" {
			ent.EntityID = uuid.NewString()
		}
		var missing []string
		if deref(p.EntityType) == "" {
			missing = append(missing, "entity_type")
		}
		if deref(p.EntityName) == "" {
			missing = append(missing, "entity_name")
		}
		if in.smartCode == "" {
			missing = append(missing, "smart_code")
		}
		if len(missing) > 0 {
			return domain.Entity{}, apperrors.NewValidationError("entity", "REQUIRED_FIELD",
				"missing required fields: "+strings.Join(missing, ", "))
		}
		if in.status == domain.EntityDeleted {
			return domain.Entity{}, apperrors.NewValidationError("entity.status", "INVALID_STATUS",
				"an entity cannot be created as deleted")
		}
	}

	if p.EntityType != nil {
		if ent.EntityType = domain.NormalizeEntityType(*p.EntityType); ent.EntityType == "" {
			return domain.Entity{}, apperrors.NewValidationError("entity.entity_type", "REQUIRED_FIELD", "entity_type must not be empty")
		}
	}
	if p.EntityName != nil {
		if ent.EntityName = strings.TrimSpace(*p.EntityName); ent.EntityName == "" {
			return domain.Entity{}, apperrors.NewValidationError("entity.entity_name", "REQUIRED_FIELD", "entity_name must not be empty")
		}
	}
	if p.EntityCode != nil {
		ent.EntityCode = strings.TrimSpace(*p.EntityCode)
	}
	if in.smartCode != "" {
		ent.SmartCode = in.smartCode
	}
	if in.status != "" {
		ent.Status = in.status
	}
	if p.ParentEntityID != nil {
		if parent := deref(p.ParentEntityID); parent == "" {
			ent.ParentEntityID = nil
		} else {
			ent.ParentEntityID = &parent
		}
	}
	if p.Tags != nil {
		tags := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		ent.Tags = tags
	}
	if in.metadata != nil {
		ent.Metadata = in.metadata
	}
	return ent, nil
}

func (s *entityService) write(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest, mode writeMode) (*domain.Entity, error) {
	org, err := s.Authorize(ctx, actx, true)
	if err != nil {
		return nil, err
	}
	in, err := s.prepare(ctx, req, mode)
	if err != nil {
		return nil, err
	}

	var (
		result  domain.Entity
		created bool
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var existing *domain.Entity
		if in.id != "" {
			found, err := s.locate(ctx, repos, actx, in.id, mode == modeUpsert)
			if err != nil {
				return err
			}
			existing = found
		}
		created = existing == nil

		ent, err := in.build(existing, actx.OrganizationID)
		if err != nil {
			return err
		}
		now := s.cfg.now()
		if created {
			ent.Stamp(actx.ActorUserID, now)
		} else {
			ent.Touch(actx.ActorUserID, now)
		}

		subject := &guardrails.EntitySubject{Entity: ent, Organization: *org, Cardinality: in.cardinality}
		if ent.ParentEntityID != nil {
			if _, err := s.requireEntities(ctx, repos, actx, "parent_entity_id", []string{*ent.ParentEntityID}); err != nil {
				return err
			}
			if subject.ParentChain, err = s.parentChain(ctx, repos, actx.OrganizationID, ent.EntityID, *ent.ParentEntityID); err != nil {
				return err
			}
		}

		fields := bindFields(in.fields, actx.OrganizationID, ent.EntityID, actx.ActorUserID, now)
		subject.Fields = map[string]domain.DynamicField{}
		if !created {
			stored, err := repos.DynamicFields().FindByEntityID(ctx, actx.OrganizationID, ent.EntityID)
			if err != nil {
				return fmt.Errorf("failed to load dynamic fields: %w", err)
			}
			maps.Copy(subject.Fields, stored)
		}
		for _, f := range fields {
			subject.Fields[f.FieldName] = f
		}

		edges, err := bindEdges(in.edges, actx.OrganizationID, ent.EntityID, actx.ActorUserID, now)
		if err != nil {
			return err
		}
		var endpoints []string
		for _, r := range edges {
			for _, id := range []string{r.FromEntityID, r.ToEntityID} {
				if id != ent.EntityID {
					endpoints = append(endpoints, id)
				}
			}
		}
		if _, err := s.requireEntities(ctx, repos, actx, "relationship endpoint", endpoints); err != nil {
			return err
		}
		plan, err := s.planEdges(ctx, repos, actx.OrganizationID, ent.EntityID, edges, in.replace)
		if err != nil {
			return err
		}
		subject.NewEdges = plan.active()
		subject.ExistingEdges = plan.existing

		if err := s.registry.Evaluate(subject); err != nil {
			return err
		}

		if created {
			err = repos.Entities().Create(ctx, ent)
		} else {
			err = repos.Entities().Update(ctx, ent)
		}
		if err != nil {
			return fmt.Errorf("failed to write entity: %w", err)
		}
		if err := s.writeFields(ctx, repos, fields); err != nil {
			return err
		}
		stored, err := s.applyEdges(ctx, repos, actx.OrganizationID, actx.ActorUserID, now, plan)
		if err != nil {
			return err
		}

		result = ent
		if len(subject.Fields) > 0 {
			result.DynamicFields = subject.Fields
		}
		if len(stored) > 0 {
			result.Relationships = stored
		}
		return nil
	})
	if err != nil {
		s.logWriteFailure(ctx, err, "entity", string(mode), in.id)
		return nil, err
	}

	action := "updated"
	if created {
		action = "created"
	}
	s.LogInfo(ctx, "Entity "+action,
		slog.String("entity_id", result.EntityID),
		slog.String("entity_type", result.EntityType),
		slog.String("organization_id", actx.OrganizationID),
		slog.String("actor_user_id", actx.ActorUserID))
	return &result, nil
}

// locate loads entityID for update. When missing is allowed an absent id
// returns nil; otherwise it is NotFound. An id owned by another organization is
// always a CrossTenantError.
func (s *entityService) locate(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, entityID string, missingOK bool) (*domain.Entity, error) {
	ent, err := repos.Entities().FindByIDForUpdate(ctx, actx.OrganizationID, entityID)
	if err == nil {
		return ent, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to load entity: %w", err)
	}
	owners, err := repos.Entities().FindOwners(ctx, []string{entityID})
	if err != nil {
		return nil, fmt.Errorf("failed to load entity owner: %w", err)
	}
	if owner, ok := owners[entityID]; ok && owner != actx.OrganizationID {
		s.LogSecurityEvent(ctx, actx, "Cross-tenant entity access rejected", slog.String("entity_id", entityID))
		return nil, &apperrors.CrossTenantError{Resource: "entity", ID: entityID}
	}
	if missingOK {
		return nil, nil
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("entity %s not found", entityID))
}

// parentChain walks up from parentID. The walk stops at a root, at selfID, at a
// repeated id or one step past the depth limit.
func (s *entityService) parentChain(ctx context.Context, repos portsrepo.Repositories, organizationID, selfID, parentID string) ([]string, error) {
	limit := s.policy().MaxHierarchyDepth
	var chain []string
	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		chain = append(chain, cur)
		if cur == selfID || seen[cur] || len(chain) > limit {
			break
		}
		seen[cur] = true
		e, err := repos.Entities().FindByID(ctx, organizationID, cur)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("failed to walk hierarchy: %w", err)
		}
		cur = deref(e.ParentEntityID)
	}
	return chain, nil
}

func (s *entityService) DeleteEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*dto.DeleteResult, error) {
	if _, err := s.Authorize(ctx, actx, true); err != nil {
		return nil, err
	}
	id := deref(req.Entity.EntityID)
	if id == "" {
		return nil, apperrors.NewValidationError("entity.entity_id", "ID_REQUIRED", "entity_id is required for DELETE")
	}

	result := &dto.DeleteResult{ID: id, Mode: string(domain.SoftDelete)}
	if req.Options.HardDelete {
		result.Mode = string(domain.HardDelete)
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		ent, err := s.locate(ctx, repos, actx, id, false)
		if err != nil {
			return err
		}
		if !req.Options.HardDelete {
			if ent.Status != domain.EntityDeleted {
				ent.Status = domain.EntityDeleted
				ent.Touch(actx.ActorUserID, s.cfg.now())
				if err := repos.Entities().Update(ctx, *ent); err != nil {
					return fmt.Errorf("failed to soft delete entity: %w", err)
				}
			}
			result.Status = string(domain.EntityDeleted)
			return nil
		}

		breakdown, err := s.references(ctx, repos, actx.OrganizationID, id, !req.Options.CascadeDynamic)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range breakdown {
			total += n
		}
		if total > 0 {
			return &apperrors.ReferentialIntegrityError{EntityID: id, ReferenceCount: total, Breakdown: breakdown}
		}

		if _, err := repos.Relationships().DeleteByEntityID(ctx, actx.OrganizationID, id); err != nil {
			return fmt.Errorf("failed to remove inactive relationships: %w", err)
		}
		if req.Options.CascadeDynamic {
			n, err := repos.DynamicFields().DeleteByEntityID(ctx, actx.OrganizationID, id)
			if err != nil {
				return fmt.Errorf("failed to delete dynamic fields: %w", err)
			}
			result.DeletedDynamicFields = n
		}
		if err := repos.Entities().Delete(ctx, actx.OrganizationID, id); err != nil {
			return fmt.Errorf("failed to hard delete entity: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logWriteFailure(ctx, err, "entity", dto.ActionDelete, id)
		return nil, err
	}

	s.LogInfo(ctx, "Entity deleted",
		slog.String("entity_id", id),
		slog.String("mode", result.Mode),
		slog.String("organization_id", actx.OrganizationID))
	return result, nil
}

// references counts everything that blocks a hard delete of entityID, keyed by kind.
func (s *entityService) references(ctx context.Context, repos portsrepo.Repositories, organizationID, entityID string, countFields bool) (map[string]int, error) {
	breakdown := map[string]int{}
	rels, err := repos.Relationships().CountActiveByEntityID(ctx, organizationID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to count relationships: %w", err)
	}
	txns, err := repos.Transactions().CountEntityReferences(ctx, organizationID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transaction references: %w", err)
	}
	children, err := repos.Entities().CountChildren(ctx, organizationID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to count child entities: %w", err)
	}
	fields := 0
	if countFields {
		if fields, err = repos.DynamicFields().CountByEntityID(ctx, organizationID, entityID); err != nil {
			return nil, fmt.Errorf("failed to count dynamic fields: %w", err)
		}
	}
	for kind, n := range map[string]int{
		"relationships":     rels,
		"transactions":      txns.Headers,
		"transaction_lines": txns.Lines,
		"dynamic_fields":    fields,
		"child_entities":    children,
	} {
		if n > 0 {
			breakdown[kind] = n
		}
	}
	return breakdown, nil
}

func (s *entityService) ReadEntities(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*dto.EntityPage, error) {
	if _, err := s.Authorize(ctx, actx, false); err != nil {
		return nil, err
	}
	w, err := s.window(req.Options)
	if err != nil {
		return nil, err
	}

	p := req.Entity
	q := portsrepo.EntityQuery{
		OrganizationID: actx.OrganizationID,
		EntityType:     domain.NormalizeEntityType(deref(p.EntityType)),
		EntityCode:     deref(p.EntityCode),
		SmartCode:      deref(p.SmartCode),
		IncludeDeleted: req.Options.IncludeDeleted,
		Limit:          w.Limit,
		Offset:         w.Offset,
	}
	if id := deref(p.EntityID); id != "" {
		q.EntityIDs = []string{id}
	}
	if p.Status != nil {
		st, err := domain.ParseEntityStatus(*p.Status)
		if err != nil {
			return nil, prefixField(err, "entity")
		}
		q.Statuses = []domain.EntityStatus{st}
	}
	if p.ParentEntityID != nil {
		parent := deref(p.ParentEntityID)
		q.ParentEntityID = &parent
	}

	page := &dto.EntityPage{Limit: w.Limit, Offset: w.Offset}
	err = s.uow.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		if page.Total, err = repos.Entities().Count(ctx, q); err != nil {
			return fmt.Errorf("failed to count entities: %w", err)
		}
		if page.Items, err = repos.Entities().List(ctx, q); err != nil {
			return fmt.Errorf("failed to list entities: %w", err)
		}
		return s.hydrate(ctx, repos, actx.OrganizationID, page.Items, req.Options)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to read entities", slog.String("organization_id", actx.OrganizationID))
		return nil, err
	}
	if page.Items == nil {
		page.Items = []domain.Entity{}
	}
	page.NextOffset, page.NextToken = w.Next(len(page.Items), page.Total)
	return page, nil
}

// hydrate loads dynamic fields and relationships for items concurrently.
func (s *entityService) hydrate(ctx context.Context, repos portsrepo.Repositories, organizationID string, items []domain.Entity, opts dto.Options) error {
	if len(items) == 0 || (!opts.IncludeDynamic && !opts.IncludeRelationships) {
		return nil
	}
	ids := make([]string, len(items))
	for i, e := range items {
		ids[i] = e.EntityID
	}

	var (
		fields map[string]map[string]domain.DynamicField
		edges  map[string][]domain.Relationship
	)
	g, gctx := errgroup.WithContext(ctx)
	if opts.IncludeDynamic {
		g.Go(func() error {
			var err error
			fields, err = repos.DynamicFields().FindByEntityIDs(gctx, organizationID, ids)
			if err != nil {
				return fmt.Errorf("failed to hydrate dynamic fields: %w", err)
			}
			return nil
		})
	}
	if opts.IncludeRelationships {
		g.Go(func() error {
			var err error
			edges, err = repos.Relationships().FindByEntityIDs(gctx, organizationID, ids, !opts.IncludeDeleted)
			if err != nil {
				return fmt.Errorf("failed to hydrate relationships: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range items {
		id := items[i].EntityID
		if opts.IncludeDynamic {
			items[i].DynamicFields = fields[id]
			if items[i].DynamicFields == nil {
				items[i].DynamicFields = map[string]domain.DynamicField{}
			}
		}
		if opts.IncludeRelationships {
			items[i].Relationships = edges[id]
			if items[i].Relationships == nil {
				items[i].Relationships = []domain.Relationship{}
			}
		}
	}
	return nil
}

// logWriteFailure logs rejections at INFO and unexpected failures at ERROR.
func (o *orchestrator) logWriteFailure(ctx context.Context, err error, resource, action, id string) {
	attrs := []any{
		slog.String("resource", resource),
		slog.String("action", action),
		slog.String("id", id),
	}
	desc := apperrors.Describe(err)
	if desc.Status >= 500 {
		o.LogError(ctx, err, "Write failed", attrs...)
		return
	}
	o.LogInfo(ctx, "Write rejected", append(attrs, slog.String("error_code", desc.Code), slog.String("detail", desc.Detail))...)
}
