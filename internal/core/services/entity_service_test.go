package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/dto"
)

type EntityServiceTestSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *EntityServiceTestSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.ctx = context.Background()
}

func TestEntityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EntityServiceTestSuite))
}

func (s *EntityServiceTestSuite) readOne(id string, opts dto.Options) domain.Entity {
	page, err := s.f.entities.ReadEntities(s.ctx, s.f.actx, dto.EntityRequest{
		Entity:  dto.EntityPayload{EntityID: strp(id)},
		Options: opts,
	})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	return page.Items[0]
}

func (s *EntityServiceTestSuite) link(from, to, relType string, active bool) {
	_, err := s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(from)},
		Relationships: map[string][]dto.RelationshipInput{
			relType: {{ToEntityID: to, SmartCode: edgeCode, IsActive: boolp(active)}},
		},
	})
	s.Require().NoError(err)
}

func (s *EntityServiceTestSuite) TestCreateEntity_WithDynamicFields() {
	ent, err := s.f.entities.CreateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{
			EntityType: strp("customer"),
			EntityName: strp("Jane Doe"),
			SmartCode:  strp(customerCode),
			Metadata:   json.RawMessage(`{ "source": "import" }`),
		},
		Dynamic: map[string]dto.DynamicFieldInput{
			"credit_limit": {FieldType: "number", Value: json.RawMessage(`5000`), SmartCode: fieldCode},
			"email":        {FieldType: "text", Value: jsonString("jane@example.com"), SmartCode: fieldCode},
		},
	})
	s.Require().NoError(err)

	s.NotEmpty(ent.EntityID)
	s.Equal("CUSTOMER", ent.EntityType)
	s.Equal(domain.EntityActive, ent.Status)
	s.Equal(ownerID, ent.CreatedBy)
	s.Equal(fixedNow, ent.CreatedAt)
	s.JSONEq(`{"source":"import"}`, string(ent.Metadata))
	s.Len(ent.DynamicFields, 2)

	read := s.readOne(ent.EntityID, dto.Options{IncludeDynamic: true})
	s.Require().Contains(read.DynamicFields, "credit_limit")
	s.Equal(domain.FieldNumber, read.DynamicFields["credit_limit"].Value.Type())
	s.JSONEq(`5000`, string(read.DynamicFields["credit_limit"].Value.Raw()))
	s.JSONEq(`"jane@example.com"`, string(read.DynamicFields["email"].Value.Raw()))
}

func (s *EntityServiceTestSuite) TestCreateEntity_Validation() {
	cases := []struct {
		name string
		actx domain.ActorContext
		req  dto.EntityRequest
		code string
	}{
		{
			name: "missing organization",
			actx: domain.ActorContext{ActorUserID: ownerID},
			req:  dto.EntityRequest{Entity: dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp(customerCode)}},
			code: "ORG_REQUIRED",
		},
		{
			name: "missing actor",
			actx: domain.ActorContext{OrganizationID: s.f.actx.OrganizationID},
			req:  dto.EntityRequest{Entity: dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp(customerCode)}},
			code: "ACTOR_REQUIRED",
		},
		{
			name: "missing smart code",
			actx: s.f.actx,
			req:  dto.EntityRequest{Entity: dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp("")}},
			code: "SMART_CODE_REQUIRED",
		},
		{
			name: "lowercase version",
			actx: s.f.actx,
			req:  dto.EntityRequest{Entity: dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp("HERA.CRM.CUST.ENT.PROF.v1")}},
			code: "INVALID_LOWERCASE_VERSION",
		},
		{
			name: "missing name",
			actx: s.f.actx,
			req:  dto.EntityRequest{Entity: dto.EntityPayload{EntityType: strp("CUSTOMER"), SmartCode: strp(customerCode)}},
			code: "REQUIRED_FIELD",
		},
		{
			name: "id supplied on create",
			actx: s.f.actx,
			req:  dto.EntityRequest{Entity: dto.EntityPayload{EntityID: strp(uuid.NewString()), EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp(customerCode)}},
			code: "ID_NOT_ALLOWED",
		},
		{
			name: "field type mismatch",
			actx: s.f.actx,
			req: dto.EntityRequest{
				Entity:  dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp(customerCode)},
				Dynamic: map[string]dto.DynamicFieldInput{"credit_limit": {FieldType: "number", Value: jsonString("5000"), SmartCode: fieldCode}},
			},
			code: "FIELD_TYPE_MISMATCH",
		},
		{
			name: "metadata not an object",
			actx: s.f.actx,
			req:  dto.EntityRequest{Entity: dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp(customerCode), Metadata: json.RawMessage(`[1]`)}},
			code: "INVALID_JSON",
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.f.entities.CreateEntity(s.ctx, tc.actx, tc.req)
			var valErr *apperrors.ValidationError
			s.Require().ErrorAs(err, &valErr)
			s.Equal(tc.code, valErr.Code)
		})
	}

	page, err := s.f.entities.ReadEntities(s.ctx, s.f.actx, dto.EntityRequest{})
	s.Require().NoError(err)
	s.Zero(page.Total, "rejected writes must not leave rows behind")
}

func (s *EntityServiceTestSuite) TestUpsertEntity_Idempotent() {
	id := uuid.NewString()
	req := dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(id), EntityType: strp("PRODUCT"), EntityName: strp("Shampoo"), SmartCode: strp("HERA.SALON.PROD.ENT.RETAIL.V1")},
		Dynamic: map[string]dto.DynamicFieldInput{
			"price": {FieldType: "number", Value: json.RawMessage(`12.50`), SmartCode: "HERA.SALON.PROD.DYN.PRICE.V1"},
		},
	}

	first, err := s.f.entities.UpsertEntity(s.ctx, s.f.actx, req)
	s.Require().NoError(err)
	second, err := s.f.entities.UpsertEntity(s.ctx, s.f.actx, req)
	s.Require().NoError(err)

	s.Equal(id, first.EntityID)
	s.Equal(first.EntityID, second.EntityID)
	s.Equal(first.CreatedAt, second.CreatedAt)

	read := s.readOne(id, dto.Options{IncludeDynamic: true})
	s.Len(read.DynamicFields, 1)
	s.Equal(first.DynamicFields["price"].Value, read.DynamicFields["price"].Value)

	_, err = s.f.entities.UpsertEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp("not-a-uuid"), EntityType: strp("PRODUCT"), EntityName: strp("x"), SmartCode: strp(customerCode)},
	})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *EntityServiceTestSuite) TestUpdateEntity() {
	ent := s.f.entity(s.T(), "CUSTOMER", "Jane", customerCode)

	updated, err := s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(ent.EntityID), EntityName: strp("Jane Smith"), Status: strp("archived")},
	})
	s.Require().NoError(err)
	s.Equal("Jane Smith", updated.EntityName)
	s.Equal("CUSTOMER", updated.EntityType)
	s.Equal(domain.EntityArchived, updated.Status)
	s.Equal(customerCode, updated.SmartCode)

	_, err = s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(uuid.NewString()), EntityName: strp("ghost")},
	})
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{Entity: dto.EntityPayload{EntityName: strp("x")}})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *EntityServiceTestSuite) TestDeleteEntity_BlockedByRelationship() {
	a := s.f.entity(s.T(), "CUSTOMER", "A", customerCode)
	b := s.f.entity(s.T(), "CUSTOMER", "B", customerCode)
	s.link(a.EntityID, b.EntityID, "REFERRED_BY", true)

	_, err := s.f.entities.DeleteEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity:  dto.EntityPayload{EntityID: strp(a.EntityID)},
		Options: dto.Options{HardDelete: true},
	})
	var refErr *apperrors.ReferentialIntegrityError
	s.Require().ErrorAs(err, &refErr)
	s.Equal(1, refErr.ReferenceCount)
	s.Equal(map[string]int{"relationships": 1}, refErr.Breakdown)

	res, err := s.f.entities.DeleteEntity(s.ctx, s.f.actx, dto.EntityRequest{Entity: dto.EntityPayload{EntityID: strp(a.EntityID)}})
	s.Require().NoError(err)
	s.Equal(string(domain.SoftDelete), res.Mode)
	s.Equal(string(domain.EntityDeleted), res.Status)

	page, err := s.f.entities.ReadEntities(s.ctx, s.f.actx, dto.EntityRequest{})
	s.Require().NoError(err)
	s.Equal(1, page.Total, "soft-deleted entities are hidden by default")

	_, err = s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{Entity: dto.EntityPayload{EntityID: strp(a.EntityID), Status: strp("active")}})
	s.Require().NoError(err)
	s.link(a.EntityID, b.EntityID, "REFERRED_BY", false)

	res, err = s.f.entities.DeleteEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity:  dto.EntityPayload{EntityID: strp(a.EntityID)},
		Options: dto.Options{HardDelete: true},
	})
	s.Require().NoError(err)
	s.Equal(string(domain.HardDelete), res.Mode)

	_, err = s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{Entity: dto.EntityPayload{EntityID: strp(a.EntityID), EntityName: strp("back")}})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *EntityServiceTestSuite) TestDeleteEntity_DynamicFieldsNeedCascade() {
	ent, err := s.f.entities.CreateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity:  dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("Jane"), SmartCode: strp(customerCode)},
		Dynamic: map[string]dto.DynamicFieldInput{"vip": {FieldType: "boolean", Value: json.RawMessage(`true`), SmartCode: fieldCode}},
	})
	s.Require().NoError(err)

	req := dto.EntityRequest{Entity: dto.EntityPayload{EntityID: strp(ent.EntityID)}, Options: dto.Options{HardDelete: true}}
	_, err = s.f.entities.DeleteEntity(s.ctx, s.f.actx, req)
	var refErr *apperrors.ReferentialIntegrityError
	s.Require().ErrorAs(err, &refErr)
	s.Equal(map[string]int{"dynamic_fields": 1}, refErr.Breakdown)

	req.Options.CascadeDynamic = true
	res, err := s.f.entities.DeleteEntity(s.ctx, s.f.actx, req)
	s.Require().NoError(err)
	s.Equal(1, res.DeletedDynamicFields)
}

func (s *EntityServiceTestSuite) TestParentCycleRejected() {
	root := s.f.entity(s.T(), "REGION", "Root", "HERA.ORG.UNIT.ENT.REGION.V1")
	child, err := s.f.entities.CreateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityType: strp("REGION"), EntityName: strp("Child"), SmartCode: strp("HERA.ORG.UNIT.ENT.REGION.V1"), ParentEntityID: strp(root.EntityID)},
	})
	s.Require().NoError(err)

	_, err = s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(root.EntityID), ParentEntityID: strp(child.EntityID)},
	})
	var guard *apperrors.GuardrailViolation
	s.Require().ErrorAs(err, &guard)
	s.Contains(guard.Rules(), "STRUCT_PARENT_CYCLE")

	_, err = s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(root.EntityID), ParentEntityID: strp(root.EntityID)},
	})
	s.ErrorIs(err, apperrors.ErrGuardrail)
}

func (s *EntityServiceTestSuite) TestRelationshipCardinalityAndReplace() {
	emp := s.f.entity(s.T(), "EMPLOYEE", "Emp", "HERA.HR.STAFF.ENT.EMPLOYEE.V1")
	m1 := s.f.entity(s.T(), "EMPLOYEE", "Manager 1", "HERA.HR.STAFF.ENT.EMPLOYEE.V1")
	m2 := s.f.entity(s.T(), "EMPLOYEE", "Manager 2", "HERA.HR.STAFF.ENT.EMPLOYEE.V1")
	s.link(emp.EntityID, m1.EntityID, "REPORTS_TO", true)

	_, err := s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(emp.EntityID)},
		Relationships: map[string][]dto.RelationshipInput{
			"reports_to": {{ToEntityID: m2.EntityID, SmartCode: edgeCode}},
		},
	})
	var guard *apperrors.GuardrailViolation
	s.Require().ErrorAs(err, &guard)
	s.Equal("CARDINALITY_EXCEEDED", guard.Violations[0].Code)

	_, err = s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(emp.EntityID)},
		Relationships: map[string][]dto.RelationshipInput{
			"REPORTS_TO": {{ToEntityID: m2.EntityID, SmartCode: edgeCode}},
		},
		Options: dto.Options{RelationshipsMode: "replace"},
	})
	s.Require().NoError(err)

	read := s.readOne(emp.EntityID, dto.Options{IncludeRelationships: true})
	s.Require().Len(read.Relationships, 1)
	s.Equal(m2.EntityID, read.Relationships[0].ToEntityID)
	s.True(read.Relationships[0].IsActive)

	all := s.readOne(emp.EntityID, dto.Options{IncludeRelationships: true, IncludeDeleted: true})
	s.Len(all.Relationships, 2)
}

func (s *EntityServiceTestSuite) TestRelationshipCycleRejected() {
	a := s.f.entity(s.T(), "ACCOUNT", "A", "HERA.FIN.GL.ENT.ACCOUNT.V1")
	b := s.f.entity(s.T(), "ACCOUNT", "B", "HERA.FIN.GL.ENT.ACCOUNT.V1")
	s.link(a.EntityID, b.EntityID, "ROLLS_UP_TO", true)

	_, err := s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(b.EntityID)},
		Relationships: map[string][]dto.RelationshipInput{
			"ROLLS_UP_TO": {{ToEntityID: a.EntityID, SmartCode: edgeCode}},
		},
	})
	var guard *apperrors.GuardrailViolation
	s.Require().ErrorAs(err, &guard)
	s.Equal("RELATIONSHIP_CYCLE", guard.Violations[0].Code)
}

func (s *EntityServiceTestSuite) TestRelationshipEndpointsMustExist() {
	a := s.f.entity(s.T(), "CUSTOMER", "A", customerCode)
	_, err := s.f.entities.UpdateEntity(s.ctx, s.f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(a.EntityID)},
		Relationships: map[string][]dto.RelationshipInput{
			"REFERRED_BY": {{ToEntityID: uuid.NewString(), SmartCode: edgeCode}},
		},
	})
	var valErr *apperrors.ValidationError
	s.Require().ErrorAs(err, &valErr)
	s.Equal("UNKNOWN_ENTITY", valErr.Code)
}

func (s *EntityServiceTestSuite) TestReadEntities_Pagination() {
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		s.f.entity(s.T(), "CUSTOMER", name, customerCode)
	}
	s.f.entity(s.T(), "VENDOR", "v", "HERA.PROC.VEND.ENT.PROF.V1")

	page, err := s.f.entities.ReadEntities(s.ctx, s.f.actx, dto.EntityRequest{
		Entity:  dto.EntityPayload{EntityType: strp("customer")},
		Options: dto.Options{Limit: 2},
	})
	s.Require().NoError(err)
	s.Equal(5, page.Total)
	s.Len(page.Items, 2)
	s.Require().NotNil(page.NextOffset)
	s.Equal(2, *page.NextOffset)
	s.NotEmpty(page.NextToken)

	seen := map[string]bool{}
	for _, e := range page.Items {
		seen[e.EntityID] = true
	}
	for page.NextToken != "" {
		page, err = s.f.entities.ReadEntities(s.ctx, s.f.actx, dto.EntityRequest{
			Entity:  dto.EntityPayload{EntityType: strp("CUSTOMER")},
			Options: dto.Options{Limit: 2, NextToken: page.NextToken},
		})
		s.Require().NoError(err)
		for _, e := range page.Items {
			s.False(seen[e.EntityID], "pages must not overlap")
			seen[e.EntityID] = true
		}
	}
	s.Len(seen, 5)
	s.Nil(page.NextOffset)

	_, err = s.f.entities.ReadEntities(s.ctx, s.f.actx, dto.EntityRequest{Options: dto.Options{NextToken: "garbage"}})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *EntityServiceTestSuite) TestReadOnlyMemberCannotWrite() {
	_, err := s.f.orgs.AddMember(s.ctx, s.f.actx, dto.AddMemberRequest{UserID: "viewer", Role: domain.RoleReadOnly})
	s.Require().NoError(err)
	viewer := domain.ActorContext{OrganizationID: s.f.actx.OrganizationID, ActorUserID: "viewer"}

	_, err = s.f.entities.CreateEntity(s.ctx, viewer, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityType: strp("CUSTOMER"), EntityName: strp("x"), SmartCode: strp(customerCode)},
	})
	s.ErrorIs(err, apperrors.ErrForbidden)

	_, err = s.f.entities.ReadEntities(s.ctx, viewer, dto.EntityRequest{})
	s.NoError(err)
}

func TestEntityService_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.tenant(t, "GLOBEX", "user-b")

	mine := f.entity(t, "CUSTOMER", "Mine", customerCode)
	theirs := f.entityIn(t, other, "CUSTOMER", "Theirs", customerCode)

	page, err := f.entities.ReadEntities(ctx, other, dto.EntityRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, theirs.EntityID, page.Items[0].EntityID)

	_, err = f.entities.UpdateEntity(ctx, other, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(mine.EntityID), EntityName: strp("stolen")},
	})
	var crossErr *apperrors.CrossTenantError
	require.ErrorAs(t, err, &crossErr)
	assert.Equal(t, mine.EntityID, crossErr.ID)

	_, err = f.entities.UpdateEntity(ctx, f.actx, dto.EntityRequest{
		Entity: dto.EntityPayload{EntityID: strp(mine.EntityID)},
		Relationships: map[string][]dto.RelationshipInput{
			"REFERRED_BY": {{ToEntityID: theirs.EntityID, SmartCode: edgeCode}},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrCrossTenant)

	// user-a is not a member of GLOBEX.
	_, err = f.entities.ReadEntities(ctx, domain.ActorContext{OrganizationID: other.OrganizationID, ActorUserID: ownerID}, dto.EntityRequest{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
