package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/hera_engine/internal/adapters/database/memory"
	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/core/services"
	"github.com/SscSPs/hera_engine/internal/dto"
	"github.com/SscSPs/hera_engine/internal/gateway"
	"github.com/SscSPs/hera_engine/pkg/config"
)

// --- Mocks ---

type MockEntityService struct {
	mock.Mock
}

func (m *MockEntityService) ReadEntities(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*dto.EntityPage, error) {
	args := m.Called(ctx, actx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EntityPage), args.Error(1)
}

func (m *MockEntityService) CreateEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error) {
	return m.entity(m.Called(ctx, actx, req))
}

func (m *MockEntityService) UpdateEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error) {
	return m.entity(m.Called(ctx, actx, req))
}

func (m *MockEntityService) UpsertEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error) {
	return m.entity(m.Called(ctx, actx, req))
}

func (m *MockEntityService) DeleteEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*dto.DeleteResult, error) {
	args := m.Called(ctx, actx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DeleteResult), args.Error(1)
}

func (m *MockEntityService) entity(args mock.Arguments) (*domain.Entity, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) ReadTransactions(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*dto.TransactionPage, error) {
	args := m.Called(ctx, actx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TransactionPage), args.Error(1)
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actx, req))
}

func (m *MockTransactionService) UpdateTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actx, req))
}

func (m *MockTransactionService) DeleteTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*dto.DeleteResult, error) {
	args := m.Called(ctx, actx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DeleteResult), args.Error(1)
}

func (m *MockTransactionService) txn(args mock.Arguments) (*domain.Transaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

var (
	_ portssvc.EntitySvcFacade      = (*MockEntityService)(nil)
	_ portssvc.TransactionSvcFacade = (*MockTransactionService)(nil)
)

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveRPC(operation, action, code string, _ time.Duration) {
	o.calls = append(o.calls, operation+"/"+action+"/"+code)
}

var actor = domain.ActorContext{OrganizationID: "org-1", ActorUserID: "user-1"}

func rpc(action string) dto.RPCRequest {
	return dto.RPCRequest{Action: action, OrganizationID: actor.OrganizationID, ActorUserID: actor.ActorUserID}
}

// --- Routing ---

func TestDispatcher_RoutesAndAliases(t *testing.T) {
	ents := new(MockEntityService)
	txns := new(MockTransactionService)
	obs := &recordingObserver{}
	d := gateway.NewDispatcher(&portssvc.ServiceContainer{Entity: ents, Transaction: txns},
		gateway.WithObserver(obs), gateway.WithAlias("ledger", gateway.OperationTransactions))

	assert.Equal(t, []string{gateway.OperationEntities, gateway.OperationTransactions}, d.Operations())

	created := &domain.Entity{EntityID: "e-1", EntityName: "Acme"}
	ents.On("CreateEntity", mock.Anything, actor, mock.MatchedBy(func(r dto.EntityRequest) bool {
		return r.Entity.EntityName != nil && *r.Entity.EntityName == "Acme"
	})).Return(created, nil).Once()

	name := "Acme"
	req := rpc(" create ")
	req.Entity = &dto.EntityPayload{EntityName: &name}
	env, status := d.Invoke(context.Background(), "Entity", req)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Same(t, created, env.Data)

	page := &dto.TransactionPage{Total: 0}
	txns.On("ReadTransactions", mock.Anything, actor, mock.Anything).Return(page, nil).Once()
	env = d.Dispatch(context.Background(), "ledger", rpc("READ"))
	assert.True(t, env.Success)
	assert.Same(t, page, env.Data)

	assert.Equal(t, []string{"entities/CREATE/OK", "transactions/READ/OK"}, obs.calls)
	ents.AssertExpectations(t)
	txns.AssertExpectations(t)
}

func TestDispatcher_TopLevelLinesReachTransactionPayload(t *testing.T) {
	txns := new(MockTransactionService)
	d := gateway.NewDispatcher(&portssvc.ServiceContainer{Entity: new(MockEntityService), Transaction: txns})

	amount := decimal.NewFromInt(10)
	req := rpc("CREATE")
	req.Transaction = &dto.TransactionPayload{}
	req.Lines = []dto.TransactionLineInput{{Debit: &amount}, {Credit: &amount}}

	txns.On("CreateTransaction", mock.Anything, actor, mock.MatchedBy(func(r dto.TransactionRequest) bool {
		return len(r.Transaction.Lines) == 2
	})).Return(&domain.Transaction{TransactionID: "t-1"}, nil).Once()

	env, status := d.Invoke(context.Background(), "txn", req)
	require.Equal(t, http.StatusOK, status, env.ErrorDetail)
	txns.AssertExpectations(t)
}

func TestDispatcher_Rejections(t *testing.T) {
	d := gateway.NewDispatcher(&portssvc.ServiceContainer{Entity: new(MockEntityService), Transaction: new(MockTransactionService)})

	noActor := rpc("READ")
	noActor.ActorUserID = ""

	tests := []struct {
		name       string
		operation  string
		req        dto.RPCRequest
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"unknown operation", "invoices", rpc("READ"), http.StatusNotFound, "NOT_FOUND", "invoices"},
		{"missing action", "entities", rpc(""), http.StatusBadRequest, "VALIDATION_ERROR", "ACTION_REQUIRED"},
		{"unknown action", "entities", rpc("MERGE"), http.StatusBadRequest, "VALIDATION_ERROR", "INVALID_ACTION"},
		{"transaction upsert", "transactions", rpc("UPSERT"), http.StatusBadRequest, "VALIDATION_ERROR", "UNSUPPORTED_ACTION"},
		{"missing actor", "entities", noActor, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, status := d.Invoke(context.Background(), tt.operation, tt.req)
			assert.False(t, env.Success)
			assert.Nil(t, env.Data)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, env.Error)
			assert.Contains(t, env.ErrorDetail, tt.wantDetail)
		})
	}
}

func TestDispatcher_ServiceErrorsBecomeEnvelopes(t *testing.T) {
	ents := new(MockEntityService)
	obs := &recordingObserver{}
	d := gateway.NewDispatcher(&portssvc.ServiceContainer{Entity: ents, Transaction: new(MockTransactionService)},
		gateway.WithObserver(obs))

	ents.On("DeleteEntity", mock.Anything, actor, mock.Anything).
		Return(nil, &apperrors.ReferentialIntegrityError{EntityID: "e-1", ReferenceCount: 3}).Once()
	ents.On("UpdateEntity", mock.Anything, actor, mock.Anything).
		Return(nil, assert.AnError).Once()

	env, status := d.Invoke(context.Background(), gateway.OperationEntities, rpc("DELETE"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "REFERENTIAL_INTEGRITY", env.Error)
	assert.NotEmpty(t, env.ErrorHint)

	env, status = d.Invoke(context.Background(), gateway.OperationEntities, rpc("UPDATE"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", env.Error)
	assert.NotContains(t, env.ErrorDetail, assert.AnError.Error())

	assert.Equal(t, []string{"entities/DELETE/REFERENTIAL_INTEGRITY", "entities/UPDATE/INTERNAL_ERROR"}, obs.calls)
}

// --- End to end over the in-memory store ---

func TestDispatcher_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	container := services.NewServiceContainer(&config.Config{}, store, guardrails.NewRegistry(guardrails.DefaultPolicy()))
	d := gateway.NewDispatcher(container)

	org, err := container.Organization.CreateOrganization(ctx, dto.CreateOrganizationRequest{
		Name: "Acme Ltd", Code: "ACME", Currency: "USD", OwnerUserID: "owner",
	})
	require.NoError(t, err)

	base := dto.RPCRequest{OrganizationID: org.OrganizationID, ActorUserID: "owner"}

	// An entity with a typed attribute, read back hydrated.
	create := base
	create.Action = dto.ActionCreate
	create.Entity = &dto.EntityPayload{
		EntityType: ptr("customer"),
		EntityName: ptr("Globex"),
		SmartCode:  ptr("HERA.CRM.CUST.ENT.PROF.V1"),
	}
	create.Dynamic = map[string]dto.DynamicFieldInput{
		"credit_limit": {FieldType: "number", Value: json.RawMessage(`5000`), SmartCode: "HERA.CRM.CUST.DYN.CREDIT.V1"},
	}
	env, status := d.Invoke(ctx, "entities", create)
	require.Equal(t, http.StatusOK, status, env.ErrorDetail)
	customer := env.Data.(*domain.Entity)
	assert.Equal(t, "CUSTOMER", customer.EntityType)

	read := base
	read.Action = dto.ActionRead
	read.Entity = &dto.EntityPayload{EntityID: &customer.EntityID}
	read.Options.IncludeDynamic = true
	env, status = d.Invoke(ctx, "entities", read)
	require.Equal(t, http.StatusOK, status, env.ErrorDetail)
	page := env.Data.(*dto.EntityPage)
	require.Len(t, page.Items, 1)
	require.Contains(t, page.Items[0].DynamicFields, "credit_limit")

	// A bad smart code is refused before anything is written.
	bad := create
	bad.Entity = &dto.EntityPayload{EntityType: ptr("customer"), EntityName: ptr("Initech"), SmartCode: ptr("hera.crm.cust")}
	bad.Dynamic = nil
	env, status = d.Invoke(ctx, "entities", bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)

	// Balanced journal posts; an unbalanced one is refused.
	journal := func(debit, credit string) dto.RPCRequest {
		r := base
		r.Action = dto.ActionCreate
		r.Transaction = &dto.TransactionPayload{
			TransactionType: ptr("journal_entry"),
			SmartCode:       ptr("HERA.FIN.GL.TXN.JOURNAL.V1"),
		}
		r.Lines = []dto.TransactionLineInput{
			{Debit: dec(debit), SmartCode: "HERA.FIN.GL.TXN.LINE.V1"},
			{Credit: dec(credit), SmartCode: "HERA.FIN.GL.TXN.LINE.V1"},
		}
		return r
	}
	env, status = d.Invoke(ctx, "transactions", journal("100", "100"))
	require.Equal(t, http.StatusOK, status, env.ErrorDetail)
	posted := env.Data.(*domain.Transaction)
	assert.Equal(t, domain.TxnPosted, posted.Status)

	env, status = d.Invoke(ctx, "transactions", journal("100", "90"))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "UNBALANCED_TRANSACTION", env.Error)

	// Another tenant's actor cannot read this organization.
	stranger := read
	stranger.ActorUserID = "stranger"
	env, status = d.Invoke(ctx, "entities", stranger)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusForbidden, status)
}

func ptr(s string) *string { return &s }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
