package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/hera_engine/internal/adapters/database/memory"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/core/services"
	"github.com/SscSPs/hera_engine/internal/core/smartcode"
	"github.com/SscSPs/hera_engine/internal/dto"
	"github.com/SscSPs/hera_engine/internal/gateway"
	"github.com/SscSPs/hera_engine/internal/handlers"
	"github.com/SscSPs/hera_engine/internal/metrics"
	"github.com/SscSPs/hera_engine/internal/middleware"
	"github.com/SscSPs/hera_engine/pkg/config"
)

const (
	testSecret = "test-secret-key-that-is-long-enough"
	testIssuer = "hera-test"
	ownerID    = "owner-1"
)

// envelope mirrors dto.Envelope with Data left raw.
type envelope struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error"`
	ErrorDetail string          `json:"error_detail"`
	ErrorHint   string          `json:"error_hint"`
}

func newEngine(t *testing.T, cfg *config.Config, deps handlers.Dependencies) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, handlers.RegisterRoutes(r, cfg, deps))
	return r
}

func jwtConfig() *config.Config {
	return &config.Config{
		AuthMode:     config.AuthModeJWT,
		JWTSecret:    testSecret,
		JWTIssuer:    testIssuer,
		IsProduction: true,
	}
}

// --- Suite over the in-memory engine ---

type HandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	recorder *metrics.Recorder
	orgID    string
}

func (s *HandlerTestSuite) SetupTest() {
	container := services.NewServiceContainer(&config.Config{}, memory.NewStore(),
		guardrails.NewRegistry(guardrails.DefaultPolicy()))
	s.recorder = metrics.NewRecorder("hera_test")
	s.router = newEngine(s.T(), jwtConfig(), handlers.Dependencies{
		Services:   container,
		Dispatcher: gateway.NewDispatcher(container, gateway.WithObserver(s.recorder)),
		Metrics:    s.recorder,
	})

	w := s.do(http.MethodPost, "/api/v1/organizations", ownerID, map[string]any{
		"organization_name": "Acme Ltd",
		"organization_code": "ACME",
		"currency":          "USD",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var org domain.Organization
	s.decodeData(w, &org)
	s.orgID = org.OrganizationID
}

func (s *HandlerTestSuite) token(subject string) string {
	tok, err := middleware.IssueToken(testSecret, testIssuer, subject, time.Hour)
	s.Require().NoError(err)
	return tok
}

func (s *HandlerTestSuite) do(method, url, subject string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(subject))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (s *HandlerTestSuite) decodeData(w *httptest.ResponseRecorder, out any) {
	env := s.decode(w)
	s.Require().True(env.Success, w.Body.String())
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

func (s *HandlerTestSuite) customer(name, smartCode string) map[string]any {
	return map[string]any{
		"action":          dto.ActionCreate,
		"organization_id": s.orgID,
		"entity": map[string]any{
			"entity_type": "customer",
			"entity_name": name,
			"smart_code":  smartCode,
		},
	}
}

func (s *HandlerTestSuite) TestRejectsMissingToken() {
	w := s.do(http.MethodPost, "/api/v1/rpc/entities", "", s.customer("Globex", "HERA.CRM.CUST.ENT.PROF.V1"))
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestCreateThenReadEntity() {
	w := s.do(http.MethodPost, "/api/v1/entities", ownerID, s.customer("Globex", "HERA.CRM.CUST.ENT.PROF.V1"))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var created domain.Entity
	s.decodeData(w, &created)
	s.Equal("CUSTOMER", created.EntityType)
	s.Equal(ownerID, created.CreatedBy)

	w = s.do(http.MethodPost, "/api/v1/rpc/entity", ownerID, map[string]any{
		"action":          "read",
		"organization_id": s.orgID,
		"entity":          map[string]any{"entity_id": created.EntityID},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var page dto.EntityPage
	s.decodeData(w, &page)
	s.Require().Len(page.Items, 1)
	s.Equal("Globex", page.Items[0].EntityName)
}

func (s *HandlerTestSuite) TestActorMismatchIsForbidden() {
	body := s.customer("Globex", "HERA.CRM.CUST.ENT.PROF.V1")
	body["actor_user_id"] = "someone-else"

	w := s.do(http.MethodPost, "/api/v1/entities", ownerID, body)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", s.decode(w).Error)
}

func (s *HandlerTestSuite) TestNonMemberIsForbidden() {
	w := s.do(http.MethodPost, "/api/v1/entities", "outsider", s.customer("Globex", "HERA.CRM.CUST.ENT.PROF.V1"))
	s.Equal(http.StatusForbidden, w.Code)
	s.False(s.decode(w).Success)
}

func (s *HandlerTestSuite) TestMalformedSmartCodeFailsBinding() {
	w := s.do(http.MethodPost, "/api/v1/entities", ownerID, s.customer("Globex", "not-a-code"))
	s.Equal(http.StatusBadRequest, w.Code)
	env := s.decode(w)
	s.Equal("VALIDATION_ERROR", env.Error)
	s.Contains(env.ErrorDetail, "smartcode")
}

func (s *HandlerTestSuite) TestLowercaseVersionReachesTheGuard() {
	// Shape-valid after normalization, so binding passes and the strict
	// policy of the orchestrator rejects it.
	w := s.do(http.MethodPost, "/api/v1/entities", ownerID, s.customer("Globex", "HERA.CRM.CUST.ENT.PROF.v1"))
	s.Equal(http.StatusBadRequest, w.Code)
	env := s.decode(w)
	s.Contains(env.ErrorDetail, "INVALID_LOWERCASE_VERSION")
	s.Contains(env.ErrorHint, "HERA.CRM.CUST.ENT.PROF.V1")
}

func (s *HandlerTestSuite) TestUnbalancedJournal() {
	w := s.do(http.MethodPost, "/api/v1/transactions", ownerID, map[string]any{
		"action":          dto.ActionCreate,
		"organization_id": s.orgID,
		"transaction": map[string]any{
			"transaction_type": "journal_entry",
			"smart_code":       "HERA.FIN.GL.TXN.JOURNAL.V1",
		},
		"lines": []map[string]any{
			{"debit": "100", "smart_code": "HERA.FIN.GL.TXN.LINE.V1"},
			{"credit": "90", "smart_code": "HERA.FIN.GL.TXN.LINE.V1"},
		},
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code, w.Body.String())
	s.Equal("UNBALANCED_TRANSACTION", s.decode(w).Error)
}

func (s *HandlerTestSuite) TestUnknownOperation() {
	w := s.do(http.MethodPost, "/api/v1/rpc/invoices", ownerID, map[string]any{
		"action": "READ", "organization_id": s.orgID,
	})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", s.decode(w).Error)
}

func (s *HandlerTestSuite) TestMembership() {
	w := s.do(http.MethodPost, "/api/v1/organizations/"+s.orgID+"/members", ownerID, map[string]any{
		"user_id": "clerk-1", "role": "READONLY",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/organizations/"+s.orgID, "clerk-1", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// READONLY members may read but not write.
	w = s.do(http.MethodPost, "/api/v1/entities", "clerk-1", s.customer("Globex", "HERA.CRM.CUST.ENT.PROF.V1"))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/organizations/"+s.orgID+"/members", ownerID, map[string]any{
		"user_id": "clerk-2", "role": "SUPERUSER",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestDuplicateOrganizationCode() {
	w := s.do(http.MethodPost, "/api/v1/organizations", "another-owner", map[string]any{
		"organization_name": "Acme Again",
		"organization_code": "acme",
		"currency":          "USD",
	})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlerTestSuite) TestSmartCodeCheck() {
	w := s.do(http.MethodGet, "/api/v1/smart-codes/HERA.CRM.CUST.ENT.PROF.V1", ownerID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var check smartcode.Report
	s.decodeData(w, &check)
	s.True(check.Valid)
	s.Equal("CRM", check.Module)
	s.Equal(1, check.Version)

	w = s.do(http.MethodGet, "/api/v1/smart-codes/HERA.CRM.CUST.ENT.PROF.v1", ownerID, nil)
	s.decodeData(w, &check)
	s.False(check.Valid)
	s.Equal("INVALID_LOWERCASE_VERSION", check.Kind)
	s.Equal("HERA.CRM.CUST.ENT.PROF.V1", check.Suggestion)
}

func (s *HandlerTestSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)

	s.do(http.MethodPost, "/api/v1/entities", ownerID, s.customer("Globex", "HERA.CRM.CUST.ENT.PROF.V1"))

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := w.Body.String()
	s.Contains(body, "hera_test_http_requests_total")
	s.Contains(body, `hera_test_rpc_calls_total{action="CREATE",code="OK",operation="entities"} 1`)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// --- Standalone tests ---

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

// MockOrganizationService stubs the organization facade.
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) Authorize(ctx context.Context, actx domain.ActorContext, write bool) (*domain.Organization, error) {
	args := m.Called(ctx, actx, write)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationService) CreateOrganization(ctx context.Context, req dto.CreateOrganizationRequest) (*domain.Organization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationService) GetOrganization(ctx context.Context, actx domain.ActorContext) (*domain.Organization, error) {
	args := m.Called(ctx, actx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationService) AddMember(ctx context.Context, actx domain.ActorContext, req dto.AddMemberRequest) (*domain.OrganizationMember, error) {
	args := m.Called(ctx, actx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrganizationMember), args.Error(1)
}

var _ portssvc.OrganizationSvcFacade = (*MockOrganizationService)(nil)

func TestHealth_DatabaseDown(t *testing.T) {
	container := &portssvc.ServiceContainer{Organization: new(MockOrganizationService)}
	r := newEngine(t, jwtConfig(), handlers.Dependencies{
		Services:   container,
		Dispatcher: gateway.NewDispatcher(container),
		DB:         failingPinger{},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPIKeyMode_OrganizationLookup(t *testing.T) {
	hash, err := middleware.HashAPIKey("s3cret")
	require.NoError(t, err)

	orgs := new(MockOrganizationService)
	container := &portssvc.ServiceContainer{Organization: orgs}
	cfg := &config.Config{
		AuthMode:     config.AuthModeAPIKey,
		APIKeyHashes: "svc-batch=" + hash,
		IsProduction: true,
	}
	r := newEngine(t, cfg, handlers.Dependencies{Services: container, Dispatcher: gateway.NewDispatcher(container)})

	want := domain.ActorContext{OrganizationID: "org-9", ActorUserID: "svc-batch"}
	orgs.On("GetOrganization", mock.Anything, want).
		Return(&domain.Organization{OrganizationID: "org-9", Code: "NINE"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/organizations/org-9", nil)
	req.Header.Set(middleware.APIKeyHeader, "svc-batch:s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), `"organization_code":"NINE"`))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/organizations/org-9", nil)
	req.Header.Set(middleware.APIKeyHeader, "svc-batch:wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	orgs.AssertExpectations(t)
}

func TestRegisterRoutes_RejectsBadSettings(t *testing.T) {
	container := &portssvc.ServiceContainer{Organization: new(MockOrganizationService)}
	deps := handlers.Dependencies{Services: container, Dispatcher: gateway.NewDispatcher(container)}

	cfg := jwtConfig()
	cfg.RateLimit = "lots"
	assert.Error(t, handlers.RegisterRoutes(gin.New(), cfg, deps))

	cfg = &config.Config{AuthMode: config.AuthModeAPIKey, APIKeyHashes: "svc=not-a-hash"}
	assert.Error(t, handlers.RegisterRoutes(gin.New(), cfg, deps))
}
