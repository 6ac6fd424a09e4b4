package services

import (
	"time"

	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/core/smartcode"
	"github.com/SscSPs/hera_engine/pkg/config"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// serviceConfig collects the optional settings shared by the orchestrators.
type serviceConfig struct {
	validator    smartcode.Validator
	defaultLimit int
	maxLimit     int
	now          func() time.Time
	authorizer   portssvc.OrganizationAuthorizerSvc
}

// ServiceOption is a functional option for the orchestrator constructors.
type ServiceOption func(*serviceConfig)

// WithSmartCodeValidator sets the smart code normalization policy.
func WithSmartCodeValidator(v smartcode.Validator) ServiceOption {
	return func(c *serviceConfig) { c.validator = v }
}

// WithPageLimits sets the READ default and maximum page sizes.
func WithPageLimits(defaultLimit, maxLimit int) ServiceOption {
	return func(c *serviceConfig) {
		if defaultLimit > 0 {
			c.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			c.maxLimit = maxLimit
		}
	}
}

// WithClock replaces time.Now for audit stamps and reversal dates.
func WithClock(now func() time.Time) ServiceOption {
	return func(c *serviceConfig) { c.now = now }
}

// WithOrganizationAuthorizer sets the organization guard.
func WithOrganizationAuthorizer(a portssvc.OrganizationAuthorizerSvc) ServiceOption {
	return func(c *serviceConfig) { c.authorizer = a }
}

func newServiceConfig(opts []ServiceOption) serviceConfig {
	cfg := serviceConfig{
		defaultLimit: defaultPageLimit,
		maxLimit:     maxPageLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, uow portsrepo.UnitOfWork, registry *guardrails.Registry, opts ...ServiceOption) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The organization service doubles as the guard for the orchestrators.
	container.Organization = NewOrganizationService(uow, opts...)

	shared := []ServiceOption{
		WithSmartCodeValidator(smartcode.Validator{AutoNormalize: cfg.SmartCodeAutoNormalize}),
		WithPageLimits(cfg.DefaultPageLimit, cfg.MaxPageLimit),
		WithOrganizationAuthorizer(container.Organization),
	}
	shared = append(shared, opts...)

	container.Entity = NewEntityService(uow, registry, shared...)
	container.Transaction = NewTransactionService(uow, registry, shared...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.EntitySvcFacade       = (*entityService)(nil)
	_ portssvc.TransactionSvcFacade  = (*transactionService)(nil)
	_ portssvc.OrganizationSvcFacade = (*organizationService)(nil)
)
