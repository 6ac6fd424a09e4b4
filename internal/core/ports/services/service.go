package services

// ServiceContainer holds instances of all the application services.
// Handlers and the RPC gateway reach the engine only through it.
type ServiceContainer struct {
	Entity       EntitySvcFacade
	Transaction  TransactionSvcFacade
	Organization OrganizationSvcFacade
}
