package repositories

import "context"

// Repositories is the set of stores reachable inside one atomic scope.
type Repositories interface {
	Organizations() OrganizationRepositoryFacade
	Entities() EntityRepositoryFacade
	DynamicFields() DynamicFieldRepositoryFacade
	Relationships() RelationshipRepositoryFacade
	Transactions() TransactionRepositoryFacade
}

// UnitOfWork runs callbacks against the stores.
//
// WithinTx commits every write made through repos when fn returns nil and
// discards all of them otherwise. ReadOnly gives no atomicity guarantee beyond
// read committed, and its repos may be used from several goroutines at once.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	ReadOnly(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
