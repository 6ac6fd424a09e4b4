package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
)

// UnitOfWork opens one database transaction per WithinTx call and hands out
// repositories bound to it.
type UnitOfWork struct {
	BaseRepository
}

// NewUnitOfWork creates a UnitOfWork over pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.UnitOfWork = (*UnitOfWork)(nil)

// WithinTx commits when fn returns nil and rolls back otherwise.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	// Ignored once the transaction is committed.
	defer u.Rollback(ctx, tx) //nolint:errcheck

	if err := fn(ctx, &repos{db: tx}); err != nil {
		return err
	}
	return u.Commit(ctx, tx)
}

// ReadOnly runs fn against the pool; each statement sees read committed data.
func (u *UnitOfWork) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	return fn(ctx, &repos{db: u.Pool})
}

type repos struct {
	db querier
}

func (r *repos) Organizations() portsrepo.OrganizationRepositoryFacade {
	return &organizationRepository{db: r.db}
}
func (r *repos) Entities() portsrepo.EntityRepositoryFacade { return &entityRepository{db: r.db} }
func (r *repos) DynamicFields() portsrepo.DynamicFieldRepositoryFacade {
	return &dynamicFieldRepository{db: r.db}
}
func (r *repos) Relationships() portsrepo.RelationshipRepositoryFacade {
	return &relationshipRepository{db: r.db}
}
func (r *repos) Transactions() portsrepo.TransactionRepositoryFacade {
	return &transactionRepository{db: r.db}
}
