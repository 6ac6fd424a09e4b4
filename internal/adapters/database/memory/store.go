// Package memory is an in-process implementation of the repository ports. It
// keeps the same atomicity contract as the Postgres adapter: writes made inside
// WithinTx land on a private copy that replaces the live state only when the
// callback returns nil.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
)

var errReadOnly = apperrors.NewAppError(500, "write attempted in a read-only scope", nil)

type fieldKey struct {
	org, owner, name string
}

type state struct {
	orgs          map[string]domain.Organization
	members       map[string]map[string]domain.OrganizationMember
	entities      map[string]domain.Entity
	fields        map[fieldKey]domain.DynamicField
	relationships map[string]domain.Relationship
	transactions  map[string]domain.Transaction
	lines         map[string][]domain.TransactionLine
}

func newState() *state {
	return &state{
		orgs:          map[string]domain.Organization{},
		members:       map[string]map[string]domain.OrganizationMember{},
		entities:      map[string]domain.Entity{},
		fields:        map[fieldKey]domain.DynamicField{},
		relationships: map[string]domain.Relationship{},
		transactions:  map[string]domain.Transaction{},
		lines:         map[string][]domain.TransactionLine{},
	}
}

// clone copies every map. Stored values are replaced, never mutated in place,
// so a shallow copy of each value is enough.
func (s *state) clone() *state {
	c := &state{
		orgs:          maps.Clone(s.orgs),
		members:       make(map[string]map[string]domain.OrganizationMember, len(s.members)),
		entities:      maps.Clone(s.entities),
		fields:        maps.Clone(s.fields),
		relationships: maps.Clone(s.relationships),
		transactions:  maps.Clone(s.transactions),
		lines:         maps.Clone(s.lines),
	}
	for org, m := range s.members {
		c.members[org] = maps.Clone(m)
	}
	return c
}

// Store is the in-memory UnitOfWork.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

var _ portsrepo.UnitOfWork = (*Store)(nil)

// WithinTx serializes writers and commits the working copy when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &repos{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// ReadOnly runs fn against the committed state under a shared lock.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &repos{st: s.st, readOnly: true})
}

type repos struct {
	st       *state
	readOnly bool
}

func (r *repos) Organizations() portsrepo.OrganizationRepositoryFacade { return &organizationRepo{r} }
func (r *repos) Entities() portsrepo.EntityRepositoryFacade             { return &entityRepo{r} }
func (r *repos) DynamicFields() portsrepo.DynamicFieldRepositoryFacade   { return &dynamicFieldRepo{r} }
func (r *repos) Relationships() portsrepo.RelationshipRepositoryFacade   { return &relationshipRepo{r} }
func (r *repos) Transactions() portsrepo.TransactionRepositoryFacade     { return &transactionRepo{r} }

func (r *repos) writable() error {
	if r.readOnly {
		return errReadOnly
	}
	return nil
}

func notFound(what, id string) error {
	return apperrors.NewNotFoundError(what + " " + id + " not found")
}

// window applies offset/limit to n items; limit <= 0 means no limit.
func window(n, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}
