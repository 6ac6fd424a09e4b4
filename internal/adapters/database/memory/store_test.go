package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/hera_engine/internal/adapters/database/memory"
	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
)

func entity(id, org string) domain.Entity {
	return domain.Entity{EntityID: id, OrganizationID: org, EntityType: "CUSTOMER", EntityName: id,
		SmartCode: "HERA.CRM.CUST.ENT.PROF.V1", Status: domain.EntityActive}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		require.NoError(t, repos.Entities().Create(ctx, entity("e-1", "org-a")))
		require.NoError(t, repos.DynamicFields().Upsert(ctx, domain.DynamicField{
			OrganizationID: "org-a", EntityID: "e-1", FieldName: "email", Value: domain.TextValue{V: "a@b.c"},
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_ = store.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		_, err := repos.Entities().FindByID(ctx, "org-a", "e-1")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		n, _ := repos.DynamicFields().CountByEntityID(ctx, "org-a", "e-1")
		assert.Zero(t, n)
		return nil
	})
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	store := memory.NewStore()
	err := store.ReadOnly(context.Background(), func(ctx context.Context, repos portsrepo.Repositories) error {
		return repos.Entities().Create(ctx, entity("e-1", "org-a"))
	})
	assert.Error(t, err)
}

func TestEntities_TenantIsolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		if err := repos.Entities().Create(ctx, entity("a-1", "org-a")); err != nil {
			return err
		}
		return repos.Entities().Create(ctx, entity("b-1", "org-b"))
	}))

	_ = store.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		list, err := repos.Entities().List(ctx, portsrepo.EntityQuery{OrganizationID: "org-b", EntityIDs: []string{"a-1"}, EntityType: "CUSTOMER"})
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = repos.Entities().FindByID(ctx, "org-b", "a-1")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		owners, err := repos.Entities().FindOwners(ctx, []string{"a-1", "b-1", "zzz"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a-1": "org-a", "b-1": "org-b"}, owners)
		return nil
	})
}

func TestRelationships_UpsertByNaturalKey(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	var first domain.Relationship
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		first, err = repos.Relationships().Upsert(ctx, domain.Relationship{
			RelationshipID: "r-1", OrganizationID: "org-a", FromEntityID: "x", ToEntityID: "y",
			RelationshipType: "CUSTOMER_OF", EffectiveDate: now.Add(-time.Hour), IsActive: true,
		})
		return err
	}))

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		again, err := repos.Relationships().Upsert(ctx, domain.Relationship{
			RelationshipID: "r-2", OrganizationID: "org-a", FromEntityID: "x", ToEntityID: "y",
			RelationshipType: "customer_of", EffectiveDate: now.Add(-time.Hour), IsActive: true,
		})
		require.NoError(t, err)
		assert.Equal(t, first.RelationshipID, again.RelationshipID)

		n, err := repos.Relationships().CountActiveByEntityID(ctx, "org-a", "y")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, repos.Relationships().Deactivate(ctx, "org-a", []string{"r-1"}, "actor", now))
		n, _ = repos.Relationships().CountActiveByEntityID(ctx, "org-a", "y")
		assert.Zero(t, n)

		past := now.Add(-30 * time.Minute)
		edges, err := repos.Relationships().Query(ctx, portsrepo.RelationshipQuery{
			OrganizationID: "org-a", EntityID: "y", Side: domain.SideTo, ActiveOnly: true, AsOf: &past,
		})
		require.NoError(t, err)
		assert.Empty(t, edges, "a deactivated edge is inactive at every instant")
		return nil
	}))
}

func TestTransactions_DuplicateCode(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	txn := domain.Transaction{
		TransactionID: "t-1", OrganizationID: "org-a", TransactionType: "SALE", TransactionCode: "S-1",
		TransactionDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Status: domain.TxnPosted,
		Lines: []domain.TransactionLine{{LineID: "l-1", TransactionID: "t-1", LineNumber: 1, LineAmount: decimal.NewFromInt(5)}},
	}
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		return repos.Transactions().Create(ctx, txn)
	}))

	txn.TransactionID = "t-2"
	err := store.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		return repos.Transactions().Create(ctx, txn)
	})
	var dup *apperrors.DuplicateTransactionError
	require.ErrorAs(t, err, &dup)

	txn.OrganizationID = "org-b"
	assert.NoError(t, store.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		return repos.Transactions().Create(ctx, txn)
	}), "codes are unique per organization only")

	_ = store.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		lines, err := repos.Transactions().FindLines(ctx, "org-a", []string{"t-1", "t-2"})
		require.NoError(t, err)
		assert.Len(t, lines["t-1"], 1)
		_, leaked := lines["t-2"]
		assert.False(t, leaked)
		return nil
	})
}

func TestWithinTx_HonoursCancelledContext(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := store.WithinTx(ctx, func(context.Context, portsrepo.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
