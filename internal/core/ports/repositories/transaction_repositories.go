package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/hera_engine/internal/core/domain"
)

// TransactionQuery filters transaction headers. OrganizationID is mandatory.
type TransactionQuery struct {
	OrganizationID  string
	TransactionID   string
	TransactionType string
	Statuses        []domain.TransactionStatus
	// EntityID matches source, target, branch or any line entity.
	EntityID string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// EntityReferenceCount breaks down how often an entity is named by transactions.
type EntityReferenceCount struct {
	Headers int
	Lines   int
}

// TransactionReader defines read operations for the ledger.
type TransactionReader interface {
	// FindByID returns the header without lines, or apperrors.ErrNotFound.
	FindByID(ctx context.Context, organizationID, transactionID string) (*domain.Transaction, error)
	FindByIDForUpdate(ctx context.Context, organizationID, transactionID string) (*domain.Transaction, error)
	// FindOwner returns the organization of transactionID across all tenants.
	FindOwner(ctx context.Context, transactionID string) (string, error)
	CodeExists(ctx context.Context, organizationID, code string) (bool, error)
	List(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error)
	Count(ctx context.Context, q TransactionQuery) (int, error)
	// FindLines groups lines by transaction id, ordered by line number.
	FindLines(ctx context.Context, organizationID string, transactionIDs []string) (map[string][]domain.TransactionLine, error)
	CountEntityReferences(ctx context.Context, organizationID, entityID string) (EntityReferenceCount, error)
	// CountReversals counts transactions whose reversal_of_id is transactionID.
	CountReversals(ctx context.Context, organizationID, transactionID string) (int, error)
}

// TransactionWriter defines write operations for the ledger. Lines only ever
// change together with their header.
type TransactionWriter interface {
	// Create writes the header and txn.Lines. A code collision yields
	// *apperrors.DuplicateTransactionError.
	Create(ctx context.Context, txn domain.Transaction) error
	// UpdateHeader rewrites status, totals, reversal links, metadata and audit columns.
	UpdateHeader(ctx context.Context, txn domain.Transaction) error
	ReplaceLines(ctx context.Context, organizationID, transactionID string, lines []domain.TransactionLine) error
	// Delete removes the header and its lines.
	Delete(ctx context.Context, organizationID, transactionID string) error
}

// TransactionRepositoryFacade combines ledger reads and writes.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
