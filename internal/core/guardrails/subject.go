package guardrails

import (
	"time"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/core/smartcode"
)

// EntitySubject is an entity write with its structural context preloaded.
type EntitySubject struct {
	Entity       domain.Entity
	Organization domain.Organization
	// Fields is the merged dynamic field set the entity will have after the write.
	Fields map[string]domain.DynamicField
	// ParentChain lists ancestor ids starting at the proposed parent, walking up.
	// The walk stops at a root, at a repeated id, or once it exceeds the depth limit.
	ParentChain []string
	// NewEdges are the relationships this write creates or refreshes.
	NewEdges []domain.Relationship
	// ExistingEdges are the active edges of the submitted types already in the
	// organization, minus those this write replaces or deactivates.
	ExistingEdges []domain.Relationship
	// Cardinality overrides supplied by the caller.
	Cardinality map[string]domain.Cardinality
}

func (s *EntitySubject) Kind() SubjectKind { return EntityKind }
func (s *EntitySubject) TypeKey() string   { return s.Entity.EntityType }

// TransactionSubject is a transaction write with its facts preloaded.
type TransactionSubject struct {
	Transaction  domain.Transaction
	Code         smartcode.Code
	Organization domain.Organization
	// CodeTaken is set when transaction_code already exists in the organization.
	CodeTaken bool
	// Periods are the organization's fiscal periods.
	Periods []domain.FiscalPeriod
	// Branches maps every referenced branch id that resolved inside the organization.
	Branches map[string]domain.Entity
	// Date is the effective date for the period check; zero means the transaction date.
	Date time.Time
}

func (s *TransactionSubject) Kind() SubjectKind { return TransactionKind }
func (s *TransactionSubject) TypeKey() string   { return s.Transaction.TransactionType }

// Posting reports whether the write leaves the transaction posted.
func (s *TransactionSubject) Posting() bool {
	return s.Transaction.Status == domain.TxnPosted
}

func (s *TransactionSubject) effectiveDate() time.Time {
	if !s.Date.IsZero() {
		return s.Date
	}
	return s.Transaction.TransactionDate
}

// lineCurrency falls back to the header currency.
func (s *TransactionSubject) lineCurrency(l domain.TransactionLine) string {
	if l.Currency != "" {
		return l.Currency
	}
	return s.Transaction.Currency
}

// BranchReferences returns the branch ids named by the header and by lines,
// in order of appearance and without duplicates.
func BranchReferences(t domain.Transaction, lineKey string) []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if t.BranchEntityID != nil {
		add(*t.BranchEntityID)
	}
	for _, l := range t.Lines {
		if id, ok := l.DataString(lineKey); ok {
			add(id)
		}
	}
	return ids
}

func asEntity(s Subject) *EntitySubject {
	e, _ := s.(*EntitySubject)
	return e
}

func asTxn(s Subject) *TransactionSubject {
	t, _ := s.(*TransactionSubject)
	return t
}
