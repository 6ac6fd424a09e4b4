package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
)

type transactionRepo struct{ *repos }

func (r *transactionRepo) FindByID(_ context.Context, organizationID, transactionID string) (*domain.Transaction, error) {
	t, ok := r.st.transactions[transactionID]
	if !ok || t.OrganizationID != organizationID {
		return nil, notFound("transaction", transactionID)
	}
	return &t, nil
}

func (r *transactionRepo) FindByIDForUpdate(ctx context.Context, organizationID, transactionID string) (*domain.Transaction, error) {
	return r.FindByID(ctx, organizationID, transactionID)
}

func (r *transactionRepo) FindOwner(_ context.Context, transactionID string) (string, error) {
	t, ok := r.st.transactions[transactionID]
	if !ok {
		return "", notFound("transaction", transactionID)
	}
	return t.OrganizationID, nil
}

func (r *transactionRepo) CodeExists(_ context.Context, organizationID, code string) (bool, error) {
	for _, t := range r.st.transactions {
		if t.OrganizationID == organizationID && t.TransactionCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *transactionRepo) references(t domain.Transaction, entityID string) bool {
	if slices.Contains(t.EntityIDs(), entityID) {
		return true
	}
	for _, l := range r.st.lines[t.TransactionID] {
		if l.EntityID != nil && *l.EntityID == entityID {
			return true
		}
	}
	return false
}

func (r *transactionRepo) matching(q portsrepo.TransactionQuery) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range r.st.transactions {
		switch {
		case t.OrganizationID != q.OrganizationID,
			q.TransactionID != "" && t.TransactionID != q.TransactionID,
			q.TransactionType != "" && !strings.EqualFold(t.TransactionType, q.TransactionType),
			len(q.Statuses) > 0 && !slices.Contains(q.Statuses, t.Status),
			q.DateFrom != nil && t.TransactionDate.Before(*q.DateFrom),
			q.DateTo != nil && t.TransactionDate.After(*q.DateTo),
			q.EntityID != "" && !r.references(t, q.EntityID):
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if c := b.TransactionDate.Compare(a.TransactionDate); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.TransactionID, b.TransactionID)
	})
	return out
}

func (r *transactionRepo) List(_ context.Context, q portsrepo.TransactionQuery) ([]domain.Transaction, error) {
	all := r.matching(q)
	from, to := window(len(all), q.Limit, q.Offset)
	return all[from:to], nil
}

func (r *transactionRepo) Count(_ context.Context, q portsrepo.TransactionQuery) (int, error) {
	return len(r.matching(q)), nil
}

func (r *transactionRepo) FindLines(_ context.Context, organizationID string, transactionIDs []string) (map[string][]domain.TransactionLine, error) {
	out := make(map[string][]domain.TransactionLine, len(transactionIDs))
	for _, id := range transactionIDs {
		if t, ok := r.st.transactions[id]; ok && t.OrganizationID == organizationID {
			out[id] = slices.Clone(r.st.lines[id])
		}
	}
	return out, nil
}

func (r *transactionRepo) CountEntityReferences(_ context.Context, organizationID, entityID string) (portsrepo.EntityReferenceCount, error) {
	var c portsrepo.EntityReferenceCount
	for id, t := range r.st.transactions {
		if t.OrganizationID != organizationID {
			continue
		}
		if slices.Contains(t.EntityIDs(), entityID) {
			c.Headers++
		}
		for _, l := range r.st.lines[id] {
			if l.EntityID != nil && *l.EntityID == entityID {
				c.Lines++
			}
		}
	}
	return c, nil
}

func (r *transactionRepo) CountReversals(_ context.Context, organizationID, transactionID string) (int, error) {
	n := 0
	for _, t := range r.st.transactions {
		if t.OrganizationID == organizationID && t.ReversalOfID != nil && *t.ReversalOfID == transactionID {
			n++
		}
	}
	return n, nil
}

func (r *transactionRepo) Create(ctx context.Context, txn domain.Transaction) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, ok := r.st.transactions[txn.TransactionID]; ok {
		return apperrors.NewConflictError("transaction " + txn.TransactionID + " already exists")
	}
	if taken, _ := r.CodeExists(ctx, txn.OrganizationID, txn.TransactionCode); taken {
		return &apperrors.DuplicateTransactionError{TransactionCode: txn.TransactionCode}
	}
	r.st.lines[txn.TransactionID] = slices.Clone(txn.Lines)
	r.st.transactions[txn.TransactionID] = stripTransaction(txn)
	return nil
}

func (r *transactionRepo) UpdateHeader(_ context.Context, txn domain.Transaction) error {
	if err := r.writable(); err != nil {
		return err
	}
	existing, ok := r.st.transactions[txn.TransactionID]
	if !ok || existing.OrganizationID != txn.OrganizationID {
		return notFound("transaction", txn.TransactionID)
	}
	existing.Status = txn.Status
	existing.TotalAmount = txn.TotalAmount
	existing.ReversalOfID = txn.ReversalOfID
	existing.ReversedByID = txn.ReversedByID
	existing.Metadata = slices.Clone(txn.Metadata)
	existing.LastUpdatedAt = txn.LastUpdatedAt
	existing.LastUpdatedBy = txn.LastUpdatedBy
	r.st.transactions[txn.TransactionID] = existing
	return nil
}

func (r *transactionRepo) ReplaceLines(_ context.Context, organizationID, transactionID string, lines []domain.TransactionLine) error {
	if err := r.writable(); err != nil {
		return err
	}
	t, ok := r.st.transactions[transactionID]
	if !ok || t.OrganizationID != organizationID {
		return notFound("transaction", transactionID)
	}
	r.st.lines[transactionID] = slices.Clone(lines)
	return nil
}

func (r *transactionRepo) Delete(_ context.Context, organizationID, transactionID string) error {
	if err := r.writable(); err != nil {
		return err
	}
	t, ok := r.st.transactions[transactionID]
	if !ok || t.OrganizationID != organizationID {
		return notFound("transaction", transactionID)
	}
	delete(r.st.transactions, transactionID)
	delete(r.st.lines, transactionID)
	return nil
}

func stripTransaction(t domain.Transaction) domain.Transaction {
	t.Lines = nil
	t.DynamicFields = nil
	t.Metadata = slices.Clone(t.Metadata)
	return t
}
