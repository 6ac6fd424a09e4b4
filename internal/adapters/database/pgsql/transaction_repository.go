package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	"github.com/SscSPs/hera_engine/internal/models"
	"github.com/SscSPs/hera_engine/internal/utils/mapping"
)

const transactionColumns = `transaction_id, organization_id, transaction_type, transaction_code,
	transaction_date, source_entity_id, target_entity_id, branch_entity_id, total_amount, currency,
	status, smart_code, reversal_of_id, reversed_by_id, metadata,
	created_at, created_by, updated_at, updated_by`

const lineColumns = `line_id, transaction_id, organization_id, line_number, line_type, entity_id,
	quantity, unit_amount, line_amount, side, currency, line_data, smart_code,
	created_at, created_by, updated_at, updated_by`

type transactionRepository struct {
	db querier
}

var _ portsrepo.TransactionRepositoryFacade = (*transactionRepository)(nil)

func (r *transactionRepository) findOne(ctx context.Context, organizationID, transactionID, suffix string) (*domain.Transaction, error) {
	rows, _ := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM universal_transactions
		WHERE organization_id = $1 AND transaction_id = $2`+suffix, organizationID, transactionID)
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Transaction])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("transaction", transactionID)
	}
	if err != nil {
		return nil, mapError(err, "failed to query transaction "+transactionID)
	}
	t := mapping.ToDomainTransaction(m)
	return &t, nil
}

func (r *transactionRepository) FindByID(ctx context.Context, organizationID, transactionID string) (*domain.Transaction, error) {
	return r.findOne(ctx, organizationID, transactionID, "")
}

func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, organizationID, transactionID string) (*domain.Transaction, error) {
	return r.findOne(ctx, organizationID, transactionID, " FOR UPDATE")
}

func (r *transactionRepository) FindOwner(ctx context.Context, transactionID string) (string, error) {
	var org string
	err := r.db.QueryRow(ctx, `SELECT organization_id FROM universal_transactions WHERE transaction_id = $1`, transactionID).Scan(&org)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", notFound("transaction", transactionID)
	}
	if err != nil {
		return "", mapError(err, "failed to query owner of transaction "+transactionID)
	}
	return org, nil
}

func (r *transactionRepository) CodeExists(ctx context.Context, organizationID, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM universal_transactions
		WHERE organization_id = $1 AND transaction_code = $2)`, organizationID, code).Scan(&exists)
	if err != nil {
		return false, mapError(err, "failed to check transaction code "+code)
	}
	return exists, nil
}

func transactionFilter(q portsrepo.TransactionQuery) *filter {
	f := &filter{}
	f.add("t.organization_id = $%d", q.OrganizationID)
	if q.TransactionID != "" {
		f.add("t.transaction_id = $%d", q.TransactionID)
	}
	if q.TransactionType != "" {
		f.add("upper(t.transaction_type) = upper($%d)", q.TransactionType)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		f.add("t.status = ANY($%d)", statuses)
	}
	if q.DateFrom != nil {
		f.add("t.transaction_date >= $%d", *q.DateFrom)
	}
	if q.DateTo != nil {
		f.add("t.transaction_date <= $%d", *q.DateTo)
	}
	if q.EntityID != "" {
		f.add(`($%[1]d IN (t.source_entity_id, t.target_entity_id, t.branch_entity_id)
			OR EXISTS (SELECT 1 FROM universal_transaction_lines l
				WHERE l.transaction_id = t.transaction_id AND l.entity_id = $%[1]d))`, q.EntityID)
	}
	return f
}

func (r *transactionRepository) List(ctx context.Context, q portsrepo.TransactionQuery) ([]domain.Transaction, error) {
	f := transactionFilter(q)
	sql := `SELECT ` + transactionColumns + ` FROM universal_transactions t` + f.where() +
		` ORDER BY t.transaction_date DESC, t.created_at DESC, t.transaction_id` + f.page(q.Limit, q.Offset)
	rows, _ := r.db.Query(ctx, sql, f.args...)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, mapError(err, "failed to list transactions")
	}
	out := make([]domain.Transaction, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapping.ToDomainTransaction(m))
	}
	return out, nil
}

func (r *transactionRepository) Count(ctx context.Context, q portsrepo.TransactionQuery) (int, error) {
	f := transactionFilter(q)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM universal_transactions t`+f.where(), f.args...).Scan(&n); err != nil {
		return 0, mapError(err, "failed to count transactions")
	}
	return n, nil
}

func (r *transactionRepository) FindLines(ctx context.Context, organizationID string, transactionIDs []string) (map[string][]domain.TransactionLine, error) {
	out := make(map[string][]domain.TransactionLine, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return out, nil
	}
	rows, _ := r.db.Query(ctx, `SELECT `+lineColumns+` FROM universal_transaction_lines
		WHERE organization_id = $1 AND transaction_id = ANY($2)
		ORDER BY transaction_id, line_number`, organizationID, transactionIDs)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.TransactionLine])
	if err != nil {
		return nil, mapError(err, "failed to query transaction lines")
	}
	for _, m := range ms {
		out[m.TransactionID] = append(out[m.TransactionID], mapping.ToDomainTransactionLine(m))
	}
	return out, nil
}

func (r *transactionRepository) CountEntityReferences(ctx context.Context, organizationID, entityID string) (portsrepo.EntityReferenceCount, error) {
	var c portsrepo.EntityReferenceCount
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM universal_transactions
				WHERE organization_id = $1 AND $2 IN (source_entity_id, target_entity_id, branch_entity_id)),
			(SELECT count(*) FROM universal_transaction_lines
				WHERE organization_id = $1 AND entity_id = $2)`,
		organizationID, entityID).Scan(&c.Headers, &c.Lines)
	if err != nil {
		return c, mapError(err, "failed to count transaction references to "+entityID)
	}
	return c, nil
}

func (r *transactionRepository) CountReversals(ctx context.Context, organizationID, transactionID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM universal_transactions
		WHERE organization_id = $1 AND reversal_of_id = $2`, organizationID, transactionID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "failed to count reversals of "+transactionID)
	}
	return n, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn domain.Transaction) error {
	m := mapping.ToModelTransaction(txn)
	_, err := r.db.Exec(ctx, `
		INSERT INTO universal_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		m.TransactionID, m.OrganizationID, m.TransactionType, m.TransactionCode,
		m.TransactionDate, m.SourceEntityID, m.TargetEntityID, m.BranchEntityID, m.TotalAmount, m.Currency,
		m.Status, m.SmartCode, m.ReversalOfID, m.ReversedByID, m.Metadata,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if pgErr := pgErrorOf(err); pgErr != nil && pgErr.ConstraintName == constraintTransactionCode {
		return &apperrors.DuplicateTransactionError{TransactionCode: txn.TransactionCode}
	}
	if err != nil {
		return mapError(err, "failed to insert transaction "+txn.TransactionID)
	}
	return r.insertLines(ctx, txn.Lines)
}

// insertLines queues every line in one batch and reports the first failure.
func (r *transactionRepository) insertLines(ctx context.Context, lines []domain.TransactionLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `INSERT INTO universal_transaction_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	for _, l := range lines {
		m := mapping.ToModelTransactionLine(l)
		batch.Queue(query,
			m.LineID, m.TransactionID, m.OrganizationID, m.LineNumber, m.LineType, m.EntityID,
			m.Quantity, m.UnitAmount, m.LineAmount, m.Side, m.Currency, m.LineData, m.SmartCode,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	br := r.db.SendBatch(ctx, batch)
	for _, l := range lines {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return mapError(err, "failed to insert transaction line "+l.LineID)
		}
	}
	return mapError(br.Close(), "failed to close line batch")
}

func (r *transactionRepository) UpdateHeader(ctx context.Context, txn domain.Transaction) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE universal_transactions SET
			status = $3, total_amount = $4, reversal_of_id = $5, reversed_by_id = $6,
			metadata = $7, updated_at = $8, updated_by = $9
		WHERE organization_id = $1 AND transaction_id = $2`,
		txn.OrganizationID, txn.TransactionID, string(txn.Status), txn.TotalAmount,
		txn.ReversalOfID, txn.ReversedByID, []byte(txn.Metadata), txn.LastUpdatedAt, txn.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "failed to update transaction "+txn.TransactionID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("transaction", txn.TransactionID)
	}
	return nil
}

func (r *transactionRepository) ReplaceLines(ctx context.Context, organizationID, transactionID string, lines []domain.TransactionLine) error {
	if _, err := r.findOne(ctx, organizationID, transactionID, ""); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM universal_transaction_lines
		WHERE organization_id = $1 AND transaction_id = $2`, organizationID, transactionID)
	if err != nil {
		return mapError(err, "failed to delete lines of "+transactionID)
	}
	return r.insertLines(ctx, lines)
}

func (r *transactionRepository) Delete(ctx context.Context, organizationID, transactionID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM universal_transaction_lines
		WHERE organization_id = $1 AND transaction_id = $2`, organizationID, transactionID)
	if err != nil {
		return mapError(err, "failed to delete lines of "+transactionID)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM universal_transactions
		WHERE organization_id = $1 AND transaction_id = $2`, organizationID, transactionID)
	if err != nil {
		return mapError(err, "failed to delete transaction "+transactionID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("transaction", transactionID)
	}
	return nil
}
