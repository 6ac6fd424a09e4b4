package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/core/smartcode"
	"github.com/SscSPs/hera_engine/internal/dto"
)

const maxReversalCodeAttempts = 20

type transactionService struct {
	orchestrator
}

// NewTransactionService creates the transaction orchestrator.
func NewTransactionService(uow portsrepo.UnitOfWork, registry *guardrails.Registry, opts ...ServiceOption) portssvc.TransactionSvcFacade {
	return &transactionService{orchestrator: newOrchestrator(uow, registry, opts)}
}

// CreateTransaction runs the gates in order: organization, smart codes, header,
// lines, balance, branch, fiscal period, actor stamping, then the atomic write.
func (s *transactionService) CreateTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*domain.Transaction, error) {
	org, err := s.Authorize(ctx, actx, true)
	if err != nil {
		return nil, err
	}

	p := req.Transaction
	if deref(p.TransactionID) != "" {
		return nil, apperrors.NewValidationError("transaction.transaction_id", "ID_NOT_ALLOWED", "transaction_id is assigned on CREATE")
	}
	code, err := s.smartCode(ctx, "transaction.smart_code", deref(p.SmartCode))
	if err != nil {
		return nil, err
	}
	lines, err := s.normalizeLines(ctx, p.Lines)
	if err != nil {
		return nil, err
	}
	fields, err := s.parseDynamic(ctx, req.Dynamic)
	if err != nil {
		return nil, err
	}
	edges, err := s.parseRelationships(ctx, req.Relationships)
	if err != nil {
		return nil, err
	}
	txn, err := s.header(p, *org, code)
	if err != nil {
		return nil, err
	}
	bindLines(&txn, lines)
	if p.TotalAmount != nil {
		txn.TotalAmount = *p.TotalAmount
	} else {
		txn.TotalAmount = guardrails.DebitTotal(txn.Lines)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		subject, err := s.facts(ctx, repos, actx, *org, txn, code, time.Time{})
		if err != nil {
			return err
		}
		if err := s.registry.Evaluate(subject); err != nil {
			return err
		}

		now := s.cfg.now()
		txn.Stamp(actx.ActorUserID, now)
		for i := range txn.Lines {
			txn.Lines[i].Stamp(actx.ActorUserID, now)
		}
		if err := repos.Transactions().Create(ctx, txn); err != nil {
			return fmt.Errorf("failed to write transaction: %w", err)
		}
		written, err := s.attach(ctx, repos, actx, txn, fields, edges, now)
		if err != nil {
			return err
		}
		txn.DynamicFields = written
		return nil
	})
	if err != nil {
		s.logWriteFailure(ctx, err, "transaction", dto.ActionCreate, txn.TransactionCode)
		return nil, err
	}

	s.LogInfo(ctx, "Transaction created",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("transaction_code", txn.TransactionCode),
		slog.String("transaction_type", txn.TransactionType),
		slog.String("status", string(txn.Status)),
		slog.String("total_amount", txn.TotalAmount.String()),
		slog.String("organization_id", actx.OrganizationID),
		slog.String("actor_user_id", actx.ActorUserID))
	return &txn, nil
}

// header builds a new transaction header from the payload. Missing required
// fields are left empty for the header guard to report.
func (s *transactionService) header(p dto.TransactionPayload, org domain.Organization, code smartcode.Code) (domain.Transaction, error) {
	txn := domain.Transaction{
		TransactionID:   uuid.NewString(),
		OrganizationID:  org.OrganizationID,
		TransactionType: domain.NormalizeTransactionType(deref(p.TransactionType)),
		TransactionCode: deref(p.TransactionCode),
		Currency:        domain.NormalizeCurrency(deref(p.Currency)),
		Status:          domain.TxnPosted,
		SmartCode:       code.String(),
	}
	if t := p.TransactionDate.TimePtr(); t != nil {
		txn.TransactionDate = *t
	}
	if txn.Currency == "" {
		txn.Currency = org.Currency
	}
	if p.Status != nil {
		st, err := domain.ParseTransactionStatus(*p.Status)
		if err != nil {
			return domain.Transaction{}, prefixField(err, "transaction")
		}
		switch st {
		case domain.TxnDraft, domain.TxnPending, domain.TxnPosted:
			txn.Status = st
		default:
			return domain.Transaction{}, apperrors.NewValidationError("transaction.status", "INVALID_STATUS",
				fmt.Sprintf("a transaction cannot be created as %s", st)).
				WithHint("create as draft, pending or posted")
		}
	}
	for _, ref := range []struct {
		dst **string
		src *string
	}{{&txn.SourceEntityID, p.SourceEntityID}, {&txn.TargetEntityID, p.TargetEntityID}, {&txn.BranchEntityID, p.BranchEntityID}} {
		if id := deref(ref.src); id != "" {
			*ref.dst = &id
		}
	}
	metadata, err := jsonObject("transaction.metadata", p.Metadata)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn.Metadata = metadata

	if txn.TransactionCode == "" && txn.TransactionType != "" && !txn.TransactionDate.IsZero() {
		txn.TransactionCode = generateCode(txn.TransactionType, txn.TransactionDate)
	}
	return txn, nil
}

// generateCode returns <TYPE>-<yyyymmdd>-<8 hex>.
func generateCode(txnType string, date time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", txnType, date.UTC().Format("20060102"), strings.ToUpper(suffix))
}

// facts loads everything the guardrails need for txn. at overrides the date
// used by the period guard.
func (s *transactionService) facts(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, org domain.Organization, txn domain.Transaction, code smartcode.Code, at time.Time) (*guardrails.TransactionSubject, error) {
	subject := &guardrails.TransactionSubject{Transaction: txn, Code: code, Organization: org, Date: at}

	if txn.TransactionCode != "" {
		taken, err := repos.Transactions().CodeExists(ctx, actx.OrganizationID, txn.TransactionCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check transaction code: %w", err)
		}
		subject.CodeTaken = taken
	}

	refs := []string{deref(txn.SourceEntityID), deref(txn.TargetEntityID)}
	for _, l := range txn.Lines {
		refs = append(refs, deref(l.EntityID))
	}
	if _, err := s.requireEntities(ctx, repos, actx, "entity reference", refs); err != nil {
		return nil, err
	}

	branches, _, err := s.resolveEntities(ctx, repos, actx, "branch",
		guardrails.BranchReferences(txn, s.policy().BranchLineDataKey))
	if err != nil {
		return nil, err
	}
	subject.Branches = branches

	if subject.Periods, err = s.periods(ctx, repos, actx.OrganizationID); err != nil {
		return nil, err
	}
	return subject, nil
}

// periods reads the organization's fiscal periods from their entities.
func (s *transactionService) periods(ctx context.Context, repos portsrepo.Repositories, organizationID string) ([]domain.FiscalPeriod, error) {
	entities, err := repos.Entities().List(ctx, portsrepo.EntityQuery{
		OrganizationID: organizationID,
		EntityType:     domain.NormalizeEntityType(s.policy().FiscalPeriodEntityType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load fiscal periods: %w", err)
	}
	if len(entities) == 0 {
		return nil, nil
	}
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.EntityID
	}
	fields, err := repos.DynamicFields().FindByEntityIDs(ctx, organizationID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load fiscal period fields: %w", err)
	}
	periods := make([]domain.FiscalPeriod, 0, len(entities))
	for _, e := range entities {
		if p, ok := domain.FiscalPeriodFromEntity(e, fields[e.EntityID]); ok {
			periods = append(periods, p)
		} else {
			s.LogDebug(ctx, "Skipping incomplete fiscal period", slog.String("entity_id", e.EntityID))
		}
	}
	return periods, nil
}

// attach writes the dynamic data and relationships submitted with a transaction.
// Dynamic fields are owned by the transaction id. Relationship endpoints default
// to the source and target entities.
func (s *transactionService) attach(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, txn domain.Transaction, pending []pendingField, pendingEdges []pendingEdge, now time.Time) (map[string]domain.DynamicField, error) {
	fields := bindFields(pending, actx.OrganizationID, txn.TransactionID, actx.ActorUserID, now)
	if err := s.writeFields(ctx, repos, fields); err != nil {
		return nil, err
	}
	if len(pendingEdges) > 0 {
		edges, err := bindTransactionEdges(pendingEdges, actx.OrganizationID, deref(txn.SourceEntityID), deref(txn.TargetEntityID), actx.ActorUserID, now)
		if err != nil {
			return nil, err
		}
		var endpoints []string
		for _, r := range edges {
			endpoints = append(endpoints, r.FromEntityID, r.ToEntityID)
		}
		if _, err := s.requireEntities(ctx, repos, actx, "relationship endpoint", endpoints); err != nil {
			return nil, err
		}
		plan, err := s.planEdges(ctx, repos, actx.OrganizationID, "", edges, false)
		if err != nil {
			return nil, err
		}
		if _, err := s.applyEdges(ctx, repos, actx.OrganizationID, actx.ActorUserID, now, plan); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	out := make(map[string]domain.DynamicField, len(fields))
	for _, f := range fields {
		out[f.FieldName] = f
	}
	return out, nil
}

func bindTransactionEdges(pending []pendingEdge, organizationID, source, target, actorID string, now time.Time) ([]domain.Relationship, error) {
	out := make([]domain.Relationship, 0, len(pending))
	for _, p := range pending {
		in := p
		if strings.TrimSpace(in.in.FromEntityID) == "" {
			in.in.FromEntityID = source
		}
		if strings.TrimSpace(in.in.ToEntityID) == "" {
			in.in.ToEntityID = target
		}
		if in.in.FromEntityID == "" || in.in.ToEntityID == "" {
			return nil, apperrors.NewValidationError("relationships."+p.relType, "ENDPOINT_REQUIRED",
				"transaction relationships need both endpoints or a source and target entity on the header")
		}
		edges, err := bindEdges([]pendingEdge{in}, organizationID, in.in.FromEntityID, actorID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, edges...)
	}
	return out, nil
}

// locate loads transactionID for update, telling absent ids from foreign ones.
func (s *transactionService) locate(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, transactionID string) (*domain.Transaction, error) {
	txn, err := repos.Transactions().FindByIDForUpdate(ctx, actx.OrganizationID, transactionID)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	owner, err := repos.Transactions().FindOwner(ctx, transactionID)
	switch {
	case err == nil && owner != actx.OrganizationID:
		s.LogSecurityEvent(ctx, actx, "Cross-tenant transaction access rejected", slog.String("transaction_id", transactionID))
		return nil, &apperrors.CrossTenantError{Resource: "transaction", ID: transactionID}
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("failed to load transaction owner: %w", err)
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("transaction %s not found", transactionID))
}

func (s *transactionService) load(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, transactionID string) (domain.Transaction, error) {
	txn, err := s.locate(ctx, repos, actx, transactionID)
	if err != nil {
		return domain.Transaction{}, err
	}
	lines, err := repos.Transactions().FindLines(ctx, actx.OrganizationID, []string{transactionID})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to load transaction lines: %w", err)
	}
	txn.Lines = lines[transactionID]
	return *txn, nil
}

// UpdateTransaction applies a status transition and/or replaces the full line set.
func (s *transactionService) UpdateTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*domain.Transaction, error) {
	org, err := s.Authorize(ctx, actx, true)
	if err != nil {
		return nil, err
	}
	p := req.Transaction
	id := deref(p.TransactionID)
	if id == "" {
		return nil, apperrors.NewValidationError("transaction.transaction_id", "ID_REQUIRED", "transaction_id is required for UPDATE")
	}
	var target domain.TransactionStatus
	if p.Status != nil {
		if target, err = domain.ParseTransactionStatus(*p.Status); err != nil {
			return nil, prefixField(err, "transaction")
		}
	}
	var newLines []domain.TransactionLine
	if p.Lines != nil {
		if newLines, err = s.normalizeLines(ctx, p.Lines); err != nil {
			return nil, err
		}
	} else if p.TotalAmount != nil {
		return nil, apperrors.NewValidationError("transaction.total_amount", "IMMUTABLE_FIELD",
			"total_amount can only change together with a line replacement")
	}
	fields, err := s.parseDynamic(ctx, req.Dynamic)
	if err != nil {
		return nil, err
	}
	edges, err := s.parseRelationships(ctx, req.Relationships)
	if err != nil {
		return nil, err
	}
	reversalDate, err := s.reversalDate(req.Options)
	if err != nil {
		return nil, err
	}

	var result domain.Transaction
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		current, err := s.load(ctx, repos, actx, id)
		if err != nil {
			return err
		}
		if err := immutable(p, current); err != nil {
			return err
		}
		code, err := smartcode.Parse(current.SmartCode)
		if err != nil {
			return fmt.Errorf("stored smart code is invalid: %w", err)
		}

		next := current
		if target == "" {
			target = current.Status
		}
		if target != current.Status && !current.Status.CanTransitionTo(target) {
			return apperrors.NewAppError(409, fmt.Sprintf("cannot move transaction from %s to %s", current.Status, target), apperrors.ErrConflict)
		}
		now := s.cfg.now()

		if newLines != nil {
			if !current.Status.LinesEditable() {
				return apperrors.NewAppError(409, fmt.Sprintf("lines of a %s transaction cannot be replaced; reverse it instead", current.Status), apperrors.ErrConflict)
			}
			bindLines(&next, newLines)
			for i := range next.Lines {
				next.Lines[i].Stamp(actx.ActorUserID, now)
			}
			next.TotalAmount = guardrails.DebitTotal(next.Lines)
			if p.TotalAmount != nil {
				next.TotalAmount = *p.TotalAmount
			}
		}

		if target == domain.TxnReversed {
			rev, err := s.reverse(ctx, repos, actx, *org, current, code, reversalDate, now)
			if err != nil {
				return err
			}
			next.Status = domain.TxnReversed
			next.ReversedByID = &rev.TransactionID
		} else {
			next.Status = target
			if newLines != nil || (target == domain.TxnPosted && current.Status != domain.TxnPosted) {
				subject, err := s.facts(ctx, repos, actx, *org, next, code, time.Time{})
				if err != nil {
					return err
				}
				// The stored code is this transaction's own.
				subject.CodeTaken = false
				if err := s.registry.Evaluate(subject); err != nil {
					return err
				}
			}
		}

		next.Touch(actx.ActorUserID, now)
		if err := repos.Transactions().UpdateHeader(ctx, next); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		if newLines != nil {
			if err := repos.Transactions().ReplaceLines(ctx, actx.OrganizationID, id, next.Lines); err != nil {
				return fmt.Errorf("failed to replace lines: %w", err)
			}
		}
		written, err := s.attach(ctx, repos, actx, next, fields, edges, now)
		if err != nil {
			return err
		}
		next.DynamicFields = written
		result = next
		return nil
	})
	if err != nil {
		s.logWriteFailure(ctx, err, "transaction", dto.ActionUpdate, id)
		return nil, err
	}

	s.LogInfo(ctx, "Transaction updated",
		slog.String("transaction_id", id),
		slog.String("status", string(result.Status)),
		slog.Bool("lines_replaced", newLines != nil),
		slog.String("organization_id", actx.OrganizationID))
	return &result, nil
}

// immutable rejects header changes other than status, lines and total.
func immutable(p dto.TransactionPayload, current domain.Transaction) error {
	differs := func(field string, supplied *string, stored string, norm func(string) string) error {
		if supplied == nil {
			return nil
		}
		if norm(*supplied) != norm(stored) {
			return apperrors.NewValidationError("transaction."+field, "IMMUTABLE_FIELD",
				fmt.Sprintf("%s cannot change after creation", field)).
				WithHint("only status and lines may be updated; reverse and re-create to change the header")
		}
		return nil
	}
	trim := strings.TrimSpace
	checks := []error{
		differs("transaction_type", p.TransactionType, current.TransactionType, domain.NormalizeTransactionType),
		differs("transaction_code", p.TransactionCode, current.TransactionCode, trim),
		differs("currency", p.Currency, current.Currency, domain.NormalizeCurrency),
		differs("smart_code", p.SmartCode, current.SmartCode, smartcode.Normalize),
		differs("source_entity_id", p.SourceEntityID, deref(current.SourceEntityID), trim),
		differs("target_entity_id", p.TargetEntityID, deref(current.TargetEntityID), trim),
		differs("branch_entity_id", p.BranchEntityID, deref(current.BranchEntityID), trim),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if t := p.TransactionDate.TimePtr(); t != nil && !domain.NewDateValue(*t).V.Equal(domain.NewDateValue(current.TransactionDate).V) {
		return apperrors.NewValidationError("transaction.transaction_date", "IMMUTABLE_FIELD", "transaction_date cannot change after creation")
	}
	if p.Metadata != nil {
		m, err := jsonObject("transaction.metadata", p.Metadata)
		if err != nil {
			return err
		}
		if !bytes.Equal(m, current.Metadata) {
			return apperrors.NewValidationError("transaction.metadata", "IMMUTABLE_FIELD", "metadata cannot change after creation")
		}
	}
	return nil
}

func (s *transactionService) reversalDate(opts dto.Options) (time.Time, error) {
	if t := opts.ReversalDate.TimePtr(); t != nil {
		return *t, nil
	}
	return domain.NewDateValue(s.cfg.now()).V, nil
}

// reverse writes the sign-inverted copy of a posted transaction dated at and
// links both headers. The caller persists the original's new status.
func (s *transactionService) reverse(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, org domain.Organization, original domain.Transaction, code smartcode.Code, at, now time.Time) (domain.Transaction, error) {
	if original.Status != domain.TxnPosted {
		return domain.Transaction{}, apperrors.NewAppError(409, fmt.Sprintf("only posted transactions can be reversed, got %s", original.Status), apperrors.ErrConflict)
	}

	rev := domain.Transaction{
		TransactionID:   uuid.NewString(),
		OrganizationID:  original.OrganizationID,
		TransactionType: original.TransactionType,
		TransactionDate: at,
		SourceEntityID:  original.SourceEntityID,
		TargetEntityID:  original.TargetEntityID,
		BranchEntityID:  original.BranchEntityID,
		TotalAmount:     original.TotalAmount,
		Currency:        original.Currency,
		Status:          domain.TxnPosted,
		SmartCode:       original.SmartCode,
		ReversalOfID:    &original.TransactionID,
		Metadata:        original.Metadata,
	}
	revCode, err := s.reversalCode(ctx, repos, actx.OrganizationID, original.TransactionCode)
	if err != nil {
		return domain.Transaction{}, err
	}
	rev.TransactionCode = revCode
	bindLines(&rev, reversedLines(original.Lines))
	rev.TotalAmount = guardrails.DebitTotal(rev.Lines)

	subject, err := s.facts(ctx, repos, actx, org, rev, code, at)
	if err != nil {
		return domain.Transaction{}, err
	}
	if err := s.registry.Evaluate(subject); err != nil {
		return domain.Transaction{}, err
	}

	rev.Stamp(actx.ActorUserID, now)
	for i := range rev.Lines {
		rev.Lines[i].Stamp(actx.ActorUserID, now)
	}
	if err := repos.Transactions().Create(ctx, rev); err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to write reversal: %w", err)
	}
	s.LogInfo(ctx, "Transaction reversed",
		slog.String("transaction_id", original.TransactionID),
		slog.String("reversal_id", rev.TransactionID),
		slog.String("reversal_date", at.Format(domain.DateLayout)))
	return rev, nil
}

// reversalCode returns <code>-REV, or <code>-REV<n> when that is taken.
func (s *transactionService) reversalCode(ctx context.Context, repos portsrepo.Repositories, organizationID, code string) (string, error) {
	candidate := code + "-REV"
	for n := 2; n <= maxReversalCodeAttempts; n++ {
		taken, err := repos.Transactions().CodeExists(ctx, organizationID, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check reversal code: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-REV%d", code, n)
	}
	return "", &apperrors.DuplicateTransactionError{TransactionCode: candidate}
}

// DeleteTransaction voids or reverses by default; a hard delete removes a draft
// with nothing depending on it.
func (s *transactionService) DeleteTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*dto.DeleteResult, error) {
	org, err := s.Authorize(ctx, actx, true)
	if err != nil {
		return nil, err
	}
	id := deref(req.Transaction.TransactionID)
	if id == "" {
		return nil, apperrors.NewValidationError("transaction.transaction_id", "ID_REQUIRED", "transaction_id is required for DELETE")
	}
	reversalDate, err := s.reversalDate(req.Options)
	if err != nil {
		return nil, err
	}

	result := &dto.DeleteResult{ID: id, Mode: string(domain.SoftDelete)}
	if req.Options.HardDelete {
		result.Mode = string(domain.HardDelete)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		current, err := s.load(ctx, repos, actx, id)
		if err != nil {
			return err
		}
		if req.Options.HardDelete {
			return s.hardDelete(ctx, repos, actx, current, req.Options.CascadeDynamic, result)
		}

		now := s.cfg.now()
		switch current.Status {
		case domain.TxnVoided, domain.TxnReversed:
			result.Status = string(current.Status)
			return nil
		case domain.TxnPosted:
			code, err := smartcode.Parse(current.SmartCode)
			if err != nil {
				return fmt.Errorf("stored smart code is invalid: %w", err)
			}
			rev, err := s.reverse(ctx, repos, actx, *org, current, code, reversalDate, now)
			if err != nil {
				return err
			}
			current.Status = domain.TxnReversed
			current.ReversedByID = &rev.TransactionID
			result.ReversalTransactionID = rev.TransactionID
		default:
			current.Status = domain.TxnVoided
		}
		current.Touch(actx.ActorUserID, now)
		if err := repos.Transactions().UpdateHeader(ctx, current); err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		result.Status = string(current.Status)
		return nil
	})
	if err != nil {
		s.logWriteFailure(ctx, err, "transaction", dto.ActionDelete, id)
		return nil, err
	}

	s.LogInfo(ctx, "Transaction deleted",
		slog.String("transaction_id", id),
		slog.String("mode", result.Mode),
		slog.String("status", result.Status),
		slog.String("organization_id", actx.OrganizationID))
	return result, nil
}

func (s *transactionService) hardDelete(ctx context.Context, repos portsrepo.Repositories, actx domain.ActorContext, txn domain.Transaction, cascade bool, result *dto.DeleteResult) error {
	if txn.Status != domain.TxnDraft {
		return apperrors.NewAppError(409, fmt.Sprintf("only draft transactions can be hard-deleted, got %s", txn.Status), apperrors.ErrConflict)
	}
	breakdown := map[string]int{}
	reversals, err := repos.Transactions().CountReversals(ctx, actx.OrganizationID, txn.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to count reversals: %w", err)
	}
	if reversals > 0 {
		breakdown["reversals"] = reversals
	}
	if !cascade {
		n, err := repos.DynamicFields().CountByEntityID(ctx, actx.OrganizationID, txn.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to count dynamic fields: %w", err)
		}
		if n > 0 {
			breakdown["dynamic_fields"] = n
		}
	}
	total := 0
	for _, n := range breakdown {
		total += n
	}
	if total > 0 {
		return &apperrors.ReferentialIntegrityError{EntityID: txn.TransactionID, ReferenceCount: total, Breakdown: breakdown}
	}
	if cascade {
		n, err := repos.DynamicFields().DeleteByEntityID(ctx, actx.OrganizationID, txn.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to delete dynamic fields: %w", err)
		}
		result.DeletedDynamicFields = n
	}
	if err := repos.Transactions().Delete(ctx, actx.OrganizationID, txn.TransactionID); err != nil {
		return fmt.Errorf("failed to hard delete transaction: %w", err)
	}
	return nil
}

func (s *transactionService) ReadTransactions(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*dto.TransactionPage, error) {
	if _, err := s.Authorize(ctx, actx, false); err != nil {
		return nil, err
	}
	w, err := s.window(req.Options)
	if err != nil {
		return nil, err
	}

	p := req.Transaction
	q := portsrepo.TransactionQuery{
		OrganizationID:  actx.OrganizationID,
		TransactionID:   deref(p.TransactionID),
		TransactionType: domain.NormalizeTransactionType(deref(p.TransactionType)),
		EntityID:        strings.TrimSpace(req.Options.EntityID),
		DateFrom:        req.Options.DateFrom.TimePtr(),
		DateTo:          req.Options.DateTo.TimePtr(),
		Limit:           w.Limit,
		Offset:          w.Offset,
	}
	if p.Status != nil {
		st, err := domain.ParseTransactionStatus(*p.Status)
		if err != nil {
			return nil, prefixField(err, "transaction")
		}
		q.Statuses = []domain.TransactionStatus{st}
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateTo.Before(*q.DateFrom) {
		return nil, apperrors.NewValidationError("options.date_to", "INVALID_RANGE", "date_to must not be before date_from")
	}

	page := &dto.TransactionPage{Limit: w.Limit, Offset: w.Offset}
	err = s.uow.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		if page.Total, err = repos.Transactions().Count(ctx, q); err != nil {
			return fmt.Errorf("failed to count transactions: %w", err)
		}
		if page.Items, err = repos.Transactions().List(ctx, q); err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		return s.hydrate(ctx, repos, actx.OrganizationID, page.Items, req.Options)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to read transactions", slog.String("organization_id", actx.OrganizationID))
		return nil, err
	}
	if page.Items == nil {
		page.Items = []domain.Transaction{}
	}
	page.NextOffset, page.NextToken = w.Next(len(page.Items), page.Total)
	return page, nil
}

func (s *transactionService) hydrate(ctx context.Context, repos portsrepo.Repositories, organizationID string, items []domain.Transaction, opts dto.Options) error {
	withLines := opts.LinesRequested()
	if len(items) == 0 || (!withLines && !opts.IncludeDynamic) {
		return nil
	}
	ids := make([]string, len(items))
	for i, t := range items {
		ids[i] = t.TransactionID
	}

	var (
		lines  map[string][]domain.TransactionLine
		fields map[string]map[string]domain.DynamicField
	)
	g, gctx := errgroup.WithContext(ctx)
	if withLines {
		g.Go(func() error {
			var err error
			if lines, err = repos.Transactions().FindLines(gctx, organizationID, ids); err != nil {
				return fmt.Errorf("failed to hydrate lines: %w", err)
			}
			return nil
		})
	}
	if opts.IncludeDynamic {
		g.Go(func() error {
			var err error
			if fields, err = repos.DynamicFields().FindByEntityIDs(gctx, organizationID, ids); err != nil {
				return fmt.Errorf("failed to hydrate dynamic fields: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range items {
		id := items[i].TransactionID
		if withLines {
			items[i].Lines = lines[id]
			if items[i].Lines == nil {
				items[i].Lines = []domain.TransactionLine{}
			}
		}
		if opts.IncludeDynamic {
			items[i].DynamicFields = fields[id]
		}
	}
	return nil
}
