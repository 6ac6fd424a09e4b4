// Package gateway is the single entry point of the engine: it resolves a named
// operation and an action to an orchestrator call and renders the outcome as
// a dto.Envelope.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/hera_engine/internal/apperrors"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/dto"
	"github.com/SscSPs/hera_engine/internal/middleware"
)

// Operation names.
const (
	OperationEntities     = "entities"
	OperationTransactions = "transactions"
)

// handlerFunc runs one action of one operation.
type handlerFunc func(ctx context.Context, req dto.RPCRequest) (any, error)

// Observer is notified once per dispatched call.
type Observer interface {
	ObserveRPC(operation, action, code string, elapsed time.Duration)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver registers an observer, typically the metrics recorder.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observers = append(d.observers, o) }
}

// WithAlias makes alias resolve to operation.
func WithAlias(alias, operation string) Option {
	return func(d *Dispatcher) { d.aliases[normalizeOperation(alias)] = operation }
}

// Dispatcher routes RPC requests to the orchestrators.
type Dispatcher struct {
	routes    map[string]map[string]handlerFunc
	aliases   map[string]string
	observers []Observer
	now       func() time.Time
}

// NewDispatcher wires the entity and transaction orchestrators of services.
func NewDispatcher(services *portssvc.ServiceContainer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		routes: map[string]map[string]handlerFunc{},
		aliases: map[string]string{
			"entity":      OperationEntities,
			"transaction": OperationTransactions,
			"txn":         OperationTransactions,
		},
		now: time.Now,
	}
	d.routes[OperationEntities] = entityRoutes(services.Entity)
	d.routes[OperationTransactions] = transactionRoutes(services.Transaction)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func entityRoutes(svc portssvc.EntitySvcFacade) map[string]handlerFunc {
	return map[string]handlerFunc{
		dto.ActionCreate: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.CreateEntity(ctx, r.ActorContext(), dto.EntityRequestFrom(r))
		},
		dto.ActionRead: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.ReadEntities(ctx, r.ActorContext(), dto.EntityRequestFrom(r))
		},
		dto.ActionUpdate: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.UpdateEntity(ctx, r.ActorContext(), dto.EntityRequestFrom(r))
		},
		dto.ActionUpsert: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.UpsertEntity(ctx, r.ActorContext(), dto.EntityRequestFrom(r))
		},
		dto.ActionDelete: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.DeleteEntity(ctx, r.ActorContext(), dto.EntityRequestFrom(r))
		},
	}
}

// Transactions have no UPSERT: CREATE is not idempotent.
func transactionRoutes(svc portssvc.TransactionSvcFacade) map[string]handlerFunc {
	return map[string]handlerFunc{
		dto.ActionCreate: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.CreateTransaction(ctx, r.ActorContext(), dto.TransactionRequestFrom(r))
		},
		dto.ActionRead: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.ReadTransactions(ctx, r.ActorContext(), dto.TransactionRequestFrom(r))
		},
		dto.ActionUpdate: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.UpdateTransaction(ctx, r.ActorContext(), dto.TransactionRequestFrom(r))
		},
		dto.ActionDelete: func(ctx context.Context, r dto.RPCRequest) (any, error) {
			return svc.DeleteTransaction(ctx, r.ActorContext(), dto.TransactionRequestFrom(r))
		},
	}
}

func normalizeOperation(op string) string {
	return strings.ToLower(strings.TrimSpace(op))
}

// Operations lists the canonical operation names.
func (d *Dispatcher) Operations() []string {
	out := make([]string, 0, len(d.routes))
	for op := range d.routes {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// Resolve maps an operation name or alias to its canonical name.
func (d *Dispatcher) Resolve(operation string) (string, bool) {
	op := normalizeOperation(operation)
	if alias, ok := d.aliases[op]; ok {
		op = alias
	}
	_, ok := d.routes[op]
	return op, ok
}

// Dispatch runs the call and returns only the envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, operation string, req dto.RPCRequest) dto.Envelope {
	env, _ := d.Invoke(ctx, operation, req)
	return env
}

// Invoke runs the call and returns the envelope together with its HTTP status.
func (d *Dispatcher) Invoke(ctx context.Context, operation string, req dto.RPCRequest) (dto.Envelope, int) {
	start := d.now()
	action := strings.ToUpper(strings.TrimSpace(req.Action))

	data, err := d.call(ctx, operation, action, req)
	desc := apperrors.Describe(err)

	op, _ := d.Resolve(operation)
	code := desc.Code
	if err == nil {
		code = "OK"
	}
	for _, o := range d.observers {
		o.ObserveRPC(op, action, code, d.now().Sub(start))
	}

	if err != nil {
		logger := middleware.GetLoggerFromCtx(ctx)
		attrs := []any{
			slog.String("operation", op),
			slog.String("action", action),
			slog.String("organization_id", req.OrganizationID),
			slog.String("error_code", desc.Code),
		}
		if desc.Status >= http.StatusInternalServerError {
			logger.Error("RPC call failed", append(attrs, slog.String("error", err.Error()))...)
		} else {
			logger.Debug("RPC call rejected", append(attrs, slog.String("error", err.Error()))...)
		}
		return dto.Envelope{Success: false, Error: desc.Code, ErrorDetail: desc.Detail, ErrorHint: desc.Hint}, desc.Status
	}
	return dto.OK(data), http.StatusOK
}

func (d *Dispatcher) call(ctx context.Context, operation, action string, req dto.RPCRequest) (any, error) {
	op, ok := d.Resolve(operation)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("unknown operation %q", operation))
	}
	if action == "" {
		return nil, apperrors.NewValidationError("action", "ACTION_REQUIRED", "action is required").
			WithHint("use one of CREATE, READ, UPDATE, DELETE, UPSERT")
	}
	if err := req.ActorContext().Validate(); err != nil {
		return nil, err
	}
	h, ok := d.routes[op][action]
	if !ok {
		if op == OperationTransactions && action == dto.ActionUpsert {
			return nil, apperrors.NewValidationError("action", "UNSUPPORTED_ACTION",
				"UPSERT is not supported for transactions").
				WithHint("use CREATE for new transactions and UPDATE for status changes")
		}
		return nil, apperrors.NewValidationError("action", "INVALID_ACTION",
			fmt.Sprintf("unknown action %q", req.Action)).
			WithHint("use one of CREATE, READ, UPDATE, DELETE, UPSERT")
	}
	req.Action = action
	return h(ctx, req)
}
