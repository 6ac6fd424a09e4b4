package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/hera_engine/internal/adapters/database/pgsql"
	"github.com/SscSPs/hera_engine/internal/apperrors"
	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	portsrepo "github.com/SscSPs/hera_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/hera_engine/internal/core/ports/services"
	"github.com/SscSPs/hera_engine/internal/core/services"
	"github.com/SscSPs/hera_engine/internal/gateway"
	"github.com/SscSPs/hera_engine/internal/metrics"
	"github.com/SscSPs/hera_engine/internal/middleware"
	"github.com/SscSPs/hera_engine/pkg/config"
	"github.com/SscSPs/hera_engine/pkg/database"
)

const metricsPrefix = "hera"

// engine is one fully wired instance of the orchestrators.
type engine struct {
	logger     *slog.Logger
	services   *portssvc.ServiceContainer
	dispatcher *gateway.Dispatcher
	recorder   *metrics.Recorder
	pool       *pgxpool.Pool
}

func (e *engine) Close() {
	database.ClosePgxPool(e.pool, e.logger)
}

// newLogger builds the JSON logger at the configured level; unknown levels fall back to info.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func newPostgresEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine, error) {
	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	e, err := assembleEngine(cfg, logger, pgsql.NewUnitOfWork(pool))
	if err != nil {
		pool.Close()
		return nil, err
	}
	e.pool = pool
	return e, nil
}

// assembleEngine wires guardrails, metrics, orchestrators and the gateway over uow.
func assembleEngine(cfg *config.Config, logger *slog.Logger, uow portsrepo.UnitOfWork) (*engine, error) {
	policy := guardrails.DefaultPolicy()
	if cfg.GuardrailPolicyFile != "" {
		var err error
		if policy, err = guardrails.LoadPolicy(cfg.GuardrailPolicyFile); err != nil {
			return nil, err
		}
		logger.Info("Loaded guardrail policy", slog.String("path", cfg.GuardrailPolicyFile))
	}

	registry := guardrails.NewRegistry(policy)
	recorder := metrics.NewRecorder(metricsPrefix)
	registry.Observe(recorder.ObserveViolation)
	registry.Observe(func(v apperrors.Violation) {
		logger.Debug("Guardrail violation", slog.String("rule", v.Rule), slog.String("code", v.Code), slog.String("message", v.Message))
	})

	container := services.NewServiceContainer(cfg, uow, registry)
	return &engine{
		logger:     logger,
		services:   container,
		dispatcher: gateway.NewDispatcher(container, gateway.WithObserver(recorder)),
		recorder:   recorder,
	}, nil
}

// setup loads configuration and installs the default logger writing to w.
func (o *RootOptions) setup(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.LogLevel, w)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openEngine runs setup and builds an engine; callers must Close it.
func (o *RootOptions) openEngine(ctx context.Context, w io.Writer) (*engine, context.Context, error) {
	cfg, logger, err := o.setup(w)
	if err != nil {
		return nil, ctx, err
	}
	e, err := o.newEngine(ctx, cfg, logger)
	if err != nil {
		return nil, ctx, err
	}
	return e, middleware.WithLogger(ctx, logger), nil
}
