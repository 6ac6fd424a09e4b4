package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/hera_engine/internal/handlers"
	"github.com/SscSPs/hera_engine/internal/middleware"
	"github.com/SscSPs/hera_engine/pkg/database"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(opts *RootOptions) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API: the RPC gateway under /api/v1, /health and /metrics.

Pending migrations are applied first unless AUTO_MIGRATE=false or
--skip-migrations is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, skipMigrations bool) error {
	cfg, logger, err := opts.setup(os.Stdout)
	if err != nil {
		return err
	}

	if cfg.AutoMigrate && !skipMigrations {
		logger.Info("Running database migrations...")
		if _, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, database.MigrateUp, 0, logger); err != nil {
			return err
		}
	}

	e, err := opts.newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	deps := handlers.Dependencies{
		Services:   e.services,
		Dispatcher: e.dispatcher,
		Metrics:    e.recorder,
	}
	if e.pool != nil {
		deps.DB = e.pool
	}
	if err := handlers.RegisterRoutes(r, cfg, deps); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("auth_mode", cfg.AuthMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
