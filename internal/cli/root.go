// Package cli implements the hera command line: the HTTP server, schema
// migrations and operator tooling over the same engine the server runs.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/SscSPs/hera_engine/pkg/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string // "json" | "text"
	LogLevel string

	// Overridable in tests.
	loadConfig func() (*config.Config, error)
	newEngine  func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hera CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{
		loadConfig: config.LoadConfig,
		newEngine:  newPostgresEngine,
	})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hera",
		Short: "HERA - universal entity and transaction engine",
		Long: `HERA stores every business object as an entity with typed dynamic fields
and relationships, and every business event as a balanced transaction with
lines, all behind one RPC gateway guarded by smart codes and guardrails.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSmartCodeCommand(opts))
	cmd.AddCommand(newGuardrailsCommand(opts))
	cmd.AddCommand(newOrgCommand(opts))
	cmd.AddCommand(newRPCCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	cmd.AddCommand(newAPIKeyCommand(opts))

	return cmd
}

// config loads configuration and applies flag overrides.
func (o *RootOptions) config() (*config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, nil
}
