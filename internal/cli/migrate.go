package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/hera_engine/pkg/database"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	var upSteps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts, database.MigrateUp, upSteps)
		},
	}
	up.Flags().IntVarP(&upSteps, "steps", "n", 0, "apply at most n migrations (0 = all)")

	var (
		downSteps int
		downAll   bool
	)
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if downSteps <= 0 && !downAll {
				return fmt.Errorf("refusing to roll back everything without --all; use --steps n to roll back n migrations")
			}
			if downAll {
				downSteps = 0
			}
			return runMigrate(cmd, opts, database.MigrateDown, downSteps)
		},
	}
	down.Flags().IntVarP(&downSteps, "steps", "n", 0, "roll back n migrations")
	down.Flags().BoolVar(&downAll, "all", false, "roll back every migration")

	cmd.AddCommand(up, down)
	return cmd
}

func runMigrate(cmd *cobra.Command, opts *RootOptions, dir database.MigrationDirection, steps int) error {
	cfg, logger, err := opts.setup(os.Stderr)
	if err != nil {
		return err
	}
	if steps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}
	changed, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, dir, steps, logger)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to apply.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrations %s applied.\n", dir)
	return nil
}
