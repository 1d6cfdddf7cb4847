package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"salarizare/internal/platform/db"
	"salarizare/internal/platform/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	Example: `  # Apply everything under ./migrations
  salarizare migrate

  # Only list the migration files
  salarizare migrate --dry-run`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("dry-run", false, "list migration files without touching the database")
	migrateCmd.Flags().String("dir", "", "migrations directory, overrides MIGRATIONS_DIR")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("migrate")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	dir, _ := cmd.Flags().GetString("dir")

	if dryRun {
		if dir == "" {
			dir = "migrations"
		}
		files, err := db.PendingMigrations(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.MigrationsDir
	}
	pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	applied, err := db.Migrate(cmd.Context(), pool, dir)
	if err != nil {
		return err
	}
	log.Info().Int("applied", len(applied)).Msg("migrations complete")
	for _, version := range applied {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	}
	return nil
}
