package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"salarizare/internal/app/server"
	"salarizare/internal/platform/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store the default legal constants and, optionally, the sample transactions",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Bool("samples", false, "record the sample transactions when the journal is empty")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	samples, _ := cmd.Flags().GetBool("samples")

	pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	services := server.NewServices(pool, nil, nil)
	return db.Seed(cmd.Context(), services.Seeders(samples || cfg.SeedSamples)...)
}
