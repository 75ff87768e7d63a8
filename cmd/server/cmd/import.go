package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/expopass/server/internal/config"
	"github.com/expopass/server/internal/domain/locations"
	"github.com/expopass/server/internal/importfile"
	"github.com/expopass/server/internal/search"
	"github.com/expopass/server/internal/storage/postgres"
)

var importSkipIndex bool

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import postal codes from a CSV, XLSX, or JSON file",
	Long: `Bulk-import a location hierarchy file directly against the database.

Each row carries country, state, city, pincode, and an optional area.
Rows fail independently; the command prints a per-row error report and
exits non-zero only when the file itself cannot be read.

Examples:
  # Import a government pincode CSV
  server import pincodes.csv

  # Import without touching the search index
  server import pincodes.xlsx --skip-index`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0])
	},
}

func init() {
	importCmd.Flags().BoolVar(&importSkipIndex, "skip-index", false, "do not write imported postal codes to the search index")
}

func runImport(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	rows, err := importfile.Read(file, path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	pool, err := openPool(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	var indexer locations.Indexer = search.Noop{}
	if !importSkipIndex {
		if redisIndexer, client := buildIndexer(cfg); redisIndexer != nil {
			defer client.Close()
			indexer = redisIndexer
		}
	}

	started := time.Now()
	result, err := locations.NewImportService(store, indexer).ImportRows(cmd.Context(), rows)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	logger.Info().Dur("elapsed", time.Since(started)).Int("rows", len(rows)).Msg("import finished")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rows:      %d\n", len(rows))
	fmt.Fprintf(out, "Imported:  %d\n", result.Success)
	fmt.Fprintf(out, "Skipped:   %d\n", result.Skipped)
	fmt.Fprintf(out, "Failed:    %d\n", result.Failed)
	fmt.Fprintf(out, "Created:   %d countries, %d states, %d cities, %d pincodes\n",
		result.Details.CountriesCreated, result.Details.StatesCreated,
		result.Details.CitiesCreated, result.Details.PincodesCreated)
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "  %s\n", msg)
	}
	return nil
}
