package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/expopass/server/internal/domain/locations"
	"github.com/expopass/server/internal/jobs"
	"github.com/expopass/server/internal/storage/postgres"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [level]",
	Short: "Recalculate cached usage counters",
	Long: `Recompute usageCount for location entities from the registration store.

Counters drift when registrations are cancelled or visitors are removed;
nothing decrements them synchronously. The sweep overwrites only counters
that differ from the recomputed truth, so it is safe to run at any time.

Pass a level (country, state, city, pincode) to sweep one level, or no
argument to sweep all four.

Examples:
  # Sweep every level
  server reconcile

  # Sweep only postal codes
  server reconcile pincode`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
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
		service := locations.NewReconcileService(store)
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			result, err := service.RecalculateUsage(cmd.Context(), locations.Level(args[0]))
			if err != nil {
				return err
			}
			printReconcileResult(out, args[0], result)
			return nil
		}

		summary, err := service.RecalculateAllUsage(cmd.Context())
		if err != nil {
			return err
		}
		printReconcileResult(out, "country", summary.Countries)
		printReconcileResult(out, "state", summary.States)
		printReconcileResult(out, "city", summary.Cities)
		printReconcileResult(out, "pincode", summary.PostalCodes)
		return nil
	},
}

func printReconcileResult(out io.Writer, level string, r locations.ReconcileResult) {
	fmt.Fprintf(out, "%-8s total=%d updated=%d errors=%d\n", level, r.Total, r.Updated, r.ErrorCount)
}

// reindexCmd enqueues a search reindex job rather than rebuilding
// inline, so the rebuild runs under the server's retry policy and does
// not race a concurrently running periodic sweep.
var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Enqueue a full search index rebuild",
	Long: `Queue a background job that rebuilds the postal-code search index
from the database. A running server picks the job up; use this after a
Redis flush or when index writes were disabled during a bulk import.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR not set; nothing to reindex")
		}

		pool, err := openPool(cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		// Insert-only client: no workers registered here.
		policy := jobs.NewRetryPolicy(cfg.Jobs.RetryReconciliation, cfg.Jobs.RetryReindex)
		client, err := jobs.NewClient(pool, nil, policy, nil, nil)
		if err != nil {
			return fmt.Errorf("river client: %w", err)
		}

		opts := policy.InsertOptsForKind(jobs.JobKindSearchReindex)
		if _, err := client.Insert(cmd.Context(), jobs.SearchReindexArgs{}, &opts); err != nil {
			return fmt.Errorf("enqueue reindex: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "search reindex job enqueued")
		return nil
	},
}
