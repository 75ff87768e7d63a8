package jobs

import (
	"context"
	"fmt"

	"github.com/expopass/server/internal/domain/locations"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// reindexPageSize is the page size for the postal-code sweep that feeds
// a full index rebuild.
const reindexPageSize = 500

type UsageReconcileArgs struct{}

func (UsageReconcileArgs) Kind() string { return JobKindUsageReconcile }

// UsageReconcileWorker recomputes cached usage counters for every
// hierarchy level. Per-entity failures are absorbed into the summary's
// error counts; the job itself fails (and retries) only when a level
// could not be swept at all or entities kept failing.
type UsageReconcileWorker struct {
	river.WorkerDefaults[UsageReconcileArgs]
	Reconcile *locations.ReconcileService
	Logger    zerolog.Logger
}

func (UsageReconcileWorker) Kind() string { return JobKindUsageReconcile }

func (w UsageReconcileWorker) Work(ctx context.Context, job *river.Job[UsageReconcileArgs]) error {
	if w.Reconcile == nil {
		return fmt.Errorf("reconcile service not configured")
	}

	summary, err := w.Reconcile.RecalculateAllUsage(ctx)
	if err != nil {
		return fmt.Errorf("recalculate usage: %w", err)
	}

	errs := summary.Countries.ErrorCount + summary.States.ErrorCount +
		summary.Cities.ErrorCount + summary.PostalCodes.ErrorCount
	updated := summary.Countries.Updated + summary.States.Updated +
		summary.Cities.Updated + summary.PostalCodes.Updated

	w.Logger.Info().
		Int("attempt", job.Attempt).
		Int("updated", updated).
		Int("errors", errs).
		Msg("usage reconciliation sweep finished")

	if errs > 0 {
		return fmt.Errorf("usage reconciliation finished with %d entity errors", errs)
	}
	return nil
}

type SearchReindexArgs struct{}

func (SearchReindexArgs) Kind() string { return JobKindSearchReindex }

// Reindexer replaces the whole search index with the given documents
// and reports how many were kept.
type Reindexer interface {
	Rebuild(ctx context.Context, docs []locations.SearchDocument) (int, error)
}

// SearchReindexWorker rebuilds the postal-code search index from the
// database. It exists for disaster recovery and for deployments where
// the index store was flushed; normal writes keep the index current.
type SearchReindexWorker struct {
	river.WorkerDefaults[SearchReindexArgs]
	Store   locations.Store
	Indexer Reindexer
	Logger  zerolog.Logger
}

func (SearchReindexWorker) Kind() string { return JobKindSearchReindex }

func (w SearchReindexWorker) Work(ctx context.Context, job *river.Job[SearchReindexArgs]) error {
	if w.Store == nil {
		return fmt.Errorf("store not configured")
	}
	if w.Indexer == nil {
		return fmt.Errorf("indexer not configured")
	}

	docs, err := w.collectDocuments(ctx)
	if err != nil {
		return err
	}

	kept, err := w.Indexer.Rebuild(ctx, docs)
	if err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}

	w.Logger.Info().
		Int("attempt", job.Attempt).
		Int("documents", len(docs)).
		Int("kept", kept).
		Msg("search index rebuilt")
	return nil
}

// collectDocuments walks every active postal code and denormalizes its
// parent chain. Parent lookups are cached per run; a postal code whose
// chain cannot be resolved is skipped with a warning rather than
// aborting the rebuild.
func (w SearchReindexWorker) collectDocuments(ctx context.Context) ([]locations.SearchDocument, error) {
	var (
		docs      []locations.SearchDocument
		cities    = map[string]*locations.City{}
		states    = map[string]*locations.State{}
		countries = map[string]*locations.Country{}
	)

	for offset := 0; ; offset += reindexPageSize {
		page, _, err := w.Store.PostalCodes().List(ctx, locations.ListParams{Offset: offset, Limit: reindexPageSize})
		if err != nil {
			return nil, fmt.Errorf("list postal codes at offset %d: %w", offset, err)
		}

		for i := range page {
			pc := &page[i]
			city, ok := cities[pc.CityID]
			if !ok {
				if city, err = w.Store.Cities().GetByID(ctx, pc.CityID); err != nil {
					w.Logger.Warn().Err(err).Str("postal_code_id", pc.ID).Msg("skipping postal code with unresolvable city")
					continue
				}
				cities[pc.CityID] = city
			}
			state, ok := states[city.StateID]
			if !ok {
				if state, err = w.Store.States().GetByID(ctx, city.StateID); err != nil {
					w.Logger.Warn().Err(err).Str("postal_code_id", pc.ID).Msg("skipping postal code with unresolvable state")
					continue
				}
				states[city.StateID] = state
			}
			country, ok := countries[state.CountryID]
			if !ok {
				if country, err = w.Store.Countries().GetByID(ctx, state.CountryID); err != nil {
					w.Logger.Warn().Err(err).Str("postal_code_id", pc.ID).Msg("skipping postal code with unresolvable country")
					continue
				}
				countries[state.CountryID] = country
			}
			docs = append(docs, locations.BuildSearchDocument(pc, city, state, country))
		}

		if len(page) < reindexPageSize {
			return docs, nil
		}
	}
}

// NewWorkers registers every job kind the server runs.
func NewWorkers(reconcile *locations.ReconcileService, store locations.Store, indexer Reindexer, logger zerolog.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[UsageReconcileArgs](workers, UsageReconcileWorker{Reconcile: reconcile, Logger: logger})
	if indexer != nil {
		river.AddWorker[SearchReindexArgs](workers, SearchReindexWorker{Store: store, Indexer: indexer, Logger: logger})
	}
	return workers
}
