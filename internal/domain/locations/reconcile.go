package locations

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/expopass/server/internal/metrics"
)

// reconcilePageSize is the sweep page size for reconciliation reads.
const reconcilePageSize = 500

// ReconcileResult summarizes one level's usage-count sweep.
type ReconcileResult struct {
	Total      int `json:"total"`
	Updated    int `json:"updated"`
	ErrorCount int `json:"errorCount"`
}

// ReconcileSummary is the combined result of sweeping all four levels.
type ReconcileSummary struct {
	Countries   ReconcileResult `json:"countries"`
	States      ReconcileResult `json:"states"`
	Cities      ReconcileResult `json:"cities"`
	PostalCodes ReconcileResult `json:"postalCodes"`
}

// ReconcileService recomputes the cached usageCount columns from the
// registration store. The counters are a read optimization that drifts
// when registrations are cancelled or visitors deleted elsewhere;
// nothing decrements them synchronously, so this sweep is the only
// correction mechanism. It is idempotent and safe to run concurrently
// with normal traffic: the sole side effect is overwriting a counter
// that already differs from the truth.
type ReconcileService struct {
	store Store
}

func NewReconcileService(store Store) *ReconcileService {
	return &ReconcileService{store: store}
}

// RecalculateUsage sweeps one level. Per-entity failures are logged and
// counted, never fatal to the sweep.
func (s *ReconcileService) RecalculateUsage(ctx context.Context, level Level) (ReconcileResult, error) {
	if s == nil || s.store == nil {
		return ReconcileResult{}, fmt.Errorf("reconcile: store not configured")
	}

	switch level {
	case LevelCountry:
		return s.sweep(ctx, level, func(ctx context.Context, offset int) ([]usageRow, error) {
			countries, _, err := s.store.Countries().List(ctx, sweepPage(offset))
			if err != nil {
				return nil, err
			}
			rows := make([]usageRow, len(countries))
			for i, c := range countries {
				rows[i] = usageRow{ID: c.ID, Cached: c.UsageCount, set: s.store.Countries().SetUsageCount}
			}
			return rows, nil
		})
	case LevelState:
		return s.sweep(ctx, level, func(ctx context.Context, offset int) ([]usageRow, error) {
			states, _, err := s.store.States().List(ctx, sweepPage(offset))
			if err != nil {
				return nil, err
			}
			rows := make([]usageRow, len(states))
			for i, st := range states {
				rows[i] = usageRow{ID: st.ID, Cached: st.UsageCount, set: s.store.States().SetUsageCount}
			}
			return rows, nil
		})
	case LevelCity:
		return s.sweep(ctx, level, func(ctx context.Context, offset int) ([]usageRow, error) {
			cities, _, err := s.store.Cities().List(ctx, sweepPage(offset))
			if err != nil {
				return nil, err
			}
			rows := make([]usageRow, len(cities))
			for i, c := range cities {
				rows[i] = usageRow{ID: c.ID, Cached: c.UsageCount, set: s.store.Cities().SetUsageCount}
			}
			return rows, nil
		})
	case LevelPostalCode:
		return s.sweep(ctx, level, func(ctx context.Context, offset int) ([]usageRow, error) {
			codes, _, err := s.store.PostalCodes().List(ctx, sweepPage(offset))
			if err != nil {
				return nil, err
			}
			rows := make([]usageRow, len(codes))
			for i, pc := range codes {
				rows[i] = usageRow{ID: pc.ID, Cached: pc.UsageCount, set: s.store.PostalCodes().SetUsageCount}
			}
			return rows, nil
		})
	}
	return ReconcileResult{}, ValidationError{Field: "level", Message: fmt.Sprintf("unknown level %q", level)}
}

// RecalculateAllUsage sweeps all four levels concurrently and returns
// the nested summary. A failing level does not cancel the others; its
// failure surfaces in that level's ErrorCount.
func (s *ReconcileService) RecalculateAllUsage(ctx context.Context) (ReconcileSummary, error) {
	if s == nil || s.store == nil {
		return ReconcileSummary{}, fmt.Errorf("reconcile: store not configured")
	}

	var summary ReconcileSummary
	group, groupCtx := errgroup.WithContext(ctx)

	run := func(level Level, target *ReconcileResult) func() error {
		return func() error {
			result, err := s.RecalculateUsage(groupCtx, level)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("level", string(level)).Msg("usage sweep failed")
				result.ErrorCount++
			}
			*target = result
			return nil
		}
	}

	group.Go(run(LevelCountry, &summary.Countries))
	group.Go(run(LevelState, &summary.States))
	group.Go(run(LevelCity, &summary.Cities))
	group.Go(run(LevelPostalCode, &summary.PostalCodes))

	if err := group.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

type usageRow struct {
	ID     string
	Cached int
	set    func(ctx context.Context, id string, count int) error
}

func sweepPage(offset int) ListParams {
	return ListParams{Offset: offset, Limit: reconcilePageSize, IncludeInactive: true}
}

func (s *ReconcileService) sweep(ctx context.Context, level Level, page func(context.Context, int) ([]usageRow, error)) (ReconcileResult, error) {
	result := ReconcileResult{}
	logger := zerolog.Ctx(ctx)

	for offset := 0; ; offset += reconcilePageSize {
		rows, err := page(ctx, offset)
		if err != nil {
			return result, fmt.Errorf("list %s page at %d: %w", level, offset, err)
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			result.Total++

			live, err := s.store.Registrations().CountActive(ctx, level, row.ID)
			if err != nil {
				result.ErrorCount++
				logger.Error().Err(err).Str("level", string(level)).Str("id", row.ID).Msg("count registrations failed")
				continue
			}
			if live == row.Cached {
				// Avoid needless writes: the second sweep in a row is a no-op.
				continue
			}
			if err := row.set(ctx, row.ID, live); err != nil {
				result.ErrorCount++
				logger.Error().Err(err).Str("level", string(level)).Str("id", row.ID).Msg("write usage count failed")
				continue
			}
			result.Updated++
		}

		if len(rows) < reconcilePageSize {
			break
		}
	}

	metrics.UsageReconcileUpdatesTotal.WithLabelValues(string(level)).Add(float64(result.Updated))
	metrics.UsageReconcileErrorsTotal.WithLabelValues(string(level)).Add(float64(result.ErrorCount))

	return result, nil
}
