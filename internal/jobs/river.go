package jobs

import (
	"log/slog"
	"math"
	"time"

	"github.com/expopass/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const (
	JobKindUsageReconcile = "usage_reconcile"
	JobKindSearchReindex  = "search_reindex"
)

const (
	UsageReconcileMaxAttempts = 5
	SearchReindexMaxAttempts  = 3
)

// RetryConfig controls per-kind retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy implements River's ClientRetryPolicy with per-kind exponential backoff.
type RetryPolicy struct {
	Default RetryConfig
	ByKind  map[string]RetryConfig
}

// NewRetryPolicy returns the retry policy for the two maintenance job
// kinds. Attempt counts come from configuration; a non-positive value
// falls back to the kind's default.
func NewRetryPolicy(reconcileAttempts, reindexAttempts int) *RetryPolicy {
	if reconcileAttempts <= 0 {
		reconcileAttempts = UsageReconcileMaxAttempts
	}
	if reindexAttempts <= 0 {
		reindexAttempts = SearchReindexMaxAttempts
	}
	return &RetryPolicy{
		Default: RetryConfig{
			MaxAttempts: UsageReconcileMaxAttempts,
			BaseDelay:   30 * time.Second,
			MaxDelay:    30 * time.Minute,
		},
		ByKind: map[string]RetryConfig{
			JobKindUsageReconcile: {
				MaxAttempts: reconcileAttempts,
				BaseDelay:   1 * time.Minute,
				MaxDelay:    1 * time.Hour,
			},
			JobKindSearchReindex: {
				MaxAttempts: reindexAttempts,
				BaseDelay:   30 * time.Second,
				MaxDelay:    15 * time.Minute,
			},
		},
	}
}

// NextRetry determines the next retry time for a failed job.
func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	config := p.configFor(job.Kind)
	if config.BaseDelay == 0 {
		return time.Now()
	}

	attempt := job.Attempt
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(config.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}

	return time.Now().Add(delay)
}

// InsertOptsForKind returns insert options carrying the kind's attempt cap.
func (p *RetryPolicy) InsertOptsForKind(kind string) river.InsertOpts {
	return river.InsertOpts{MaxAttempts: p.configFor(kind).MaxAttempts}
}

// NewClientConfig builds a River client configuration with retry policy.
// A nil workers set yields an insert-only client with no queues.
func NewClientConfig(workers *river.Workers, policy *RetryPolicy, logger *slog.Logger, periodicJobs []*river.PeriodicJob) *river.Config {
	if policy == nil {
		policy = NewRetryPolicy(0, 0)
	}
	config := &river.Config{
		RetryPolicy:  policy,
		MaxAttempts:  policy.Default.MaxAttempts,
		PeriodicJobs: periodicJobs,
		Hooks:        []rivertype.Hook{metrics.NewRiverMetricsHook()},
	}
	if workers != nil {
		config.Workers = workers
		config.Queues = map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		}
	}
	if logger != nil {
		config.Logger = logger
		config.ErrorHandler = NewLoggingErrorHandler(logger)
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, policy *RetryPolicy, logger *slog.Logger, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, policy, logger, periodicJobs))
}

// NewPeriodicJobs schedules the usage reconciliation sweep. Nothing
// decrements usage counters synchronously, so the sweep must recur.
func NewPeriodicJobs(reconcileInterval time.Duration, policy *RetryPolicy) []*river.PeriodicJob {
	if reconcileInterval <= 0 {
		reconcileInterval = 6 * time.Hour
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(reconcileInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				opts := policy.InsertOptsForKind(JobKindUsageReconcile)
				return UsageReconcileArgs{}, &opts
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}
}

func (p *RetryPolicy) configFor(kind string) RetryConfig {
	if p == nil {
		return RetryConfig{MaxAttempts: UsageReconcileMaxAttempts, BaseDelay: 1 * time.Minute, MaxDelay: 1 * time.Hour}
	}
	if config, ok := p.ByKind[kind]; ok {
		return config
	}
	return p.Default
}
