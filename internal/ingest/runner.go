package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Hanoi896/risk-map/internal/hazard"
	"github.com/Hanoi896/risk-map/internal/observability"
	"github.com/Hanoi896/risk-map/internal/store"
)

// RunStats summarizes one fetch cycle.
type RunStats struct {
	// PerSource counts events fetched per source name. A failed source is
	// present with a zero count.
	PerSource map[string]int
	// Failed lists sources whose fetch errored.
	Failed []string
	// Stored is the number of events upserted.
	Stored int
	// Elapsed is the wall time of the whole cycle.
	Elapsed time.Duration
}

// Runner fetches all sources concurrently and upserts the results.
// A failing source degrades the cycle instead of aborting it; the cycle
// errors only when every source fails or the store rejects the batch.
type Runner struct {
	store   store.Store
	sources []Source
	metrics *observability.Metrics
}

// NewRunner creates a Runner over the given sources.
func NewRunner(st store.Store, metrics *observability.Metrics, sources ...Source) *Runner {
	return &Runner{store: st, sources: sources, metrics: metrics}
}

// Run executes one fetch cycle.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	stats := RunStats{PerSource: make(map[string]int)}

	r.metrics.FetchRunning.Set(1)
	defer r.metrics.FetchRunning.Set(0)

	var (
		mu     sync.Mutex
		events []hazard.Event
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range r.sources {
		g.Go(func() error {
			fetchStart := time.Now()
			fetched, err := src.Fetch(gctx)
			r.metrics.SourceDuration.WithLabelValues(src.Name()).Observe(time.Since(fetchStart).Seconds())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.metrics.SourceErrors.WithLabelValues(src.Name()).Inc()
				stats.PerSource[src.Name()] = 0
				stats.Failed = append(stats.Failed, src.Name())
				zap.L().Error("fetch: source failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return nil
			}

			r.metrics.SourceEvents.WithLabelValues(src.Name()).Add(float64(len(fetched)))
			stats.PerSource[src.Name()] = len(fetched)
			events = append(events, fetched...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, eris.Wrap(err, "fetch: wait for sources")
	}

	if len(r.sources) > 0 && len(stats.Failed) == len(r.sources) {
		return stats, eris.New("fetch: all sources failed")
	}

	stored, err := r.store.UpsertEvents(ctx, events)
	if err != nil {
		return stats, eris.Wrap(err, "fetch: store events")
	}
	stats.Stored = stored
	stats.Elapsed = time.Since(start)

	r.metrics.FetchRuns.Inc()
	r.metrics.EventsStored.Add(float64(stored))
	r.metrics.LastFetchTime.Set(float64(time.Now().Unix()))

	zap.L().Info("fetch: cycle complete",
		zap.Int("stored", stored),
		zap.Any("per_source", stats.PerSource),
		zap.Strings("failed", stats.Failed),
		zap.Duration("elapsed", stats.Elapsed),
	)

	return stats, nil
}
