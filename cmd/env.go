package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Hanoi896/risk-map/internal/config"
	"github.com/Hanoi896/risk-map/internal/fetcher"
	"github.com/Hanoi896/risk-map/internal/hazard"
	"github.com/Hanoi896/risk-map/internal/ingest"
	"github.com/Hanoi896/risk-map/internal/observability"
	"github.com/Hanoi896/risk-map/internal/store"
)

// appEnv bundles the collaborators the commands share.
type appEnv struct {
	store      store.Store
	metrics    *observability.Metrics
	runner     *ingest.Runner
	scorer     *hazard.Scorer
	aggregator *hazard.Aggregator
}

// initEnv opens the store and wires the fetch pipeline from config. When
// onlySources is non-empty, the runner is restricted to the named sources.
func initEnv(ctx context.Context, cfg *config.Config, onlySources ...string) (*appEnv, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:      time.Duration(cfg.Sources.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Sources.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	sources := []ingest.Source{
		ingest.NewEONETSource(f, cfg.Sources.EONET),
		ingest.NewGDACSSource(f, cfg.Sources.GDACS),
		ingest.NewReliefWebSource(f, cfg.Sources.ReliefWeb),
	}
	if len(onlySources) > 0 {
		sources, err = selectSources(sources, onlySources)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	metrics := observability.NewMetrics()
	runner := ingest.NewRunner(st, metrics, sources...)

	scorer := hazard.NewScorer(cfg.Scoring)

	return &appEnv{
		store:      st,
		metrics:    metrics,
		runner:     runner,
		scorer:     scorer,
		aggregator: hazard.NewAggregator(cfg.Aggregation, scorer),
	}, nil
}

// selectSources keeps the sources whose names appear in wanted, rejecting
// names that match nothing.
func selectSources(all []ingest.Source, wanted []string) ([]ingest.Source, error) {
	byName := make(map[string]ingest.Source, len(all))
	for _, src := range all {
		byName[src.Name()] = src
	}

	selected := make([]ingest.Source, 0, len(wanted))
	for _, name := range wanted {
		src, ok := byName[name]
		if !ok {
			return nil, eris.Errorf("unknown source %q", name)
		}
		selected = append(selected, src)
	}
	return selected, nil
}

func (e *appEnv) Close() {
	_ = e.store.Close()
}
