package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hanoi896/risk-map/internal/store"
)

var (
	fetchMigrateFirst bool
	fetchSources      []string
	fetchSinceYears   int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull events from all sources and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if fetchSinceYears > 0 {
			cfg.Sources.EONET.SinceYears = fetchSinceYears
		}

		env, err := initEnv(ctx, cfg, fetchSources...)
		if err != nil {
			return err
		}
		defer env.Close()

		if fetchMigrateFirst {
			if err := env.store.Migrate(ctx); err != nil {
				return err
			}
		}

		stats, err := env.runner.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("stored %d events in %s\n", stats.Stored, stats.Elapsed.Round(time.Millisecond))
		for name, count := range stats.PerSource {
			fmt.Printf("  %-10s %d\n", name, count)
		}
		if len(stats.Failed) > 0 {
			fmt.Printf("failed sources: %v\n", stats.Failed)
		}

		// Quick sanity read-back.
		events, err := env.store.ListEvents(ctx, store.EventFilter{Limit: 1})
		if err == nil && len(events) > 0 {
			fmt.Printf("latest event: %s (%s)\n", events[0].Title, events[0].Date.Format("2006-01-02"))
		}

		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchMigrateFirst, "migrate", false, "run schema migration before fetching")
	fetchCmd.Flags().StringSliceVar(&fetchSources, "source", nil, "restrict to named sources (eonet, gdacs, reliefweb)")
	fetchCmd.Flags().IntVar(&fetchSinceYears, "since-years", 0, "years of history to backfill from the event feeds")
	rootCmd.AddCommand(fetchCmd)
}
