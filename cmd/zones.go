package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Hanoi896/risk-map/internal/hazard"
	"github.com/Hanoi896/risk-map/internal/store"
)

var (
	zonesYear     int
	zonesCategory string
	zonesSource   string
	zonesCountry  string
	zonesSince    string
	zonesLimit    int
	zonesWeights  string
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Compute danger zones from stored events",
	Long:  "Scores stored events and aggregates them into grid-cell danger zones, printed as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		scorer := env.scorer
		aggregator := env.aggregator
		if zonesWeights != "" {
			scoring, err := loadWeightsFile(zonesWeights)
			if err != nil {
				return err
			}
			scorer = hazard.NewScorer(*scoring)
			aggregator = hazard.NewAggregator(cfg.Aggregation, scorer)
		}

		filter := store.EventFilter{
			Year:     zonesYear,
			Category: zonesCategory,
			Source:   zonesSource,
			Country:  zonesCountry,
			Limit:    zonesLimit,
		}
		if zonesSince != "" {
			since, err := time.Parse(time.RFC3339, zonesSince)
			if err != nil {
				return eris.Wrap(err, "parse --since")
			}
			filter.Since = since
		}

		events, err := env.store.ListEvents(ctx, filter)
		if err != nil {
			return err
		}

		zones := aggregator.Aggregate(events)
		if zones == nil {
			zones = []hazard.DangerZone{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(zones)
	},
}

// loadWeightsFile reads a scoring config override in YAML form.
func loadWeightsFile(path string) (*hazard.ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read weights file %s", path)
	}

	scoring := hazard.DefaultScoringConfig()
	if err := yaml.Unmarshal(data, &scoring); err != nil {
		return nil, eris.Wrapf(err, "parse weights file %s", path)
	}
	if err := hazard.ValidateScoringConfig(scoring); err != nil {
		return nil, eris.Wrapf(err, "invalid weights file %s", path)
	}
	return &scoring, nil
}

func init() {
	zonesCmd.Flags().IntVar(&zonesYear, "year", 0, "filter events by year")
	zonesCmd.Flags().StringVar(&zonesCategory, "category", "", "filter events by category")
	zonesCmd.Flags().StringVar(&zonesSource, "source", "", "filter events by source")
	zonesCmd.Flags().StringVar(&zonesCountry, "country", "", "filter events by country substring")
	zonesCmd.Flags().StringVar(&zonesSince, "since", "", "only events at or after this RFC3339 time")
	zonesCmd.Flags().IntVar(&zonesLimit, "limit", 0, "max events to aggregate (default from config)")
	zonesCmd.Flags().StringVar(&zonesWeights, "weights", "", "YAML file overriding the scoring tables")
	rootCmd.AddCommand(zonesCmd)
}
