package hazard

import (
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// RecencyTier grants Bonus points to events at most MaxAgeDays old. Tiers are
// evaluated in ascending age order and only the first match applies.
type RecencyTier struct {
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"`
	Bonus      int `yaml:"bonus" mapstructure:"bonus"`
}

// ScoringConfig holds the tunable inputs of the severity scorer.
type ScoringConfig struct {
	CategoryWeights map[string]int `yaml:"category_weights" mapstructure:"category_weights"`
	DefaultWeight   int            `yaml:"default_weight" mapstructure:"default_weight"`
	RecencyTiers    []RecencyTier  `yaml:"recency_tiers" mapstructure:"recency_tiers"`
}

// DefaultScoringConfig returns the stock category weight table and recency
// tiers. Weights express initial severity per hazard type; a recent severe
// event can exceed 100 (Earthquakes 90 + within-3-days 20 = 110).
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		CategoryWeights: map[string]int{
			"Earthquakes":          90,
			"Volcanoes":            80,
			"Wildfires":            70,
			"Drought":              65,
			"Floods":               60,
			"Temperature Extremes": 55,
			"Landslides":           50,
			"Severe Storms":        40,
			"Sea and Lake Ice":     30,
			"Dust and Haze":        25,
			"Water Color":          20,
			"Manmade":              10,
		},
		DefaultWeight: 20,
		RecencyTiers: []RecencyTier{
			{MaxAgeDays: 3, Bonus: 20},
			{MaxAgeDays: 7, Bonus: 10},
			{MaxAgeDays: 30, Bonus: 5},
		},
	}
}

// ValidateScoringConfig checks that a ScoringConfig is internally consistent.
func ValidateScoringConfig(c ScoringConfig) error {
	var errs []string
	for cat, w := range c.CategoryWeights {
		if w < 0 {
			errs = append(errs, "weight for "+cat+" must be >= 0")
		}
	}
	if c.DefaultWeight < 0 {
		errs = append(errs, "default_weight must be >= 0")
	}
	for i, t := range c.RecencyTiers {
		if t.MaxAgeDays < 0 {
			errs = append(errs, "recency tier max_age_days must be >= 0")
		}
		if i > 0 && t.MaxAgeDays <= c.RecencyTiers[i-1].MaxAgeDays {
			errs = append(errs, "recency tiers must be in ascending age order")
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("hazard: scoring config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Scorer assigns each event a non-negative severity score from its category
// and recency. It copies its config at construction, so a config reload never
// tears a batch mid-computation, and is safe for concurrent use.
type Scorer struct {
	weights       map[string]int
	defaultWeight int
	tiers         []RecencyTier
}

// NewScorer builds a Scorer from a config snapshot.
func NewScorer(cfg ScoringConfig) *Scorer {
	weights := make(map[string]int, len(cfg.CategoryWeights))
	for k, v := range cfg.CategoryWeights {
		weights[k] = v
	}
	tiers := make([]RecencyTier, len(cfg.RecencyTiers))
	copy(tiers, cfg.RecencyTiers)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MaxAgeDays < tiers[j].MaxAgeDays })
	return &Scorer{
		weights:       weights,
		defaultWeight: cfg.DefaultWeight,
		tiers:         tiers,
	}
}

// Score computes the severity score of a single event: category weight plus
// the single largest-matching recency bonus. Only Category and Date influence
// the result. A zero Date skips the recency term; that is data-quality
// degradation, not an error. The result is floored at 0 and never clamped
// above, so downstream 0-100 normalization is the caller's job.
func (s *Scorer) Score(ev Event) int {
	score, ok := s.weights[ev.Category]
	if !ok {
		score = s.defaultWeight
	}
	score += s.recencyBonus(ev.Date)
	if score < 0 {
		score = 0
	}
	return score
}

// recencyBonus returns the bonus of the first tier whose age bound covers the
// event. Age is a truncating whole-day difference: an event 2.9 days old
// counts as within 3 days, and exactly 3.0 days still lands in the <=3 tier.
func (s *Scorer) recencyBonus(date time.Time) int {
	if date.IsZero() {
		return 0
	}
	days := int(clock.Now().UTC().Sub(date.UTC()).Hours() / 24)
	for _, t := range s.tiers {
		if days <= t.MaxAgeDays {
			return t.Bonus
		}
	}
	return 0
}
