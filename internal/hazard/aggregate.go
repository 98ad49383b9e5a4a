package hazard

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Risk level labels derived from a cell's total score.
const (
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
	RiskDeepRed = "DeepRed"
)

// RiskThresholds classify a cell's total score. Comparisons are strict
// (score > threshold), so a cell at exactly 300 is still High.
type RiskThresholds struct {
	DeepRed int `yaml:"deep_red" mapstructure:"deep_red"`
	High    int `yaml:"high" mapstructure:"high"`
	Medium  int `yaml:"medium" mapstructure:"medium"`
}

// AggregationConfig holds the tunable inputs of the spatial aggregator.
type AggregationConfig struct {
	// GridSizeDegrees is the square cell edge in decimal degrees. Degree
	// cells shrink toward the poles and can split clusters straddling a
	// boundary; that is an accepted approximation of true geodesic
	// clustering, not something to correct here.
	GridSizeDegrees float64 `yaml:"grid_size_degrees" mapstructure:"grid_size_degrees"`
	// NoiseThreshold wholly excludes cells whose total score falls below it.
	NoiseThreshold int            `yaml:"noise_threshold" mapstructure:"noise_threshold"`
	Risk           RiskThresholds `yaml:"risk" mapstructure:"risk"`
	// CellRadiusKM is echoed into every zone's radius_km; it is display
	// metadata, not derived from actual event spread.
	CellRadiusKM float64 `yaml:"cell_radius_km" mapstructure:"cell_radius_km"`
	// MaxRepresentative caps the titles sampled per cell.
	MaxRepresentative int `yaml:"max_representative" mapstructure:"max_representative"`
	// RepresentativeByScore picks the highest-scoring titles instead of the
	// first encountered. Off by default to match the historical behavior.
	RepresentativeByScore bool `yaml:"representative_by_score" mapstructure:"representative_by_score"`
}

// DefaultAggregationConfig returns the stock aggregation parameters.
func DefaultAggregationConfig() AggregationConfig {
	return AggregationConfig{
		GridSizeDegrees:   5.0,
		NoiseThreshold:    30,
		Risk:              RiskThresholds{DeepRed: 300, High: 150, Medium: 80},
		CellRadiusKM:      500,
		MaxRepresentative: 3,
	}
}

// ValidateAggregationConfig checks that an AggregationConfig is usable.
func ValidateAggregationConfig(c AggregationConfig) error {
	if c.GridSizeDegrees <= 0 {
		return eris.New("hazard: grid_size_degrees must be positive")
	}
	if c.CellRadiusKM <= 0 {
		return eris.New("hazard: cell_radius_km must be positive")
	}
	if c.MaxRepresentative < 0 {
		return eris.New("hazard: max_representative must be >= 0")
	}
	if c.Risk.Medium > c.Risk.High || c.Risk.High > c.Risk.DeepRed {
		return eris.New("hazard: risk thresholds must be ordered medium <= high <= deep_red")
	}
	return nil
}

// DangerZone summarizes one grid cell's combined severity.
type DangerZone struct {
	Latitude             float64  `json:"latitude"`
	Longitude            float64  `json:"longitude"`
	RiskScore            int      `json:"risk_score"`
	EventCount           int      `json:"event_count"`
	RiskLevel            string   `json:"risk_level"`
	RadiusKM             float64  `json:"radius_km"`
	RepresentativeEvents []string `json:"representative_events"`
}

// Aggregator merges scored, geolocated events into ranked danger zones.
// Like the Scorer it snapshots its config and holds no mutable state, so
// independent aggregations may run concurrently.
type Aggregator struct {
	cfg    AggregationConfig
	scorer *Scorer
}

// NewAggregator builds an Aggregator that scores events with scorer.
func NewAggregator(cfg AggregationConfig, scorer *Scorer) *Aggregator {
	return &Aggregator{cfg: cfg, scorer: scorer}
}

type cellKey struct {
	latIdx int
	lonIdx int
}

type scoredTitle struct {
	title string
	score int
}

type cellAccum struct {
	score  int
	count  int
	latSum float64
	lonSum float64
	titles []scoredTitle
}

// Aggregate buckets events into fixed-degree grid cells and returns the cells
// that clear the noise threshold, ordered by descending risk score with
// centroid latitude then longitude as tie-breaks. Events without both
// coordinates are silently excluded; an empty input yields an empty result.
func (a *Aggregator) Aggregate(events []Event) []DangerZone {
	cells := make(map[cellKey]*cellAccum)

	for _, ev := range events {
		if !ev.HasCoordinates() {
			continue
		}
		lat, lon := *ev.Latitude, *ev.Longitude
		key := cellKey{
			latIdx: int(math.Floor(lat / a.cfg.GridSizeDegrees)),
			lonIdx: int(math.Floor(lon / a.cfg.GridSizeDegrees)),
		}
		c := cells[key]
		if c == nil {
			c = &cellAccum{}
			cells[key] = c
		}
		score := a.scorer.Score(ev)
		c.score += score
		c.count++
		c.latSum += lat
		c.lonSum += lon
		if a.cfg.RepresentativeByScore || len(c.titles) < a.cfg.MaxRepresentative {
			c.titles = append(c.titles, scoredTitle{title: ev.Title, score: score})
		}
	}

	zones := make([]DangerZone, 0, len(cells))
	for _, c := range cells {
		if c.score < a.cfg.NoiseThreshold {
			continue
		}
		zones = append(zones, DangerZone{
			Latitude:             round2(c.latSum / float64(c.count)),
			Longitude:            round2(c.lonSum / float64(c.count)),
			RiskScore:            c.score,
			EventCount:           c.count,
			RiskLevel:            a.classify(c.score),
			RadiusKM:             a.cfg.CellRadiusKM,
			RepresentativeEvents: a.representatives(c.titles),
		})
	}

	// Map iteration order is not reproducible; the contract here is an
	// explicit ranking instead.
	sort.Slice(zones, func(i, j int) bool {
		if zones[i].RiskScore != zones[j].RiskScore {
			return zones[i].RiskScore > zones[j].RiskScore
		}
		if zones[i].Latitude != zones[j].Latitude {
			return zones[i].Latitude < zones[j].Latitude
		}
		return zones[i].Longitude < zones[j].Longitude
	})
	return zones
}

func (a *Aggregator) classify(score int) string {
	switch {
	case score > a.cfg.Risk.DeepRed:
		return RiskDeepRed
	case score > a.cfg.Risk.High:
		return RiskHigh
	case score > a.cfg.Risk.Medium:
		return RiskMedium
	default:
		return RiskLow
	}
}

func (a *Aggregator) representatives(titles []scoredTitle) []string {
	if a.cfg.RepresentativeByScore {
		sort.SliceStable(titles, func(i, j int) bool { return titles[i].score > titles[j].score })
	}
	n := len(titles)
	if n > a.cfg.MaxRepresentative {
		n = a.cfg.MaxRepresentative
	}
	out := make([]string, 0, n)
	for _, t := range titles[:n] {
		out = append(out, t.title)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
