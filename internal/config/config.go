package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Hanoi896/risk-map/internal/hazard"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig              `yaml:"store" mapstructure:"store"`
	Scoring     hazard.ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Aggregation hazard.AggregationConfig `yaml:"aggregation" mapstructure:"aggregation"`
	Sources     SourcesConfig            `yaml:"sources" mapstructure:"sources"`
	Weather     WeatherConfig            `yaml:"weather" mapstructure:"weather"`
	Server      ServerConfig             `yaml:"server" mapstructure:"server"`
	Log         LogConfig                `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the event store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SourcesConfig configures the external hazard feeds.
type SourcesConfig struct {
	EONET     EONETConfig     `yaml:"eonet" mapstructure:"eonet"`
	GDACS     GDACSConfig     `yaml:"gdacs" mapstructure:"gdacs"`
	ReliefWeb ReliefWebConfig `yaml:"reliefweb" mapstructure:"reliefweb"`
	// TimeoutSecs bounds each feed request.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
}

// EONETConfig configures the NASA EONET point-event catalog.
type EONETConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	SinceYears int    `yaml:"since_years" mapstructure:"since_years"`
}

// GDACSConfig configures the GDACS RSS alert feed.
type GDACSConfig struct {
	FeedURL string `yaml:"feed_url" mapstructure:"feed_url"`
}

// ReliefWebConfig configures the ReliefWeb report API.
type ReliefWebConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	AppName  string `yaml:"app_name" mapstructure:"app_name"`
	Days     int    `yaml:"days" mapstructure:"days"`
	PageSize int    `yaml:"page_size" mapstructure:"page_size"`
}

// WeatherConfig configures the OpenWeatherMap passthrough.
type WeatherConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Units   string `yaml:"units" mapstructure:"units"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// FetchCron, if set, schedules background fetch cycles while serving
	// (standard cron spec, e.g. "0 */6 * * *").
	FetchCron string `yaml:"fetch_cron" mapstructure:"fetch_cron"`
	// EventLimit caps events returned per API query.
	EventLimit int `yaml:"event_limit" mapstructure:"event_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RISKMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/riskmap.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.event_limit", 1000)
	v.SetDefault("sources.timeout_secs", 30)
	v.SetDefault("sources.max_retries", 3)
	v.SetDefault("sources.eonet.base_url", "https://eonet.gsfc.nasa.gov/api/v3")
	v.SetDefault("sources.eonet.since_years", 1)
	v.SetDefault("sources.gdacs.feed_url", "https://www.gdacs.org/rss.aspx")
	v.SetDefault("sources.reliefweb.base_url", "https://api.reliefweb.int/v1")
	v.SetDefault("sources.reliefweb.app_name", "risk-map")
	v.SetDefault("sources.reliefweb.days", 90)
	v.SetDefault("sources.reliefweb.page_size", 100)
	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.units", "metric")

	// Scoring and aggregation defaults mirror the hazard package so a bare
	// config file yields the stock tables.
	scoring := hazard.DefaultScoringConfig()
	v.SetDefault("scoring.category_weights", scoring.CategoryWeights)
	v.SetDefault("scoring.default_weight", scoring.DefaultWeight)
	tiers := make([]map[string]any, 0, len(scoring.RecencyTiers))
	for _, t := range scoring.RecencyTiers {
		tiers = append(tiers, map[string]any{"max_age_days": t.MaxAgeDays, "bonus": t.Bonus})
	}
	v.SetDefault("scoring.recency_tiers", tiers)

	agg := hazard.DefaultAggregationConfig()
	v.SetDefault("aggregation.grid_size_degrees", agg.GridSizeDegrees)
	v.SetDefault("aggregation.noise_threshold", agg.NoiseThreshold)
	v.SetDefault("aggregation.risk.deep_red", agg.Risk.DeepRed)
	v.SetDefault("aggregation.risk.high", agg.Risk.High)
	v.SetDefault("aggregation.risk.medium", agg.Risk.Medium)
	v.SetDefault("aggregation.cell_radius_km", agg.CellRadiusKM)
	v.SetDefault("aggregation.max_representative", agg.MaxRepresentative)
	v.SetDefault("aggregation.representative_by_score", agg.RepresentativeByScore)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := hazard.ValidateScoringConfig(cfg.Scoring); err != nil {
		return nil, err
	}
	if err := hazard.ValidateAggregationConfig(cfg.Aggregation); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
