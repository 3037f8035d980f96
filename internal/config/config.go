// Package config defines process configuration and its loading.
//
// Conventions follow the rest of the repo: defaults come from New,
// Load layers an optional YAML file and environment variables on top,
// and callers treat the result as immutable.
package config

import (
	"github.com/riftline/mmr/internal/domain/formula"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// HistoryDir is the directory of game-history files.
	HistoryDir string `koanf:"history_dir"`

	// RegistryPath is the SQLite database holding persisted ratings.
	RegistryPath string `koanf:"registry_path"`

	// MetricsAddr exposes Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// WriteBatchSize bounds how many keys one persistence batch covers.
	WriteBatchSize int `koanf:"write_batch_size"`

	// Rating holds the formula tunables. The defaults are the
	// hand-tuned production values; change them only deliberately, as
	// historical ratings are only reproducible under the weights that
	// produced them.
	Rating RatingConfig `koanf:"rating"`
}

// RatingConfig mirrors formula.Params for file/env layering.
type RatingConfig struct {
	PlacementWeight float64 `koanf:"placement_weight"`
	CombatWeight    float64 `koanf:"combat_weight"`
	DamageWeight    float64 `koanf:"damage_weight"`
	SupportWeight   float64 `koanf:"support_weight"`
	KFactor         float64 `koanf:"k_factor"`
	MaxChange       float64 `koanf:"max_change"`
	CatchupScale    float64 `koanf:"catchup_scale"`
	CatchupCap      float64 `koanf:"catchup_cap"`
	DampenScale     float64 `koanf:"dampen_scale"`
	DampenCap       float64 `koanf:"dampen_cap"`
}

// New creates a Config with defaults.
func New() *Config {
	params := formula.DefaultParams()
	return &Config{
		LogLevel:       "info",
		HistoryDir:     "history",
		RegistryPath:   "ratings.db",
		WriteBatchSize: 100,
		Rating: RatingConfig{
			PlacementWeight: params.PlacementWeight,
			CombatWeight:    params.CombatWeight,
			DamageWeight:    params.DamageWeight,
			SupportWeight:   params.SupportWeight,
			KFactor:         params.KFactor,
			MaxChange:       params.MaxChange,
			CatchupScale:    params.CatchupScale,
			CatchupCap:      params.CatchupCap,
			DampenScale:     params.DampenScale,
			DampenCap:       params.DampenCap,
		},
	}
}

// Params converts the rating section into formula parameters.
func (c *Config) Params() formula.Params {
	return formula.New(
		formula.WithWeights(c.Rating.PlacementWeight, c.Rating.CombatWeight, c.Rating.DamageWeight, c.Rating.SupportWeight),
		formula.WithKFactor(c.Rating.KFactor),
		formula.WithMaxChange(c.Rating.MaxChange),
		formula.WithCatchup(c.Rating.CatchupScale, c.Rating.CatchupCap),
		formula.WithDampening(c.Rating.DampenScale, c.Rating.DampenCap),
	)
}
