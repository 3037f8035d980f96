package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering, in order of precedence (low -> high):
//  1. defaults (New)
//  2. YAML file named by MMR_CONFIG, if set
//  3. environment variables with the MMR_ prefix
//
// Env keys map flat onto top-level koanf tags, underscores preserved:
// MMR_HISTORY_DIR -> history_dir. The nested rating section is file-only.
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv("MMR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrLoadConfig)
		}
	}

	envProvider := env.Provider("MMR_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MMR_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrLoadConfig)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrLoadConfig)
	}

	if cfg.WriteBatchSize <= 0 {
		return nil, fmt.Errorf("write_batch_size must be positive: %w", ErrInvalidConfig)
	}
	if cfg.Rating.MaxChange <= 0 {
		return nil, fmt.Errorf("rating.max_change must be positive: %w", ErrInvalidConfig)
	}
	return &cfg, nil
}
