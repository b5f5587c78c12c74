package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/vpp/core/catalogue"
	"github.com/kilianp07/vpp/core/datagen"
	"github.com/kilianp07/vpp/core/metrics"
	"github.com/kilianp07/vpp/core/scheduler"
	"github.com/kilianp07/vpp/infra/mqtt"
	"github.com/kilianp07/vpp/infra/tracing"
)

type Config struct {
	Catalogue catalogue.Catalogue `json:"catalogue"`
	Policy    PolicyConfig        `json:"policy"`
	Solver    SolverConfig        `json:"solver"`
	Scheduler scheduler.Config    `json:"scheduler"`
	Datagen   datagen.Config      `json:"datagen"`
	Metrics   metrics.Config      `json:"metrics"`
	Logging   LoggingConfig       `json:"logging"`
	Sentry    SentryConfig        `json:"sentry"`
	Tracing   tracing.Config      `json:"tracing"`
	MQTT      mqtt.Config         `json:"mqtt"`
	API       APIConfig           `json:"api"`
}

// Default returns the configuration used when no file is given. Loading a
// file overlays it on these values.
func Default() *Config {
	cfg := &Config{
		Catalogue: catalogue.Default(),
		Solver:    DefaultSolverConfig(),
		Scheduler: scheduler.Config{EnforceMinProfit: true},
	}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	c.Policy.SetDefaults()
	c.Solver.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Datagen.SetDefaults()
	c.Logging.SetDefaults()
	c.Tracing.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"solver", c.Solver.Validate},
		{"datagen", c.Datagen.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
		{"tracing", c.Tracing.Validate},
		{"mqtt", c.MQTT.Validate},
		{"api", c.API.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
}

// Load reads path over Default and applies K_ environment overrides, for
// example K_SOLVER__TIME_LIMIT_SECONDS=60. An empty path reads only the
// environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
