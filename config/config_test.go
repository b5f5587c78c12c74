package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vpp/core/catalogue"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := write(t, "config.yaml", `catalogue:
  energy_resources:
    battery_storage:
      energy_capacity_mwh: 120
      ancillary_services:
        frequency_regulation:
          enable: true
policy:
  capacity_reservation:
    frequency_share: 0.4
solver:
  time_limit_seconds: 60
  ratio_gap: 0.02
  verify_solution: false
scheduler:
  parallelism: 2
  enforce_min_profit: false
datagen:
  periods: 96
  step_minutes: 15
  start: "2024-06-01T00:00:00Z"
metrics:
  sinks:
    - type: "nop"
logging:
  level: debug
  backend: sqlite
  path: runs.db
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  ack_timeout: 3s
api:
  addr: ":9000"
  token: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	def := catalogue.Default()
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"battery energy", cfg.Catalogue.EnergyResources.Battery.EnergyCapacityMWh, 120.0},
		{"battery power kept", cfg.Catalogue.EnergyResources.Battery.PowerCapacityMW, def.EnergyResources.Battery.PowerCapacityMW},
		{"freq enabled", cfg.Catalogue.EnergyResources.Battery.Ancillary.FrequencyRegulation.Enable, true},
		{"freq price kept", cfg.Catalogue.EnergyResources.Battery.Ancillary.FrequencyRegulation.UpPrice, def.EnergyResources.Battery.Ancillary.FrequencyRegulation.UpPrice},
		{"frequency share", cfg.Policy.CapacityReservation.FrequencyShare, 0.4},
		{"spinning share default", cfg.Policy.CapacityReservation.SpinningShare, 0.3},
		{"time limit", cfg.Solver.Runner().Base.TimeLimit, time.Minute},
		{"gap", cfg.Solver.Runner().Base.Gap, 0.02},
		{"verify", cfg.Solver.VerifySolution, false},
		{"max attempts", cfg.Solver.MaxAttempts, 3},
		{"backend", cfg.Solver.Module().Type, "simplex"},
		{"parallelism", cfg.Scheduler.Parallelism, 2},
		{"min profit", cfg.Scheduler.EnforceMinProfit, false},
		{"periods", cfg.Datagen.Periods, 96},
		{"seed", cfg.Datagen.Seed, int64(42)},
		{"start", cfg.Datagen.Start.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), true},
		{"metrics sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"level", cfg.Logging.Level, "debug"},
		{"run store", cfg.Logging.RunStore().Backend, "sqlite"},
		{"mqtt ack", cfg.MQTT.AckTimeout, 3 * time.Second},
		{"mqtt prefix", cfg.MQTT.TopicPrefix, "vpp"},
		{"api addr", cfg.API.Addr, ":9000"},
		{"api origins", cfg.API.AllowedOrigins[0], "*"},
		{"tracing", cfg.Tracing.Exporter, "stdout"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Scheduler.EnforceMinProfit)
	assert.True(t, cfg.Solver.VerifySolution)
	assert.Equal(t, 300*time.Second, cfg.Solver.Runner().Base.TimeLimit)
	assert.Equal(t, catalogue.Default(), cfg.Catalogue)
	assert.Equal(t, "jsonl", cfg.Logging.Backend)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_SOLVER__TIME_LIMIT_SECONDS", "60")
	t.Setenv("K_LOGGING__LEVEL", "warn")
	t.Setenv("K_API__MAX_PERIODS", "96")
	path := write(t, "config.json", `{"solver": {"time_limit_seconds": 10}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60.0, cfg.Solver.TimeLimitSeconds)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 96, cfg.API.MaxPeriods)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want string
	}{
		{"format", "config.toml", "", "unsupported config format"},
		{"gap", "c.yaml", "solver:\n  ratio_gap: 2\n", "solver: ratio_gap"},
		{"backend", "c.yaml", "logging:\n  backend: postgres\n", "logging: unknown backend"},
		{"level", "c.yaml", "logging:\n  level: loud\n", "logging: level"},
		{"mqtt", "c.yaml", "mqtt:\n  enabled: true\n", "mqtt: "},
		{"datagen", "c.yaml", "datagen:\n  weather_min: 0.9\n  weather_max: 0.5\n", "datagen: "},
		{"tracing", "c.yaml", "tracing:\n  exporter: zipkin\n", "tracing: "},
		{"api", "c.yaml", "api:\n  addr: localhost\n", "api: "},
		{"sentry", "c.yaml", "sentry:\n  traces_sample_rate: 2\n", "sentry: traces_sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.file, tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
