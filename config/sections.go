package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/vpp/core/factory"
	"github.com/kilianp07/vpp/core/policy"
	"github.com/kilianp07/vpp/core/solver"
	"github.com/kilianp07/vpp/infra/lpsolver"
)

// PolicyConfig overrides the policy defaults.
type PolicyConfig struct {
	CapacityReservation policy.Reservation `json:"capacity_reservation"`
}

// SetDefaults applies the default reservation shares.
func (c *PolicyConfig) SetDefaults() { c.CapacityReservation.SetDefaults() }

// SolverConfig selects the optimizer backend and its retry policy.
type SolverConfig struct {
	Backend          string         `json:"backend"`
	Conf             map[string]any `json:"conf"`
	Threads          int            `json:"threads"`
	TimeLimitSeconds float64        `json:"time_limit_seconds"`
	RatioGap         float64        `json:"ratio_gap"`
	MaxAttempts      int            `json:"max_attempts"`
	VerifySolution   bool           `json:"verify_solution"`
	BalanceTolerance float64        `json:"balance_tolerance"`
}

// DefaultSolverConfig verifies solutions; everything else comes from
// SetDefaults.
func DefaultSolverConfig() SolverConfig {
	c := SolverConfig{VerifySolution: true}
	c.SetDefaults()
	return c
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	d := solver.DefaultOptions()
	if c.Backend == "" {
		c.Backend = lpsolver.Name
	}
	if c.Threads == 0 {
		c.Threads = d.Threads
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = d.TimeLimit.Seconds()
	}
	if c.RatioGap == 0 {
		c.RatioGap = d.Gap
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BalanceTolerance == 0 {
		c.BalanceTolerance = solver.DefaultBalanceTolerance
	}
}

// Validate checks the numeric limits.
func (c SolverConfig) Validate() error {
	switch {
	case c.Threads < 0:
		return fmt.Errorf("threads must not be negative")
	case c.TimeLimitSeconds < 0:
		return fmt.Errorf("time_limit_seconds must not be negative")
	case c.RatioGap < 0 || c.RatioGap >= 1:
		return fmt.Errorf("ratio_gap %g outside [0, 1)", c.RatioGap)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be at least 1")
	}
	return nil
}

// Module returns the registry entry of the backend.
func (c SolverConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Backend, Conf: c.Conf}
}

// Runner returns the retry policy.
func (c SolverConfig) Runner() solver.RunnerConfig {
	return solver.RunnerConfig{
		Base: solver.Options{
			Threads:   c.Threads,
			TimeLimit: time.Duration(c.TimeLimitSeconds * float64(time.Second)),
			Gap:       c.RatioGap,
		},
		MaxAttempts:      c.MaxAttempts,
		Verify:           c.VerifySolution,
		BalanceTolerance: c.BalanceTolerance,
	}
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token, when set, guards the run history with a bearer token.
	Token          string   `json:"token"`
	AllowedOrigins []string `json:"allowed_origins"`
	// MaxPeriods bounds the horizon a request may ask for.
	MaxPeriods int `json:"max_periods"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.MaxPeriods == 0 {
		c.MaxPeriods = 672
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if !strings.Contains(c.Addr, ":") {
		return fmt.Errorf("addr %q needs a port", c.Addr)
	}
	if c.MaxPeriods < 1 {
		return fmt.Errorf("max_periods must be positive")
	}
	return nil
}
