// Package datagen produces synthetic input series for a VPP run and reads
// or writes them as CSV.
package datagen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/vpp/core/model"
)

// Hourly reference patterns of one day.
var (
	LoadPattern = []float64{
		45, 42, 40, 38, 37, 39, 42, 48, 55, 60, 65, 68,
		70, 72, 70, 68, 66, 65, 62, 58, 55, 52, 48, 46,
	}
	PVPattern = []float64{
		0, 0, 0, 0, 0, 0, 0.05, 0.15, 0.35, 0.55, 0.75, 0.85,
		0.90, 0.95, 0.90, 0.80, 0.65, 0.45, 0.25, 0.10, 0.02, 0, 0, 0,
	}
	PricePattern = []float64{
		300, 280, 260, 250, 250, 270, 320, 380, 420, 450, 480, 500,
		520, 540, 530, 510, 480, 460, 440, 420, 400, 370, 340, 320,
	}
)

// Config holds the datagen section of the configuration.
type Config struct {
	Start           time.Time `json:"start"`
	Periods         int       `json:"periods"`
	StepMinutes     int       `json:"step_minutes"`
	Seed            int64     `json:"seed"`
	PVCapacityMW    float64   `json:"pv_capacity_mw"`
	WindCapacityMW  float64   `json:"wind_capacity_mw"`
	LoadUncertainty float64   `json:"load_uncertainty"`
	PriceVolatility float64   `json:"price_volatility"`
	WeatherMean     float64   `json:"weather_mean"`
	WeatherStd      float64   `json:"weather_std"`
	WeatherMin      float64   `json:"weather_min"`
	WeatherMax      float64   `json:"weather_max"`
	WindShape       float64   `json:"wind_shape"`
	WindScale       float64   `json:"wind_scale"`
}

// SetDefaults fills zero values. A zero seed means 42.
func (c *Config) SetDefaults() {
	if c.Start.IsZero() {
		c.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Periods <= 0 {
		c.Periods = 24
	}
	if c.StepMinutes <= 0 {
		c.StepMinutes = 60
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.PVCapacityMW <= 0 {
		c.PVCapacityMW = 50
	}
	if c.WindCapacityMW <= 0 {
		c.WindCapacityMW = 30
	}
	if c.LoadUncertainty <= 0 {
		c.LoadUncertainty = 0.02
	}
	if c.PriceVolatility <= 0 {
		c.PriceVolatility = 0.05
	}
	if c.WeatherMean <= 0 {
		c.WeatherMean = 0.9
	}
	if c.WeatherStd <= 0 {
		c.WeatherStd = 0.1
	}
	if c.WeatherMin <= 0 {
		c.WeatherMin = 0.3
	}
	if c.WeatherMax <= 0 {
		c.WeatherMax = 1
	}
	if c.WindShape <= 0 {
		c.WindShape = 2
	}
	if c.WindScale <= 0 {
		c.WindScale = 0.6
	}
}

// Validate checks the ranges SetDefaults cannot repair.
func (c Config) Validate() error {
	if c.WeatherMin > c.WeatherMax {
		return fmt.Errorf("datagen: weather_min %g exceeds weather_max %g", c.WeatherMin, c.WeatherMax)
	}
	return nil
}

// Step returns the period length.
func (c Config) Step() time.Duration { return time.Duration(c.StepMinutes) * time.Minute }

// Dataset is a time grid and the series aligned on it.
type Dataset struct {
	Grid   model.TimeGrid
	Series model.ResourceSeries
}

// Generator draws datasets from its own random source. Two generators
// built with the same config yield the same data. A Generator is not safe
// for concurrent use.
type Generator struct {
	cfg Config
	src rand.Source
}

// New returns a Generator seeded from cfg.
func New(cfg Config) *Generator {
	cfg.SetDefaults()
	seed := uint64(cfg.Seed)
	return &Generator{cfg: cfg, src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Config returns the effective configuration.
func (g *Generator) Config() Config { return g.cfg }

// Generate draws a new dataset. Consecutive calls continue the random
// sequence.
func (g *Generator) Generate() (Dataset, error) {
	if err := g.cfg.Validate(); err != nil {
		return Dataset{}, err
	}
	grid, err := model.NewTimeGrid(g.cfg.Start, g.cfg.Periods, g.cfg.Step())
	if err != nil {
		return Dataset{}, fmt.Errorf("datagen: %w", err)
	}
	load, err := g.load()
	if err != nil {
		return Dataset{}, err
	}
	pv, err := g.pv()
	if err != nil {
		return Dataset{}, err
	}
	wind := g.wind()
	price, err := g.price()
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Grid: grid, Series: model.ResourceSeries{Load: load, PV: pv, Wind: wind, Price: price}}, nil
}

func (g *Generator) normal(mu, sigma float64) distuv.Normal {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: g.src}
}

func (g *Generator) load() ([]float64, error) {
	base, err := Resample(LoadPattern, g.cfg.Periods)
	if err != nil {
		return nil, err
	}
	noise := g.normal(0, g.cfg.LoadUncertainty)
	out := make([]float64, len(base))
	for i, b := range base {
		out[i] = math.Max(b*(1+noise.Rand()), 0.5*b)
	}
	return out, nil
}

func (g *Generator) pv() ([]float64, error) {
	base, err := Resample(PVPattern, g.cfg.Periods)
	if err != nil {
		return nil, err
	}
	weather := g.normal(g.cfg.WeatherMean, g.cfg.WeatherStd)
	out := make([]float64, len(base))
	for i, b := range base {
		f := clamp(weather.Rand(), g.cfg.WeatherMin, g.cfg.WeatherMax)
		out[i] = math.Max(b*g.cfg.PVCapacityMW*f, 0)
	}
	return out, nil
}

func (g *Generator) wind() []float64 {
	w := distuv.Weibull{K: g.cfg.WindShape, Lambda: 1, Src: g.src}
	out := make([]float64, g.cfg.Periods)
	for i := range out {
		out[i] = clamp(w.Rand()*g.cfg.WindScale, 0, 1) * g.cfg.WindCapacityMW
	}
	return out
}

func (g *Generator) price() ([]float64, error) {
	base, err := Resample(PricePattern, g.cfg.Periods)
	if err != nil {
		return nil, err
	}
	floor := 0.5 * floats.Min(PricePattern)
	vol := g.normal(1, g.cfg.PriceVolatility)
	out := make([]float64, len(base))
	for i, b := range base {
		out[i] = math.Max(b*vol.Rand(), floor)
	}
	return out, nil
}

// Resample stretches pattern over n points with a natural cubic spline
// through the pattern placed evenly on [0, 1]. A pattern of length n is
// returned as a copy.
func Resample(pattern []float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("datagen: cannot resample to %d points", n)
	}
	if len(pattern) == n {
		return append([]float64(nil), pattern...), nil
	}
	xs := make([]float64, len(pattern))
	floats.Span(xs, 0, 1)
	var spline interp.NaturalCubic
	if err := spline.Fit(xs, pattern); err != nil {
		return nil, fmt.Errorf("datagen: fit pattern: %w", err)
	}
	if n == 1 {
		return []float64{spline.Predict(0)}, nil
	}
	at := make([]float64, n)
	floats.Span(at, 0, 1)
	out := make([]float64, n)
	for i, x := range at {
		out[i] = spline.Predict(x)
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
