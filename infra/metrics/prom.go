package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/vpp/core/metrics"
)

// PromSink records scheduling activity in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	attempts  *prometheus.CounterVec
	objective *prometheus.GaugeVec
	netCost   *prometheus.GaugeVec
}

// NewPromSink registers the scheduling metrics on the default registerer.
// The handler is served separately, see Handler.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer
// defaults to the global one. Collectors already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vpp_runs_total",
		Help: "Scheduling runs by outcome",
	}, []string{"mode", "objective", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vpp_run_duration_seconds",
		Help:    "Wall-clock duration of a scheduling run",
		Buckets: prometheus.ExponentialBuckets(0.005, 4, 9),
	}, []string{"mode", "objective"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vpp_solver_attempts_total",
		Help: "Optimizer calls by error class",
	}, []string{"mode", "objective", "error_class"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpp_objective_value",
		Help: "Objective value of the last successful run",
	}, []string{"mode", "objective"})
	netCost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpp_net_cost_yuan",
		Help: "Net cost of the last successful run",
	}, []string{"mode", "objective"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if attempts, err = register(reg, attempts); err != nil {
		return nil, err
	}
	if objective, err = register(reg, objective); err != nil {
		return nil, err
	}
	if netCost, err = register(reg, netCost); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, duration: duration, attempts: attempts, objective: objective, netCost: netCost}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and, on success, updates the value gauges.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Mode, ev.Objective, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Mode, ev.Objective).Observe(ev.Duration.Seconds())
	if ev.OK() {
		s.objective.WithLabelValues(ev.Mode, ev.Objective).Set(ev.Value)
		s.netCost.WithLabelValues(ev.Mode, ev.Objective).Set(ev.NetCost)
	}
	return nil
}

// RecordAttempt counts one optimizer call.
func (s *PromSink) RecordAttempt(ev coremetrics.AttemptEvent) error {
	s.attempts.WithLabelValues(ev.Mode, ev.Objective, ev.ErrorClass).Inc()
	return nil
}
