package scheduler

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kilianp07/vpp/core/analysis"
	"github.com/kilianp07/vpp/core/assembler"
	"github.com/kilianp07/vpp/core/catalogue"
	"github.com/kilianp07/vpp/core/events"
	"github.com/kilianp07/vpp/core/logger"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/monitoring"
	"github.com/kilianp07/vpp/core/network"
	"github.com/kilianp07/vpp/core/runlog"
	"github.com/kilianp07/vpp/core/solver"
	"github.com/kilianp07/vpp/internal/eventbus"
)

const tracerName = "github.com/kilianp07/vpp/core/scheduler"

// Config holds the scheduler section of the configuration.
type Config struct {
	// Parallelism bounds the number of concurrent solves in a batch.
	Parallelism int `json:"parallelism"`
	// EnforceMinProfit turns the minimum profit ratio of an objective into
	// a hard profit floor computed from a cost-minimisation baseline.
	EnforceMinProfit bool `json:"enforce_min_profit"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
}

// Job is one run request. Catalogue, when set, replaces the scheduler
// catalogue for this job only.
type Job struct {
	Name      string
	Mode      model.SchedulingMode
	Objective model.OptimizationObjective
	Grid      model.TimeGrid
	Series    model.ResourceSeries
	Catalogue *catalogue.Catalogue
}

// Outcome is the result of one job. Err is set when no schedule was
// produced; Network may still be set when assembly succeeded.
type Outcome struct {
	RunID       string
	Name        string
	Mode        model.SchedulingMode
	Objective   model.OptimizationObjective
	Network     *network.FlowNetwork
	Result      *solver.Result
	Report      *analysis.Report
	ProfitFloor *float64
	Started     time.Time
	Duration    time.Duration
	Err         error
}

// OK reports whether the job produced a schedule.
func (o Outcome) OK() bool { return o.Err == nil && o.Report != nil }

// Status is runlog.StatusOK or the error class of Err.
func (o Outcome) Status() string {
	if o.Err == nil {
		return runlog.StatusOK
	}
	return model.ErrorClass(o.Err)
}

// Entry converts o for analysis.Compare.
func (o Outcome) Entry() analysis.Entry {
	return analysis.Entry{Mode: o.Mode, Objective: o.Objective, Report: o.Report, Err: o.Err}
}

// Record converts o for the run log.
func (o Outcome) Record() runlog.RunRecord {
	rec := runlog.RunRecord{
		RunID:     o.RunID,
		Timestamp: o.Started,
		Mode:      o.Mode.String(),
		Objective: o.Objective.String(),
		Status:    o.Status(),
		Duration:  o.Duration,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	if o.Result != nil {
		rec.Solver = o.Result.Stats.Solver
		rec.Attempts = o.Result.Stats.Attempts
		rec.Value = o.Result.Objective
	}
	if o.Report != nil {
		sum := analysis.Summarize(o.Report)
		rec.Summary = &sum
	}
	return rec
}

// Publisher forwards solved schedules, for example as MQTT setpoints.
type Publisher interface {
	PublishSchedule(ctx context.Context, runID string, r *analysis.Report) error
}

// Scheduler runs jobs. It is safe for concurrent use.
type Scheduler struct {
	asm    *assembler.Assembler
	runner *solver.Runner
	cfg    Config
	bus    eventbus.EventBus
	store  runlog.Store
	pub    Publisher
	mon    monitoring.Monitor
	tracer trace.Tracer
	log    logger.Logger
	now    func() time.Time
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithEventBus publishes run events on bus.
func WithEventBus(bus eventbus.EventBus) Option { return func(s *Scheduler) { s.bus = bus } }

// WithRunStore appends every outcome to store.
func WithRunStore(store runlog.Store) Option { return func(s *Scheduler) { s.store = store } }

// WithPublisher forwards successful schedules to p.
func WithPublisher(p Publisher) Option { return func(s *Scheduler) { s.pub = p } }

// WithMonitor reports unexpected failures to m.
func WithMonitor(m monitoring.Monitor) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.mon = m
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.log = logger.OrNop(l) }
}

// New returns a Scheduler.
func New(asm *assembler.Assembler, runner *solver.Runner, cfg Config, opts ...Option) *Scheduler {
	cfg.SetDefaults()
	s := &Scheduler{
		asm:    asm,
		runner: runner,
		cfg:    cfg,
		mon:    monitoring.NopMonitor{},
		tracer: otel.Tracer(tracerName),
		log:    logger.Nop{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Catalogue returns the catalogue jobs run against by default.
func (s *Scheduler) Catalogue() catalogue.Catalogue { return s.asm.Catalogue() }

func (s *Scheduler) publish(e eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func (s *Scheduler) assemblerFor(job Job) *assembler.Assembler {
	if job.Catalogue != nil {
		return s.asm.WithCatalogue(*job.Catalogue)
	}
	return s.asm
}

// Run executes job. Failures are reported in the outcome, never panicked.
func (s *Scheduler) Run(ctx context.Context, job Job) Outcome {
	out := Outcome{
		RunID:     uuid.NewString(),
		Name:      job.Name,
		Mode:      job.Mode,
		Objective: job.Objective,
		Started:   s.now(),
	}
	ctx, span := s.tracer.Start(ctx, "scheduler.run", trace.WithAttributes(
		attribute.String("vpp.run_id", out.RunID),
		attribute.String("vpp.mode", job.Mode.String()),
		attribute.String("vpp.objective", job.Objective.String()),
	))
	defer span.End()
	s.publish(events.RunStarted{RunID: out.RunID, Mode: job.Mode, Objective: job.Objective, Time: out.Started})

	asm := s.assemblerFor(job)
	out.Network, out.Result, out.Err = s.solve(ctx, asm, job, out.RunID)
	if out.Network != nil {
		out.ProfitFloor = out.Network.ProfitFloor
	}
	if out.Err == nil {
		out.Report, out.Err = analysis.Analyze(job.Grid, out.Network, out.Result, job.Series.Price, asm.Catalogue())
	}
	out.Duration = s.now().Sub(out.Started)
	s.finish(ctx, span, &out)
	return out
}

func (s *Scheduler) solve(ctx context.Context, asm *assembler.Assembler, job Job, runID string) (*network.FlowNetwork, *solver.Result, error) {
	net, err := s.assemble(ctx, asm, job, job.Objective)
	if err != nil {
		return nil, nil, err
	}
	if net.Coefficients.HasMinProfit() && s.cfg.EnforceMinProfit {
		floor, err := s.profitFloor(ctx, asm, job, *net.Coefficients.MinProfitRatio)
		if err != nil {
			return net, nil, err
		}
		net.ProfitFloor = &floor
		s.log.Debugw("profit floor set", map[string]any{"run_id": runID, "floor": floor})
	}
	ctx, span := s.tracer.Start(ctx, "solver.run")
	defer span.End()
	res, err := s.runner.Run(ctx, net, func(a solver.Attempt) {
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.Int("number", a.Number),
			attribute.Float64("gap", a.Options.Gap),
			attribute.String("error_class", model.ErrorClass(a.Err)),
		))
		s.publish(events.AttemptFinished{
			RunID:     runID,
			Mode:      job.Mode,
			Objective: job.Objective,
			Attempt:   a.Number,
			Options:   a.Options,
			Duration:  a.Duration,
			Err:       a.Err,
		})
	})
	return net, res, err
}

func (s *Scheduler) assemble(ctx context.Context, asm *assembler.Assembler, job Job, obj model.OptimizationObjective) (*network.FlowNetwork, error) {
	_, span := s.tracer.Start(ctx, "assembler.assemble", trace.WithAttributes(attribute.String("vpp.objective", obj.String())))
	defer span.End()
	net, err := asm.Assemble(job.Mode, obj, job.Grid, job.Series)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("vpp.nodes", len(net.Labels())))
	return net, nil
}

// profitFloor solves the cost-minimisation baseline of the job's mode and
// returns baseline - (1-ratio)·|baseline|.
func (s *Scheduler) profitFloor(ctx context.Context, asm *assembler.Assembler, job Job, ratio float64) (float64, error) {
	base, err := s.assemble(ctx, asm, job, model.ObjectiveCostMinimization)
	if err != nil {
		return 0, fmt.Errorf("profit baseline: %w", err)
	}
	res, err := s.runner.Run(ctx, base)
	if err != nil {
		return 0, fmt.Errorf("profit baseline: %w", err)
	}
	profit := solver.Profit(base, res)
	return profit - (1-ratio)*math.Abs(profit), nil
}

func (s *Scheduler) finish(ctx context.Context, span trace.Span, out *Outcome) {
	fin := events.RunFinished{
		RunID:     out.RunID,
		Mode:      out.Mode,
		Objective: out.Objective,
		Status:    out.Status(),
		Duration:  out.Duration,
		Err:       out.Err,
		Time:      s.now(),
	}
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Status())
		s.log.Warnf("run %s %s/%s failed: %v", out.RunID, out.Mode, out.Objective, out.Err)
		if monitoring.Reportable(out.Err) {
			s.mon.CaptureException(out.Err, map[string]string{
				"run_id":    out.RunID,
				"mode":      out.Mode.String(),
				"objective": out.Objective.String(),
			})
		}
	} else {
		fin.Value = out.Result.Objective
		fin.NetCost = out.Report.Economics.NetCost
		fin.Attempts = out.Result.Stats.Attempts
		fin.Report = out.Report
		span.SetAttributes(
			attribute.Float64("vpp.net_cost", fin.NetCost),
			attribute.Int("vpp.attempts", out.Result.Stats.Attempts),
		)
		s.log.Infof("run %s %s/%s solved: net cost %.2f yuan in %s", out.RunID, out.Mode, out.Objective, fin.NetCost, out.Duration)
		if s.pub != nil {
			if err := s.pub.PublishSchedule(ctx, out.RunID, out.Report); err != nil {
				s.log.Errorf("publish schedule %s: %v", out.RunID, err)
			}
		}
	}
	s.publish(fin)
	if s.store != nil {
		if err := s.store.Append(ctx, out.Record()); err != nil {
			s.log.Errorf("run log append %s: %v", out.RunID, err)
		}
	}
}
