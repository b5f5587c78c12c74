package scheduler

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/vpp/core/analysis"
	"github.com/kilianp07/vpp/core/model"
)

// Report is the result of a batch. Outcomes follow the order of the jobs.
type Report struct {
	Outcomes   []Outcome           `json:"-"`
	Comparison analysis.Comparison `json:"comparison"`
}

// Succeeded counts the outcomes that produced a schedule.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Batch runs jobs with bounded parallelism. A failing or panicking job is
// recorded in its outcome and the others continue.
func (s *Scheduler) Batch(ctx context.Context, jobs []Job) Report {
	ctx, span := s.tracer.Start(ctx, "scheduler.batch", trace.WithAttributes(attribute.Int("vpp.jobs", len(jobs))))
	defer span.End()

	outs := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(s.cfg.Parallelism)
	for i, job := range jobs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("run %s/%s panicked: %v", job.Mode, job.Objective, r)
					outs[i] = Outcome{Name: job.Name, Mode: job.Mode, Objective: job.Objective, Err: err}
					s.mon.CaptureException(err, map[string]string{"mode": job.Mode.String(), "objective": job.Objective.String()})
				}
			}()
			outs[i] = s.Run(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]analysis.Entry, len(outs))
	for i, o := range outs {
		entries[i] = o.Entry()
	}
	rep := Report{Outcomes: outs, Comparison: analysis.Compare(entries)}
	span.SetAttributes(attribute.Int("vpp.succeeded", rep.Succeeded()))
	s.log.Infof("batch finished: %d/%d jobs solved", rep.Succeeded(), len(jobs))
	return rep
}

// CompareModes runs every scheduling mode under obj.
func (s *Scheduler) CompareModes(ctx context.Context, obj model.OptimizationObjective, grid model.TimeGrid, series model.ResourceSeries) Report {
	var jobs []Job
	for _, m := range model.AllModes() {
		jobs = append(jobs, Job{Name: m.String(), Mode: m, Objective: obj, Grid: grid, Series: series})
	}
	return s.Batch(ctx, jobs)
}

// CompareObjectives runs every objective under mode.
func (s *Scheduler) CompareObjectives(ctx context.Context, mode model.SchedulingMode, grid model.TimeGrid, series model.ResourceSeries) Report {
	var jobs []Job
	for _, o := range model.AllObjectives() {
		jobs = append(jobs, Job{Name: o.String(), Mode: mode, Objective: o, Grid: grid, Series: series})
	}
	return s.Batch(ctx, jobs)
}

// CompareAll runs the full mode by objective matrix.
func (s *Scheduler) CompareAll(ctx context.Context, grid model.TimeGrid, series model.ResourceSeries) Report {
	var jobs []Job
	for _, m := range model.AllModes() {
		for _, o := range model.AllObjectives() {
			jobs = append(jobs, Job{Name: m.String() + "/" + o.String(), Mode: m, Objective: o, Grid: grid, Series: series})
		}
	}
	return s.Batch(ctx, jobs)
}
