package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/vpp/core/events"
	"github.com/kilianp07/vpp/core/logger"
	coremetrics "github.com/kilianp07/vpp/core/metrics"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/internal/eventbus"
)

// StartEventCollector subscribes to bus and turns scheduling events into
// sink calls. It stops when ctx is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) {
	if bus == nil || sink == nil {
		return
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := collect(sink, ev); err != nil {
					log.Warnf("metrics: %v", err)
				}
			}
		}
	}()
}

func collect(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.AttemptFinished:
		r, ok := sink.(coremetrics.AttemptRecorder)
		if !ok {
			return nil
		}
		return r.RecordAttempt(coremetrics.AttemptEvent{
			RunID:      e.RunID,
			Mode:       e.Mode.String(),
			Objective:  e.Objective.String(),
			Attempt:    e.Attempt,
			Gap:        e.Options.Gap,
			TimeLimit:  e.Options.TimeLimit,
			Duration:   e.Duration,
			ErrorClass: model.ErrorClass(e.Err),
			Time:       time.Now(),
		})
	case events.RunFinished:
		err := sink.RecordRun(coremetrics.RunEvent{
			RunID:     e.RunID,
			Mode:      e.Mode.String(),
			Objective: e.Objective.String(),
			Status:    e.Status,
			Attempts:  e.Attempts,
			Duration:  e.Duration,
			Value:     e.Value,
			NetCost:   e.NetCost,
			Time:      e.Time,
		})
		if err != nil || e.Report == nil {
			return err
		}
		if r, ok := sink.(coremetrics.ScheduleRecorder); ok {
			return r.RecordSchedule(coremetrics.ScheduleEvent{RunID: e.RunID, Report: e.Report, Time: e.Time})
		}
	}
	return nil
}
