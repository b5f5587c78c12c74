package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/vpp/core/metrics"
	"github.com/kilianp07/vpp/infra/logger"
)

// InfluxConfig locates the bucket the sink writes to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes runs, attempts and schedules to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for cfg. The URL may include the
// /api/v2/write path.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordRun writes one vpp_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("vpp_run").
		AddTag("mode", ev.Mode).
		AddTag("objective", ev.Objective).
		AddTag("status", ev.Status).
		AddField("run_id", ev.RunID).
		AddField("attempts", ev.Attempts).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		AddField("objective_value", round3(ev.Value)).
		AddField("net_cost_yuan", round3(ev.NetCost)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAttempt writes one vpp_solver_attempt point.
func (s *InfluxSink) RecordAttempt(ev coremetrics.AttemptEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("vpp_solver_attempt").
		AddTag("mode", ev.Mode).
		AddTag("objective", ev.Objective).
		AddTag("error_class", ev.ErrorClass).
		AddField("run_id", ev.RunID).
		AddField("attempt", ev.Attempt).
		AddField("ratio_gap", ev.Gap).
		AddField("time_limit_s", ev.TimeLimit.Seconds()).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSchedule writes one vpp_schedule point per period, stamped with
// the period start.
func (s *InfluxSink) RecordSchedule(ev coremetrics.ScheduleEvent) error {
	if ev.Report == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched := ev.Report.Schedule
	cols := sched.Columns()
	points := make([]*write.Point, 0, sched.Periods)
	for i, ts := range sched.Times() {
		p := write.NewPointWithMeasurement("vpp_schedule").
			AddTag("run_id", ev.RunID).
			AddTag("mode", ev.Report.Mode.String()).
			AddTag("objective", ev.Report.Objective.String())
		for _, c := range cols {
			if i < len(c.Values) {
				p.AddField(c.Name, round3(c.Values[i]))
			}
		}
		points = append(points, p.SetTime(ts))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
