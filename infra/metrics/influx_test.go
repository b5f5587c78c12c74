package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vpp/core/analysis"
	coremetrics "github.com/kilianp07/vpp/core/metrics"
	"github.com/kilianp07/vpp/core/model"
)

type bodies struct {
	mu  sync.Mutex
	all []string
}

func (b *bodies) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.all = append(b.all, strings.TrimSpace(string(data)))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordRun(t *testing.T) {
	var b bodies
	srv := b.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.RunEvent{
		RunID: "r1", Mode: "storage_only", Objective: "cost_minimization", Status: "ok",
		Attempts: 2, Duration: 1500 * time.Millisecond, Value: -1234.5678, NetCost: 987.6543, Time: now,
	}
	require.NoError(t, sink.RecordRun(ev))

	p := write.NewPointWithMeasurement("vpp_run").
		AddTag("mode", "storage_only").
		AddTag("objective", "cost_minimization").
		AddTag("status", "ok").
		AddField("run_id", "r1").
		AddField("attempts", 2).
		AddField("duration_ms", 1500.0).
		AddField("objective_value", -1234.568).
		AddField("net_cost_yuan", 987.654).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, b.all)
}

func TestInfluxSink_RecordAttempt(t *testing.T) {
	var b bodies
	srv := b.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordAttempt(coremetrics.AttemptEvent{
		RunID: "r1", Mode: "traditional", Objective: "profit_maximization", Attempt: 3,
		Gap: 0.05, TimeLimit: 10 * time.Minute, Duration: 2 * time.Millisecond, ErrorClass: "timeout", Time: now,
	}))
	p := write.NewPointWithMeasurement("vpp_solver_attempt").
		AddTag("mode", "traditional").
		AddTag("objective", "profit_maximization").
		AddTag("error_class", "timeout").
		AddField("run_id", "r1").
		AddField("attempt", 3).
		AddField("ratio_gap", 0.05).
		AddField("time_limit_s", 600.0).
		AddField("duration_ms", 2.0).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, b.all)
}

func TestInfluxSink_RecordSchedule(t *testing.T) {
	var b bodies
	srv := b.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Org: "org", Bucket: "bucket"})
	defer sink.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	two := []float64{1, 2}
	sched := analysis.Schedule{Start: start, StepHours: 1, Periods: 2, Load: two, GridPurchase: two}
	fill(&sched)
	rep := &analysis.Report{Mode: model.ModeStorageOnly, Objective: model.ObjectiveCostMinimization, Schedule: sched}

	require.NoError(t, sink.RecordSchedule(coremetrics.ScheduleEvent{RunID: "r9", Report: rep}))
	require.Len(t, b.all, 1)
	rows := strings.Split(b.all[0], "\n")
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[0], "vpp_schedule,"))
	assert.Contains(t, rows[0], "run_id=r9")
	assert.Contains(t, rows[1], "load_demand_mw=2")
	assert.True(t, strings.HasSuffix(rows[1], "1704070800000000000"))

	assert.NoError(t, sink.RecordSchedule(coremetrics.ScheduleEvent{RunID: "none"}))
}

func fill(s *analysis.Schedule) {
	for _, p := range []*[]float64{
		&s.PV, &s.Wind, &s.Gas, &s.Charge, &s.Discharge, &s.Level, &s.GridSale, &s.Chiller, &s.HeatPump,
		&s.FreqRegUp, &s.FreqRegDown, &s.SpinReserveUp, &s.SpinReserveDown,
		&s.BatteryNet, &s.TotalRenewable, &s.GridNet, &s.TotalSupply, &s.PowerBalance,
	} {
		if *p == nil {
			*p = make([]float64, s.Periods)
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called)
}
