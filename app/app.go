// Package app wires the configured components into a running scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/vpp/api/schedule"
	"github.com/kilianp07/vpp/config"
	"github.com/kilianp07/vpp/core/assembler"
	"github.com/kilianp07/vpp/core/datagen"
	coremetrics "github.com/kilianp07/vpp/core/metrics"
	"github.com/kilianp07/vpp/core/monitoring"
	"github.com/kilianp07/vpp/core/runlog"
	"github.com/kilianp07/vpp/core/scheduler"
	"github.com/kilianp07/vpp/core/solver"
	"github.com/kilianp07/vpp/infra/logger"
	"github.com/kilianp07/vpp/infra/metrics"
	inframon "github.com/kilianp07/vpp/infra/monitoring"
	"github.com/kilianp07/vpp/infra/mqtt"
	"github.com/kilianp07/vpp/infra/tracing"
	"github.com/kilianp07/vpp/internal/eventbus"
)

// App holds the wired components. Close releases them.
type App struct {
	Config    *config.Config
	Scheduler *scheduler.Scheduler
	Store     runlog.Store
	Sink      coremetrics.MetricsSink
	Bus       *eventbus.Bus

	log      logger.Logger
	mon      monitoring.Monitor
	mqtt     *mqtt.PahoClient
	shutdown tracing.Shutdown
	stop     context.CancelFunc
}

// newMQTTClient can be overridden in tests.
var newMQTTClient = mqtt.NewPahoClient

// New builds an App from cfg. The components start in dependency order and
// the ones already started are released when a later one fails.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, log: logger.New("app")}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if app.shutdown, err = tracing.Init(ctx, cfg.Tracing, logger.New("tracing")); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	if app.mon, err = inframon.NewSentryMonitor(cfg.Sentry); err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(app.mon)

	if app.Sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if app.Store, err = runlog.Open(cfg.Logging.RunStore()); err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}

	opt, err := solver.New(cfg.Solver.Module())
	if err != nil {
		return nil, err
	}
	runner := solver.NewRunner(opt, cfg.Solver.Runner(), logger.New("solver"))
	asm := assembler.New(cfg.Catalogue,
		assembler.WithReservation(cfg.Policy.CapacityReservation),
		assembler.WithLogger(logger.New("assembler")),
	)

	app.Bus = eventbus.New()
	collectCtx, stop := context.WithCancel(context.Background())
	app.stop = stop
	metrics.StartEventCollector(collectCtx, app.Bus, app.Sink, logger.New("metrics"))

	opts := []scheduler.Option{
		scheduler.WithEventBus(app.Bus),
		scheduler.WithRunStore(app.Store),
		scheduler.WithMonitor(app.mon),
		scheduler.WithLogger(logger.New("scheduler")),
	}
	if cfg.MQTT.Enabled {
		if app.mqtt, err = newMQTTClient(cfg.MQTT); err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		pub := mqtt.NewSetpointPublisher(app.mqtt, cfg.MQTT.AckTimeout, logger.New("mqtt"))
		opts = append(opts, scheduler.WithPublisher(pub))
	}
	app.Scheduler = scheduler.New(asm, runner, cfg.Scheduler, opts...)
	app.log.Infof("scheduler ready: backend=%s parallelism=%d", opt.Name(), app.Scheduler.Config().Parallelism)
	return app, nil
}

// Generator returns a data generator seeded from the datagen section.
func (a *App) Generator() *datagen.Generator { return datagen.New(a.Config.Datagen) }

// Handler returns the HTTP API backed by the scheduler and run store.
func (a *App) Handler() http.Handler {
	return schedule.NewHandler(a.Scheduler, a.Store, schedule.Options{
		Token:          a.Config.API.Token,
		AllowedOrigins: a.Config.API.AllowedOrigins,
		MaxPeriods:     a.Config.API.MaxPeriods,
		Datagen:        a.Config.Datagen,
		Metrics:        metrics.Handler(),
		Log:            logger.New("api"),
	})
}

// Serve runs the API, and the Prometheus endpoint when metrics.addr is
// set, until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	errs := make(chan error, 2)
	n := 1
	go func() { errs <- schedule.Serve(ctx, a.Config.API.Addr, a.Handler(), logger.New("api")) }()
	if addr := a.Config.Metrics.Addr; addr != "" {
		n++
		go func() { errs <- metrics.StartPromServer(ctx, addr, logger.New("metrics")) }()
	}
	var all []error
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	if a.Bus != nil {
		a.Bus.Close()
	}
	if a.mqtt != nil {
		a.mqtt.Disconnect()
	}
	if a.Sink != nil {
		coremetrics.Close(a.Sink)
	}
	if a.mon != nil {
		a.mon.Flush(2 * time.Second)
	}
	tracing.ShutdownWithTimeout(context.Background(), a.shutdown, a.log)
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
