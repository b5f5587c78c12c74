package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/vpp/core/analysis"
	"github.com/kilianp07/vpp/core/logger"
	"github.com/kilianp07/vpp/core/model"
	coremqtt "github.com/kilianp07/vpp/core/mqtt"
	"github.com/kilianp07/vpp/core/policy"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// SetpointPublisher sends the dispatchable series of a solved schedule as
// one setpoint per resource. It implements scheduler.Publisher.
type SetpointPublisher struct {
	client     Client
	ackTimeout time.Duration
	log        logger.Logger
}

// NewSetpointPublisher wraps client. A positive ackTimeout makes every
// publish wait for the controllers to acknowledge.
func NewSetpointPublisher(client Client, ackTimeout time.Duration, log logger.Logger) *SetpointPublisher {
	return &SetpointPublisher{client: client, ackTimeout: ackTimeout, log: logger.OrNop(log)}
}

// Setpoints lists the setpoints of r for the resources its mode
// dispatches. Values are copied.
func Setpoints(runID string, r *analysis.Report) []coremqtt.Setpoint {
	s := r.Schedule
	inc := policy.ResourcesFor(r.Mode)
	type series struct {
		kind     model.ResourceKind
		resource string
		unit     string
		values   []float64
	}
	all := []series{
		{model.ResourceGasTurbine, model.LabelGasTurbine, "MW", s.Gas},
		{model.ResourceBattery, model.LabelBattery, "MW", s.BatteryNet},
		{model.ResourceChiller, model.LabelChiller, "MW", s.Chiller},
		{model.ResourceHeatPump, model.LabelHeatPump, "MW", s.HeatPump},
		{model.ResourceGrid, model.ResourceGrid.String(), "MW", s.GridNet},
		{model.ResourceFrequencyRegulation, model.LabelFreqRegUp, "MW", s.FreqRegUp},
		{model.ResourceFrequencyRegulation, model.LabelFreqRegDown, "MW", s.FreqRegDown},
		{model.ResourceSpinningReserve, model.LabelSpinReserveUp, "MW", s.SpinReserveUp},
		{model.ResourceSpinningReserve, model.LabelSpinReserveDown, "MW", s.SpinReserveDown},
	}
	var out []coremqtt.Setpoint
	for _, x := range all {
		if !inc.Includes(x.kind) || len(x.values) == 0 {
			continue
		}
		out = append(out, coremqtt.Setpoint{
			RunID:       runID,
			Resource:    x.resource,
			Mode:        r.Mode.String(),
			Objective:   r.Objective.String(),
			Unit:        x.unit,
			Start:       s.Start,
			StepMinutes: s.StepHours * 60,
			Values:      append([]float64(nil), x.values...),
		})
	}
	return out
}

// PublishSchedule sends every setpoint of r. It keeps going after a
// failed resource and returns the joined errors.
func (p *SetpointPublisher) PublishSchedule(ctx context.Context, runID string, r *analysis.Report) error {
	if r == nil {
		return errors.New("mqtt: nil report")
	}
	var errs []error
	for _, sp := range Setpoints(runID, r) {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		id, err := p.client.SendSetpoint(sp)
		if err != nil {
			errs = append(errs, fmt.Errorf("setpoint %s: %w", sp.Resource, err))
			continue
		}
		if p.ackTimeout <= 0 {
			continue
		}
		ok, err := p.client.WaitForAck(id, p.ackTimeout)
		if err == nil && !ok {
			err = coremqtt.ErrAckTimeout
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("setpoint %s ack: %w", sp.Resource, err))
		}
	}
	if len(errs) > 0 {
		p.log.Warnf("run %s: %d setpoint(s) not delivered", runID, len(errs))
	}
	return errors.Join(errs...)
}
