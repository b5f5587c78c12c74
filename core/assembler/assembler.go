package assembler

import (
	"fmt"

	"github.com/kilianp07/vpp/core/catalogue"
	"github.com/kilianp07/vpp/core/logger"
	"github.com/kilianp07/vpp/core/model"
	"github.com/kilianp07/vpp/core/network"
	"github.com/kilianp07/vpp/core/policy"
)

// Assembler turns a (mode, objective, time grid, series) tuple into a
// FlowNetwork. It holds only read-only configuration and is safe for
// concurrent use.
type Assembler struct {
	base        catalogue.Catalogue
	reservation policy.Reservation
	log         logger.Logger
}

// Option customises an Assembler.
type Option func(*Assembler)

// WithReservation overrides the capacity reservation policy.
func WithReservation(r policy.Reservation) Option {
	return func(a *Assembler) {
		r.SetDefaults()
		a.reservation = r
	}
}

// WithLogger sets the logger used for assembly traces.
func WithLogger(l logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// New returns an Assembler over a copy of cat.
func New(cat catalogue.Catalogue, opts ...Option) *Assembler {
	a := &Assembler{base: cat, reservation: policy.DefaultReservation(), log: logger.Nop{}}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Catalogue returns a copy of the base catalogue.
func (a *Assembler) Catalogue() catalogue.Catalogue { return a.base }

// WithCatalogue returns an Assembler sharing the options of a over cat.
func (a *Assembler) WithCatalogue(cat catalogue.Catalogue) *Assembler {
	cp := *a
	cp.base = cat
	return &cp
}

// Assemble builds the network. It fails with a ConfigurationError when an
// included resource lacks a structural parameter. Repeated calls with the
// same inputs return equal networks.
func (a *Assembler) Assemble(mode model.SchedulingMode, obj model.OptimizationObjective, grid model.TimeGrid, series model.ResourceSeries) (*network.FlowNetwork, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown scheduling mode %d", int(mode))
	}
	if !obj.Valid() {
		return nil, fmt.Errorf("unknown optimization objective %d", int(obj))
	}
	if err := series.Validate(grid); err != nil {
		return nil, fmt.Errorf("resource series: %w", err)
	}
	cfg := policy.Derive(mode, a.base)
	if err := cfg.Catalogue.Require(cfg.Resources.Kinds()...); err != nil {
		return nil, model.Annotate(err, mode, obj)
	}
	b := builder{
		cfg:    cfg,
		coeffs: policy.CoefficientsFor(obj),
		obj:    obj,
		res:    a.reservation,
		p:      grid.Periods(),
	}
	net := &network.FlowNetwork{
		Mode:         mode,
		Objective:    obj,
		Coefficients: b.coeffs,
		Resources:    cfg.Resources,
		Periods:      grid.Periods(),
		StepHours:    grid.Hours(),
		Bus:          network.Bus{Label: model.LabelBus},
	}
	b.load(net, series.Load)
	if cfg.Resources.PV() {
		b.renewable(net, model.LabelPV, model.ResourcePV, series.PV, cfg.Catalogue.EnergyResources.Photovoltaic)
	}
	if cfg.Resources.Wind() {
		b.renewable(net, model.LabelWind, model.ResourceWind, series.Wind, cfg.Catalogue.EnergyResources.Wind)
	}
	if cfg.Resources.Gas() {
		b.gasTurbine(net)
	}
	if cfg.Resources.Battery() {
		b.battery(net)
	}
	if cfg.Resources.AdjustableLoads() {
		b.adjustable(net, model.LabelChiller, model.ResourceChiller, cfg.Catalogue.AdjustableLoads.Chiller)
		b.adjustable(net, model.LabelHeatPump, model.ResourceHeatPump, cfg.Catalogue.AdjustableLoads.HeatPump)
	}
	b.gridConnection(net, series.Price)

	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("assembled network: %w", err)
	}
	a.log.Debugw("network assembled", map[string]any{
		"mode":      mode.String(),
		"objective": obj.String(),
		"periods":   net.Periods,
		"sources":   len(net.Sources),
		"sinks":     len(net.Sinks),
		"storage":   net.Storage != nil,
	})
	return net, nil
}

type builder struct {
	cfg    policy.ModeConfig
	coeffs policy.Coefficients
	obj    model.OptimizationObjective
	res    policy.Reservation
	p      int
}

func (b builder) constant(v float64) []float64 {
	out := make([]float64, b.p)
	for i := range out {
		out[i] = v
	}
	return out
}

func (b builder) costFlow(nominal, raw float64) network.Flow {
	return network.Flow{
		NominalValue:  nominal,
		Max:           1,
		VariableCosts: b.constant(policy.TransformCost(raw, b.coeffs)),
		UnitValue:     b.constant(raw),
	}
}

func (b builder) load(net *network.FlowNetwork, load []float64) {
	net.Sinks = append(net.Sinks, network.Sink{
		Label: model.LabelLoad,
		Kind:  model.ResourceLoad,
		Flow: network.Flow{
			NominalValue:  1,
			Fix:           append([]float64(nil), load...),
			VariableCosts: b.constant(0),
			UnitValue:     b.constant(0),
		},
	})
}

func (b builder) renewable(net *network.FlowNetwork, label string, kind model.ResourceKind, data []float64, def catalogue.RenewableDefinition) {
	peak := 0.0
	for _, v := range data {
		if v > peak {
			peak = v
		}
	}
	f := b.costFlow(1, def.VariableCost)
	f.Fix = make([]float64, b.p)
	if peak > 0 {
		f.NominalValue = peak
		for t, v := range data {
			f.Fix[t] = v / peak
		}
	}
	net.Sources = append(net.Sources, network.Source{Label: label, Kind: kind, Flow: f})
}

func (b builder) gasTurbine(net *network.FlowNetwork) {
	def := b.cfg.Catalogue.EnergyResources.GasTurbine
	f := b.costFlow(def.CapacityMW, def.VariableCost)
	f.Min = def.MinOutputRatio
	net.Sources = append(net.Sources, network.Source{Label: model.LabelGasTurbine, Kind: model.ResourceGasTurbine, Flow: f})
}

func (b builder) battery(net *network.FlowNetwork) {
	def := b.cfg.Catalogue.EnergyResources.Battery
	freqOn := b.cfg.FrequencyRegulationEnabled()
	spinOn := b.cfg.SpinningReserveEnabled()

	var freqMW, spinMW float64
	if freqOn {
		freqMW = def.Ancillary.FrequencyRegulation.MaxCapacityMW
	}
	if spinOn {
		spinMW = def.Ancillary.SpinningReserve.MaxCapacityMW
	}
	available := b.res.Available(def.PowerCapacityMW, freqMW, spinMW)

	net.Storage = &network.Storage{
		Label:             model.LabelBattery,
		NominalCapacity:   def.EnergyCapacityMWh,
		InitialLevel:      def.InitialSOC,
		MinLevel:          def.MinSOC,
		MaxLevel:          def.MaxSOC,
		InflowConversion:  def.ChargeEfficiency,
		OutflowConversion: def.DischargeEfficiency,
		LossRate:          def.SelfDischargeRate,
		BalancedEnd:       true,
		Charge:            b.costFlow(available, def.ChargeCost),
		Discharge:         b.costFlow(available, def.DischargeCost),
	}

	if freqOn {
		b.service(net, model.ResourceFrequencyRegulation, model.LabelFreqRegUp, model.LabelFreqRegDown, def.Ancillary.FrequencyRegulation)
	}
	if spinOn {
		b.service(net, model.ResourceSpinningReserve, model.LabelSpinReserveUp, model.LabelSpinReserveDown, def.Ancillary.SpinningReserve)
	}
}

func (b builder) revenueFlow(nominal, price float64) network.Flow {
	signed := policy.TransformRevenue(price, b.coeffs)
	if b.obj == model.ObjectiveAncillaryRevenueMax {
		signed = policy.ApplyWeight(signed, policy.WeightAncillary, b.coeffs)
	}
	return network.Flow{
		NominalValue:  nominal,
		Max:           1,
		VariableCosts: b.constant(signed),
		UnitValue:     b.constant(price),
		Revenue:       true,
	}
}

// service adds the up sink and the down source of one ancillary product.
func (b builder) service(net *network.FlowNetwork, kind model.ResourceKind, upLabel, downLabel string, def catalogue.ServiceDefinition) {
	net.Sinks = append(net.Sinks, network.Sink{Label: upLabel, Kind: kind, Flow: b.revenueFlow(def.MaxCapacityMW, def.UpPrice)})
	net.Sources = append(net.Sources, network.Source{Label: downLabel, Kind: kind, Flow: b.revenueFlow(def.MaxCapacityMW, def.DownPrice)})
}

func (b builder) adjustable(net *network.FlowNetwork, label string, kind model.ResourceKind, def catalogue.AdjustableLoadDefinition) {
	f := b.costFlow(def.RatedPowerMW, def.OperatingCost)
	f.Min = def.MinPowerRatio
	f.Max = def.MaxPowerRatio
	net.Sinks = append(net.Sinks, network.Sink{Label: label, Kind: kind, Flow: f})
}

func (b builder) gridConnection(net *network.FlowNetwork, price []float64) {
	g := b.cfg.Catalogue.Grid
	imp := network.Flow{
		NominalValue:  g.MaxPurchaseMW,
		Max:           1,
		VariableCosts: make([]float64, b.p),
		UnitValue:     append([]float64(nil), price...),
	}
	exp := network.Flow{
		NominalValue:  g.MaxSaleMW,
		Max:           1,
		VariableCosts: make([]float64, b.p),
		UnitValue:     make([]float64, b.p),
		Revenue:       true,
	}
	for t, p := range price {
		imp.VariableCosts[t] = policy.TransformCost(p, b.coeffs)
		sale := p * g.SalePriceRatio
		exp.UnitValue[t] = sale
		exp.VariableCosts[t] = policy.TransformRevenue(sale, b.coeffs)
	}
	net.Sources = append(net.Sources, network.Source{Label: model.LabelGridImport, Kind: model.ResourceGrid, Flow: imp})
	net.Sinks = append(net.Sinks, network.Sink{Label: model.LabelGridExport, Kind: model.ResourceGrid, Flow: exp})
}
