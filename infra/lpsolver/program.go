package lpsolver

import (
	"math"

	"github.com/kilianp07/vpp/core/network"
)

// variable is one structural column. The column holds x - lower so that
// every column is non-negative; span is the upper bound of the shifted
// column and gets its own slack row.
type variable struct {
	lower  float64
	span   float64
	cost   float64
	profit float64
}

type row struct {
	coef map[int]float64
	rhs  float64
	// surplus marks a >= row that takes a negative slack.
	surplus bool
}

// program is a flow network rewritten as
//
//	min c'x  s.t.  Ax = b, x >= 0
//
// with one column per non-constant flow and period, one per storage level,
// and one slack per column for its upper bound.
type program struct {
	net  *network.FlowNetwork
	vars []variable
	rows []row

	constObj    float64
	constProfit float64

	// cols holds the column of each flow per period, -1 when constant.
	cols   map[string][]int
	consts map[string][]float64

	charge, discharge, level []int
}

func (p *program) addVar(v variable) int {
	p.vars = append(p.vars, v)
	p.constObj += v.cost * v.lower
	p.constProfit += v.profit * v.lower
	return len(p.vars) - 1
}

// term adds k·x to r, moving the shift of x to the right-hand side.
func (p *program) term(r *row, col int, k float64) {
	r.coef[col] += k
	r.rhs -= k * p.vars[col].lower
}

func newRow() row { return row{coef: map[int]float64{}} }

// flow registers the value of f in period t and adds sign·x to the
// balance row.
func (p *program) flow(label string, f network.Flow, t int, sign float64, bal *row) {
	dt := p.net.StepHours
	if p.cols[label] == nil {
		p.cols[label] = make([]int, p.net.Periods)
		p.consts[label] = make([]float64, p.net.Periods)
	}
	profit := -f.Economic(t) * dt
	if f.Revenue {
		profit = -profit
	}
	lo, hi := f.Lower(t), f.Upper(t)
	if f.Fixed() || hi-lo <= 0 {
		p.cols[label][t] = -1
		p.consts[label][t] = lo
		p.constObj += f.Cost(t) * lo * dt
		p.constProfit += profit * lo
		bal.rhs -= sign * lo
		return
	}
	col := p.addVar(variable{lower: lo, span: hi - lo, cost: f.Cost(t) * dt, profit: profit})
	p.cols[label][t] = col
	p.term(bal, col, sign)
}

func build(net *network.FlowNetwork) *program {
	p := &program{
		net:    net,
		cols:   map[string][]int{},
		consts: map[string][]float64{},
	}
	st := net.Storage
	if st != nil {
		p.charge = make([]int, net.Periods)
		p.discharge = make([]int, net.Periods)
		p.level = make([]int, net.Periods)
	}

	for t := 0; t < net.Periods; t++ {
		bal := newRow()
		for _, s := range net.Sources {
			p.flow(s.Label, s.Flow, t, 1, &bal)
		}
		for _, s := range net.Sinks {
			p.flow(s.Label, s.Flow, t, -1, &bal)
		}
		if st != nil {
			dt := net.StepHours
			p.charge[t] = p.addVar(variable{
				lower:  st.Charge.Lower(t),
				span:   st.Charge.Upper(t) - st.Charge.Lower(t),
				cost:   st.Charge.Cost(t) * dt,
				profit: -st.Charge.Economic(t) * dt,
			})
			p.discharge[t] = p.addVar(variable{
				lower:  st.Discharge.Lower(t),
				span:   st.Discharge.Upper(t) - st.Discharge.Lower(t),
				cost:   st.Discharge.Cost(t) * dt,
				profit: -st.Discharge.Economic(t) * dt,
			})
			p.term(&bal, p.charge[t], -1)
			p.term(&bal, p.discharge[t], 1)
		}
		p.rows = append(p.rows, bal)
	}

	if st != nil {
		p.storageRows(st)
	}
	if net.ProfitFloor != nil {
		p.profitRow(*net.ProfitFloor)
	}
	return p
}

// profitRow adds profit >= floor. profit = constProfit + Σ profit_j·y_j,
// so the shifts are already accounted for in constProfit. A floor below the
// least profit the bounds allow cannot bind and is left out; otherwise the
// row is scaled by its largest coefficient.
func (p *program) profitRow(floor float64) {
	least := p.constProfit
	scale := 0.0
	for _, v := range p.vars {
		if v.profit < 0 {
			least += v.profit * v.span
		}
		scale = math.Max(scale, math.Abs(v.profit))
	}
	if floor <= least || scale == 0 {
		return
	}
	r := newRow()
	for col, v := range p.vars {
		if v.profit != 0 {
			r.coef[col] = v.profit / scale
		}
	}
	r.rhs = (floor - p.constProfit) / scale
	r.surplus = true
	p.rows = append(p.rows, r)
}

// storageRows adds the level columns, the level balance of every period
// and the end condition:
//
//	s_t = (1-loss)^dt · s_{t-1} + η_in·dt·c_t - dt/η_out·d_t
func (p *program) storageRows(st *network.Storage) {
	dt := p.net.StepHours
	capacity := st.NominalCapacity
	decay := math.Pow(1-st.LossRate, dt)
	initial := st.InitialLevel * capacity
	for t := 0; t < p.net.Periods; t++ {
		p.level[t] = p.addVar(variable{
			lower: st.MinLevel * capacity,
			span:  (st.MaxLevel - st.MinLevel) * capacity,
		})
	}
	for t := 0; t < p.net.Periods; t++ {
		r := newRow()
		p.term(&r, p.level[t], 1)
		if t == 0 {
			r.rhs += decay * initial
		} else {
			p.term(&r, p.level[t-1], -decay)
		}
		p.term(&r, p.charge[t], -st.InflowConversion*dt)
		p.term(&r, p.discharge[t], dt/st.OutflowConversion)
		p.rows = append(p.rows, r)
	}
	if st.BalancedEnd {
		r := newRow()
		p.term(&r, p.level[p.net.Periods-1], 1)
		r.rhs += initial
		p.rows = append(p.rows, r)
	}
}

// standardForm returns c, the dense row-major A and b. Every column gets
// a bound row with its own slack; rows with a negative right-hand side are
// negated.
func (p *program) standardForm() (c []float64, a []float64, b []float64, m, n int) {
	nv := len(p.vars)
	surplus := 0
	for _, r := range p.rows {
		if r.surplus {
			surplus++
		}
	}
	m = len(p.rows) + nv
	n = 2*nv + surplus
	c = make([]float64, n)
	a = make([]float64, m*n)
	b = make([]float64, m)
	for j, v := range p.vars {
		c[j] = v.cost
	}

	next := nv
	for i, r := range p.rows {
		for j, k := range r.coef {
			a[i*n+j] = k
		}
		b[i] = r.rhs
		if r.surplus {
			a[i*n+next] = -1
			next++
		}
	}
	for j, v := range p.vars {
		i := len(p.rows) + j
		a[i*n+j] = 1
		a[i*n+next] = 1
		b[i] = v.span
		next++
	}
	for i := 0; i < m; i++ {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < n; j++ {
				a[i*n+j] = -a[i*n+j]
			}
		}
	}
	return c, a, b, m, n
}

// values maps a solution of the shifted columns back to flows.
func (p *program) values(x []float64) (flows map[string][]float64, charge, discharge, level []float64) {
	val := func(col int) float64 { return p.vars[col].lower + x[col] }
	flows = make(map[string][]float64, len(p.cols))
	for label, cols := range p.cols {
		out := make([]float64, len(cols))
		for t, col := range cols {
			if col < 0 {
				out[t] = p.consts[label][t]
			} else {
				out[t] = val(col)
			}
		}
		flows[label] = out
	}
	if p.net.Storage != nil {
		charge = make([]float64, p.net.Periods)
		discharge = make([]float64, p.net.Periods)
		level = make([]float64, p.net.Periods)
		for t := range level {
			charge[t] = val(p.charge[t])
			discharge[t] = val(p.discharge[t])
			level[t] = val(p.level[t])
		}
	}
	return flows, charge, discharge, level
}

// objective returns the full objective value of x, constants included.
func (p *program) objective(x []float64) float64 {
	obj := p.constObj
	for j, v := range p.vars {
		obj += v.cost * x[j]
	}
	return obj
}
