// Package engine advances the five-node vehicle thermal model with a
// fixed-step explicit Euler integrator. Control decisions are made
// from the temperatures at the start of each step, so a mode switch
// influences the derivatives from the following step on.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/camellia2077/EV-TMS-PLOT/internal/cabin"
	"github.com/camellia2077/EV-TMS-PLOT/internal/control"
	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
	"github.com/camellia2077/EV-TMS-PLOT/internal/vehicle"
)

// Temperatures beyond this magnitude flag a diverging integration.
const tempBoundC = 1.0e6

// Engine owns one run: the models, the controller memory and the
// integration loop.
type Engine struct {
	p   *params.Params
	cop float64

	speed      vehicle.SpeedProfile
	powertrain vehicle.PowertrainModel
	climate    cabin.Climate
	thermostat control.Thermostat
	fans       control.FanStaging

	mcMotor    float64
	mcInverter float64
	mcBattery  float64
	mcCabin    float64
	mcCoolant  float64

	mode    control.Mode
	metrics []Metric
}

// New builds an engine from validated parameters and a resolved COP.
func New(p *params.Params, cop float64) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cop <= 0 {
		return nil, fmt.Errorf("engine: non-positive COP %v", cop)
	}

	ft, fp, fu, err := p.FanTables()
	if err != nil {
		return nil, err
	}
	fans, err := control.NewFanStaging(ft, fp, fu, p.Control.FanHysteresisC)
	if err != nil {
		return nil, err
	}

	ct, cl, err := p.CabinCoolTable()
	if err != nil {
		return nil, err
	}
	stages, err := control.NewStagedTable(ct, cl)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		p:   p,
		cop: cop,
		speed: vehicle.SpeedProfile{
			VStartKmh: p.Speed.VStartKmh,
			VEndKmh:   p.Speed.VEndKmh,
			RampUpS:   p.Speed.RampUpS,
		},
		powertrain: vehicle.PowertrainModel{
			MassKg:      p.Vehicle.MassVehicleKg,
			AmbientC:    p.Simulation.AmbientC,
			EtaMotor:    p.Efficiency.EtaMotor,
			EtaInverter: p.Efficiency.EtaInverter,
		},
		climate: cabin.Climate{
			Load: cabin.LoadModel{
				AmbientC:           p.Simulation.AmbientC,
				SolarIrradianceWm2: p.Vehicle.SolarIrradianceWm2,
				Passengers:         p.Vehicle.Passengers,
				AirSpeedInternal:   p.Vehicle.AirSpeedInternal,
				QPerPassengerW:     p.Vehicle.QPerPassengerW,
				QElectronicsW:      p.Vehicle.QElectronicsW,
				QPowertrainInW:     p.Vehicle.QPowertrainInW,
				AreaBodyM2:         p.Vehicle.AreaBodyM2,
				RBody:              p.Vehicle.RBody,
				AreaGlassM2:        p.Vehicle.AreaGlassM2,
				RGlass:             p.Vehicle.RGlass,
				SunAreaM2:          p.GlassSunAreaM2(),
				SHGC:               p.Vehicle.SHGC,
				HumidityRatioOut:   p.Vehicle.HumidityRatioOut,
				HumidityRatioIn:    p.Vehicle.HumidityRatioTarget,
				FreshAirFraction:   p.Vehicle.FreshAirFraction,
			},
			Stages: stages,
		},
		thermostat: control.Thermostat{
			OnAboveC: p.Control.ChillerOnC,
			BandC:    p.Control.HysteresisBandC,
		},
		fans:       fans,
		mcMotor:    p.MCMotor(),
		mcInverter: p.MCInverter(),
		mcBattery:  p.MCBattery(),
		mcCabin:    p.MCCabin(),
		mcCoolant:  p.MCCoolant(),
	}
	return e, nil
}

func (e *Engine) AddMetric(m Metric) { e.metrics = append(e.metrics, m) }

func (e *Engine) initialState() State {
	m, i, b, c, k := e.p.InitialTemperaturesC()
	return State{
		Time:     0,
		SpeedKmh: e.speed.At(0),
		Temps:    Temperatures{MotorC: m, InverterC: i, BatteryC: b, CabinC: c, CoolantC: k},
	}
}

// seedMode primes the controller memory from the initial temperatures
// with pure lookups, chiller off.
func (e *Engine) seedMode(st State) {
	e.mode = control.Mode{
		ChillerOn:  false,
		FanLevel:   e.fans.Stages.Pick(st.Temps.CoolantC),
		CabinLevel: e.climate.Stages.Pick(st.Temps.CabinC),
	}
}

// evaluate resolves all heats, control decisions and derivatives at
// one state. It advances the hysteresis memory as a side effect.
func (e *Engine) evaluate(st State) StepOutputs {
	var out StepOutputs
	ctl := &e.p.Control
	veh := &e.p.Vehicle
	T := st.Temps

	out.SpeedKmh = e.speed.At(st.Time)

	ph := e.powertrain.HeatAt(out.SpeedKmh)
	out.QGenMotor = ph.QMotorW
	out.QGenInverter = ph.QInverterW
	out.PInverterIn = ph.PInverterInW

	out.QCabinLoad = e.climate.Load.LoadAt(T.CabinC, out.SpeedKmh)
	out.CabinLevel, out.QCabinCool = e.climate.CoolingAt(T.CabinC)
	e.mode.CabinLevel = out.CabinLevel

	e.mode.ChillerOn = e.thermostat.Update(e.mode.ChillerOn, T.CoolantC)
	out.ChillerOn = e.mode.ChillerOn
	if out.ChillerOn {
		q := veh.UACoolantChiller * (T.CoolantC - e.p.Refrigeration.EvapSatC)
		out.QChiller = math.Max(0, math.Min(q, ctl.MaxChillerPowerW))
	}

	e.mode.FanLevel = e.fans.Next(e.mode.FanLevel, T.CoolantC)
	out.FanLevel = e.mode.FanLevel
	out.PFan = e.fans.PowerAt(out.FanLevel)

	ua := e.fans.UAAt(out.FanLevel)
	factor := 1.0
	atTarget := T.MotorC <= ctl.TMotorTargetC &&
		T.InverterC <= ctl.TInverterTargetC &&
		T.BatteryC <= ctl.TBattTargetHighC
	belowStop := T.MotorC < e.p.StopCoolMotorC() &&
		T.InverterC < e.p.StopCoolInverterC() &&
		T.BatteryC < e.p.StopCoolBatteryC()
	if atTarget {
		factor = ctl.RadiatorDerateAtTarget
	}
	if belowStop {
		factor = ctl.RadiatorDerateBelowStop
	}
	out.UARadiatorEff = ua * factor
	if uaMax := e.fans.UAMax(); uaMax > 0 {
		out.RadiatorEffectiveness = out.UARadiatorEff / uaMax
	}
	out.QRadiator = math.Max(0, out.UARadiatorEff*(T.CoolantC-e.p.Simulation.AmbientC))

	out.QMotorToCoolant = veh.UAMotorCoolant * (T.MotorC - T.CoolantC)
	out.QInverterToCoolant = veh.UAInverterCoolant * (T.InverterC - T.CoolantC)
	out.QBatteryToCoolant = veh.UABatteryCoolant * (T.BatteryC - T.CoolantC)

	qEvap := out.QCabinCool + out.QChiller
	if qEvap > 0 {
		out.PCompMech = qEvap / e.cop
		out.PCompElec = out.PCompMech / e.p.Efficiency.EtaCompDrive
	}
	// The liquid-cooled condenser dumps the full cycle rejection back
	// into the coolant loop.
	out.QCondenserToCoolant = qEvap + out.PCompMech

	out.PBatteryOut = out.PInverterIn + out.PCompElec + out.PFan
	out.QGenBattery = vehicle.BatteryHeat(out.PBatteryOut, e.p.Efficiency.UBatteryV, e.p.Efficiency.RIntBattery)

	out.DMotor = (out.QGenMotor - out.QMotorToCoolant) / e.mcMotor
	out.DInverter = (out.QGenInverter - out.QInverterToCoolant) / e.mcInverter
	out.DBattery = (out.QGenBattery - out.QBatteryToCoolant) / e.mcBattery
	out.DCabin = (out.QCabinLoad - out.QCabinCool) / e.mcCabin
	out.DCoolant = (out.QCondenserToCoolant +
		out.QMotorToCoolant + out.QInverterToCoolant + out.QBatteryToCoolant -
		out.QRadiator - out.QChiller) / e.mcCoolant
	return out
}

func advance(t Temperatures, out StepOutputs, dt float64) Temperatures {
	return Temperatures{
		MotorC:    t.MotorC + out.DMotor*dt,
		InverterC: t.InverterC + out.DInverter*dt,
		BatteryC:  t.BatteryC + out.DBattery*dt,
		CabinC:    t.CabinC + out.DCabin*dt,
		CoolantC:  t.CoolantC + out.DCoolant*dt,
	}
}

func stable(t Temperatures) bool {
	for _, v := range []float64{t.MotorC, t.InverterC, t.BatteryC, t.CabinC, t.CoolantC} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > tempBoundC {
			return false
		}
	}
	return true
}

// Run integrates the full horizon. Cancellation aborts with the
// context error; a diverging run completes and carries an advisory.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	n := e.p.NSteps()
	dt := e.p.Simulation.DtS
	hist := History{Records: make([]Record, 0, n+1), Dt: dt}
	var advisories []string

	for _, m := range e.metrics {
		m.Reset()
	}

	st := e.initialState()
	e.seedMode(st)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := e.evaluate(st)
		st.SpeedKmh = out.SpeedKmh
		rec := Record{Step: i, Time: st.Time, Temps: st.Temps, Out: out}
		hist.Records = append(hist.Records, rec)
		for _, m := range e.metrics {
			m.Observe(rec)
		}

		st.Temps = advance(st.Temps, out, dt)
		st.Time = float64(i+1) * dt
		if len(advisories) == 0 && !stable(st.Temps) {
			advisories = append(advisories,
				fmt.Sprintf("numerical instability at step %d (t=%.1f s); reduce dt_s", i+1, st.Time))
		}
	}

	out := e.evaluate(st)
	st.SpeedKmh = out.SpeedKmh
	rec := Record{Step: n, Time: st.Time, Temps: st.Temps, Out: out}
	hist.Records = append(hist.Records, rec)
	for _, m := range e.metrics {
		m.Observe(rec)
	}

	res := &Result{
		History:    hist,
		COP:        e.cop,
		NSteps:     n,
		Metrics:    make(map[string]float64, len(e.metrics)),
		Advisories: advisories,
	}
	for _, m := range e.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}

// Cursor drives a run one record at a time, for live views.
type Cursor struct {
	e    *Engine
	st   State
	i    int
	n    int
	done bool
}

func (e *Engine) Cursor() *Cursor {
	st := e.initialState()
	e.seedMode(st)
	return &Cursor{e: e, st: st, n: e.p.NSteps()}
}

// Step produces the next record. done is true on the terminal record;
// further calls return the zero Record with done true.
func (c *Cursor) Step() (rec Record, done bool) {
	if c.done {
		return Record{}, true
	}
	out := c.e.evaluate(c.st)
	c.st.SpeedKmh = out.SpeedKmh
	rec = Record{Step: c.i, Time: c.st.Time, Temps: c.st.Temps, Out: out}
	if c.i == c.n {
		c.done = true
		return rec, true
	}
	c.st.Temps = advance(c.st.Temps, out, c.e.p.Simulation.DtS)
	c.i++
	c.st.Time = float64(c.i) * c.e.p.Simulation.DtS
	return rec, false
}

// Progress reports completed and total steps.
func (c *Cursor) Progress() (step, total int) { return c.i, c.n }
