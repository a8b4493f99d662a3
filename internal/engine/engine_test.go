package engine

import (
	"context"
	"math"
	"testing"

	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
)

// isolatedParams returns a configuration with every heat path and
// source switched off, so temperatures must stay put.
func isolatedParams() *params.Params {
	p := params.Default()
	p.Simulation.DurationS = 300
	p.Speed.VStartKmh = 0
	p.Speed.VEndKmh = 0
	p.Vehicle.UAMotorCoolant = 0
	p.Vehicle.UAInverterCoolant = 0
	p.Vehicle.UABatteryCoolant = 0
	p.Vehicle.UACoolantChiller = 0
	p.Vehicle.Passengers = 0
	p.Vehicle.QElectronicsW = 0
	p.Vehicle.QPowertrainInW = 0
	p.Vehicle.SolarIrradianceWm2 = 0
	p.Vehicle.AreaBodyM2 = 0
	p.Vehicle.AreaGlassM2 = 0
	p.Vehicle.FreshAirFraction = 0
	p.Control.FanPowerLevels = "0,0,0,0"
	p.Control.FanUALevels = "0,0,0,0"
	p.Control.ChillerOnC = 1e9
	p.Control.CabinCoolLevels = "0,0"
	return p
}

func mustRun(t *testing.T, p *params.Params, cop float64) *Result {
	t.Helper()
	e, err := New(p, cop)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestHistoryShapeAndInitialConditions(t *testing.T) {
	p := params.Default()
	p.Simulation.DurationS = 120
	res := mustRun(t, p, 3.0)

	if got := len(res.History.Records); got != 121 {
		t.Fatalf("records = %d, want 121", got)
	}
	r0 := res.History.Records[0]
	if r0.Time != 0 {
		t.Errorf("first record time = %v", r0.Time)
	}
	want := Temperatures{MotorC: 40, InverterC: 40, BatteryC: 37, CabinC: 35, CoolantC: 37}
	if r0.Temps != want {
		t.Errorf("initial temps = %+v, want %+v", r0.Temps, want)
	}
	last := res.History.Records[120]
	if last.Step != 120 || last.Time != 120 {
		t.Errorf("terminal record step=%d time=%v", last.Step, last.Time)
	}
}

func TestIsolatedSystemHoldsTemperatures(t *testing.T) {
	res := mustRun(t, isolatedParams(), 3.0)
	first := res.History.Records[0].Temps
	for _, r := range res.History.Records {
		if r.Temps != first {
			t.Fatalf("temps drifted at t=%v: %+v vs %+v", r.Time, r.Temps, first)
		}
		if r.Out.DMotor != 0 || r.Out.DCabin != 0 || r.Out.DCoolant != 0 {
			t.Fatalf("nonzero derivative at t=%v: %+v", r.Time, r.Out)
		}
	}
	if len(res.Advisories) != 0 {
		t.Errorf("advisories on a quiescent run: %v", res.Advisories)
	}
}

func TestSingleNodeRelaxation(t *testing.T) {
	p := isolatedParams()
	p.Simulation.DurationS = 600
	p.Vehicle.UAMotorCoolant = 500
	p.Vehicle.CoolantVolumeL = 1e9 // effectively an infinite sink
	p.Initial.MotorOffsetC = 20
	p.Initial.CoolantOffsetC = 0

	res := mustRun(t, p, 3.0)

	tau := p.MCMotor() / p.Vehicle.UAMotorCoolant // 60 s
	tAmb := p.Simulation.AmbientC
	prev := math.Inf(1)
	for _, r := range res.History.Records {
		analytic := tAmb + 20*math.Exp(-r.Time/tau)
		if math.Abs(r.Temps.MotorC-analytic) > 0.2 {
			t.Fatalf("t=%v: motor %.4f, analytic %.4f", r.Time, r.Temps.MotorC, analytic)
		}
		if r.Temps.MotorC >= prev+1e-12 {
			t.Fatalf("relaxation not monotone at t=%v", r.Time)
		}
		prev = r.Temps.MotorC
		// The sink barely moves.
		if math.Abs(r.Temps.CoolantC-tAmb) > 0.01 {
			t.Fatalf("coolant drifted to %v", r.Temps.CoolantC)
		}
	}
}

func TestHighwayEndToEnd(t *testing.T) {
	res := mustRun(t, params.Preset("highway"), 3.0)

	recs := res.History.Records
	if len(recs) != 2101 {
		t.Fatalf("records = %d, want 2101", len(recs))
	}
	if recs[0].Out.SpeedKmh != 60 {
		t.Errorf("speed at t=0 is %v, want 60", recs[0].Out.SpeedKmh)
	}
	for i := 1; i <= 300; i++ {
		if recs[i].Out.SpeedKmh <= recs[i-1].Out.SpeedKmh {
			t.Fatalf("speed not strictly increasing at t=%d", i)
		}
	}
	for i := 300; i < len(recs); i++ {
		if recs[i].Out.SpeedKmh != 120 {
			t.Fatalf("speed at t=%d is %v, want 120", i, recs[i].Out.SpeedKmh)
		}
	}
	if len(res.Advisories) != 0 {
		t.Errorf("advisories: %v", res.Advisories)
	}

	// Temperatures stay physical on the nominal scenario.
	for _, r := range recs {
		for _, c := range Channels() {
			v := r.Temps.At(c)
			if v < -40 || v > 150 {
				t.Fatalf("%s = %v C at t=%v", c, v, r.Time)
			}
		}
	}
}

func TestCondenserRejectionBookkeeping(t *testing.T) {
	res := mustRun(t, params.Preset("highway"), 3.0)
	for _, r := range res.History.Records {
		qEvap := r.Out.QCabinCool + r.Out.QChiller
		if math.Abs(r.Out.QCondenserToCoolant-(qEvap+r.Out.PCompMech)) > 1e-9 {
			t.Fatalf("condenser rejection mismatch at t=%v", r.Time)
		}
		if qEvap > 0 {
			if math.Abs(r.Out.PCompMech-qEvap/3.0) > 1e-9 {
				t.Fatalf("compressor work mismatch at t=%v", r.Time)
			}
			if math.Abs(r.Out.PCompElec-r.Out.PCompMech/0.85) > 1e-9 {
				t.Fatalf("drive efficiency mismatch at t=%v", r.Time)
			}
		}
		wantBatt := r.Out.PInverterIn + r.Out.PCompElec + r.Out.PFan
		if math.Abs(r.Out.PBatteryOut-wantBatt) > 1e-9 {
			t.Fatalf("battery output mismatch at t=%v", r.Time)
		}
	}
}

func TestInstabilityAdvisory(t *testing.T) {
	p := params.Default()
	p.Simulation.DurationS = 1000
	p.Simulation.DtS = 100
	p.Vehicle.MassMotorKg = 0.02
	p.Vehicle.UAMotorCoolant = 1000

	res := mustRun(t, p, 3.0)
	if len(res.Advisories) != 1 {
		t.Fatalf("advisories = %v, want exactly one", res.Advisories)
	}
	if got := len(res.History.Records); got != 11 {
		t.Errorf("diverging run must still complete, records = %d", got)
	}
}

func TestRunCancellation(t *testing.T) {
	e, err := New(params.Default(), 3.0)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewRejects(t *testing.T) {
	p := params.Default()
	if _, err := New(p, 0); err == nil {
		t.Error("zero COP accepted")
	}
	p.Simulation.DtS = -1
	if _, err := New(p, 3.0); err == nil {
		t.Error("invalid params accepted")
	}
}

func TestCursorMatchesRun(t *testing.T) {
	p := params.Default()
	p.Simulation.DurationS = 200
	res := mustRun(t, p, 3.0)

	e, err := New(p, 3.0)
	if err != nil {
		t.Fatal(err)
	}
	cur := e.Cursor()
	var got []Record
	for {
		rec, done := cur.Step()
		got = append(got, rec)
		if done {
			break
		}
	}
	if len(got) != len(res.History.Records) {
		t.Fatalf("cursor records = %d, run records = %d", len(got), len(res.History.Records))
	}
	for i := range got {
		if got[i].Temps != res.History.Records[i].Temps {
			t.Fatalf("temps diverge at record %d", i)
		}
		if got[i].Out.FanLevel != res.History.Records[i].Out.FanLevel ||
			got[i].Out.ChillerOn != res.History.Records[i].Out.ChillerOn {
			t.Fatalf("mode diverges at record %d", i)
		}
	}
	if rec, done := cur.Step(); !done || rec.Time != 0 {
		t.Error("exhausted cursor must keep reporting done")
	}
}
