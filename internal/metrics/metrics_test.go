package metrics

import (
	"math"
	"testing"

	"github.com/camellia2077/EV-TMS-PLOT/internal/engine"
)

func rec(step int, batteryC, pCompElec float64, chillerOn bool) engine.Record {
	return engine.Record{
		Step:  step,
		Time:  float64(step),
		Temps: engine.Temperatures{BatteryC: batteryC},
		Out:   engine.StepOutputs{PCompElec: pCompElec, ChillerOn: chillerOn},
	}
}

func TestPeakTemperature(t *testing.T) {
	m := NewPeakTemperature(engine.ChBattery)
	if m.Name() != "peak_battery_c" {
		t.Errorf("Name = %q", m.Name())
	}
	for i, tc := range []float64{-12, -5, -20} {
		m.Observe(rec(i, tc, 0, false))
	}
	// Peak must track the first sample even when all are negative.
	if m.Value() != -5 {
		t.Errorf("Value = %v, want -5", m.Value())
	}
	m.Reset()
	m.Observe(rec(0, 37, 0, false))
	if m.Value() != 37 {
		t.Errorf("after reset Value = %v, want 37", m.Value())
	}
}

func TestCompressorEnergySkipsTerminalRecord(t *testing.T) {
	m := NewCompressorEnergy(2.0)
	draws := []float64{1000, 500, 250, 9999} // last is the terminal record
	for i, d := range draws {
		m.Observe(rec(i, 0, d, false))
	}
	wantJ := (1000 + 500 + 250) * 2.0
	if got := m.Value(); math.Abs(got-wantJ/3600.0) > 1e-12 {
		t.Errorf("Value = %v Wh, want %v", got, wantJ/3600.0)
	}
}

func TestChillerDuty(t *testing.T) {
	m := NewChillerDuty()
	if m.Value() != 0 {
		t.Errorf("empty duty = %v", m.Value())
	}
	states := []bool{false, true, true, false}
	for i, on := range states {
		m.Observe(rec(i, 0, 0, on))
	}
	if m.Value() != 0.5 {
		t.Errorf("duty = %v, want 0.5", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Errorf("reset duty = %v", m.Value())
	}
}
