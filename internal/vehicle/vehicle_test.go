package vehicle

import (
	"math"
	"testing"

	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
)

func TestSpeedProfileRamp(t *testing.T) {
	p := SpeedProfile{VStartKmh: 60, VEndKmh: 120, RampUpS: 300}
	tests := []struct {
		t, want float64
	}{
		{0, 60},
		{150, 90},
		{300, 120},
		{2100, 120},
		{-5, 60},
	}
	for _, tt := range tests {
		if got := p.At(tt.t); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("At(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestSpeedProfileDecel(t *testing.T) {
	p := SpeedProfile{VStartKmh: 100, VEndKmh: 40, RampUpS: 60}
	if got := p.At(30); got != 70 {
		t.Errorf("At(30) = %v, want 70", got)
	}
	if got := p.At(120); got != 40 {
		t.Errorf("At(120) = %v, want 40", got)
	}
}

func TestSpeedProfileZeroRamp(t *testing.T) {
	p := SpeedProfile{VStartKmh: 50, VEndKmh: 80, RampUpS: 0}
	if got := p.At(0); got != 80 {
		t.Errorf("At(0) = %v, want 80 (no ramp means end speed)", got)
	}
}

func testModel() PowertrainModel {
	return PowertrainModel{MassKg: 2503, AmbientC: 35, EtaMotor: 0.95, EtaInverter: 0.985}
}

func TestHeatAtStandstill(t *testing.T) {
	h := testModel().HeatAt(0)
	if h.PWheelW != 0 || h.PMotorInW != 0 || h.QMotorW != 0 || h.QInverterW != 0 || h.PInverterInW != 0 {
		t.Errorf("standstill must be lossless, got %+v", h)
	}
}

func TestHeatAtKnownPoint(t *testing.T) {
	m := testModel()
	h := m.HeatAt(120)

	v := 120.0 / 3.6
	fRoll := 0.008 * 2503.0 * 9.8
	fAero := 0.5 * params.AirDensity(35) * 0.22 * 3.0 * v * v
	wantWheel := (fRoll + fAero) * v
	if math.Abs(h.PWheelW-wantWheel) > 1e-9 {
		t.Errorf("PWheel = %v, want %v", h.PWheelW, wantWheel)
	}
	if math.Abs(h.PMotorInW-wantWheel/0.95) > 1e-9 {
		t.Errorf("PMotorIn = %v", h.PMotorInW)
	}
	if math.Abs(h.QMotorW-h.PMotorInW*0.05) > 1e-9 {
		t.Errorf("QMotor = %v", h.QMotorW)
	}
	if math.Abs(h.PInverterInW-(h.PMotorInW+h.QInverterW)) > 1e-9 {
		t.Errorf("inverter power balance: in=%v motor=%v loss=%v", h.PInverterInW, h.PMotorInW, h.QInverterW)
	}
}

func TestHeatMonotonicInSpeed(t *testing.T) {
	m := testModel()
	prev := m.HeatAt(10)
	for v := 20.0; v <= 160; v += 10 {
		h := m.HeatAt(v)
		if h.QMotorW <= prev.QMotorW || h.QInverterW <= prev.QInverterW {
			t.Fatalf("loss heat must grow with speed, stalled at %v km/h", v)
		}
		prev = h
	}
}

func TestBatteryHeat(t *testing.T) {
	tests := []struct {
		pOut, want float64
	}{
		{0, 0},
		{-500, 0},
		{3400, (3400.0 / 340.0) * (3400.0 / 340.0) * 0.05},
		{34000, 100 * 100 * 0.05},
	}
	for _, tt := range tests {
		if got := BatteryHeat(tt.pOut, 340, 0.05); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("BatteryHeat(%v) = %v, want %v", tt.pOut, got, tt.want)
		}
	}
}
