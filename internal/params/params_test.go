package params

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default params should validate, got %v", err)
	}
}

func TestValidateNamesParameter(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		param  string
	}{
		{"zero dt", func(p *Params) { p.Simulation.DtS = 0 }, "simulation.dt_s"},
		{"negative duration", func(p *Params) { p.Simulation.DurationS = -1 }, "simulation.duration_s"},
		{"zero motor mass", func(p *Params) { p.Vehicle.MassMotorKg = 0 }, "vehicle.mass_motor_kg"},
		{"eta above one", func(p *Params) { p.Efficiency.EtaMotor = 1.2 }, "efficiency.eta_motor"},
		{"zero band", func(p *Params) { p.Control.HysteresisBandC = 0 }, "control.hysteresis_band_c"},
		{"garbage fan table", func(p *Params) { p.Control.FanThresholds = "40,abc,60" }, "control.fan_thresholds"},
		{"fan length mismatch", func(p *Params) { p.Control.FanPowerLevels = "0,50" }, "control.fan_power_levels"},
		{"non-increasing fan thresholds", func(p *Params) { p.Control.FanThresholds = "40,40,60,1000" }, "control.fan_thresholds"},
		{"negative cabin level", func(p *Params) { p.Control.CabinCoolLevels = "-1,4000" }, "control.cabin_cool_levels"},
		{"cabin length mismatch", func(p *Params) { p.Control.CabinCoolThresholds = "25" }, "control.cabin_cool_levels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if ce.Param != tt.param {
				t.Errorf("error names %q, want %q", ce.Param, tt.param)
			}
			if !strings.Contains(err.Error(), tt.param) {
				t.Errorf("message %q should carry the parameter name", err.Error())
			}
		})
	}
}

func TestDerivedValues(t *testing.T) {
	p := Default()
	if got := p.MCMotor(); got != 60.0*500.0 {
		t.Errorf("MCMotor = %v", got)
	}
	if got := p.MCCoolant(); math.Abs(got-35700.0) > 1e-9 {
		t.Errorf("MCCoolant = %v, want 35700", got)
	}
	if got := p.StopCoolMotorC(); got != 42.5 {
		t.Errorf("StopCoolMotorC = %v, want 42.5", got)
	}
	if got := p.StopCoolBatteryC(); got != 30.0 {
		t.Errorf("StopCoolBatteryC = %v, want 30", got)
	}
	if got := p.NSteps(); got != 2100 {
		t.Errorf("NSteps = %v, want 2100", got)
	}

	// Cabin air mass uses density at the reference temperature.
	rho := AirDensity(28.0)
	if rho < 1.15 || rho > 1.20 {
		t.Errorf("AirDensity(28) = %v, outside plausible band", rho)
	}
	if got := p.MCCabin(); math.Abs(got-3.5*rho*CpAir) > 1e-9 {
		t.Errorf("MCCabin = %v", got)
	}
}

func TestInitialTemperatures(t *testing.T) {
	p := Default()
	m, i, b, c, k := p.InitialTemperaturesC()
	if m != 40 || i != 40 || b != 37 || c != 35 || k != 37 {
		t.Fatalf("initial temps = %v %v %v %v %v", m, i, b, c, k)
	}

	abs := 55.0
	p.Initial.CabinAbsoluteC = &abs
	_, _, _, c, _ = p.InitialTemperaturesC()
	if c != 55.0 {
		t.Errorf("absolute cabin init ignored, got %v", c)
	}
}

func TestFanTables(t *testing.T) {
	p := Default()
	th, pw, ua, err := p.FanTables()
	if err != nil {
		t.Fatal(err)
	}
	if len(th) != 4 || len(pw) != 4 || len(ua) != 4 {
		t.Fatalf("table lengths = %d %d %d", len(th), len(pw), len(ua))
	}
	if th[0] != 40 || pw[3] != 200 || ua[2] != 1500 {
		t.Errorf("unexpected table values: %v %v %v", th, pw, ua)
	}
}

func TestPresets(t *testing.T) {
	if Preset("no_such") != nil {
		t.Error("unknown preset should return nil")
	}
	hw := Preset("highway")
	if hw == nil {
		t.Fatal("highway preset missing")
	}
	if hw.Speed.VStartKmh != 60 || hw.Speed.VEndKmh != 120 || hw.Speed.RampUpS != 300 {
		t.Errorf("highway speed ramp = %+v", hw.Speed)
	}
	if hw.Simulation.AmbientC != 35 || hw.Simulation.DurationS != 2100 || hw.Simulation.DtS != 1 {
		t.Errorf("highway simulation = %+v", hw.Simulation)
	}
	for _, name := range ListPresets() {
		if err := Preset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestLoadAppliesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yaml := "simulation:\n  t_ambient_c: 40\nspeed_profile:\n  v_end_kmh: 100\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Simulation.AmbientC != 40 {
		t.Errorf("override lost: ambient = %v", p.Simulation.AmbientC)
	}
	if p.Speed.VEndKmh != 100 {
		t.Errorf("override lost: v_end = %v", p.Speed.VEndKmh)
	}
	if p.Vehicle.MassBatteryKg != 500 {
		t.Errorf("default lost: battery mass = %v", p.Vehicle.MassBatteryKg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	want := Default()
	want.Simulation.AmbientC = 38.5
	want.Control.FanThresholds = "35,45,55,1000"
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Simulation.AmbientC != 38.5 {
		t.Errorf("ambient = %v", got.Simulation.AmbientC)
	}
	if got.Control.FanThresholds != want.Control.FanThresholds {
		t.Errorf("fan thresholds = %q", got.Control.FanThresholds)
	}
}
