package params

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Physical constants shared across the thermal models.
const (
	CpAir        = 1005.0  // J/(kg*K)
	LatentHeatFg = 2.45e6  // J/kg, evaporation heat of water near 25 C
	AirGasConst  = 287.055 // J/(kg*K)
	AtmPressure  = 101325.0
)

// ConfigError reports a rejected configuration value.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("params: %s=%v: %s", e.Param, e.Value, e.Reason)
}

func errParam(param string, value any, reason string) error {
	return &ConfigError{Param: param, Value: value, Reason: reason}
}

type Refrigeration struct {
	Refrigerant  string  `yaml:"refrigerant"`
	SuctionC     float64 `yaml:"t_suction_c"`
	CondSatC     float64 `yaml:"t_cond_sat_c"`
	SubcoolExitC float64 `yaml:"t_subcool_exit_c"`
	EvapSatC     float64 `yaml:"t_evap_sat_c"`
	DischargeC   float64 `yaml:"t_discharge_c"`
}

type Simulation struct {
	AmbientC  float64 `yaml:"t_ambient_c"`
	DurationS float64 `yaml:"duration_s"`
	DtS       float64 `yaml:"dt_s"`
}

type SpeedRamp struct {
	VStartKmh float64 `yaml:"v_start_kmh"`
	VEndKmh   float64 `yaml:"v_end_kmh"`
	RampUpS   float64 `yaml:"ramp_up_s"`
}

type Vehicle struct {
	MassVehicleKg float64 `yaml:"mass_vehicle_kg"`

	MassMotorKg    float64 `yaml:"mass_motor_kg"`
	CpMotor        float64 `yaml:"cp_motor"`
	MassInverterKg float64 `yaml:"mass_inverter_kg"`
	CpInverter     float64 `yaml:"cp_inverter"`
	MassBatteryKg  float64 `yaml:"mass_battery_kg"`
	CpBattery      float64 `yaml:"cp_battery"`

	CabinVolumeM3 float64 `yaml:"cabin_volume_m3"`
	CabinRhoRefC  float64 `yaml:"cabin_rho_ref_c"`

	CoolantVolumeL float64 `yaml:"coolant_volume_l"`
	RhoCoolant     float64 `yaml:"rho_coolant"`
	CpCoolant      float64 `yaml:"cp_coolant"`

	UAMotorCoolant    float64 `yaml:"ua_motor_coolant"`
	UAInverterCoolant float64 `yaml:"ua_inverter_coolant"`
	UABatteryCoolant  float64 `yaml:"ua_battery_coolant"`
	UACoolantChiller  float64 `yaml:"ua_coolant_chiller"`

	Passengers          int     `yaml:"passengers"`
	AirSpeedInternal    float64 `yaml:"air_speed_internal_mps"`
	QPerPassengerW      float64 `yaml:"q_per_passenger_w"`
	QElectronicsW       float64 `yaml:"q_electronics_w"`
	QPowertrainInW      float64 `yaml:"q_powertrain_in_w"`
	HumidityRatioOut    float64 `yaml:"humidity_ratio_out"`
	HumidityRatioTarget float64 `yaml:"humidity_ratio_target"`
	FreshAirFraction    float64 `yaml:"fresh_air_fraction"`

	SolarIrradianceWm2 float64 `yaml:"solar_irradiance_wm2"`
	AreaBodyM2         float64 `yaml:"area_body_m2"`
	RBody              float64 `yaml:"r_body"`
	AreaGlassM2        float64 `yaml:"area_glass_m2"`
	RGlass             float64 `yaml:"r_glass"`
	GlassSunFactor     float64 `yaml:"glass_sun_factor"`
	SHGC               float64 `yaml:"shgc"`
}

type Control struct {
	TMotorTargetC    float64 `yaml:"t_motor_target_c"`
	TInverterTargetC float64 `yaml:"t_inverter_target_c"`
	TBattTargetLowC  float64 `yaml:"t_batt_target_low_c"`
	TBattTargetHighC float64 `yaml:"t_batt_target_high_c"`
	TCabinTargetC    float64 `yaml:"t_cabin_target_c"`

	HysteresisBandC  float64 `yaml:"hysteresis_band_c"`
	ChillerOnC       float64 `yaml:"chiller_on_c"`
	MaxChillerPowerW float64 `yaml:"max_chiller_power_w"`

	FanPowerLevels string  `yaml:"fan_power_levels"`
	FanUALevels    string  `yaml:"fan_ua_levels"`
	FanThresholds  string  `yaml:"fan_thresholds"`
	FanHysteresisC float64 `yaml:"fan_hysteresis_c"`

	RadiatorDerateAtTarget  float64 `yaml:"radiator_derate_at_target"`
	RadiatorDerateBelowStop float64 `yaml:"radiator_derate_below_stop"`

	CabinCoolLevels     string `yaml:"cabin_cool_levels"`
	CabinCoolThresholds string `yaml:"cabin_cool_thresholds"`
}

type Efficiency struct {
	EtaMotor     float64 `yaml:"eta_motor"`
	EtaInverter  float64 `yaml:"eta_inverter"`
	UBatteryV    float64 `yaml:"u_battery_v"`
	RIntBattery  float64 `yaml:"r_int_battery"`
	EtaCompDrive float64 `yaml:"eta_comp_drive"`
}

type Initial struct {
	MotorOffsetC    float64  `yaml:"motor_offset_c"`
	InverterOffsetC float64  `yaml:"inverter_offset_c"`
	BatteryOffsetC  float64  `yaml:"battery_offset_c"`
	CabinOffsetC    float64  `yaml:"cabin_offset_c"`
	CoolantOffsetC  float64  `yaml:"coolant_offset_c"`
	CabinAbsoluteC  *float64 `yaml:"cabin_absolute_c,omitempty"`
}

// Params holds every tunable of a simulation run.
type Params struct {
	Refrigeration Refrigeration `yaml:"refrigeration"`
	Simulation    Simulation    `yaml:"simulation"`
	Speed         SpeedRamp     `yaml:"speed_profile"`
	Vehicle       Vehicle       `yaml:"vehicle"`
	Control       Control       `yaml:"control"`
	Efficiency    Efficiency    `yaml:"efficiency"`
	Initial       Initial       `yaml:"initial"`
}

func Default() *Params {
	return &Params{
		Refrigeration: Refrigeration{
			Refrigerant:  "R1234yf",
			SuctionC:     15.0,
			CondSatC:     45.0,
			SubcoolExitC: 42.0,
			EvapSatC:     5.0,
			DischargeC:   70.0,
		},
		Simulation: Simulation{
			AmbientC:  35.0,
			DurationS: 2100.0,
			DtS:       1.0,
		},
		Speed: SpeedRamp{
			VStartKmh: 60.0,
			VEndKmh:   120.0,
			RampUpS:   300.0,
		},
		Vehicle: Vehicle{
			MassVehicleKg:  2503.0,
			MassMotorKg:    60.0,
			CpMotor:        500.0,
			MassInverterKg: 15.0,
			CpInverter:     800.0,
			MassBatteryKg:  500.0,
			CpBattery:      1000.0,

			CabinVolumeM3: 3.5,
			CabinRhoRefC:  28.0,

			CoolantVolumeL: 10.0,
			RhoCoolant:     1050.0,
			CpCoolant:      3400.0,

			UAMotorCoolant:    500.0,
			UAInverterCoolant: 300.0,
			UABatteryCoolant:  1000.0,
			UACoolantChiller:  1500.0,

			Passengers:          2,
			AirSpeedInternal:    0.5,
			QPerPassengerW:      100.0,
			QElectronicsW:       100.0,
			QPowertrainInW:      50.0,
			HumidityRatioOut:    0.0133,
			HumidityRatioTarget: 0.0100,
			FreshAirFraction:    0.10,

			SolarIrradianceWm2: 800.0,
			AreaBodyM2:         12.0,
			RBody:              0.60,
			AreaGlassM2:        4.0,
			RGlass:             0.009,
			GlassSunFactor:     0.4,
			SHGC:               0.50,
		},
		Control: Control{
			TMotorTargetC:    45.0,
			TInverterTargetC: 45.0,
			TBattTargetLowC:  30.0,
			TBattTargetHighC: 35.0,
			TCabinTargetC:    26.0,

			HysteresisBandC:  2.5,
			ChillerOnC:       40.0,
			MaxChillerPowerW: 4000.0,

			FanPowerLevels: "0,50,100,200",
			FanUALevels:    "200,800,1500,2000",
			FanThresholds:  "40,50,60,1000",
			FanHysteresisC: 1.0,

			RadiatorDerateAtTarget:  0.3,
			RadiatorDerateBelowStop: 0.1,

			CabinCoolLevels:     "0,4000",
			CabinCoolThresholds: "25.0,100.0",
		},
		Efficiency: Efficiency{
			EtaMotor:     0.95,
			EtaInverter:  0.985,
			UBatteryV:    340.0,
			RIntBattery:  0.05,
			EtaCompDrive: 0.85,
		},
		Initial: Initial{
			MotorOffsetC:    5.0,
			InverterOffsetC: 5.0,
			BatteryOffsetC:  2.0,
			CabinOffsetC:    0.0,
			CoolantOffsetC:  2.0,
		},
	}
}

func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("params: parse %s: %w", path, err)
	}
	return p, nil
}

func Save(path string, p *Params) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AirDensity returns dry-air density at ambient pressure, kg/m3.
func AirDensity(tC float64) float64 {
	return AtmPressure / (AirGasConst * (tC + 273.15))
}

// Lumped heat capacities, J/K.

func (p *Params) MCMotor() float64 { return p.Vehicle.MassMotorKg * p.Vehicle.CpMotor }

func (p *Params) MCInverter() float64 { return p.Vehicle.MassInverterKg * p.Vehicle.CpInverter }

func (p *Params) MCBattery() float64 { return p.Vehicle.MassBatteryKg * p.Vehicle.CpBattery }

func (p *Params) MCCabin() float64 {
	return p.Vehicle.CabinVolumeM3 * AirDensity(p.Vehicle.CabinRhoRefC) * CpAir
}

func (p *Params) MCCoolant() float64 {
	return p.Vehicle.CoolantVolumeL / 1000.0 * p.Vehicle.RhoCoolant * p.Vehicle.CpCoolant
}

// Stop-cool thresholds: below these the loop is considered cold enough
// that radiator exchange is throttled hardest.

func (p *Params) StopCoolMotorC() float64 {
	return p.Control.TMotorTargetC - p.Control.HysteresisBandC
}

func (p *Params) StopCoolInverterC() float64 {
	return p.Control.TInverterTargetC - p.Control.HysteresisBandC
}

func (p *Params) StopCoolBatteryC() float64 { return p.Control.TBattTargetLowC }

func (p *Params) GlassSunAreaM2() float64 {
	return p.Vehicle.AreaGlassM2 * p.Vehicle.GlassSunFactor
}

// NSteps is the number of Euler advances in a run.
func (p *Params) NSteps() int {
	return int(p.Simulation.DurationS / p.Simulation.DtS)
}

// InitialTemperaturesC returns motor, inverter, battery, cabin, coolant
// starting temperatures.
func (p *Params) InitialTemperaturesC() (motor, inverter, battery, cabin, coolant float64) {
	amb := p.Simulation.AmbientC
	motor = amb + p.Initial.MotorOffsetC
	inverter = amb + p.Initial.InverterOffsetC
	battery = amb + p.Initial.BatteryOffsetC
	cabin = amb + p.Initial.CabinOffsetC
	if p.Initial.CabinAbsoluteC != nil {
		cabin = *p.Initial.CabinAbsoluteC
	}
	coolant = amb + p.Initial.CoolantOffsetC
	return
}

func parseSeries(param, s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errParam(param, s, "not a comma-separated number list")
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errParam(param, s, "empty list")
	}
	return out, nil
}

// FanTables parses the radiator fan staging tables.
func (p *Params) FanTables() (thresholds, powers, uas []float64, err error) {
	if thresholds, err = parseSeries("control.fan_thresholds", p.Control.FanThresholds); err != nil {
		return nil, nil, nil, err
	}
	if powers, err = parseSeries("control.fan_power_levels", p.Control.FanPowerLevels); err != nil {
		return nil, nil, nil, err
	}
	if uas, err = parseSeries("control.fan_ua_levels", p.Control.FanUALevels); err != nil {
		return nil, nil, nil, err
	}
	if len(powers) != len(thresholds) || len(uas) != len(thresholds) {
		return nil, nil, nil, errParam("control.fan_power_levels", p.Control.FanPowerLevels,
			fmt.Sprintf("fan tables must have equal length (thresholds=%d powers=%d uas=%d)",
				len(thresholds), len(powers), len(uas)))
	}
	return thresholds, powers, uas, nil
}

// CabinCoolTable parses the cabin cooling staging table.
func (p *Params) CabinCoolTable() (thresholds, levels []float64, err error) {
	if thresholds, err = parseSeries("control.cabin_cool_thresholds", p.Control.CabinCoolThresholds); err != nil {
		return nil, nil, err
	}
	if levels, err = parseSeries("control.cabin_cool_levels", p.Control.CabinCoolLevels); err != nil {
		return nil, nil, err
	}
	if len(levels) != len(thresholds) {
		return nil, nil, errParam("control.cabin_cool_levels", p.Control.CabinCoolLevels,
			fmt.Sprintf("cabin tables must have equal length (thresholds=%d levels=%d)",
				len(thresholds), len(levels)))
	}
	return thresholds, levels, nil
}

func checkIncreasing(param, raw string, xs []float64) error {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return errParam(param, raw, "thresholds must be strictly increasing")
		}
	}
	return nil
}

func checkNonNegative(param, raw string, xs []float64) error {
	for _, x := range xs {
		if x < 0 {
			return errParam(param, raw, "levels must be non-negative")
		}
	}
	return nil
}

// Validate rejects configurations the engine cannot run.
func (p *Params) Validate() error {
	checks := []struct {
		name string
		val  float64
		ok   bool
		why  string
	}{
		{"simulation.dt_s", p.Simulation.DtS, p.Simulation.DtS > 0, "must be positive"},
		{"simulation.duration_s", p.Simulation.DurationS, p.Simulation.DurationS > 0, "must be positive"},
		{"simulation.duration_s", p.Simulation.DurationS, p.Simulation.DurationS >= p.Simulation.DtS, "must cover at least one step"},
		{"speed_profile.ramp_up_s", p.Speed.RampUpS, p.Speed.RampUpS >= 0, "must be non-negative"},
		{"vehicle.mass_vehicle_kg", p.Vehicle.MassVehicleKg, p.Vehicle.MassVehicleKg > 0, "must be positive"},
		{"vehicle.mass_motor_kg", p.Vehicle.MassMotorKg, p.Vehicle.MassMotorKg > 0, "must be positive"},
		{"vehicle.cp_motor", p.Vehicle.CpMotor, p.Vehicle.CpMotor > 0, "must be positive"},
		{"vehicle.mass_inverter_kg", p.Vehicle.MassInverterKg, p.Vehicle.MassInverterKg > 0, "must be positive"},
		{"vehicle.cp_inverter", p.Vehicle.CpInverter, p.Vehicle.CpInverter > 0, "must be positive"},
		{"vehicle.mass_battery_kg", p.Vehicle.MassBatteryKg, p.Vehicle.MassBatteryKg > 0, "must be positive"},
		{"vehicle.cp_battery", p.Vehicle.CpBattery, p.Vehicle.CpBattery > 0, "must be positive"},
		{"vehicle.cabin_volume_m3", p.Vehicle.CabinVolumeM3, p.Vehicle.CabinVolumeM3 > 0, "must be positive"},
		{"vehicle.coolant_volume_l", p.Vehicle.CoolantVolumeL, p.Vehicle.CoolantVolumeL > 0, "must be positive"},
		{"vehicle.rho_coolant", p.Vehicle.RhoCoolant, p.Vehicle.RhoCoolant > 0, "must be positive"},
		{"vehicle.cp_coolant", p.Vehicle.CpCoolant, p.Vehicle.CpCoolant > 0, "must be positive"},
		{"vehicle.ua_motor_coolant", p.Vehicle.UAMotorCoolant, p.Vehicle.UAMotorCoolant >= 0, "must be non-negative"},
		{"vehicle.ua_inverter_coolant", p.Vehicle.UAInverterCoolant, p.Vehicle.UAInverterCoolant >= 0, "must be non-negative"},
		{"vehicle.ua_battery_coolant", p.Vehicle.UABatteryCoolant, p.Vehicle.UABatteryCoolant >= 0, "must be non-negative"},
		{"vehicle.ua_coolant_chiller", p.Vehicle.UACoolantChiller, p.Vehicle.UACoolantChiller >= 0, "must be non-negative"},
		{"vehicle.fresh_air_fraction", p.Vehicle.FreshAirFraction, p.Vehicle.FreshAirFraction >= 0 && p.Vehicle.FreshAirFraction <= 1, "must be in [0,1]"},
		{"control.hysteresis_band_c", p.Control.HysteresisBandC, p.Control.HysteresisBandC > 0, "must be positive"},
		{"control.max_chiller_power_w", p.Control.MaxChillerPowerW, p.Control.MaxChillerPowerW >= 0, "must be non-negative"},
		{"control.fan_hysteresis_c", p.Control.FanHysteresisC, p.Control.FanHysteresisC >= 0, "must be non-negative"},
		{"control.radiator_derate_at_target", p.Control.RadiatorDerateAtTarget, p.Control.RadiatorDerateAtTarget >= 0 && p.Control.RadiatorDerateAtTarget <= 1, "must be in [0,1]"},
		{"control.radiator_derate_below_stop", p.Control.RadiatorDerateBelowStop, p.Control.RadiatorDerateBelowStop >= 0 && p.Control.RadiatorDerateBelowStop <= 1, "must be in [0,1]"},
		{"efficiency.eta_motor", p.Efficiency.EtaMotor, p.Efficiency.EtaMotor > 0 && p.Efficiency.EtaMotor <= 1, "must be in (0,1]"},
		{"efficiency.eta_inverter", p.Efficiency.EtaInverter, p.Efficiency.EtaInverter > 0 && p.Efficiency.EtaInverter <= 1, "must be in (0,1]"},
		{"efficiency.eta_comp_drive", p.Efficiency.EtaCompDrive, p.Efficiency.EtaCompDrive > 0 && p.Efficiency.EtaCompDrive <= 1, "must be in (0,1]"},
		{"efficiency.u_battery_v", p.Efficiency.UBatteryV, p.Efficiency.UBatteryV > 0, "must be positive"},
		{"efficiency.r_int_battery", p.Efficiency.RIntBattery, p.Efficiency.RIntBattery >= 0, "must be non-negative"},
	}
	for _, c := range checks {
		if !c.ok {
			return errParam(c.name, c.val, c.why)
		}
	}
	if p.Vehicle.Passengers < 0 {
		return errParam("vehicle.passengers", p.Vehicle.Passengers, "must be non-negative")
	}

	ft, fp, fu, err := p.FanTables()
	if err != nil {
		return err
	}
	if err := checkIncreasing("control.fan_thresholds", p.Control.FanThresholds, ft); err != nil {
		return err
	}
	if err := checkNonNegative("control.fan_power_levels", p.Control.FanPowerLevels, fp); err != nil {
		return err
	}
	if err := checkNonNegative("control.fan_ua_levels", p.Control.FanUALevels, fu); err != nil {
		return err
	}
	for i := 1; i < len(fu); i++ {
		if fu[i] < fu[i-1] {
			return errParam("control.fan_ua_levels", p.Control.FanUALevels, "UA levels must be non-decreasing")
		}
	}

	ct, cl, err := p.CabinCoolTable()
	if err != nil {
		return err
	}
	if err := checkIncreasing("control.cabin_cool_thresholds", p.Control.CabinCoolThresholds, ct); err != nil {
		return err
	}
	if err := checkNonNegative("control.cabin_cool_levels", p.Control.CabinCoolLevels, cl); err != nil {
		return err
	}
	return nil
}
