// Package vehicle holds the longitudinal-dynamics side of the
// simulation: the driven speed profile and the tractive-power chain
// that turns road load into waste heat at the motor and inverter.
package vehicle

import "github.com/camellia2077/EV-TMS-PLOT/internal/params"

// Road-load constants for a mid-size EV.
const (
	rollCoeff   = 0.008
	gravity     = 9.8
	dragCoeff   = 0.22
	frontalArea = 3.00 // m2
)

// PowertrainModel computes steady tractive power and loss heat for a
// given road speed. It is stateless.
type PowertrainModel struct {
	MassKg      float64
	AmbientC    float64
	EtaMotor    float64
	EtaInverter float64
}

// PowertrainHeat is the loss split at one operating point, all in W.
type PowertrainHeat struct {
	SpeedKmh     float64
	PWheelW      float64
	PMotorInW    float64
	PInverterInW float64
	QMotorW      float64
	QInverterW   float64
}

// HeatAt evaluates the chain wheel -> motor -> inverter at speedKmh.
// Coasting and standstill (wheel power <= 0) draw nothing and heat
// nothing.
func (m PowertrainModel) HeatAt(speedKmh float64) PowertrainHeat {
	v := speedKmh / 3.6
	fRoll := rollCoeff * m.MassKg * gravity
	fAero := 0.5 * params.AirDensity(m.AmbientC) * dragCoeff * frontalArea * v * v
	pWheel := (fRoll + fAero) * v

	h := PowertrainHeat{SpeedKmh: speedKmh, PWheelW: pWheel}
	if pWheel <= 0 {
		return h
	}
	h.PMotorInW = pWheel / m.EtaMotor
	h.QMotorW = h.PMotorInW * (1 - m.EtaMotor)
	h.PInverterInW = h.PMotorInW / m.EtaInverter
	h.QInverterW = h.PInverterInW - h.PMotorInW
	return h
}

// BatteryHeat returns ohmic loss for a pack delivering pOutW at
// terminal voltage uBatt with internal resistance rInt.
func BatteryHeat(pOutW, uBatt, rInt float64) float64 {
	if pOutW <= 0 {
		return 0
	}
	i := pOutW / uBatt
	return i * i * rInt
}
