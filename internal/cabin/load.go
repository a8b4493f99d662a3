// Package cabin models the passenger-compartment heat balance: solar
// and conducted gains through body and glazing, occupant and equipment
// loads, and the fresh-air ventilation penalty.
package cabin

import (
	"math"

	"github.com/camellia2077/EV-TMS-PLOT/internal/control"
	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
)

// Fresh-air requirement per occupant, m3/s.
const freshAirPerPerson = 0.007

// LoadModel evaluates the instantaneous cabin heat load. Ambient
// conditions are fixed per run.
type LoadModel struct {
	AmbientC           float64
	SolarIrradianceWm2 float64

	Passengers       int
	AirSpeedInternal float64 // m/s over the inner surfaces
	QPerPassengerW   float64
	QElectronicsW    float64
	QPowertrainInW   float64

	AreaBodyM2  float64
	RBody       float64
	AreaGlassM2 float64
	RGlass      float64
	SunAreaM2   float64
	SHGC        float64

	HumidityRatioOut float64
	HumidityRatioIn  float64
	FreshAirFraction float64
}

// InternalLoad is the occupant, electronics and powertrain heat
// ingress contribution, independent of cabin temperature.
func (m LoadModel) InternalLoad() float64 {
	return float64(m.Passengers)*m.QPerPassengerW + m.QElectronicsW + m.QPowertrainInW
}

func (m LoadModel) filmCoefficients(speedKmh float64) (hIn, hOut float64) {
	vOut := speedKmh / 3.6
	hOut = 5.7 + 3.8*vOut
	hIn = math.Max(2.5, 2.5+5.5*m.AirSpeedInternal)
	return hIn, hOut
}

func (m LoadModel) conduction(area, rMaterial, tCabinC, speedKmh float64) float64 {
	hIn, hOut := m.filmCoefficients(speedKmh)
	u := 1.0 / (1.0/hIn + rMaterial + 1.0/hOut)
	return u * area * (m.AmbientC - tCabinC)
}

// BodyConduction is the opaque-envelope gain, W.
func (m LoadModel) BodyConduction(tCabinC, speedKmh float64) float64 {
	return m.conduction(m.AreaBodyM2, m.RBody, tCabinC, speedKmh)
}

// GlassLoad is glazing conduction plus transmitted solar gain, W.
func (m LoadModel) GlassLoad(tCabinC, speedKmh float64) float64 {
	cond := m.conduction(m.AreaGlassM2, m.RGlass, tCabinC, speedKmh)
	solar := m.SHGC * m.SunAreaM2 * m.SolarIrradianceWm2
	return cond + solar
}

// VentilationLoad is the sensible plus latent cost of the fresh-air
// fraction, W. Latent load never goes negative; drier outside air is
// not credited.
func (m LoadModel) VentilationLoad(tCabinC float64) float64 {
	flow := freshAirPerPerson * float64(m.Passengers) * m.FreshAirFraction
	mdot := flow * params.AirDensity(m.AmbientC)
	sensible := mdot * params.CpAir * (m.AmbientC - tCabinC)
	latent := mdot * params.LatentHeatFg * math.Max(0, m.HumidityRatioOut-m.HumidityRatioIn)
	return sensible + latent
}

// LoadAt is the total heat load on the cabin air node, W.
func (m LoadModel) LoadAt(tCabinC, speedKmh float64) float64 {
	return m.InternalLoad() +
		m.BodyConduction(tCabinC, speedKmh) +
		m.GlassLoad(tCabinC, speedKmh) +
		m.VentilationLoad(tCabinC)
}

// Climate couples the load model with the staged evaporator capacity.
type Climate struct {
	Load   LoadModel
	Stages control.StagedTable
}

// CoolingAt returns the active stage and its evaporator duty for the
// given cabin temperature.
func (c Climate) CoolingAt(tCabinC float64) (level int, powerW float64) {
	level = c.Stages.Pick(tCabinC)
	return level, c.Stages.Level(level)
}
