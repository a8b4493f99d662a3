// Package refrig models an idealized single-stage vapor-compression
// cycle well enough to price cabin and chiller cooling in compressor
// watts. State-point enthalpies come from per-refrigerant property
// correlations fitted to the automotive AC operating range (roughly
// -10..70 C), with the IIR datum h_liquid(0 C) = 200 kJ/kg.
package refrig

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownRefrigerant = errors.New("refrig: unknown refrigerant")

// Setpoints are the fixed cycle state-point temperatures in C.
type Setpoints struct {
	SuctionC     float64 // compressor inlet, superheated vapor
	CondSatC     float64 // condensing saturation
	SubcoolExitC float64 // condenser exit after subcooling
	EvapSatC     float64 // evaporating saturation
	DischargeC   float64 // compressor outlet, superheated vapor
}

// CycleData records the resolved cycle for reporting.
type CycleData struct {
	Refrigerant string
	PEvapKPa    float64
	PCondKPa    float64

	// Specific enthalpies in kJ/kg at the four corners:
	// 1 compressor in, 2 compressor out, 3 condenser out, 4 evaporator in.
	H1, H2, H3, H4 float64

	SuperheatC  float64
	SubcoolingC float64

	WCompKJkg float64 // specific compression work
	QEvapKJkg float64 // specific refrigeration effect
	QCondKJkg float64 // specific condenser rejection
	COP       float64
}

type properties struct {
	// Saturation pressure fit log10(P[kPa]) = a - b/(T[K] + c).
	a, b, c float64

	cpLiquid float64 // kJ/(kg*K)
	cpVapor  float64 // kJ/(kg*K)
	hfg0     float64 // latent heat at 0 C, kJ/kg
	dhfg     float64 // latent heat slope, kJ/(kg*K)
}

var refrigerants = map[string]properties{
	"R134a":   {a: 6.2937, b: 930.5, c: -30.0, cpLiquid: 1.43, cpVapor: 0.94, hfg0: 198.6, dhfg: -0.89},
	"R1234yf": {a: 6.1765, b: 897.2, c: -30.0, cpLiquid: 1.39, cpVapor: 0.95, hfg0: 163.3, dhfg: -0.78},
}

const hLiquidRef = 200.0 // kJ/kg at 0 C, IIR convention

func (pr properties) satPressureKPa(tC float64) float64 {
	return math.Pow(10, pr.a-pr.b/(tC+273.15+pr.c))
}

func (pr properties) hLiquid(tC float64) float64 {
	return hLiquidRef + pr.cpLiquid*tC
}

func (pr properties) hVaporSat(tC float64) float64 {
	return pr.hLiquid(tC) + pr.hfg0 + pr.dhfg*tC
}

// ComputeCOP resolves the cycle for the given refrigerant and returns
// its coefficient of performance. Errors are fatal configuration
// problems, never transient.
func ComputeCOP(sp Setpoints, refrigerant string) (float64, *CycleData, error) {
	pr, ok := refrigerants[refrigerant]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", ErrUnknownRefrigerant, refrigerant)
	}
	if sp.SuctionC < sp.EvapSatC {
		return 0, nil, fmt.Errorf("refrig: suction %.1fC below evaporating %.1fC", sp.SuctionC, sp.EvapSatC)
	}
	if sp.DischargeC < sp.CondSatC {
		return 0, nil, fmt.Errorf("refrig: discharge %.1fC below condensing %.1fC", sp.DischargeC, sp.CondSatC)
	}
	if sp.SubcoolExitC > sp.CondSatC {
		return 0, nil, fmt.Errorf("refrig: subcool exit %.1fC above condensing %.1fC", sp.SubcoolExitC, sp.CondSatC)
	}

	h1 := pr.hVaporSat(sp.EvapSatC) + pr.cpVapor*(sp.SuctionC-sp.EvapSatC)
	h2 := pr.hVaporSat(sp.CondSatC) + pr.cpVapor*(sp.DischargeC-sp.CondSatC)
	h3 := pr.hLiquid(sp.SubcoolExitC)
	h4 := h3 // isenthalpic expansion

	w := h2 - h1
	qe := h1 - h4
	if w <= 0 {
		return 0, nil, fmt.Errorf("refrig: non-positive compressor work %.3f kJ/kg", w)
	}
	if qe <= 0 {
		return 0, nil, fmt.Errorf("refrig: non-positive refrigeration effect %.3f kJ/kg", qe)
	}
	cop := qe / w

	cd := &CycleData{
		Refrigerant: refrigerant,
		PEvapKPa:    pr.satPressureKPa(sp.EvapSatC),
		PCondKPa:    pr.satPressureKPa(sp.CondSatC),
		H1:          h1,
		H2:          h2,
		H3:          h3,
		H4:          h4,
		SuperheatC:  sp.SuctionC - sp.EvapSatC,
		SubcoolingC: sp.CondSatC - sp.SubcoolExitC,
		WCompKJkg:   w,
		QEvapKJkg:   qe,
		QCondKJkg:   h2 - h3,
		COP:         cop,
	}
	return cop, cd, nil
}

// Supported lists the refrigerants this package can resolve.
func Supported() []string {
	return []string{"R134a", "R1234yf"}
}
