// Package metrics provides per-step observers reducing a run to
// scalar figures of merit.
package metrics

import "github.com/camellia2077/EV-TMS-PLOT/internal/engine"

// PeakTemperature tracks the maximum of one temperature channel.
type PeakTemperature struct {
	channel engine.Channel
	peak    float64
	seen    bool
}

func NewPeakTemperature(c engine.Channel) *PeakTemperature {
	return &PeakTemperature{channel: c}
}

func (m *PeakTemperature) Name() string { return "peak_" + m.channel.String() + "_c" }

func (m *PeakTemperature) Observe(rec engine.Record) {
	t := rec.Temps.At(m.channel)
	if !m.seen || t > m.peak {
		m.peak = t
		m.seen = true
	}
}

func (m *PeakTemperature) Value() float64 { return m.peak }

func (m *PeakTemperature) Reset() { m.peak = 0; m.seen = false }

// CompressorEnergy integrates electrical compressor draw over the run
// with left rectangles, reported in Wh. The terminal record has no
// step behind it, so each draw is booked when the following record
// arrives.
type CompressorEnergy struct {
	dt    float64
	total float64 // J
	prev  float64
	armed bool
}

func NewCompressorEnergy(dt float64) *CompressorEnergy {
	return &CompressorEnergy{dt: dt}
}

func (m *CompressorEnergy) Name() string { return "compressor_energy_wh" }

func (m *CompressorEnergy) Observe(rec engine.Record) {
	if m.armed {
		m.total += m.prev * m.dt
	}
	m.prev = rec.Out.PCompElec
	m.armed = true
}

func (m *CompressorEnergy) Value() float64 { return m.total / 3600.0 }

func (m *CompressorEnergy) Reset() { m.total = 0; m.prev = 0; m.armed = false }

// ChillerDuty is the fraction of observed records with the chiller on.
type ChillerDuty struct {
	on, total int
}

func NewChillerDuty() *ChillerDuty { return &ChillerDuty{} }

func (m *ChillerDuty) Name() string { return "chiller_duty" }

func (m *ChillerDuty) Observe(rec engine.Record) {
	m.total++
	if rec.Out.ChillerOn {
		m.on++
	}
}

func (m *ChillerDuty) Value() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.on) / float64(m.total)
}

func (m *ChillerDuty) Reset() { m.on = 0; m.total = 0 }
