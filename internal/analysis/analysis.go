// Package analysis post-processes a run history: control transitions,
// temperature extrema and per-channel summary statistics.
package analysis

import (
	"math"

	"github.com/camellia2077/EV-TMS-PLOT/internal/engine"
)

// Transition is one chiller state change.
type Transition struct {
	Time float64
	On   bool
}

// ChillerTransitions lists every ON/OFF edge in record order.
func ChillerTransitions(h engine.History) []Transition {
	var out []Transition
	if len(h.Records) == 0 {
		return out
	}
	prev := h.Records[0].Out.ChillerOn
	for _, r := range h.Records[1:] {
		if r.Out.ChillerOn != prev {
			out = append(out, Transition{Time: r.Time, On: r.Out.ChillerOn})
			prev = r.Out.ChillerOn
		}
	}
	return out
}

// Extremum is a local minimum or maximum of a temperature trace.
type Extremum struct {
	Time  float64
	Value float64
	Max   bool
}

// LocalExtrema finds strict three-point extrema; flat plateaus are
// skipped rather than reported edge by edge.
func LocalExtrema(times, values []float64) []Extremum {
	var out []Extremum
	for i := 1; i < len(values)-1; i++ {
		v := values[i]
		if v > values[i-1] && v > values[i+1] {
			out = append(out, Extremum{Time: times[i], Value: v, Max: true})
		} else if v < values[i-1] && v < values[i+1] {
			out = append(out, Extremum{Time: times[i], Value: v, Max: false})
		}
	}
	return out
}

// Summary describes one temperature channel over the run.
type Summary struct {
	Channel engine.Channel
	MinC    float64
	MaxC    float64
	FinalC  float64
	TMaxAt  float64
}

func Summarize(h engine.History) []Summary {
	out := make([]Summary, 0, len(engine.Channels()))
	if len(h.Records) == 0 {
		return out
	}
	for _, ch := range engine.Channels() {
		s := Summary{Channel: ch, MinC: math.Inf(1), MaxC: math.Inf(-1)}
		for _, r := range h.Records {
			v := r.Temps.At(ch)
			if v < s.MinC {
				s.MinC = v
			}
			if v > s.MaxC {
				s.MaxC = v
				s.TMaxAt = r.Time
			}
		}
		s.FinalC = h.Records[len(h.Records)-1].Temps.At(ch)
		out = append(out, s)
	}
	return out
}

// CompressorEnergyWh integrates the electrical compressor draw over
// the run, left rectangles, terminal record excluded.
func CompressorEnergyWh(h engine.History) float64 {
	total := 0.0
	for i := 0; i+1 < len(h.Records); i++ {
		total += h.Records[i].Out.PCompElec * h.Dt
	}
	return total / 3600.0
}

// ChillerDuty is the fraction of non-terminal records with the
// chiller running.
func ChillerDuty(h engine.History) float64 {
	if len(h.Records) < 2 {
		return 0
	}
	on := 0
	for _, r := range h.Records[:len(h.Records)-1] {
		if r.Out.ChillerOn {
			on++
		}
	}
	return float64(on) / float64(len(h.Records)-1)
}
