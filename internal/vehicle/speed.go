package vehicle

import "math"

// SpeedProfile is a linear ramp from VStartKmh to VEndKmh over RampUpS
// seconds, flat afterwards. Deceleration profiles (end below start)
// work the same way.
type SpeedProfile struct {
	VStartKmh float64
	VEndKmh   float64
	RampUpS   float64
}

// At returns the commanded speed in km/h at time t seconds.
func (p SpeedProfile) At(t float64) float64 {
	var v float64
	switch {
	case p.RampUpS <= 0 || t >= p.RampUpS:
		v = p.VEndKmh
	case t <= 0:
		v = p.VStartKmh
	default:
		v = p.VStartKmh + (p.VEndKmh-p.VStartKmh)*t/p.RampUpS
	}
	lo := math.Min(p.VStartKmh, p.VEndKmh)
	hi := math.Max(p.VStartKmh, p.VEndKmh)
	return math.Min(math.Max(v, lo), hi)
}
