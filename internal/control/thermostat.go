package control

// Thermostat is a two-point switch: on at or above OnAboveC, off at or
// below OnAboveC - BandC, holding its previous state in between.
type Thermostat struct {
	OnAboveC float64
	BandC    float64
}

func (th Thermostat) Update(on bool, tC float64) bool {
	switch {
	case tC >= th.OnAboveC:
		return true
	case tC <= th.OnAboveC-th.BandC:
		return false
	default:
		return on
	}
}
