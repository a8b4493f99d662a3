package params

import "sort"

// Presets are named scenario overlays applied on top of Default.
var presets = map[string]func(*Params){
	// Hot-day motorway run: 60 to 120 km/h ramp at 35 C ambient.
	"highway": func(p *Params) {},

	// Stop-and-go urban traffic at a milder ambient.
	"city": func(p *Params) {
		p.Simulation.AmbientC = 30.0
		p.Simulation.DurationS = 1200.0
		p.Speed.VStartKmh = 30.0
		p.Speed.VEndKmh = 60.0
		p.Speed.RampUpS = 120.0
		p.Vehicle.Passengers = 1
	},

	// Desert soak: high ambient and solar, full cabin.
	"desert": func(p *Params) {
		p.Simulation.AmbientC = 43.0
		p.Vehicle.SolarIrradianceWm2 = 1000.0
		p.Vehicle.Passengers = 4
		p.Initial.CabinOffsetC = 10.0
	},
}

// Preset returns a fresh Params for the named scenario, nil if unknown.
func Preset(name string) *Params {
	apply, ok := presets[name]
	if !ok {
		return nil
	}
	p := Default()
	apply(p)
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
