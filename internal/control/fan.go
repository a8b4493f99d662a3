package control

import "fmt"

// FanStaging drives the low-temperature radiator fans. Power and UA
// levels share the coolant-temperature thresholds of Stages. Upward
// stage changes follow the pure lookup immediately; downward changes
// wait until the coolant drops HysteresisC below the threshold that
// admitted the current stage.
type FanStaging struct {
	Stages      StagedTable // thresholds vs electrical power levels
	UALevels    []float64
	HysteresisC float64
}

func NewFanStaging(thresholds, powers, uas []float64, hysteresisC float64) (FanStaging, error) {
	st, err := NewStagedTable(thresholds, powers)
	if err != nil {
		return FanStaging{}, err
	}
	if len(uas) != st.Len() {
		return FanStaging{}, fmt.Errorf("control: fan UA table length %d, want %d", len(uas), st.Len())
	}
	if hysteresisC < 0 {
		return FanStaging{}, fmt.Errorf("control: negative fan hysteresis %v", hysteresisC)
	}
	return FanStaging{Stages: st, UALevels: uas, HysteresisC: hysteresisC}, nil
}

// Next returns the stage for this step given the previous stage and
// the coolant temperature.
func (f FanStaging) Next(level int, tCoolantC float64) int {
	ideal := f.Stages.Pick(tCoolantC)
	if ideal > level {
		return ideal
	}
	if ideal < level && tCoolantC < f.Stages.Thresholds[level-1]-f.HysteresisC {
		return ideal
	}
	return level
}

func (f FanStaging) PowerAt(level int) float64 { return f.Stages.Level(level) }

func (f FanStaging) UAAt(level int) float64 { return f.UALevels[level] }

// UAMax is the top UA level, the reference for radiator effectiveness.
func (f FanStaging) UAMax() float64 { return f.UALevels[len(f.UALevels)-1] }
