// Package control holds the discrete side of the thermal loop: staged
// lookup tables, the chiller thermostat, radiator fan staging and the
// hysteresis memory that threads mode decisions between steps.
package control

import "fmt"

// StagedTable maps a continuous input onto discrete output levels.
// Thresholds and Levels have equal length; the last threshold acts as
// a catch-all so inputs beyond it still resolve to the highest level.
type StagedTable struct {
	Thresholds []float64
	Levels     []float64
}

func NewStagedTable(thresholds, levels []float64) (StagedTable, error) {
	if len(thresholds) == 0 {
		return StagedTable{}, fmt.Errorf("control: empty staged table")
	}
	if len(thresholds) != len(levels) {
		return StagedTable{}, fmt.Errorf("control: staged table lengths differ (%d thresholds, %d levels)",
			len(thresholds), len(levels))
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return StagedTable{}, fmt.Errorf("control: thresholds not strictly increasing at index %d (%v)",
				i, thresholds)
		}
	}
	return StagedTable{Thresholds: thresholds, Levels: levels}, nil
}

// Pick returns the smallest stage k with x <= Thresholds[k], or the
// highest stage when x exceeds them all. Boundaries belong to the
// lower stage.
func (t StagedTable) Pick(x float64) int {
	for k, thr := range t.Thresholds {
		if x <= thr {
			return k
		}
	}
	return len(t.Thresholds) - 1
}

func (t StagedTable) Level(k int) float64 { return t.Levels[k] }

func (t StagedTable) Len() int { return len(t.Thresholds) }
