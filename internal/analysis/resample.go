package analysis

import (
	"sort"

	"survivalvolume/domain/study"
)

// CohortSamples holds a group's shared time grid and, for each grid time,
// the interpolated value of every subject still under observation there.
// Samples[i] corresponds to Grid[i]; the inner order follows the subject
// order handed to ResampleGroup.
type CohortSamples struct {
	Group   study.GroupID
	Grid    []float64
	Samples [][]float64
}

// ResampleGroup maps every subject in a group onto a shared time grid so
// per-time statistics compare like with like across different sampling
// schedules.
//
// The grid is the union of all observed measurement times in the group; no
// times are fabricated, which keeps the mean free of interpolation bias at
// grid construction. Each subject contributes a linearly interpolated value
// at every grid time inside its own observation window. Grid times outside
// that window are skipped for that subject rather than extrapolated:
// extending a series past its last observation would fabricate trajectory.
func ResampleGroup(group study.GroupID, subjects []study.Subject) (CohortSamples, error) {
	if len(subjects) == 0 {
		return CohortSamples{}, study.NewEmptyGroupError(group)
	}

	grid := unionGrid(subjects)
	samples := make([][]float64, len(grid))
	for i, t := range grid {
		var values []float64
		for _, s := range subjects {
			if v, ok := interpolateAt(s.Measurements, t); ok {
				values = append(values, v)
			}
		}
		samples[i] = values
	}

	return CohortSamples{Group: group, Grid: grid, Samples: samples}, nil
}

// unionGrid returns the sorted distinct measurement times across subjects.
func unionGrid(subjects []study.Subject) []float64 {
	seen := make(map[float64]bool)
	var grid []float64
	for _, s := range subjects {
		for _, m := range s.Measurements {
			if !seen[m.Time] {
				seen[m.Time] = true
				grid = append(grid, m.Time)
			}
		}
	}
	sort.Float64s(grid)
	return grid
}

// interpolateAt returns the series value at time t, linearly interpolated
// between the bracketing measurements, or taken directly when t coincides
// with an observed time. The second return is false when t falls outside
// the observed window (no bracketing pair exists).
func interpolateAt(ms []study.Measurement, t float64) (float64, bool) {
	if len(ms) == 0 || t < ms[0].Time || t > ms[len(ms)-1].Time {
		return 0, false
	}
	// Find the first measurement at or after t.
	i := sort.Search(len(ms), func(i int) bool { return ms[i].Time >= t })
	if ms[i].Time == t {
		return ms[i].Value, true
	}
	prev, cur := ms[i-1], ms[i]
	frac := (t - prev.Time) / (cur.Time - prev.Time)
	return prev.Value + frac*(cur.Value-prev.Value), true
}
