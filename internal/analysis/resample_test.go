package analysis

import (
	"testing"

	"survivalvolume/domain/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleGroup_UnionGridWithoutFabricatedTimes(t *testing.T) {
	a := subjectWith(100, [2]float64{0, 50}, [2]float64{4, 60}, [2]float64{8, 70})
	a.ID = "m1"
	b := subjectWith(100, [2]float64{0, 40}, [2]float64{6, 55})
	b.ID = "m2"

	cohort, err := ResampleGroup("control", []study.Subject{a, b})
	require.NoError(t, err)

	// Only observed times, sorted, no duplicates.
	assert.Equal(t, []float64{0, 4, 6, 8}, cohort.Grid)
}

func TestResampleGroup_InterpolatesBetweenObservations(t *testing.T) {
	a := subjectWith(100, [2]float64{0, 50}, [2]float64{4, 60}, [2]float64{8, 70})
	a.ID = "m1"
	b := subjectWith(100, [2]float64{0, 40}, [2]float64{6, 55})
	b.ID = "m2"

	cohort, err := ResampleGroup("control", []study.Subject{a, b})
	require.NoError(t, err)

	// At t=4: a observed 60, b interpolated 40 + 4/6*(55-40) = 50.
	require.Len(t, cohort.Samples[1], 2)
	assert.InDelta(t, 60, cohort.Samples[1][0], 1e-12)
	assert.InDelta(t, 50, cohort.Samples[1][1], 1e-12)

	// At t=6: a interpolated 65, b observed 55.
	require.Len(t, cohort.Samples[2], 2)
	assert.InDelta(t, 65, cohort.Samples[2][0], 1e-12)
	assert.InDelta(t, 55, cohort.Samples[2][1], 1e-12)
}

func TestResampleGroup_NoExtrapolationPastLastObservation(t *testing.T) {
	a := subjectWith(100, [2]float64{0, 50}, [2]float64{4, 60}, [2]float64{8, 70})
	a.ID = "m1"
	b := subjectWith(100, [2]float64{0, 40}, [2]float64{6, 55})
	b.ID = "m2"

	cohort, err := ResampleGroup("control", []study.Subject{a, b})
	require.NoError(t, err)

	// t=8 is past b's last observation: only a contributes.
	require.Len(t, cohort.Samples[3], 1)
	assert.InDelta(t, 70, cohort.Samples[3][0], 1e-12)
}

func TestResampleGroup_NoBackfillBeforeFirstObservation(t *testing.T) {
	a := subjectWith(100, [2]float64{0, 50}, [2]float64{10, 70})
	a.ID = "m1"
	late := subjectWith(100, [2]float64{5, 40}, [2]float64{10, 60})
	late.ID = "m2"

	cohort, err := ResampleGroup("control", []study.Subject{a, late})
	require.NoError(t, err)

	// t=0 precedes the late joiner's window; no bracketing pair exists.
	assert.Len(t, cohort.Samples[0], 1)
	assert.Len(t, cohort.Samples[1], 2)
}

func TestResampleGroup_ContributorCountNeverIncreases(t *testing.T) {
	a := subjectWith(100, [2]float64{0, 50}, [2]float64{4, 60}, [2]float64{8, 70}, [2]float64{12, 90})
	a.ID = "m1"
	b := subjectWith(100, [2]float64{0, 40}, [2]float64{6, 55})
	b.ID = "m2"
	c := subjectWith(100, [2]float64{0, 45}, [2]float64{4, 52}, [2]float64{8, 66})
	c.ID = "m3"

	cohort, err := ResampleGroup("control", []study.Subject{a, b, c})
	require.NoError(t, err)

	for i := 1; i < len(cohort.Grid); i++ {
		assert.LessOrEqual(t, len(cohort.Samples[i]), len(cohort.Samples[i-1]),
			"contributors grew between t=%v and t=%v", cohort.Grid[i-1], cohort.Grid[i])
	}
}

func TestResampleGroup_EmptyGroup(t *testing.T) {
	_, err := ResampleGroup("empty", nil)
	assert.True(t, study.IsEmptyGroupError(err))
}
