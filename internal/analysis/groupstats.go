package analysis

import (
	"math"

	"survivalvolume/domain/study"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SummarizeGroup computes the mean, standard error of the mean, and
// confidence interval at every shared grid time with enough contributing
// subjects.
//
// Grid times with fewer than cfg.MinGroupSize contributors (never fewer
// than one) are omitted rather than zero-filled. A lone contributor yields
// SEM 0 and a collapsed interval; that is reported, not an error. The
// lower confidence bound is clamped at zero since the measured quantity
// cannot be negative.
func SummarizeGroup(group study.GroupID, subjects []study.Subject, cfg study.StatsConfig) ([]study.GroupSummaryPoint, error) {
	cohort, err := ResampleGroup(group, subjects)
	if err != nil {
		return nil, err
	}

	minN := cfg.MinGroupSize
	if minN < 1 {
		minN = 1
	}

	points := make([]study.GroupSummaryPoint, 0, len(cohort.Grid))
	for i, t := range cohort.Grid {
		values := cohort.Samples[i]
		n := len(values)
		if n < minN {
			continue
		}

		mean, err := stats.Mean(values)
		if err != nil {
			return nil, study.NewValidationError("", "mean computation failed: "+err.Error())
		}

		sem := 0.0
		if n > 1 {
			sd, err := stats.StandardDeviationSample(values)
			if err != nil {
				return nil, study.NewValidationError("", "stddev computation failed: "+err.Error())
			}
			sem = sd / math.Sqrt(float64(n))
		}

		half := intervalHalfWidth(sem, n, cfg)
		points = append(points, study.GroupSummaryPoint{
			Group:  group,
			Time:   t,
			Mean:   mean,
			SEM:    sem,
			N:      n,
			CILow:  math.Max(0, mean-half),
			CIHigh: mean + half,
		})
	}
	return points, nil
}

// intervalHalfWidth returns the half-width of the confidence interval for
// the mean at the configured level. The normal approximation is the
// compatibility default; the Student-t interval is the small-sample
// alternative matching R and Prism. With n == 1 the SEM is zero and the
// interval collapses regardless of method.
func intervalHalfWidth(sem float64, n int, cfg study.StatsConfig) float64 {
	if sem == 0 || n < 2 {
		return 0
	}
	p := 0.5 + confidenceLevel(cfg)/2
	if cfg.IntervalMethod == study.IntervalStudentT {
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
		return t.Quantile(p) * sem
	}
	return distuv.UnitNormal.Quantile(p) * sem
}

func confidenceLevel(cfg study.StatsConfig) float64 {
	if cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1 {
		return 0.95
	}
	return cfg.ConfidenceLevel
}
