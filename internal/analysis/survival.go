package analysis

import (
	"math"
	"sort"

	"survivalvolume/domain/study"

	"gonum.org/v1/gonum/stat/distuv"
)

// FitSurvival computes the product-limit (Kaplan-Meier) survival estimate
// for one group's records, with a Greenwood variance confidence band.
//
// Records are processed in time order with events counted before
// censorings at the same instant, so a subject censored exactly when
// another fails still belongs to that failure's risk set. The returned
// points form a right-continuous step function: one point per distinct
// event or censoring time, constant in between. Censoring-only times shrink
// the risk set but leave the survival value unchanged.
func FitSurvival(group study.GroupID, records []study.SurvivalRecord, cfg study.StatsConfig) ([]study.SurvivalCurvePoint, error) {
	if len(records) == 0 {
		return nil, study.NewEmptyGroupError(group)
	}

	sorted := make([]study.SurvivalRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TimeToEvent != sorted[j].TimeToEvent {
			return sorted[i].TimeToEvent < sorted[j].TimeToEvent
		}
		return !sorted[i].Censored && sorted[j].Censored
	})

	z := distuv.UnitNormal.Quantile(0.5 + confidenceLevel(cfg)/2)

	var points []study.SurvivalCurvePoint
	survival := 1.0
	greenwood := 0.0
	atRisk := len(sorted)

	// The curve anchors at probability 1 before any observation.
	if sorted[0].TimeToEvent > 0 {
		points = append(points, study.SurvivalCurvePoint{
			Group:    group,
			Time:     0,
			Survival: 1,
			CILow:    1,
			CIHigh:   1,
			AtRisk:   atRisk,
		})
	}

	for i := 0; i < len(sorted); {
		t := sorted[i].TimeToEvent
		events, removed := 0, 0
		for i < len(sorted) && sorted[i].TimeToEvent == t {
			if !sorted[i].Censored {
				events++
			}
			removed++
			i++
		}

		r := atRisk
		if events > 0 {
			survival *= 1 - float64(events)/float64(r)
			if r > events {
				greenwood += float64(events) / (float64(r) * float64(r-events))
			}
			// r == events is a fully-observed terminal step; its variance
			// term would divide by zero and contributes nothing.
		}

		variance := survival * survival * greenwood
		half := z * math.Sqrt(variance)
		points = append(points, study.SurvivalCurvePoint{
			Group:    group,
			Time:     t,
			Survival: survival,
			CILow:    clampUnit(survival - half),
			CIHigh:   clampUnit(survival + half),
			AtRisk:   r,
			Events:   events,
		})

		atRisk -= removed
	}

	return points, nil
}

// LogRankResult holds the Mantel-Cox two-group comparison.
type LogRankResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Df        int     `json:"df"`
}

// LogRank performs the two-group log-rank (Mantel-Cox) test over the
// pooled distinct event times. The statistic is chi-squared with one
// degree of freedom; a pooled time where only one subject remains at risk
// carries no variance and is skipped.
func LogRank(groupA study.GroupID, a []study.SurvivalRecord, groupB study.GroupID, b []study.SurvivalRecord) (LogRankResult, error) {
	if len(a) == 0 {
		return LogRankResult{}, study.NewEmptyGroupError(groupA)
	}
	if len(b) == 0 {
		return LogRankResult{}, study.NewEmptyGroupError(groupB)
	}

	eventTimes := pooledEventTimes(a, b)

	observedA := 0.0
	expectedA := 0.0
	variance := 0.0
	for _, t := range eventTimes {
		nA, dA := riskAndEvents(a, t)
		nB, dB := riskAndEvents(b, t)
		n := nA + nB
		d := dA + dB
		if n < 2 || d == 0 {
			continue
		}
		fn, fd := float64(n), float64(d)
		fa := float64(nA)

		observedA += float64(dA)
		expectedA += fd * fa / fn
		variance += fd * (fa / fn) * (1 - fa/fn) * (fn - fd) / (fn - 1)
	}

	result := LogRankResult{Df: 1, PValue: 1}
	if variance > 0 {
		diff := observedA - expectedA
		result.Statistic = diff * diff / variance
		chi2 := distuv.ChiSquared{K: 1}
		result.PValue = 1 - chi2.CDF(result.Statistic)
	}
	return result, nil
}

// pooledEventTimes returns the sorted distinct times at which at least one
// uncensored event occurred in either group.
func pooledEventTimes(a, b []study.SurvivalRecord) []float64 {
	seen := make(map[float64]bool)
	var times []float64
	for _, recs := range [][]study.SurvivalRecord{a, b} {
		for _, r := range recs {
			if !r.Censored && !seen[r.TimeToEvent] {
				seen[r.TimeToEvent] = true
				times = append(times, r.TimeToEvent)
			}
		}
	}
	sort.Float64s(times)
	return times
}

// riskAndEvents counts subjects still at risk at time t and events exactly
// at t for one group's records.
func riskAndEvents(records []study.SurvivalRecord, t float64) (atRisk, events int) {
	for _, r := range records {
		if r.TimeToEvent >= t {
			atRisk++
		}
		if !r.Censored && r.TimeToEvent == t {
			events++
		}
	}
	return atRisk, events
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
