package analysis

import (
	"survivalvolume/domain/study"
)

// ExtractEvent converts a normalized subject into its survival record by
// finding the first time the series crosses the subject's threshold from
// below.
//
// The crossing time between two bracketing measurements is linearly
// interpolated. A subject whose first measurement is already at or above
// threshold has its event at that first time. A series that never reaches
// threshold is censored at its last observed time. A single-measurement
// subject below threshold is censored at that time unless
// cfg.RequireTwoPoints is set, in which case it is an error.
func ExtractEvent(s study.Subject, cfg study.StatsConfig) (study.SurvivalRecord, error) {
	ms := s.Measurements
	if len(ms) == 0 {
		return study.SurvivalRecord{}, study.NewValidationError(s.ID, "no measurements")
	}

	record := study.SurvivalRecord{SubjectID: s.ID, Group: s.Group}

	// Already at endpoint when observation began.
	if ms[0].Value >= s.Threshold {
		record.TimeToEvent = ms[0].Time
		return record, nil
	}

	if len(ms) == 1 {
		if cfg.RequireTwoPoints {
			return study.SurvivalRecord{}, study.NewInsufficientDataError(s.ID, 1, 2)
		}
		record.TimeToEvent = ms[0].Time
		record.Censored = true
		return record, nil
	}

	for i := 1; i < len(ms); i++ {
		if ms[i].Value < s.Threshold {
			continue
		}
		// First index at or above threshold; everything before is below,
		// so the bracketing pair is (i-1, i) and the denominator is
		// strictly positive. Exact equality lands on ms[i].Time, which
		// keeps crossing detection idempotent at the boundary.
		prev, cur := ms[i-1], ms[i]
		record.TimeToEvent = prev.Time +
			(s.Threshold-prev.Value)/(cur.Value-prev.Value)*(cur.Time-prev.Time)
		return record, nil
	}

	// Threshold never reached: censored at end of observation.
	record.TimeToEvent = ms[len(ms)-1].Time
	record.Censored = true
	return record, nil
}

// ExtractEvents produces exactly one record per subject, in input order.
func ExtractEvents(subjects []study.Subject, cfg study.StatsConfig) ([]study.SurvivalRecord, error) {
	records := make([]study.SurvivalRecord, 0, len(subjects))
	for _, s := range subjects {
		r, err := ExtractEvent(s, cfg)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
