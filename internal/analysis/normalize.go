package analysis

import (
	"sort"

	"survivalvolume/domain/study"
)

// NormalizeSubject validates a raw subject and returns a time-sorted copy.
// Origin is subtracted from every measurement time before validation, so a
// caller can re-base a series to a subject-specific start (e.g. first dose
// day) as a pure offset; pass 0 to keep times as supplied.
//
// Validation rejects negative times or values, duplicate times, an empty
// series, a non-positive threshold, and missing identifiers. The input
// subject is never mutated.
func NormalizeSubject(s study.Subject, origin float64) (study.Subject, error) {
	if s.ID == "" {
		return study.Subject{}, study.NewValidationError(s.ID, "missing subject id")
	}
	if s.Group == "" {
		return study.Subject{}, study.NewValidationError(s.ID, "missing group id")
	}
	if len(s.Measurements) == 0 {
		return study.Subject{}, study.NewValidationError(s.ID, "no measurements")
	}
	if s.Threshold <= 0 {
		return study.Subject{}, study.NewValidationError(s.ID, "threshold must be positive")
	}

	measurements := make([]study.Measurement, len(s.Measurements))
	copy(measurements, s.Measurements)
	for i := range measurements {
		measurements[i].Time -= origin
	}

	sort.Slice(measurements, func(i, j int) bool {
		return measurements[i].Time < measurements[j].Time
	})

	for i, m := range measurements {
		if m.Time < 0 {
			return study.Subject{}, study.NewValidationError(s.ID, "negative measurement time")
		}
		if m.Value < 0 {
			return study.Subject{}, study.NewValidationError(s.ID, "negative measurement value")
		}
		if i > 0 && m.Time == measurements[i-1].Time {
			return study.Subject{}, study.NewValidationError(s.ID, "duplicate measurement time")
		}
	}

	normalized := s
	normalized.Measurements = measurements
	return normalized, nil
}

// NormalizeSubjects applies NormalizeSubject to every subject with a shared
// origin, failing on the first invalid subject. A corrupted subject is
// never silently dropped; the caller must exclude it explicitly.
func NormalizeSubjects(subjects []study.Subject, origin float64) ([]study.Subject, error) {
	normalized := make([]study.Subject, 0, len(subjects))
	for _, s := range subjects {
		n, err := NormalizeSubject(s, origin)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}
	return normalized, nil
}
