package study

// SubjectID identifies an individual under observation (e.g. one animal).
type SubjectID string

// GroupID identifies a logical grouping of subjects (e.g. a treatment arm).
type GroupID string

// Measurement is a single observation of the monitored quantity at a point
// in time. Times and values are in caller-consistent units; no conversion
// happens anywhere downstream.
type Measurement struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Subject holds one individual's measurement series together with the
// threshold at which its endpoint event is deemed to have occurred.
// Measurements must be strictly increasing in time; NormalizeSubject
// enforces this.
type Subject struct {
	ID           SubjectID     `json:"id"`
	Group        GroupID       `json:"group"`
	Measurements []Measurement `json:"measurements"`
	Threshold    float64       `json:"threshold"`
}

// LastTime returns the time of the final measurement, or 0 for an empty
// series.
func (s Subject) LastTime() float64 {
	if len(s.Measurements) == 0 {
		return 0
	}
	return s.Measurements[len(s.Measurements)-1].Time
}

// SurvivalRecord is the event/censoring form of one subject's series.
// Censored means the threshold was never crossed in the observed window;
// TimeToEvent is then the last observed time rather than an estimate.
type SurvivalRecord struct {
	SubjectID   SubjectID `json:"subject_id"`
	Group       GroupID   `json:"group"`
	TimeToEvent float64   `json:"time_to_event"`
	Censored    bool      `json:"censored"`
}

// GroupSummaryPoint is the group mean and its confidence interval at one
// shared grid time. N counts subjects still contributing data at that time;
// subjects whose series ended earlier are excluded, never zero-filled.
type GroupSummaryPoint struct {
	Group  GroupID `json:"group"`
	Time   float64 `json:"time"`
	Mean   float64 `json:"mean"`
	SEM    float64 `json:"sem"`
	N      int     `json:"n"`
	CILow  float64 `json:"ci_low"`
	CIHigh float64 `json:"ci_high"`
}

// SurvivalCurvePoint is one step of the product-limit survival estimate.
// Probability is non-increasing in time within a group and the curve is
// right-continuous: between points the value is constant.
type SurvivalCurvePoint struct {
	Group    GroupID `json:"group"`
	Time     float64 `json:"time"`
	Survival float64 `json:"survival_probability"`
	CILow    float64 `json:"ci_low"`
	CIHigh   float64 `json:"ci_high"`
	AtRisk   int     `json:"at_risk"`
	Events   int     `json:"events"`
}

// GroupArtifacts collects every derived artifact for one group. All four
// are independently re-derivable from the same subjects.
type GroupArtifacts struct {
	Group    GroupID              `json:"group"`
	Subjects []Subject            `json:"subjects"`
	Records  []SurvivalRecord     `json:"records"`
	Summary  []GroupSummaryPoint  `json:"summary"`
	Curve    []SurvivalCurvePoint `json:"curve"`
}

// PlotBundle is the single structure handed to a rendering layer: per-group
// artifacts plus the shared x-axis upper bound across all panels. It is
// immutable once assembled; recompute rather than mutate.
type PlotBundle struct {
	ID      string           `json:"id"`
	Groups  []GroupArtifacts `json:"groups"`
	MaxTime float64          `json:"max_time"`
}

// Group returns the artifacts for one group and whether it exists.
func (b *PlotBundle) Group(id GroupID) (GroupArtifacts, bool) {
	for _, g := range b.Groups {
		if g.Group == id {
			return g, true
		}
	}
	return GroupArtifacts{}, false
}

// IntervalMethod selects how the group mean confidence interval is
// computed.
type IntervalMethod string

const (
	// IntervalNormal is the z·SEM normal approximation. It is the default
	// for compatibility with existing consumers; it is a known
	// approximation for small n.
	IntervalNormal IntervalMethod = "normal"
	// IntervalStudentT uses the t distribution with n-1 degrees of freedom,
	// matching R's t-test and Prism's 95% CI.
	IntervalStudentT IntervalMethod = "t"
)

// StatsConfig carries the tunables that components take per invocation.
// It is always passed explicitly so repeated calls with different settings
// cannot interfere.
type StatsConfig struct {
	// ConfidenceLevel for both the group mean interval and the survival
	// band, e.g. 0.95.
	ConfidenceLevel float64
	// IntervalMethod for the group mean CI.
	IntervalMethod IntervalMethod
	// MinGroupSize is the minimum number of contributing subjects required
	// for a summary point at a grid time; times with fewer are omitted.
	MinGroupSize int
	// RequireTwoPoints makes single-measurement subjects an error rather
	// than a censored record at the lone observed time.
	RequireTwoPoints bool
}

// DefaultStatsConfig returns the configuration matching the reference
// behaviour: 95% normal-approximation intervals, every n >= 1 time point
// reported, single-point subjects censored rather than rejected.
func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		ConfidenceLevel: 0.95,
		IntervalMethod:  IntervalNormal,
		MinGroupSize:    1,
	}
}
