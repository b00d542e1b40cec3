package analysis

import (
	"context"
	"sort"

	"survivalvolume/domain/study"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Analyze runs the whole pipeline: normalize every subject, derive each
// group's survival records, summary points, and survival curve, and
// assemble the synchronized bundle. Groups are independent, so they are
// computed concurrently; ordering within a group is handled by the
// individual estimators.
//
// Any validation or data error from a component aborts the whole run. A
// corrupted subject is never dropped behind the caller's back.
func Analyze(ctx context.Context, subjects []study.Subject, origin float64, cfg study.StatsConfig) (*study.PlotBundle, error) {
	if len(subjects) == 0 {
		return nil, study.NewEmptyGroupError("")
	}

	normalized, err := NormalizeSubjects(subjects, origin)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[study.GroupID][]study.Subject)
	for _, s := range normalized {
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}

	groupIDs := make([]study.GroupID, 0, len(byGroup))
	for id := range byGroup {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	artifacts := make([]study.GroupArtifacts, len(groupIDs))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range groupIDs {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := analyzeGroup(id, byGroup[id], cfg)
			if err != nil {
				return err
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Assemble(artifacts), nil
}

// analyzeGroup derives every artifact for one group of normalized subjects.
func analyzeGroup(id study.GroupID, subjects []study.Subject, cfg study.StatsConfig) (study.GroupArtifacts, error) {
	records, err := ExtractEvents(subjects, cfg)
	if err != nil {
		return study.GroupArtifacts{}, err
	}
	summary, err := SummarizeGroup(id, subjects, cfg)
	if err != nil {
		return study.GroupArtifacts{}, err
	}
	curve, err := FitSurvival(id, records, cfg)
	if err != nil {
		return study.GroupArtifacts{}, err
	}
	return study.GroupArtifacts{
		Group:    id,
		Subjects: subjects,
		Records:  records,
		Summary:  summary,
		Curve:    curve,
	}, nil
}

// Assemble aggregates precomputed per-group artifacts into one immutable
// bundle whose shared x-axis bound is the largest time any panel will draw:
// the max over groups of the last survival-curve time and the last summary
// grid time. Pure aggregation; nothing is recomputed.
func Assemble(groups []study.GroupArtifacts) *study.PlotBundle {
	maxTime := 0.0
	for _, g := range groups {
		if n := len(g.Curve); n > 0 && g.Curve[n-1].Time > maxTime {
			maxTime = g.Curve[n-1].Time
		}
		if n := len(g.Summary); n > 0 && g.Summary[n-1].Time > maxTime {
			maxTime = g.Summary[n-1].Time
		}
	}
	return &study.PlotBundle{
		ID:      uuid.NewString(),
		Groups:  groups,
		MaxTime: maxTime,
	}
}
