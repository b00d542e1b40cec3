package report

import (
	"fmt"
	"strings"

	"survivalvolume/domain/study"
	"survivalvolume/internal/analysis"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders a textual study summary: per-group counts, endpoint
// rates, median survival, and pairwise log-rank comparisons. It is the
// non-graphical companion to the plot bundle; rendering layers that want
// figures consume the bundle directly.
func Markdown(title string, bundle *study.PlotBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Shared time axis: 0 to %g\n\n", bundle.MaxTime)

	b.WriteString("## Groups\n\n")
	b.WriteString("| Group | Subjects | Events | Censored | Median survival | Final S(t) |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, g := range bundle.Groups {
		events, censored := 0, 0
		for _, r := range g.Records {
			if r.Censored {
				censored++
			} else {
				events++
			}
		}
		final := 1.0
		if n := len(g.Curve); n > 0 {
			final = g.Curve[n-1].Survival
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %s | %.3f |\n",
			g.Group, len(g.Subjects), events, censored, medianSurvival(g.Curve), final)
	}

	if len(bundle.Groups) > 1 {
		b.WriteString("\n## Log-rank comparisons\n\n")
		b.WriteString("| Groups | Chi-squared | p-value |\n")
		b.WriteString("|---|---|---|\n")
		for i := 0; i < len(bundle.Groups); i++ {
			for j := i + 1; j < len(bundle.Groups); j++ {
				a, c := bundle.Groups[i], bundle.Groups[j]
				res, err := analysis.LogRank(a.Group, a.Records, c.Group, c.Records)
				if err != nil {
					continue
				}
				fmt.Fprintf(&b, "| %s vs %s | %.4f | %.4f |\n", a.Group, c.Group, res.Statistic, res.PValue)
			}
		}
	}

	return b.String()
}

// HTML renders the markdown summary to an HTML fragment.
func HTML(title string, bundle *study.PlotBundle) []byte {
	md := Markdown(title, bundle)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// medianSurvival is the first curve time at which the survival estimate
// drops to 0.5 or below, or "not reached" when the group never gets there.
func medianSurvival(curve []study.SurvivalCurvePoint) string {
	for _, p := range curve {
		if p.Survival <= 0.5 {
			return fmt.Sprintf("%g", p.Time)
		}
	}
	return "not reached"
}
