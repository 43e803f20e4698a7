// Package view renders a user's time series as bucketed text summaries at
// three horizons: recent entries listed one by one, the rest of the past
// year summarized per calendar quarter, and the year before that summarized
// as a whole. Older entries are left out of the view.
package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mike-meow/zestify/pkg/record"
)

// Horizons are the bucket boundaries, in whole days of age.
type Horizons struct {
	RecentDays int
	YearDays   int
	MaxDays    int
}

// DefaultHorizons returns the 30/365/730 day boundaries.
func DefaultHorizons() Horizons {
	return Horizons{RecentDays: 30, YearDays: 365, MaxDays: 730}
}

// Validate checks that the horizons are positive and increasing.
func (h Horizons) Validate() error {
	if h.RecentDays <= 0 || h.YearDays <= h.RecentDays || h.MaxDays <= h.YearDays {
		return fmt.Errorf("view: horizons must satisfy 0 < recent < year < max, got %d/%d/%d",
			h.RecentDays, h.YearDays, h.MaxDays)
	}
	return nil
}

// Generator renders aggregates. The zero value uses DefaultHorizons.
type Generator struct {
	Horizons Horizons
}

func New(h Horizons) *Generator {
	return &Generator{Horizons: h}
}

func (g *Generator) horizons() Horizons {
	if g == nil || g.Horizons == (Horizons{}) {
		return DefaultHorizons()
	}
	return g.Horizons
}

// NoData is written for every empty horizon.
const NoData = "- No data"

// sample is one dated entry of a time series.
type sample struct {
	at       time.Time
	category string
	summary  string
	values   []value
}

// value is one numeric field of a sample.
type value struct {
	name   string
	unit   string
	v      float64
	median bool
}

type section struct {
	title   string
	samples []sample
}

// Render produces the textual view of agg as seen at now.
func (g *Generator) Render(agg *record.Aggregate, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Health and training history as of %s\n", now.UTC().Format(record.DateLayout))
	for _, sec := range []section{
		workoutSection(agg.WorkoutMemory.RecentWorkouts),
		activitySection(agg.Activities.Activities),
		biometricSection(&agg.Biometrics),
	} {
		g.renderSection(&b, sec, now)
	}
	return b.String()
}

// ageDays is the whole number of days between t and now. Entries dated in
// the future are treated as today's.
func ageDays(t, now time.Time) int {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

func quarterOf(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

func (g *Generator) renderSection(b *strings.Builder, sec section, now time.Time) {
	h := g.horizons()
	samples := append([]sample(nil), sec.samples...)
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].at.After(samples[j].at) })

	var recent, second []sample
	quarters := map[string][]sample{}
	for _, s := range samples {
		switch age := ageDays(s.at, now); {
		case age <= h.RecentDays:
			recent = append(recent, s)
		case age <= h.YearDays:
			q := quarterOf(s.at)
			quarters[q] = append(quarters[q], s)
		case age <= h.MaxDays:
			second = append(second, s)
		}
	}

	fmt.Fprintf(b, "\n## %s\n", sec.title)

	fmt.Fprintf(b, "### Recent (last %d days)\n", h.RecentDays)
	if len(recent) == 0 {
		b.WriteString(NoData + "\n")
	}
	for _, s := range recent {
		fmt.Fprintf(b, "- %s\n", s.summary)
	}

	fmt.Fprintf(b, "### Past year by quarter (%d-%d days ago)\n", h.RecentDays+1, h.YearDays)
	if len(quarters) == 0 {
		b.WriteString(NoData + "\n")
	}
	labels := make([]string, 0, len(quarters))
	for q := range quarters {
		labels = append(labels, q)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))
	for _, q := range labels {
		fmt.Fprintf(b, "#### %s\n", q)
		writeStats(b, quarters[q])
	}

	fmt.Fprintf(b, "### Second year (%d-%d days ago)\n", h.YearDays+1, h.MaxDays)
	if len(second) == 0 {
		b.WriteString(NoData + "\n")
	}
	writeStats(b, second)
}
