package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mike-meow/zestify/pkg/record"
)

func day(s sample) string {
	return s.at.UTC().Format(record.DateLayout)
}

func workoutSection(workouts []record.Workout) section {
	sec := section{title: "Workouts"}
	for i := range workouts {
		w := &workouts[i]
		if w.StartDate == nil || w.StartDate.IsZero() {
			continue
		}
		s := sample{at: w.StartDate.Time, category: w.WorkoutType}
		if s.category == "" {
			s.category = "Workout"
		}
		if w.DurationSeconds != nil {
			s.values = append(s.values, value{name: "duration", unit: "min", v: *w.DurationSeconds / 60})
		}
		if w.Distance != nil {
			s.values = append(s.values, value{name: "distance", unit: w.DistanceUnit, v: *w.Distance})
		}
		if w.ActiveEnergyBurned != nil {
			s.values = append(s.values, value{name: "energy", unit: w.ActiveEnergyBurnedUnit, v: *w.ActiveEnergyBurned})
		}
		if hr := w.HeartRateSummary; hr != nil && hr.Average != nil {
			s.values = append(s.values, value{name: "avg heart rate", unit: hr.Unit, v: *hr.Average, median: true})
		}

		parts := make([]string, 0, len(s.values))
		for _, v := range s.values {
			parts = append(parts, v.name+" "+withUnit(v.v, v.unit))
		}
		s.summary = fmt.Sprintf("%s %s", day(s), s.category)
		if len(parts) > 0 {
			s.summary += ": " + strings.Join(parts, ", ")
		}
		sec.samples = append(sec.samples, s)
	}
	return sec
}

// activitySection skips days that recorded nothing and keeps only the first
// entry per calendar day once sorted newest first.
func activitySection(days []record.Activity) section {
	sorted := append([]record.Activity(nil), days...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date.Time) })

	sec := section{title: "Daily activity"}
	seen := map[string]bool{}
	for i := range sorted {
		a := &sorted[i]
		if a.Date.IsZero() || a.IsZero() {
			continue
		}
		key := a.Date.String()
		if seen[key] {
			continue
		}
		seen[key] = true

		s := sample{
			at:       a.Date.Time,
			category: "Activity",
			values: []value{
				{name: "steps", v: float64(a.Steps)},
				{name: "distance", unit: a.DistanceUnit, v: a.Distance},
				{name: "active energy", unit: a.ActiveEnergyBurnedUnit, v: a.ActiveEnergyBurned},
				{name: "exercise", unit: "min", v: float64(a.ExerciseMinutes)},
			},
		}
		s.summary = fmt.Sprintf("%s: %d steps, %s, %s, %d exercise min",
			key, a.Steps, withUnit(a.Distance, a.DistanceUnit), withUnit(a.ActiveEnergyBurned, a.ActiveEnergyBurnedUnit), a.ExerciseMinutes)
		sec.samples = append(sec.samples, s)
	}
	return sec
}

func biometricSection(b *record.Biometrics) section {
	sec := section{title: "Biometrics"}
	for _, series := range b.Series() {
		for _, r := range series.Readings {
			if r.Date.IsZero() {
				continue
			}
			v, unit := r.Value, r.Unit
			if series.Kind == record.SeriesBodyFat {
				v, unit = record.BodyFatPercent(v), "%"
			}
			s := sample{
				at:       r.Date.Time,
				category: series.Label,
				values: []value{{
					name:   strings.ToLower(series.Label),
					unit:   unit,
					v:      v,
					median: series.Kind == record.SeriesRestingHeartRate,
				}},
			}
			s.summary = fmt.Sprintf("%s %s: %s", day(s), series.Label, withUnit(v, unit))
			sec.samples = append(sec.samples, s)
		}
	}
	return sec
}
