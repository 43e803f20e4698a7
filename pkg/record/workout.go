package record

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// Workout is one recorded training session.
type Workout struct {
	ID                     string            `json:"id"`
	WorkoutType            string            `json:"workout_type"`
	OriginalType           string            `json:"original_type"`
	StartDate              *Timestamp        `json:"start_date"`
	EndDate                *Timestamp        `json:"end_date"`
	DurationSeconds        *float64          `json:"duration_seconds"`
	Distance               *float64          `json:"distance"`
	DistanceUnit           string            `json:"distance_unit"`
	ActiveEnergyBurned     *float64          `json:"active_energy_burned"`
	ActiveEnergyBurnedUnit string            `json:"active_energy_burned_unit"`
	HeartRateSummary       *HeartRateSummary `json:"heart_rate_summary"`
	Source                 string            `json:"source"`
	Notes                  string            `json:"notes"`
}

// HeartRateSummary aggregates heart rate samples taken during a workout.
type HeartRateSummary struct {
	Average *float64 `json:"average"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Unit    string   `json:"unit"`
}

// Started returns the workout start, or the zero time when unknown.
func (w *Workout) Started() time.Time {
	if w.StartDate == nil {
		return time.Time{}
	}
	return w.StartDate.Time
}

// WorkoutMemory is everything remembered about the user's training.
type WorkoutMemory struct {
	UserID          string         `json:"user_id"`
	LastUpdated     *Timestamp     `json:"last_updated"`
	RecentWorkouts  []Workout      `json:"recent_workouts"`
	WorkoutPatterns WorkoutPattern `json:"workout_patterns"`
	WorkoutGoals    WorkoutGoals   `json:"workout_goals"`
}

// WorkoutPattern is the coach's model of the user's habits.
type WorkoutPattern struct {
	Frequency         PatternFrequency `json:"frequency"`
	PreferredTimes    PreferredTimes   `json:"preferred_times"`
	PerformanceTrends map[string]any   `json:"performance_trends"`
}

type PatternFrequency struct {
	WeeklyAverage    float64  `json:"weekly_average"`
	MostActiveDays   []string `json:"most_active_days"`
	ConsistencyScore float64  `json:"consistency_score"`
}

// PreferredTimes are the shares of workouts started in each part of the day.
type PreferredTimes struct {
	Morning   float64 `json:"morning"`
	Afternoon float64 `json:"afternoon"`
	Evening   float64 `json:"evening"`
}

// WorkoutGoals splits training goals by progress.
type WorkoutGoals struct {
	CurrentGoals   []Goal `json:"current_goals"`
	CompletedGoals []Goal `json:"completed_goals"`
}

// NewWorkoutMemory returns the default-empty workout memory for userID.
func NewWorkoutMemory(userID string) WorkoutMemory {
	m := WorkoutMemory{UserID: userID}
	m.Normalize()
	return m
}

func (m *WorkoutMemory) Normalize() {
	m.RecentWorkouts = orEmpty(m.RecentWorkouts)
	for i := range m.RecentWorkouts {
		m.RecentWorkouts[i].normalize()
	}
	m.RecentWorkouts = collapseByTime(m.RecentWorkouts, (*Workout).Started)

	p := &m.WorkoutPatterns
	p.Frequency.MostActiveDays = orEmpty(p.Frequency.MostActiveDays)
	if p.PerformanceTrends == nil {
		p.PerformanceTrends = map[string]any{}
	}
	p.PerformanceTrends = sanitizeMap(p.PerformanceTrends)

	m.WorkoutGoals.CurrentGoals = normalizeGoals(m.WorkoutGoals.CurrentGoals, StatusActive)
	m.WorkoutGoals.CompletedGoals = normalizeGoals(m.WorkoutGoals.CompletedGoals, StatusCompleted)
}

func (w *Workout) normalize() {
	w.WorkoutType = strings.TrimSpace(w.WorkoutType)
	if w.OriginalType == "" {
		w.OriginalType = w.WorkoutType
	}
	w.WorkoutType = CanonicalWorkoutType(w.WorkoutType)

	if w.DurationSeconds == nil && w.StartDate != nil && w.EndDate != nil {
		if d := w.EndDate.Sub(w.StartDate.Time); d >= 0 {
			secs := d.Seconds()
			w.DurationSeconds = &secs
		}
	}
	if w.DistanceUnit == "" {
		w.DistanceUnit = "km"
	}
	if w.ActiveEnergyBurnedUnit == "" {
		w.ActiveEnergyBurnedUnit = "kcal"
	}
	if hr := w.HeartRateSummary; hr != nil && hr.Unit == "" {
		hr.Unit = "bpm"
	}
}

const healthKitTypePrefix = "HKWorkoutActivityType"

// acronyms keeps well-known abbreviations upper-case after canonicalization.
var acronyms = map[string]string{
	"hiit":     "HIIT",
	"crossfit": "CrossFit",
}

// CanonicalWorkoutType maps producer labels such as
// "HKWorkoutActivityTypeTraditionalStrengthTraining", "RUNNING" or "high_intensity"
// to title-cased words. It is idempotent.
func CanonicalWorkoutType(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), healthKitTypePrefix)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var words []string
	for _, f := range fields {
		words = append(words, splitCamel(f)...)
	}
	for i, w := range words {
		if a, ok := acronyms[strings.ToLower(w)]; ok {
			words[i] = a
			continue
		}
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// splitCamel breaks "TraditionalStrength" into its words. A run of capitals
// such as "RUNNING" or "HIIT" stays one word.
func splitCamel(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func nonNegative(field string, v *float64) error {
	if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return invalid(field, "must be a non-negative number, got %g", *v)
	}
	return nil
}

func (m *WorkoutMemory) Validate() error {
	for i, w := range m.RecentWorkouts {
		field := indexed("recent_workouts", i)
		if w.StartDate == nil || w.StartDate.IsZero() {
			return invalid(field+".start_date", "must be set")
		}
		if w.EndDate != nil && !w.EndDate.IsZero() && w.EndDate.Before(w.StartDate.Time) {
			return invalid(field+".end_date", "must not precede start_date")
		}
		if err := nonNegative(field+".duration_seconds", w.DurationSeconds); err != nil {
			return err
		}
		if err := nonNegative(field+".distance", w.Distance); err != nil {
			return err
		}
		if err := nonNegative(field+".active_energy_burned", w.ActiveEnergyBurned); err != nil {
			return err
		}
	}
	for _, list := range []struct {
		name  string
		goals []Goal
	}{
		{"workout_goals.current_goals", m.WorkoutGoals.CurrentGoals},
		{"workout_goals.completed_goals", m.WorkoutGoals.CompletedGoals},
	} {
		for i, g := range list.goals {
			if !g.Status.IsTemplate() && g.Description == "" {
				return invalid(indexed(list.name, i)+".description", "must not be empty")
			}
		}
	}
	return nil
}
