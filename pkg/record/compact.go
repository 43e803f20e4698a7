package record

import (
	"math"
	"strings"
)

// Compaction limits.
const (
	CompactChatTurns = 10
	CompactWorkouts  = 20
)

// CompactAggregate is the projection of an Aggregate sent to the model as
// context. Activities are left out; the rendered view covers them.
type CompactAggregate struct {
	UserProfile   CompactUserProfile   `json:"user_profile"`
	Biometrics    CompactBiometrics    `json:"biometrics"`
	WorkoutMemory CompactWorkoutMemory `json:"workout_memory"`
	WorkoutPlan   CompactWorkoutPlan   `json:"workout_plan"`
	ChatHistory   CompactChatHistory   `json:"chat_history"`
}

// ToCompact projects the aggregate.
func (a *Aggregate) ToCompact() *CompactAggregate {
	return &CompactAggregate{
		UserProfile:   a.UserProfile.ToCompact(),
		Biometrics:    a.Biometrics.ToCompact(),
		WorkoutMemory: a.WorkoutMemory.ToCompact(),
		WorkoutPlan:   a.WorkoutPlan.ToCompact(),
		ChatHistory:   a.ChatHistory.ToCompact(),
	}
}

// ToCompact re-applies every reduction. A compact aggregate is already
// reduced, so the result equals the receiver.
func (c *CompactAggregate) ToCompact() *CompactAggregate {
	return &CompactAggregate{
		UserProfile:   c.UserProfile.ToCompact(),
		Biometrics:    c.Biometrics.ToCompact(),
		WorkoutMemory: c.WorkoutMemory.ToCompact(),
		WorkoutPlan:   c.WorkoutPlan.ToCompact(),
		ChatHistory:   c.ChatHistory.ToCompact(),
	}
}

// CompactDemographics is the demographic subset the model needs.
type CompactDemographics struct {
	Age    *int     `json:"age"`
	Gender string   `json:"gender"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
}

func (d Demographics) ToCompact() CompactDemographics {
	return d.CompactDemographics
}

type CompactUserProfile struct {
	Name           string                `json:"name"`
	Demographics   CompactDemographics   `json:"demographics"`
	Goals          CompactGoals          `json:"goals"`
	MedicalHistory CompactMedicalHistory `json:"medical_history"`
	Preferences    Preferences           `json:"preferences"`
}

func (p *UserProfile) ToCompact() CompactUserProfile {
	return CompactUserProfile{
		Name:           p.Name,
		Demographics:   p.Demographics.ToCompact(),
		Goals:          p.Goals.ToCompact(),
		MedicalHistory: p.MedicalHistory.ToCompact(),
		Preferences:    p.Preferences,
	}
}

func (p CompactUserProfile) ToCompact() CompactUserProfile {
	p.Goals = p.Goals.ToCompact()
	p.MedicalHistory = p.MedicalHistory.ToCompact()
	return p
}

// CompactGoals lists goal descriptions by area.
type CompactGoals struct {
	Fitness   []string `json:"fitness"`
	Nutrition []string `json:"nutrition"`
	Wellbeing []string `json:"wellbeing"`
	Other     []string `json:"other"`
}

func (g *Goals) ToCompact() CompactGoals {
	return CompactGoals{
		Fitness:   goalDescriptions(g.Fitness),
		Nutrition: goalDescriptions(g.Nutrition),
		Wellbeing: goalDescriptions(g.Wellbeing),
		Other:     goalDescriptions(g.Other),
	}
}

func (g CompactGoals) ToCompact() CompactGoals {
	return CompactGoals{
		Fitness:   nonBlank(g.Fitness),
		Nutrition: nonBlank(g.Nutrition),
		Wellbeing: nonBlank(g.Wellbeing),
		Other:     nonBlank(g.Other),
	}
}

func goalDescriptions(goals []Goal) []string {
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		if g.Status.IsTemplate() {
			continue
		}
		out = append(out, g.Description)
	}
	return nonBlank(out)
}

func nonBlank(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// CompactMedicalHistory never has an empty condition list: when nothing
// real is recorded it carries a single all-empty entry.
type CompactMedicalHistory struct {
	Conditions []MedicalCondition `json:"conditions"`
}

func (m *MedicalHistory) ToCompact() CompactMedicalHistory {
	return CompactMedicalHistory{Conditions: m.Conditions}.ToCompact()
}

func (m CompactMedicalHistory) ToCompact() CompactMedicalHistory {
	conditions := make([]MedicalCondition, 0, len(m.Conditions))
	for _, c := range m.Conditions {
		if !c.IsPlaceholder() {
			conditions = append(conditions, c)
		}
	}
	if len(conditions) == 0 {
		conditions = append(conditions, MedicalCondition{})
	}
	return CompactMedicalHistory{Conditions: conditions}
}

// CompactReading is the latest value of one biometric series.
type CompactReading struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Date  Date    `json:"date"`
}

// CompactBiometrics holds the latest reading per series; series with no
// readings are null.
type CompactBiometrics struct {
	Weight            *CompactReading `json:"weight"`
	BMI               *CompactReading `json:"bmi"`
	BodyFatPercentage *CompactReading `json:"body_fat_percentage"`
	RestingHeartRate  *CompactReading `json:"resting_heart_rate"`
	Sleep             *CompactReading `json:"sleep"`
}

func (b *Biometrics) ToCompact() CompactBiometrics {
	var out CompactBiometrics
	dst := map[string]**CompactReading{
		SeriesWeight:           &out.Weight,
		SeriesBMI:              &out.BMI,
		SeriesBodyFat:          &out.BodyFatPercentage,
		SeriesRestingHeartRate: &out.RestingHeartRate,
		SeriesSleep:            &out.Sleep,
	}
	for _, s := range b.Series() {
		latest := latestReading(s.Readings)
		if latest == nil {
			continue
		}
		r := &CompactReading{Value: latest.Value, Unit: latest.Unit, Date: NewDate(latest.Date.Time)}
		if s.Kind == SeriesBodyFat {
			r.Value = round1(BodyFatPercent(r.Value))
			r.Unit = "%"
		}
		*dst[s.Kind] = r
	}
	return out
}

func (b CompactBiometrics) ToCompact() CompactBiometrics {
	return b
}

func latestReading(readings []Reading) *Reading {
	var latest *Reading
	for i := range readings {
		if latest == nil || readings[i].Date.After(latest.Date.Time) {
			latest = &readings[i]
		}
	}
	return latest
}

// CompactWorkout is a workout reduced to what matters for coaching.
type CompactWorkout struct {
	WorkoutType     string   `json:"workout_type"`
	StartDate       *Date    `json:"start_date"`
	DurationMinutes *float64 `json:"duration_minutes"`
	Distance        *float64 `json:"distance"`
	DistanceUnit    string   `json:"distance_unit"`
	Calories        *float64 `json:"calories"`
}

func (w *Workout) ToCompact() CompactWorkout {
	c := CompactWorkout{
		WorkoutType:  w.WorkoutType,
		Distance:     cloneFloat(w.Distance),
		DistanceUnit: w.DistanceUnit,
		Calories:     cloneFloat(w.ActiveEnergyBurned),
	}
	if w.StartDate != nil {
		c.StartDate = DatePtr(w.StartDate.Time)
	}
	if w.DurationSeconds != nil {
		minutes := round1(*w.DurationSeconds / 60)
		c.DurationMinutes = &minutes
	}
	return c
}

type CompactWorkoutGoals struct {
	CurrentGoals   []string `json:"current_goals"`
	CompletedGoals []string `json:"completed_goals"`
}

type CompactWorkoutMemory struct {
	RecentWorkouts  []CompactWorkout    `json:"recent_workouts"`
	WorkoutPatterns WorkoutPattern      `json:"workout_patterns"`
	WorkoutGoals    CompactWorkoutGoals `json:"workout_goals"`
}

// ToCompact keeps the most recent workouts. Recent workouts are stored
// newest first.
func (m *WorkoutMemory) ToCompact() CompactWorkoutMemory {
	n := min(len(m.RecentWorkouts), CompactWorkouts)
	workouts := make([]CompactWorkout, 0, n)
	for i := range m.RecentWorkouts[:n] {
		workouts = append(workouts, m.RecentWorkouts[i].ToCompact())
	}
	return CompactWorkoutMemory{
		RecentWorkouts:  workouts,
		WorkoutPatterns: m.WorkoutPatterns,
		WorkoutGoals: CompactWorkoutGoals{
			CurrentGoals:   goalDescriptions(m.WorkoutGoals.CurrentGoals),
			CompletedGoals: goalDescriptions(m.WorkoutGoals.CompletedGoals),
		},
	}
}

func (m CompactWorkoutMemory) ToCompact() CompactWorkoutMemory {
	n := min(len(m.RecentWorkouts), CompactWorkouts)
	m.RecentWorkouts = append(make([]CompactWorkout, 0, n), m.RecentWorkouts[:n]...)
	m.WorkoutGoals = CompactWorkoutGoals{
		CurrentGoals:   nonBlank(m.WorkoutGoals.CurrentGoals),
		CompletedGoals: nonBlank(m.WorkoutGoals.CompletedGoals),
	}
	return m
}

func (a Activity) ToCompact() CompactActivity {
	return a.CompactActivity
}

type CompactActivities struct {
	Activities []CompactActivity `json:"activities"`
}

func (a *Activities) ToCompact() CompactActivities {
	out := make([]CompactActivity, 0, len(a.Activities))
	for _, day := range a.Activities {
		out = append(out, day.ToCompact())
	}
	return CompactActivities{Activities: out}
}

func (p *WorkoutPlan) ToCompact() CompactWorkoutPlan {
	return p.CompactWorkoutPlan.ToCompact()
}

func (p CompactWorkoutPlan) ToCompact() CompactWorkoutPlan {
	p.Days = orEmpty(p.Days)
	return p
}

type CompactChatMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type CompactChatHistory struct {
	Conversations   []CompactChatMessage `json:"conversations"`
	LastInteraction *Timestamp           `json:"last_interaction"`
}

// ToCompact keeps the last CompactChatTurns turns.
func (h *ChatHistory) ToCompact() CompactChatHistory {
	start := max(0, len(h.Conversations)-CompactChatTurns)
	turns := make([]CompactChatMessage, 0, len(h.Conversations)-start)
	for _, m := range h.Conversations[start:] {
		turns = append(turns, CompactChatMessage{Sender: m.Sender, Content: m.Content})
	}
	return CompactChatHistory{Conversations: turns, LastInteraction: h.LastInteraction}
}

func (h CompactChatHistory) ToCompact() CompactChatHistory {
	start := max(0, len(h.Conversations)-CompactChatTurns)
	h.Conversations = append(make([]CompactChatMessage, 0, len(h.Conversations)-start), h.Conversations[start:]...)
	return h
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
