package view

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-meow/zestify/pkg/record"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

func workout(kind string, age int, minutes float64) record.Workout {
	secs := minutes * 60
	return record.Workout{
		WorkoutType:     kind,
		StartDate:       record.TimestampPtr(daysAgo(age)),
		DurationSeconds: &secs,
	}
}

// between returns the text after the first occurrence of from and before the
// next occurrence of to, or the rest of text when to does not follow.
func between(t *testing.T, text, from, to string) string {
	t.Helper()
	i := strings.Index(text, from)
	require.GreaterOrEqual(t, i, 0, "missing %q in:\n%s", from, text)
	rest := text[i+len(from):]
	if j := strings.Index(rest, to); j >= 0 {
		return rest[:j]
	}
	return rest
}

func workoutsPart(t *testing.T, text string) string {
	return between(t, text, "## Workouts", "## Daily activity")
}

func TestWorkoutHorizons(t *testing.T) {
	agg := record.NewAggregate("u1", now)
	agg.WorkoutMemory.RecentWorkouts = []record.Workout{
		workout("Running", 5, 30),
		workout("Cycling", 100, 60),
		workout("Swimming", 400, 45),
		workout("Rowing", 800, 20),
	}

	out := New(DefaultHorizons()).Render(agg, now)
	w := workoutsPart(t, out)

	recent := between(t, w, "### Recent", "### Past year")
	assert.Contains(t, recent, "- 2025-02-24 Running: duration 30.0 min")
	assert.NotContains(t, recent, "Cycling")

	year := between(t, w, "### Past year", "### Second year")
	assert.Contains(t, year, "#### 2024-Q4\n- Cycling (n=1): duration mean 60.0 min (min 60.0 min, max 60.0 min)")
	assert.NotContains(t, year, "Swimming")

	second := between(t, w, "### Second year", "\n## ")
	assert.Contains(t, second, "- Swimming (n=1)")

	assert.NotContains(t, out, "Rowing", "entries older than the last horizon are dropped")
}

func TestHorizonBoundaries(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, "### Recent"},
		{30, "### Recent"},
		{31, "### Past year"},
		{365, "### Past year"},
		{366, "### Second year"},
		{730, "### Second year"},
		{731, ""},
	}
	headers := []string{"### Recent", "### Past year", "### Second year"}
	for _, tt := range tests {
		agg := record.NewAggregate("u1", now)
		agg.WorkoutMemory.RecentWorkouts = []record.Workout{workout("Yoga", tt.age, 60)}
		w := workoutsPart(t, New(DefaultHorizons()).Render(agg, now))

		for i, h := range headers {
			next := "\n## "
			if i+1 < len(headers) {
				next = headers[i+1]
			}
			part := between(t, w, h, next)
			if h == tt.want {
				assert.Contains(t, part, "Yoga", "age %d should land in %s", tt.age, h)
			} else {
				assert.NotContains(t, part, "Yoga", "age %d should not land in %s", tt.age, h)
			}
		}
	}
}

func TestFutureEntriesCountAsToday(t *testing.T) {
	agg := record.NewAggregate("u1", now)
	agg.WorkoutMemory.RecentWorkouts = []record.Workout{workout("Hiking", -3, 90)}

	recent := between(t, workoutsPart(t, New(DefaultHorizons()).Render(agg, now)), "### Recent", "### Past year")
	assert.Contains(t, recent, "Hiking")
}

func TestQuartersNewestFirstWithStats(t *testing.T) {
	hr := func(avg float64) *record.HeartRateSummary {
		return &record.HeartRateSummary{Average: &avg, Unit: "bpm"}
	}
	a := workout("Running", 40, 30)
	a.HeartRateSummary = hr(150)
	b := workout("Running", 45, 40)
	b.HeartRateSummary = hr(140)
	c := workout("Running", 50, 50)
	c.HeartRateSummary = hr(170)
	d := workout("Running", 100, 20)

	agg := record.NewAggregate("u1", now)
	agg.WorkoutMemory.RecentWorkouts = []record.Workout{d, a, b, c}

	year := between(t, workoutsPart(t, New(DefaultHorizons()).Render(agg, now)), "### Past year", "### Second year")
	q1 := strings.Index(year, "#### 2025-Q1")
	q4 := strings.Index(year, "#### 2024-Q4")
	require.GreaterOrEqual(t, q1, 0)
	require.Greater(t, q4, q1, "newest quarter first")

	assert.Contains(t, year, "- Running (n=3): duration mean 40.0 min (min 30.0 min, max 50.0 min); "+
		"avg heart rate mean 153.3 bpm (min 140.0 bpm, max 170.0 bpm, median 150.0 bpm)")
}

func TestBodyFatRendering(t *testing.T) {
	for _, stored := range []float64{0.182, 18.2} {
		agg := record.NewAggregate("u1", now)
		agg.Biometrics.BodyComposition.BodyFatPercentageReadings = []record.Reading{
			{Value: stored, Unit: "%", Date: record.NewTimestamp(daysAgo(3))},
		}
		out := New(DefaultHorizons()).Render(agg, now)
		assert.Contains(t, out, "- 2025-02-26 Body fat: 18.2%\n", "stored value %v", stored)
	}
}

func TestActivityFiltering(t *testing.T) {
	day := record.NewDate(daysAgo(2))
	agg := record.NewAggregate("u1", now)
	agg.Activities.Activities = []record.Activity{
		{CompactActivity: record.CompactActivity{Date: day, Steps: 4000, DistanceUnit: "km"}, ActiveEnergyBurnedUnit: "kcal"},
		{CompactActivity: record.CompactActivity{Date: day, Steps: 9000, DistanceUnit: "km"}, ActiveEnergyBurnedUnit: "kcal"},
		{CompactActivity: record.CompactActivity{Date: record.NewDate(daysAgo(1))}},
	}

	part := between(t, New(DefaultHorizons()).Render(agg, now), "## Daily activity", "## Biometrics")
	recent := between(t, part, "### Recent", "### Past year")
	assert.Contains(t, recent, "- 2025-02-27: 4000 steps, 0.0 km, 0.0 kcal, 0 exercise min")
	assert.NotContains(t, recent, "9000", "same-day duplicates keep the first entry")
	assert.NotContains(t, recent, "2025-02-28", "all-zero days are excluded")
}

func TestEmptyHorizonsRenderNoData(t *testing.T) {
	out := New(DefaultHorizons()).Render(record.NewAggregate("u1", now), now)
	assert.Equal(t, 9, strings.Count(out, NoData+"\n"))
	for _, h := range []string{"## Workouts", "## Daily activity", "## Biometrics"} {
		assert.Contains(t, out, h)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	agg := record.NewAggregate("u1", now)
	for i := 0; i < 40; i++ {
		kind := []string{"Running", "Cycling", "Yoga"}[i%3]
		agg.WorkoutMemory.RecentWorkouts = append(agg.WorkoutMemory.RecentWorkouts, workout(kind, i*17, float64(20+i)))
	}
	g := New(DefaultHorizons())
	assert.Equal(t, g.Render(agg, now), g.Render(agg, now))
}

func TestCustomHorizons(t *testing.T) {
	agg := record.NewAggregate("u1", now)
	agg.WorkoutMemory.RecentWorkouts = []record.Workout{workout("Running", 10, 30)}

	out := New(Horizons{RecentDays: 7, YearDays: 90, MaxDays: 180}).Render(agg, now)
	assert.Contains(t, out, "### Recent (last 7 days)")
	assert.Contains(t, out, "#### 2025-Q1\n- Running (n=1)")

	var zero Generator
	assert.Contains(t, zero.Render(agg, now), "### Recent (last 30 days)")
}

func TestHorizonsValidate(t *testing.T) {
	assert.NoError(t, DefaultHorizons().Validate())
	assert.Error(t, Horizons{RecentDays: 30, YearDays: 30, MaxDays: 60}.Validate())
	assert.Error(t, Horizons{}.Validate())
}

func TestSummarize(t *testing.T) {
	st := Summarize([]float64{3, 1, 2, 10})
	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 4.0, st.Mean)
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 10.0, st.Max)
	assert.Equal(t, 2.5, st.Median)

	assert.Equal(t, 7.0, Summarize([]float64{7}).Median)
}
