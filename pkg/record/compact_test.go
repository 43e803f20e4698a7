package record

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func floatPtr(v float64) *float64 { return &v }

func TestCompactChatKeepsLastTurns(t *testing.T) {
	a := NewAggregate("u1", testNow)
	for i := 0; i < 15; i++ {
		a.ChatHistory.Conversations = append(a.ChatHistory.Conversations, ChatMessage{
			Sender:    SenderUser,
			Content:   fmt.Sprintf("turn %d", i),
			Timestamp: NewTimestamp(testNow.Add(time.Duration(i) * time.Minute)),
		})
	}
	a.Normalize()

	c := a.ToCompact()
	require.Len(t, c.ChatHistory.Conversations, CompactChatTurns)
	assert.Equal(t, "turn 5", c.ChatHistory.Conversations[0].Content)
	assert.Equal(t, "turn 14", c.ChatHistory.Conversations[9].Content)
	require.NotNil(t, c.ChatHistory.LastInteraction)
	assert.True(t, c.ChatHistory.LastInteraction.Equal(testNow.Add(14*time.Minute)))
}

func TestCompactConditions(t *testing.T) {
	t.Run("only template becomes single empty entry", func(t *testing.T) {
		a := NewAggregate("u1", testNow)
		c := a.ToCompact()
		require.Len(t, c.UserProfile.MedicalHistory.Conditions, 1)
		assert.Equal(t, MedicalCondition{}, c.UserProfile.MedicalHistory.Conditions[0])
	})

	t.Run("real conditions survive", func(t *testing.T) {
		a := NewAggregate("u1", testNow)
		a.UserProfile.MedicalHistory.Conditions = append(a.UserProfile.MedicalHistory.Conditions,
			MedicalCondition{Name: "Asthma", ConditionType: ConditionTypeCondition, Status: StatusManaged},
			MedicalCondition{Name: "   ", Status: StatusActive},
		)
		c := a.ToCompact()
		require.Len(t, c.UserProfile.MedicalHistory.Conditions, 1)
		assert.Equal(t, "Asthma", c.UserProfile.MedicalHistory.Conditions[0].Name)
	})
}

func TestCompactGoals(t *testing.T) {
	a := NewAggregate("u1", testNow)
	a.UserProfile.Goals.Fitness = []Goal{
		{ID: "g1", Description: "Run a 10k", Status: StatusActive},
		{Description: "placeholder", Status: StatusTemplate},
		{ID: "g2", Description: "", Status: StatusActive},
	}
	c := a.ToCompact()
	assert.Equal(t, []string{"Run a 10k"}, c.UserProfile.Goals.Fitness)
	assert.Equal(t, []string{}, c.UserProfile.Goals.Other)
}

func TestCompactWorkouts(t *testing.T) {
	a := NewAggregate("u1", testNow)
	for i := 0; i < 25; i++ {
		start := testNow.Add(-time.Duration(i) * 24 * time.Hour)
		a.WorkoutMemory.RecentWorkouts = append(a.WorkoutMemory.RecentWorkouts, Workout{
			ID:                 fmt.Sprintf("w%d", i),
			WorkoutType:        "Running",
			StartDate:          TimestampPtr(start),
			EndDate:            TimestampPtr(start.Add(1847 * time.Second)),
			Distance:           floatPtr(5),
			ActiveEnergyBurned: floatPtr(320),
		})
	}
	a.Normalize()

	c := a.ToCompact()
	require.Len(t, c.WorkoutMemory.RecentWorkouts, CompactWorkouts)
	first := c.WorkoutMemory.RecentWorkouts[0]
	assert.Equal(t, "2025-03-01", first.StartDate.String())
	require.NotNil(t, first.DurationMinutes)
	assert.Equal(t, 30.8, *first.DurationMinutes)
	assert.Equal(t, 320.0, *first.Calories)

	*first.Calories = 0
	assert.Equal(t, 320.0, *a.WorkoutMemory.RecentWorkouts[0].ActiveEnergyBurned, "compact copy must not alias the record")
}

func TestCompactBiometricsLatestReading(t *testing.T) {
	a := NewAggregate("u1", testNow)
	a.Biometrics.BodyComposition.BodyFatPercentageReadings = []Reading{
		{Value: 0.20, Date: NewTimestamp(testNow.Add(-48 * time.Hour))},
		{Value: 0.182, Date: NewTimestamp(testNow.Add(-24 * time.Hour))},
	}
	a.Biometrics.BodyComposition.WeightReadings = []Reading{
		{Value: 78.4, Unit: "kg", Date: NewTimestamp(testNow)},
	}
	a.Normalize()

	c := a.ToCompact()
	require.NotNil(t, c.Biometrics.BodyFatPercentage)
	assert.Equal(t, 18.2, c.Biometrics.BodyFatPercentage.Value)
	assert.Equal(t, "%", c.Biometrics.BodyFatPercentage.Unit)
	require.NotNil(t, c.Biometrics.Weight)
	assert.Equal(t, 78.4, c.Biometrics.Weight.Value)
	assert.Nil(t, c.Biometrics.Sleep)
}

func TestCompactOmitsActivities(t *testing.T) {
	a := NewAggregate("u1", testNow)
	a.Activities.Activities = []Activity{{CompactActivity: CompactActivity{Date: NewDate(testNow), Steps: 9000}}}
	a.Normalize()

	b, err := json.Marshal(a.ToCompact())
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.NotContains(t, doc, ComponentActivities)

	days := a.Activities.ToCompact()
	require.Len(t, days.Activities, 1)
	assert.Equal(t, 9000, days.Activities[0].Steps)
}

func aggregateGen() *rapid.Generator[*Aggregate] {
	words := rapid.StringMatching(`[A-Za-z ]{0,12}`)
	return rapid.Custom(func(t *rapid.T) *Aggregate {
		a := NewAggregate("u1", testNow)

		for _, d := range rapid.SliceOfN(words, 0, 5).Draw(t, "goals") {
			a.UserProfile.Goals.Fitness = append(a.UserProfile.Goals.Fitness, Goal{Description: d})
		}
		for _, name := range rapid.SliceOfN(words, 0, 4).Draw(t, "conditions") {
			a.UserProfile.MedicalHistory.Conditions = append(a.UserProfile.MedicalHistory.Conditions,
				MedicalCondition{Name: name, ConditionType: ConditionTypeAllergy})
		}

		for i, days := range rapid.SliceOfN(rapid.IntRange(0, 900), 0, 30).Draw(t, "workouts") {
			start := testNow.Add(-time.Duration(days)*24*time.Hour - time.Duration(i)*time.Minute)
			secs := rapid.Float64Range(0, 10800).Draw(t, "secs")
			a.WorkoutMemory.RecentWorkouts = append(a.WorkoutMemory.RecentWorkouts, Workout{
				WorkoutType:     rapid.SampledFrom([]string{"Running", "RUNNING", "hiit", "Yoga"}).Draw(t, "type"),
				StartDate:       TimestampPtr(start),
				DurationSeconds: &secs,
			})
		}

		for i, v := range rapid.SliceOfN(rapid.Float64Range(0.05, 45), 0, 6).Draw(t, "bodyfat") {
			a.Biometrics.BodyComposition.BodyFatPercentageReadings = append(a.Biometrics.BodyComposition.BodyFatPercentageReadings,
				Reading{Value: v, Date: NewTimestamp(testNow.Add(-time.Duration(i) * time.Hour))})
		}

		for i, text := range rapid.SliceOfN(words, 0, 25).Draw(t, "chat") {
			sender := SenderUser
			if i%2 == 1 {
				sender = SenderCoach
			}
			a.ChatHistory.Conversations = append(a.ChatHistory.Conversations, ChatMessage{Sender: sender, Content: text})
		}

		a.Normalize()
		return a
	})
}

func TestCompactIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := aggregateGen().Draw(t, "aggregate")

		once := a.ToCompact()
		twice := once.ToCompact()

		b1, err := json.Marshal(once)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		b2, err := json.Marshal(twice)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(b1) != string(b2) {
			t.Fatalf("compaction not idempotent:\n%s\n%s", b1, b2)
		}
		if n := len(once.ChatHistory.Conversations); n > CompactChatTurns {
			t.Fatalf("kept %d chat turns", n)
		}
		if len(once.UserProfile.MedicalHistory.Conditions) == 0 {
			t.Fatalf("condition list must never be empty")
		}
		for _, c := range once.UserProfile.MedicalHistory.Conditions {
			if c.Status.IsTemplate() {
				t.Fatalf("template condition leaked: %+v", c)
			}
		}
	})
}
