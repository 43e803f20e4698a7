package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-meow/zestify/pkg/logging"
	"github.com/mike-meow/zestify/pkg/record"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*FileStore, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	s, err := NewFileStore(t.TempDir(),
		WithLogger(logging.NewWriterLogger("store", &buf)),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return s, &buf
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func populated(userID string) *record.Aggregate {
	agg := record.NewAggregate(userID, fixedNow)
	age := 34
	agg.UserProfile.Name = "Sam"
	agg.UserProfile.Demographics.Age = &age
	agg.UserProfile.Goals.Fitness = []record.Goal{{ID: "goal_1", Description: "Run a 10k", Status: record.StatusActive}}
	agg.Biometrics.BodyComposition.WeightReadings = []record.Reading{
		{Value: 78.2, Unit: "kg", Date: record.NewTimestamp(fixedNow.Add(-24 * time.Hour)), Source: "scale"},
	}
	dur := 1800.0
	agg.WorkoutMemory.RecentWorkouts = []record.Workout{{
		ID:              "w1",
		WorkoutType:     "Running",
		StartDate:       record.TimestampPtr(fixedNow.Add(-48 * time.Hour)),
		DurationSeconds: &dur,
	}}
	agg.ChatHistory.Conversations = []record.ChatMessage{
		{Sender: record.SenderUser, Content: "hello", Timestamp: record.NewTimestamp(fixedNow)},
	}
	agg.Normalize()
	return agg
}

func TestLoadNewUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	agg, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", agg.UserID())
	assert.Equal(t, "u1", agg.UserProfile.UserID)
	assert.Empty(t, agg.WorkoutMemory.RecentWorkouts)
	assert.True(t, agg.WorkoutPlan.Active)

	entries, err := os.ReadDir(filepath.Join(s.Root(), "u1"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "only user_info is written on first access")
	assert.Equal(t, "user_info.json", entries[0].Name())

	var info record.UserInfo
	raw, err := os.ReadFile(filepath.Join(s.Root(), "u1", "user_info.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &info))
	assert.Equal(t, "u1", info.UserID)
	assert.True(t, info.CreatedAt.Equal(fixedNow))
}

func TestInvalidUserID(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range []string{"", ".", "..", "a/b", `a\b`, "../escape"} {
		t.Run(id, func(t *testing.T) {
			_, err := s.Load(context.Background(), id)
			assert.ErrorIs(t, err, ErrInvalidUserID)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	want := populated("u1")
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, mustJSON(t, want), mustJSON(t, got))

	// save(load(u)) then load(u) reproduces the same aggregate.
	require.NoError(t, s.Save(ctx, got))
	again, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, mustJSON(t, got), mustJSON(t, again))
}

func TestLoadCorruptComponentFallsBack(t *testing.T) {
	s, logs := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, populated("u1")))

	dir := filepath.Join(s.Root(), "u1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "biometrics.json"), []byte(`{"body_composition": `), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "activities.json"),
		[]byte(`{"activities": [{"date": "2025-01-01", "steps": -10}]}`), 0o600))

	agg, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, agg.Biometrics.BodyComposition.WeightReadings)
	assert.Empty(t, agg.Activities.Activities)
	assert.Len(t, agg.WorkoutMemory.RecentWorkouts, 1, "sibling components still load")
	assert.Equal(t, "Sam", agg.UserProfile.Name)

	assert.Contains(t, logs.String(), "component biometrics unreadable")
	assert.Contains(t, logs.String(), "component activities unreadable")
}

func TestSaveComponentsIsSelective(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	agg := populated("u1")
	require.NoError(t, s.Save(ctx, agg))

	dir := filepath.Join(s.Root(), "u1")
	chatPath := filepath.Join(dir, "chat_history.json")
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(chatPath, past, past))

	agg.WorkoutMemory.RecentWorkouts = append(agg.WorkoutMemory.RecentWorkouts, record.Workout{
		ID: "w2", WorkoutType: "Yoga", StartDate: record.TimestampPtr(fixedNow),
	})
	agg.ChatHistory.Conversations = nil // must not reach disk
	require.NoError(t, s.SaveComponents(ctx, agg, []string{"workout_memory", "biometrics"}))

	info, err := os.Stat(chatPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past), "chat_history must not be rewritten")

	loaded, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, loaded.WorkoutMemory.RecentWorkouts, 2)
	assert.Len(t, loaded.ChatHistory.Conversations, 1)
	require.NotNil(t, loaded.WorkoutMemory.LastUpdated)
	assert.True(t, loaded.WorkoutMemory.LastUpdated.Equal(fixedNow))
	require.NotNil(t, loaded.Biometrics.LastUpdated)
}

func TestSaveComponentsRejectsUnknownNames(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	agg := populated("u1")

	err := s.SaveComponents(ctx, agg, []string{"workout_memory", "nutrition"})
	assert.ErrorIs(t, err, record.ErrUnknownComponent)

	_, statErr := os.Stat(filepath.Join(s.Root(), "u1", "workout_memory.json"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written when a name is unknown")
}

func TestSaveReportsWriteError(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	agg := populated("u1")

	// A directory where the component file belongs makes the rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "u1", "biometrics.json", "blocker"), 0o750))

	err := s.Save(ctx, agg)
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, record.ComponentBiometrics, werr.Component)
	assert.Equal(t, "Sam", agg.UserProfile.Name, "in-memory aggregate is untouched")

	matches, err := filepath.Glob(filepath.Join(s.Root(), "u1", ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files are cleaned up")
}

func TestConcurrentFirstAccess(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Load(ctx, "racer")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	agg, err := s.Load(ctx, "racer")
	require.NoError(t, err)
	assert.Equal(t, "racer", agg.UserID())
}

func TestListUsers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"bob", "alice"} {
		_, err := s.Load(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "stray.json"), []byte(`{}`), 0o600))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)
}

func TestCanceledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Save(ctx, populated("u1")), context.Canceled)
}
