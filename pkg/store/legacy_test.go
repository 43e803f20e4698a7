package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportLegacyWorkouts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, populated("u1")))

	legacy := `[
		{"id": "w1", "workout_type": "Running", "start_date": "2025-02-27T12:00:00Z"},
		{"id": "w9", "workout_type": "HKWorkoutActivityTypeCycling", "start_date": "2025-01-10T08:00:00Z", "end_date": "2025-01-10T09:00:00Z"},
		{"id": "w10", "workout_type": "Walking", "start_date": "2025-02-27T12:00:00Z"}
	]`
	path := filepath.Join(s.Root(), "u1", LegacyWorkoutsFile)
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	added, err := s.ImportLegacyWorkouts(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, added, "w1 is a duplicate id and w10 a duplicate start time")

	agg, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	workouts := agg.WorkoutMemory.RecentWorkouts
	require.Len(t, workouts, 2)
	assert.Equal(t, "w1", workouts[0].ID)
	assert.Equal(t, "Cycling", workouts[1].WorkoutType)
	assert.Equal(t, "HKWorkoutActivityTypeCycling", workouts[1].OriginalType)
	assert.Equal(t, 3600.0, *workouts[1].DurationSeconds)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "legacy file is removed")

	added, err = s.ImportLegacyWorkouts(ctx, "u1", false)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestImportLegacyWorkoutsRejectsInvalidFile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.Load(ctx, "u1")
	require.NoError(t, err)

	path := filepath.Join(s.Root(), "u1", LegacyWorkoutsFile)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "w1"}]`), 0o600))

	_, err = s.ImportLegacyWorkouts(ctx, "u1", true)
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "legacy file is kept when the import fails")
}
