package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mike-meow/zestify/pkg/record"
)

// LegacyWorkoutsFile is the flat workout array older releases kept next to
// workout_memory.json.
const LegacyWorkoutsFile = "workouts.json"

// ImportLegacyWorkouts folds a user's legacy workouts.json into
// workout_memory. Workouts whose id or start time is already present are
// skipped. It returns how many workouts were added; a user without a legacy
// file imports nothing. With removeSource the legacy file is deleted after a
// successful save.
func (s *FileStore) ImportLegacyWorkouts(ctx context.Context, userID string, removeSource bool) (int, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return 0, err
	}
	path := filepath.Join(dir, LegacyWorkoutsFile)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: read %s: %w", path, err)
	}

	legacy := record.NewAggregate(userID, s.now())
	if err := record.DecodeComponent(legacy, record.ComponentWorkoutMemory, raw); err != nil {
		return 0, fmt.Errorf("store: import %s: %w", path, err)
	}

	agg, err := s.Load(ctx, userID)
	if err != nil {
		return 0, err
	}
	wm := &agg.WorkoutMemory
	ids := make(map[string]bool)
	starts := make(map[int64]bool)
	for i := range wm.RecentWorkouts {
		w := &wm.RecentWorkouts[i]
		if w.ID != "" {
			ids[w.ID] = true
		}
		starts[w.Started().UnixNano()] = true
	}

	added := 0
	for _, w := range legacy.WorkoutMemory.RecentWorkouts {
		if (w.ID != "" && ids[w.ID]) || starts[w.Started().UnixNano()] {
			continue
		}
		wm.RecentWorkouts = append(wm.RecentWorkouts, w)
		ids[w.ID] = true
		starts[w.Started().UnixNano()] = true
		added++
	}
	wm.Normalize()

	if err := s.SaveComponents(ctx, agg, []string{record.ComponentWorkoutMemory}); err != nil {
		return 0, err
	}
	s.log.Infof("user %s: imported %d of %d legacy workouts", userID, added, len(legacy.WorkoutMemory.RecentWorkouts))

	if removeSource {
		if err := os.Remove(path); err != nil {
			return added, fmt.Errorf("store: remove %s: %w", path, err)
		}
	}
	return added, nil
}
