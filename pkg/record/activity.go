package record

import (
	"strings"
	"time"
)

// DefaultActivitySource is assumed for activity days with no source.
const DefaultActivitySource = "Apple Health"

// CompactActivity is the per-day activity summary shared with the model.
type CompactActivity struct {
	Date               Date    `json:"date"`
	Steps              int     `json:"steps"`
	Distance           float64 `json:"distance"`
	DistanceUnit       string  `json:"distance_unit"`
	ActiveEnergyBurned float64 `json:"active_energy_burned"`
	ExerciseMinutes    int     `json:"exercise_minutes"`
}

// Activity is one day of passive activity tracking.
type Activity struct {
	CompactActivity
	FloorsClimbed          int    `json:"floors_climbed"`
	ActiveEnergyBurnedUnit string `json:"active_energy_burned_unit"`
	MoveMinutes            int    `json:"move_minutes"`
	StandHours             int    `json:"stand_hours"`
	Source                 string `json:"source"`
}

// IsZero reports whether the day recorded no activity at all.
func (a *Activity) IsZero() bool {
	return a.Steps == 0 && a.Distance == 0 && a.ActiveEnergyBurned == 0 &&
		a.ExerciseMinutes == 0 && a.FloorsClimbed == 0 && a.MoveMinutes == 0 && a.StandHours == 0
}

func (a *Activity) day() time.Time {
	return a.Date.Time
}

// Activities is the activity-day time series.
type Activities struct {
	Activities  []Activity `json:"activities"`
	LastUpdated *Timestamp `json:"last_updated"`
}

func (a *Activities) Normalize() {
	a.Activities = orEmpty(a.Activities)
	for i := range a.Activities {
		day := &a.Activities[i]
		day.DistanceUnit = strings.TrimSpace(day.DistanceUnit)
		if day.DistanceUnit == "" {
			day.DistanceUnit = "km"
		}
		if day.ActiveEnergyBurnedUnit == "" {
			day.ActiveEnergyBurnedUnit = "kcal"
		}
		if day.Source == "" {
			day.Source = DefaultActivitySource
		}
	}
	a.Activities = collapseByTime(a.Activities, (*Activity).day)
}

func (a *Activities) Validate() error {
	for i := range a.Activities {
		day := &a.Activities[i]
		field := indexed("activities", i)
		if day.Date.IsZero() {
			return invalid(field+".date", "must be set")
		}
		for name, v := range map[string]int{
			"steps":            day.Steps,
			"exercise_minutes": day.ExerciseMinutes,
			"floors_climbed":   day.FloorsClimbed,
			"move_minutes":     day.MoveMinutes,
			"stand_hours":      day.StandHours,
		} {
			if v < 0 {
				return invalid(field+"."+name, "must not be negative, got %d", v)
			}
		}
		if err := nonNegative(field+".distance", &day.Distance); err != nil {
			return err
		}
		if err := nonNegative(field+".active_energy_burned", &day.ActiveEnergyBurned); err != nil {
			return err
		}
	}
	return nil
}
