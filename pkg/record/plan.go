package record

import "strings"

// CompactWorkoutPlan is the part of a plan the model sees.
type CompactWorkoutPlan struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	StartDate   *Date        `json:"start_date"`
	EndDate     *Date        `json:"end_date"`
	Days        []WorkoutDay `json:"days"`
}

// WorkoutPlan is the user's current training plan.
type WorkoutPlan struct {
	CompactWorkoutPlan
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	CreatedAt *Timestamp `json:"created_at"`
	UpdatedAt *Timestamp `json:"updated_at"`
	Active    bool       `json:"active"`
}

// WorkoutDay is one scheduled day of a plan.
type WorkoutDay struct {
	Day       string            `json:"day"`
	Focus     string            `json:"focus"`
	Exercises []WorkoutExercise `json:"exercises"`
	Notes     string            `json:"notes"`
}

// WorkoutExercise is one prescribed exercise. Duration is in DurationUnit.
type WorkoutExercise struct {
	Name         string   `json:"name"`
	Sets         *int     `json:"sets"`
	Reps         *int     `json:"reps"`
	Duration     *int     `json:"duration"`
	DurationUnit string   `json:"duration_unit"`
	Weight       *float64 `json:"weight"`
	WeightUnit   string   `json:"weight_unit"`
	Notes        string   `json:"notes"`
}

// NewWorkoutPlan returns the default-empty plan for userID.
func NewWorkoutPlan(userID string) WorkoutPlan {
	p := WorkoutPlan{UserID: userID, Active: true}
	p.Normalize()
	return p
}

// presetDefaults treats a plan without an "active" key as active.
func (p *WorkoutPlan) presetDefaults() { p.Active = true }

func (p *WorkoutPlan) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Days = orEmpty(p.Days)
	for i := range p.Days {
		day := &p.Days[i]
		day.Day = strings.TrimSpace(day.Day)
		day.Exercises = orEmpty(day.Exercises)
		for j := range day.Exercises {
			ex := &day.Exercises[j]
			ex.Name = strings.TrimSpace(ex.Name)
			if ex.DurationUnit == "" {
				ex.DurationUnit = "seconds"
			}
			if ex.WeightUnit == "" {
				ex.WeightUnit = "kg"
			}
		}
	}
}

func (p *WorkoutPlan) Validate() error {
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(p.StartDate.Time) {
		return invalid("end_date", "must not precede start_date")
	}
	for i, day := range p.Days {
		field := indexed("days", i)
		if day.Day == "" {
			return invalid(field+".day", "must not be empty")
		}
		for j, ex := range day.Exercises {
			exField := indexed(field+".exercises", j)
			if ex.Name == "" {
				return invalid(exField+".name", "must not be empty")
			}
			for name, v := range map[string]*int{"sets": ex.Sets, "reps": ex.Reps, "duration": ex.Duration} {
				if v != nil && *v < 0 {
					return invalid(exField+"."+name, "must not be negative, got %d", *v)
				}
			}
			if err := nonNegative(exField+".weight", ex.Weight); err != nil {
				return err
			}
		}
	}
	return nil
}
