package record

import (
	"fmt"
	"strings"
	"time"
)

// Component names. Each is persisted independently and is the first segment
// of every patch path that touches it.
const (
	ComponentUserInfo      = "user_info"
	ComponentUserProfile   = "user_profile"
	ComponentBiometrics    = "biometrics"
	ComponentWorkoutMemory = "workout_memory"
	ComponentActivities    = "activities"
	ComponentWorkoutPlan   = "workout_plan"
	ComponentChatHistory   = "chat_history"
)

// Components lists every component in load order.
var Components = []string{
	ComponentUserInfo,
	ComponentUserProfile,
	ComponentBiometrics,
	ComponentWorkoutMemory,
	ComponentActivities,
	ComponentWorkoutPlan,
	ComponentChatHistory,
}

// IsComponent reports whether name is a known component.
func IsComponent(name string) bool {
	for _, c := range Components {
		if c == name {
			return true
		}
	}
	return false
}

// Component is implemented by every top-level record.
type Component interface {
	Normalize()
	Validate() error
}

// Aggregate is everything remembered about one user.
type Aggregate struct {
	UserInfo      UserInfo      `json:"user_info"`
	UserProfile   UserProfile   `json:"user_profile"`
	Biometrics    Biometrics    `json:"biometrics"`
	WorkoutMemory WorkoutMemory `json:"workout_memory"`
	Activities    Activities    `json:"activities"`
	WorkoutPlan   WorkoutPlan   `json:"workout_plan"`
	ChatHistory   ChatHistory   `json:"chat_history"`
}

// NewAggregate returns the default-empty aggregate for a user first seen at now.
func NewAggregate(userID string, now time.Time) *Aggregate {
	a := &Aggregate{
		UserInfo:    UserInfo{UserID: userID, CreatedAt: TimestampPtr(now), UpdatedAt: TimestampPtr(now)},
		WorkoutPlan: WorkoutPlan{Active: true},
	}
	a.Normalize()
	return a
}

// UserID returns the id recorded in user_info.
func (a *Aggregate) UserID() string {
	return a.UserInfo.UserID
}

// Component returns a pointer to the named component.
func (a *Aggregate) Component(name string) (Component, error) {
	switch name {
	case ComponentUserInfo:
		return &a.UserInfo, nil
	case ComponentUserProfile:
		return &a.UserProfile, nil
	case ComponentBiometrics:
		return &a.Biometrics, nil
	case ComponentWorkoutMemory:
		return &a.WorkoutMemory, nil
	case ComponentActivities:
		return &a.Activities, nil
	case ComponentWorkoutPlan:
		return &a.WorkoutPlan, nil
	case ComponentChatHistory:
		return &a.ChatHistory, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
}

// Reset replaces the named component with its default-empty value.
func (a *Aggregate) Reset(name string) error {
	fresh := NewAggregate(a.UserID(), time.Time{})
	switch name {
	case ComponentUserInfo:
		a.UserInfo = UserInfo{UserID: a.UserID()}
	case ComponentUserProfile:
		a.UserProfile = fresh.UserProfile
	case ComponentBiometrics:
		a.Biometrics = fresh.Biometrics
	case ComponentWorkoutMemory:
		a.WorkoutMemory = fresh.WorkoutMemory
	case ComponentActivities:
		a.Activities = fresh.Activities
	case ComponentWorkoutPlan:
		a.WorkoutPlan = fresh.WorkoutPlan
	case ComponentChatHistory:
		a.ChatHistory = fresh.ChatHistory
	default:
		return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return nil
}

// Stamp records now as the update time of the named component.
func (a *Aggregate) Stamp(name string, now time.Time) error {
	ts := TimestampPtr(now)
	switch name {
	case ComponentUserInfo:
		a.UserInfo.UpdatedAt = ts
	case ComponentUserProfile:
		a.UserProfile.UpdatedAt = ts
	case ComponentBiometrics:
		a.Biometrics.LastUpdated = ts
	case ComponentWorkoutMemory:
		a.WorkoutMemory.LastUpdated = ts
	case ComponentActivities:
		a.Activities.LastUpdated = ts
	case ComponentWorkoutPlan:
		a.WorkoutPlan.UpdatedAt = ts
	case ComponentChatHistory:
		a.ChatHistory.LastUpdated = ts
	default:
		return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return nil
}

// Normalize runs every component's normalization pass and fills nested user
// ids from user_info.
func (a *Aggregate) Normalize() {
	for _, name := range Components {
		c, _ := a.Component(name)
		c.Normalize()
	}
	id := a.UserID()
	for _, dst := range []*string{
		&a.UserProfile.UserID,
		&a.WorkoutMemory.UserID,
		&a.WorkoutPlan.UserID,
		&a.ChatHistory.UserID,
	} {
		if strings.TrimSpace(*dst) == "" {
			*dst = id
		}
	}
}

// Validate checks every component, reporting the first failure.
func (a *Aggregate) Validate() error {
	for _, name := range Components {
		c, _ := a.Component(name)
		if err := inComponent(name, c.Validate()); err != nil {
			return err
		}
	}
	return nil
}
