package record

import (
	"strings"

	"github.com/google/uuid"
)

// newGoalID is injected for testability.
var newGoalID = func() string { return "goal_" + uuid.NewString() }

// UserInfo is the bookkeeping record written on first access.
type UserInfo struct {
	UserID    string     `json:"user_id"`
	CreatedAt *Timestamp `json:"created_at"`
	UpdatedAt *Timestamp `json:"updated_at"`
}

func (u *UserInfo) Normalize() {
	u.UserID = strings.TrimSpace(u.UserID)
}

func (u *UserInfo) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return invalid("user_id", "must not be empty")
	}
	return nil
}

// UserProfile holds who the user is and what they are working towards.
type UserProfile struct {
	UserID         string         `json:"user_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	CreatedAt      *Timestamp     `json:"created_at"`
	UpdatedAt      *Timestamp     `json:"updated_at"`
	Demographics   Demographics   `json:"demographics"`
	Goals          Goals          `json:"goals"`
	MedicalHistory MedicalHistory `json:"medical_history"`
	Preferences    Preferences    `json:"preferences"`
}

// Demographics extends the compact field set with details the model never needs.
type Demographics struct {
	CompactDemographics
	BirthDate *Date  `json:"birth_date"`
	BloodType string `json:"blood_type"`
}

// Goal is a status-tagged user goal.
type Goal struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	TargetDate  *Date      `json:"target_date"`
	Status      Status     `json:"status"`
	CreatedAt   *Timestamp `json:"created_at"`
	CompletedAt *Timestamp `json:"completed_at"`
}

// Goals groups goals by area.
type Goals struct {
	Fitness   []Goal `json:"fitness"`
	Nutrition []Goal `json:"nutrition"`
	Wellbeing []Goal `json:"wellbeing"`
	Other     []Goal `json:"other"`
}

// Condition types.
const (
	ConditionTypeCondition  = "condition"
	ConditionTypeMedication = "medication"
	ConditionTypeAllergy    = "allergy"
)

// MedicalCondition covers conditions, medications and allergies.
type MedicalCondition struct {
	Name          string `json:"name"`
	ConditionType string `json:"condition_type"`
	DiagnosedDate *Date  `json:"diagnosed_date"`
	Status        Status `json:"status"`
	Feeling       string `json:"feeling"`
	Dosage        string `json:"dosage"`
	Frequency     string `json:"frequency"`
	StartDate     *Date  `json:"start_date"`
	EndDate       *Date  `json:"end_date"`
	Purpose       string `json:"purpose"`
	Notes         string `json:"notes"`
}

// IsPlaceholder reports whether the entry only preserves structure.
func (c MedicalCondition) IsPlaceholder() bool {
	return c.Status.IsTemplate() || strings.TrimSpace(c.Name) == ""
}

// MedicalHistory lists medical conditions. An empty history keeps one
// template entry so the structure survives for the model to fill in.
type MedicalHistory struct {
	Conditions  []MedicalCondition `json:"conditions"`
	LastUpdated *Timestamp         `json:"last_updated"`
}

// TemplateCondition is the placeholder persisted into an empty history.
func TemplateCondition() MedicalCondition {
	return MedicalCondition{
		Name:          "Template Condition",
		ConditionType: ConditionTypeCondition,
		Status:        StatusTemplate,
		Feeling:       "This is a template - replace with actual data",
		Notes:         "This is a template entry - replace with actual medical conditions, medications, or allergies",
	}
}

// Preferences captures how the user likes to train.
type Preferences struct {
	LikedActivities    []string `json:"liked_activities"`
	DislikedActivities []string `json:"disliked_activities"`
	PreferredTimeOfDay []string `json:"preferred_time_of_day"`
	PreferredDays      []string `json:"preferred_days"`
	PreferredLocations []string `json:"preferred_locations"`
	AvailabilityNotes  string   `json:"availability_notes"`
	OtherNotes         string   `json:"other_notes"`
}

// NewUserProfile returns the default-empty profile for userID.
func NewUserProfile(userID string) UserProfile {
	p := UserProfile{UserID: userID}
	p.Normalize()
	return p
}

// Normalize fills defaults and derived fields. It is idempotent.
func (p *UserProfile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Demographics.Gender = strings.TrimSpace(p.Demographics.Gender)
	p.Goals.normalize()
	p.MedicalHistory.normalize()
	p.Preferences.normalize()
}

func (g *Goals) normalize() {
	for _, list := range []*[]Goal{&g.Fitness, &g.Nutrition, &g.Wellbeing, &g.Other} {
		*list = normalizeGoals(*list, StatusActive)
	}
}

// normalizeGoals trims and ids every goal, filling a blank status with def.
func normalizeGoals(list []Goal, def Status) []Goal {
	list = orEmpty(list)
	for i := range list {
		goal := &list[i]
		goal.Description = strings.TrimSpace(goal.Description)
		goal.Status = normalizeStatus(goal.Status)
		if goal.Status == "" {
			goal.Status = def
		}
		if goal.ID == "" && !goal.Status.IsTemplate() {
			goal.ID = newGoalID()
		}
	}
	return list
}

// categories returns the goal lists paired with their names, in a fixed order.
func (g *Goals) categories() []struct {
	name  string
	goals []Goal
} {
	return []struct {
		name  string
		goals []Goal
	}{
		{"fitness", g.Fitness},
		{"nutrition", g.Nutrition},
		{"wellbeing", g.Wellbeing},
		{"other", g.Other},
	}
}

func (m *MedicalHistory) normalize() {
	m.Conditions = orEmpty(m.Conditions)
	for i := range m.Conditions {
		c := &m.Conditions[i]
		c.Name = strings.TrimSpace(c.Name)
		c.ConditionType = strings.ToLower(strings.TrimSpace(c.ConditionType))
		c.Status = normalizeStatus(c.Status)
		if c.Status == "" {
			if c.Name == "" {
				c.Status = StatusTemplate
			} else {
				c.Status = StatusActive
			}
		}
		if c.ConditionType == "" && !c.Status.IsTemplate() {
			c.ConditionType = ConditionTypeCondition
		}
	}
	if len(m.Conditions) == 0 {
		m.Conditions = []MedicalCondition{TemplateCondition()}
	}
}

func (p *Preferences) normalize() {
	p.LikedActivities = orEmpty(p.LikedActivities)
	p.DislikedActivities = orEmpty(p.DislikedActivities)
	p.PreferredTimeOfDay = orEmpty(p.PreferredTimeOfDay)
	p.PreferredDays = orEmpty(p.PreferredDays)
	p.PreferredLocations = orEmpty(p.PreferredLocations)
}

func (p *UserProfile) Validate() error {
	d := p.Demographics
	if d.Age != nil && (*d.Age < 0 || *d.Age > 130) {
		return invalid("demographics.age", "must be between 0 and 130, got %d", *d.Age)
	}
	if d.Height != nil && (*d.Height <= 0 || *d.Height > 300) {
		return invalid("demographics.height", "must be between 0 and 300 cm, got %g", *d.Height)
	}
	if d.Weight != nil && (*d.Weight <= 0 || *d.Weight > 700) {
		return invalid("demographics.weight", "must be between 0 and 700 kg, got %g", *d.Weight)
	}
	for _, cat := range p.Goals.categories() {
		for i, goal := range cat.goals {
			if goal.Status.IsTemplate() {
				continue
			}
			if goal.Description == "" {
				return invalid(indexed("goals."+cat.name, i)+".description", "must not be empty")
			}
		}
	}
	for i, c := range p.MedicalHistory.Conditions {
		if c.Status.IsTemplate() {
			continue
		}
		field := indexed("medical_history.conditions", i)
		if c.Name == "" {
			return invalid(field+".name", "must not be empty for status %q", c.Status)
		}
		switch c.ConditionType {
		case ConditionTypeCondition, ConditionTypeMedication, ConditionTypeAllergy:
		default:
			return invalid(field+".condition_type", "must be condition, medication or allergy, got %q", c.ConditionType)
		}
		if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(c.StartDate.Time) {
			return invalid(field+".end_date", "must not precede start_date")
		}
	}
	return nil
}
