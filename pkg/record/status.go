package record

import "strings"

// Status tags goals and medical conditions.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusResolved  Status = "resolved"
	StatusManaged   Status = "managed"

	// StatusTemplate marks a placeholder that only preserves structure for an
	// empty profile. Template entries never leave the store.
	StatusTemplate Status = "template"
)

// IsTemplate reports whether the status marks a placeholder entry.
func (s Status) IsTemplate() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusTemplate))
}

func normalizeStatus(s Status) Status {
	return Status(strings.ToLower(strings.TrimSpace(string(s))))
}
