package record

import (
	"errors"
	"fmt"
)

// ErrUnknownComponent is returned when a component name is not part of the aggregate.
var ErrUnknownComponent = errors.New("record: unknown component")

// ValidationError reports a record that does not satisfy the schema.
type ValidationError struct {
	Component string // top-level component, empty when not yet known
	Field     string // dotted path inside the component
	Reason    string
	Err       error // underlying decode error, if any
}

func (e *ValidationError) Error() string {
	where := e.Component
	if e.Field != "" {
		if where != "" {
			where += "."
		}
		where += e.Field
	}
	if where == "" {
		where = "record"
	}
	if e.Err != nil {
		return fmt.Sprintf("record: invalid %s: %s: %v", where, e.Reason, e.Err)
	}
	return fmt.Sprintf("record: invalid %s: %s", where, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// inComponent attaches the component name to a validation error, wrapping any
// other error as a decode failure.
func inComponent(component string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		if verr.Component == "" {
			verr.Component = component
		}
		return verr
	}
	return &ValidationError{Component: component, Reason: "malformed document", Err: err}
}

func indexed(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}
