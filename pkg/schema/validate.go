package schema

import (
	"fmt"
	"regexp"
)

// ValidationError reports a field value rejected before reaching the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// emailShape accepts local@domain: at least one non-@ rune on each side of
// a single separator.
var emailShape = regexp.MustCompile(`^[^@]+@[^@]+$`)

// ValidateEmail rejects emails that do not match the local@domain shape.
// A violating User write must fail before anything is persisted.
func ValidateEmail(email string) error {
	if !emailShape.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "must match local@domain"}
	}
	return nil
}
