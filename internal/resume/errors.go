// Package resume owns the résumé document being edited and persists snapshots of it.
package resume

import (
	"errors"
	"fmt"
)

// errNoChange aborts a mutation that would leave the document as it was.
var errNoChange = errors.New("no change")

// ValidationError reports a mutation that was rejected because its input is malformed.
// The document is left unchanged.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s - %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// SectionError reports an unknown section name. It indicates a programming error in the caller.
type SectionError struct {
	Section Section
	Op      string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("unknown section %q for %s", e.Section, e.Op)
}

// PersistenceError reports a failed write to the storage backend.
type PersistenceError struct {
	Key   string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist document %s: %v", e.Key, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
