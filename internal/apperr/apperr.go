package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is a generic sentinel for missing resources. Load paths return
// nil results instead of this error, but repos may surface it internally.
var ErrNotFound = errors.New("not found")

// ValidationError means a generated payload failed its structural contract.
// It is fatal wherever it escapes the content generator's search path.
type ValidationError struct {
	Stage  string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("validation failed at %s", e.Stage)
	}
	return fmt.Sprintf("validation failed at %s: %s", e.Stage, e.Issues[0])
}

func NewValidation(stage string, issues ...string) *ValidationError {
	return &ValidationError{Stage: stage, Issues: issues}
}

// ExternalCallError wraps a failed generation or search call.
type ExternalCallError struct {
	Call string
	Err  error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external call %s failed: %v", e.Call, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

// PersistenceError identifies which entity write failed, the parent table it
// hangs off, and the id of the write's root row, so a non-compensated partial
// save can be diagnosed. Parent is empty when the root level itself fails.
type PersistenceError struct {
	Entity   string
	Parent   string
	ParentID uuid.UUID
	Err      error
}

func (e *PersistenceError) Error() string {
	switch {
	case e.Parent != "" && e.ParentID != uuid.Nil:
		return fmt.Sprintf("persist %s under %s (root %s): %v", e.Entity, e.Parent, e.ParentID, e.Err)
	case e.ParentID != uuid.Nil:
		return fmt.Sprintf("persist %s (root %s): %v", e.Entity, e.ParentID, e.Err)
	default:
		return fmt.Sprintf("persist %s: %v", e.Entity, e.Err)
	}
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
