package nodeflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starkandwayne/goutils/ansi"
)

// ErrorKind is the closed set of failure categories spec.md §7 defines.
// Modeled directly on graft's ErrorType, but fixed to exactly the seven
// kinds the spec enumerates rather than left open for future additions.
type ErrorKind string

const (
	// UnresolvedInput: no producer found for a required rid.
	UnresolvedInput ErrorKind = "unresolved_input"
	// ConfigurationConflict: multiple producers/flywires, or a missing endpoint.
	ConfigurationConflict ErrorKind = "configuration_conflict"
	// TypeIncompatibility: runtime-seen type mismatch.
	TypeIncompatibility ErrorKind = "type_incompatibility"
	// CycleDetected: resolution re-entered an active frame.
	CycleDetected ErrorKind = "cycle_detected"
	// ComputeFailure: an atomic node returned Failure or panicked.
	ComputeFailure ErrorKind = "compute_failure"
	// SerializationError: unknown tag, malformed structure, missing field.
	SerializationError ErrorKind = "serialization_error"
	// UnknownType: a tag was not found in the type registry.
	UnknownType ErrorKind = "unknown_type"
)

// NodeflowError is the concrete error type every ErrorKind is carried in,
// modeled on graft's *GraftError: a kind, a human message, the node path
// it occurred at (if any), and an optional wrapped cause.
type NodeflowError struct {
	Kind    ErrorKind
	Message string
	Path    string
	Cause   error
}

func (e *NodeflowError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *NodeflowError) Unwrap() error { return e.Cause }

// NewError builds a NodeflowError of the given kind.
func NewError(kind ErrorKind, path, message string, cause error) *NodeflowError {
	return &NodeflowError{Kind: kind, Message: message, Path: path, Cause: cause}
}

// IsNodeflowError reports whether err is a *NodeflowError.
func IsNodeflowError(err error) bool {
	_, ok := err.(*NodeflowError)
	return ok
}

// KindOf returns the ErrorKind of err. A MultiError reports its first
// aggregated error's kind, since construction-time validation (NewNodeGroup)
// aggregates same-shaped violations together; anything else returns "".
func KindOf(err error) ErrorKind {
	if ne, ok := err.(*NodeflowError); ok {
		return ne.Kind
	}
	if m, ok := err.(MultiError); ok && len(m.Errors) > 0 {
		return KindOf(m.Errors[0])
	}
	return ""
}

// MultiError aggregates independent construction-time failures — the
// duplicate child names and out-of-group flywire targets NewNodeGroup
// finds — construction-time validation being the only place
// spec.md §7 says errors are raised eagerly rather than surfaced as
// per-rid Result failures. Modeled on graft's MultiError.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		lines = append(lines, fmt.Sprintf(" - %s", err))
	}
	sort.Strings(lines)
	return ansi.Sprintf("@r{%d} error(s) detected:\n%s\n", len(e.Errors), strings.Join(lines, "\n"))
}

// Count returns the number of aggregated errors.
func (e *MultiError) Count() int { return len(e.Errors) }

// Append adds err to the set, flattening nested MultiErrors. A nil err
// is a no-op.
func (e *MultiError) Append(err error) {
	if err == nil {
		return
	}
	if m, ok := err.(MultiError); ok {
		e.Errors = append(e.Errors, m.Errors...)
		return
	}
	e.Errors = append(e.Errors, err)
}

// AsError returns nil if no errors were appended, else e.
func (e *MultiError) AsError() error {
	if e.Count() == 0 {
		return nil
	}
	return *e
}
