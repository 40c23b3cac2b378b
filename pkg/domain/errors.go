package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrChapterNotFound is returned when a chapter reference cannot be resolved.
var ErrChapterNotFound = errors.New("chapter not found")

// UsageError reports a submit action invoked in the wrong phase or against
// the wrong node kind. This is a programmer error at the call site, not a
// content error: it is returned loudly and leaves state untouched.
type UsageError struct {
	Action   string
	Phase    Phase
	NodeKind string
	Reason   string
}

func (e *UsageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s rejected: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("%s rejected: phase=%s node_kind=%s", e.Action, e.Phase, e.NodeKind)
}

// NavigationError reports a successor reference that does not resolve to a
// loaded node. The engine logs it and falls safely to the complete phase.
type NavigationError struct {
	From   string
	Target string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("node %q references unknown node %q", e.From, e.Target)
}
