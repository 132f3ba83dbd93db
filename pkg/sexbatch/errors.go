package sexbatch

import (
	"errors"
	"fmt"
)

// PreconditionKind names the check that failed before a batch started.
type PreconditionKind string

const (
	KindTool   PreconditionKind = "tool"
	KindConfig PreconditionKind = "config"
	KindImages PreconditionKind = "images"
	KindIO     PreconditionKind = "io"
)

// PreconditionError aborts a batch before any image is processed.
type PreconditionError struct {
	Kind    PreconditionKind
	Message string
	Cause   error
}

func (e *PreconditionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *PreconditionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newPrecondition(kind PreconditionKind, message string, cause error) error {
	return &PreconditionError{Kind: kind, Message: message, Cause: cause}
}

// IsPrecondition reports whether err is a PreconditionError, optionally of
// one of the given kinds.
func IsPrecondition(err error, kinds ...PreconditionKind) bool {
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if pe.Kind == k {
			return true
		}
	}
	return false
}
