package index

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrSeparatorMismatch = errors.New("separator does not match the compacted schema")
	ErrKeyConflict       = errors.New("flat key is both a leaf and a subtree root")
	ErrNotCompacted      = errors.New("locale is not compacted")
	ErrBadSnapshot       = errors.New("snapshot fails index invariants")
)

// IndexError provides structured error information for index operations.
type IndexError struct {
	Op     string // Operation that failed (e.g., "Compact", "Decompact")
	Locale string // Locale involved, if any
	Key    string // Flat key involved, if any
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	switch {
	case e.Locale != "" && e.Key != "":
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Locale, e.Key, e.Cause)
	case e.Locale != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Locale, e.Cause)
	case e.Key != "":
		return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *IndexError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}
