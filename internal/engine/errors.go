package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreadable indicates the source file could not be opened or
	// measured. Nothing has been written when this is returned.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrEncodeFailed indicates a codec invocation failed. The original
	// file is left untouched and no partial output exists.
	ErrEncodeFailed = errors.New("encode failed")
)

// CapabilityError reports an external tool that is required for an
// operation but was not found on PATH when the engine was constructed.
type CapabilityError struct {
	Tool string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s is not available on PATH", e.Tool)
}
