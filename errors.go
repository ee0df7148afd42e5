package burrow

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when an operation reaches a store whose
	// underlying engine handle has been closed.
	ErrClosed = errors.New("kv store is not open")

	// ErrPoolClosed is returned by Acquire after the pool shut down.
	ErrPoolClosed = errors.New("store pool is closed")

	// ErrValueCorrupt flags an index value that failed to decode. This is
	// an invariant violation, not a transient condition: either foreign
	// bytes reached an index row or the codec changed incompatibly.
	ErrValueCorrupt = errors.New("corrupt index value")
)

func errValueCorrupt(what string, cause error) error {
	return errors.Join(ErrValueCorrupt, fmt.Errorf("%s: %w", what, cause))
}
