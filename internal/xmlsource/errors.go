package xmlsource

import (
	"errors"
	"fmt"
)

// ErrNoContainer is returned when the container element is not in the document.
var ErrNoContainer = errors.New("container element not found")

// SourceError reports a failure to obtain or parse the feed. Any SourceError
// is fatal for a run.
type SourceError struct {
	Op     string // "fetch", "read", "decode" or "root"
	Target string // URL, path, "stdin" or the container path
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("xmlsource: %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
