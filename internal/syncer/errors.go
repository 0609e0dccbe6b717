package syncer

import "fmt"

// StatementError reports a gateway failure. It aborts the run; nothing is
// retried or rolled back.
type StatementError struct {
	Table string
	Stage string // "create", "columns", "alter" or "write"
	SQL   string // empty for column introspection
	Err   error
}

func (e *StatementError) Error() string {
	if e.SQL == "" {
		return fmt.Sprintf("syncer: table=%s stage=%s: %v", e.Table, e.Stage, e.Err)
	}
	return fmt.Sprintf("syncer: table=%s stage=%s sql=%q: %v", e.Table, e.Stage, e.SQL, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }
