package pipeline

import "fmt"

// StageError wraps a failure of one pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
