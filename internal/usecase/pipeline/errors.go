package pipeline

import "fmt"

// PipelineError reports which plugin and stage aborted a request. It is
// surfaced to the caller as the generation call's failure.
type PipelineError struct {
	Plugin string
	Stage  string
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("plugin %s: %s failed: %v", e.Plugin, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
