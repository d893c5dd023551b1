package orchestrator

import "fmt"

// ProviderFailure means a primary model call failed. It is fatal to the
// request: no Result is produced. Round is 0 for the single
// call made when orchestration is disabled.
type ProviderFailure struct {
	Round int
	Err   error
}

func (e *ProviderFailure) Error() string {
	return fmt.Sprintf("primary generation failed (round %d): %v", e.Round, e.Err)
}

func (e *ProviderFailure) Unwrap() error { return e.Err }
