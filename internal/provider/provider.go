// Package provider defines the completion capability the orchestrator
// consumes and its OpenAI-compatible HTTP implementation.
package provider

import (
	"context"
	"errors"

	"github.com/frogcom/api/internal/llm"
)

// Completion failure taxonomy. The orchestrator maps these onto its own
// request-level semantics; no retries happen at this layer.
var (
	ErrUnavailable   = errors.New("completion provider unavailable")
	ErrInvalidParams = errors.New("completion provider rejected parameters")
	ErrTimeout       = errors.New("completion provider timed out")
)

// Completer produces text for a conversation using the given parameters.
// Implementations must honor ctx cancellation and deadlines.
type Completer interface {
	Complete(ctx context.Context, conversation []llm.Turn, params llm.GenerationParams) (string, error)
}
