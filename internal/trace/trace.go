// Package trace records every model invocation of one request and ships
// finished traces to a best-effort audit sink.
package trace

import (
	"time"

	"github.com/frogcom/api/internal/llm"
)

// Step actors.
const (
	ActorPrimary   = "primary"
	ActorSecondary = "secondary"
)

// Step statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Step is one model invocation. Immutable once appended.
type Step struct {
	Round     int        `json:"round"`
	Actor     string     `json:"actor"`
	Status    string     `json:"status"`
	Input     []llm.Turn `json:"input"`
	Output    string     `json:"output,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Duration  int64      `json:"duration_ms"`
}

// Record is a finished per-request trace as handed to the sink.
type Record struct {
	RequestID      string    `json:"request_id"`
	Prompt         string    `json:"prompt"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	RoundsExecuted int       `json:"rounds_executed"`
	Steps          []Step    `json:"steps"`
}

// Recorder hands out one Trace handle per in-flight request.
type Recorder struct {
	sink *Sink
}

// NewRecorder creates a recorder that flushes finished traces to sink.
// A nil sink disables the audit write-through.
func NewRecorder(sink *Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Begin starts a trace for the given request id.
func (r *Recorder) Begin(requestID, prompt string) *Trace {
	return &Trace{
		recorder:  r,
		requestID: requestID,
		prompt:    prompt,
		startedAt: time.Now().UTC(),
	}
}

// Trace is an append-only step log owned exclusively by one request's
// execution. It is not safe for concurrent use and is discarded after
// Finish.
type Trace struct {
	recorder  *Recorder
	requestID string
	prompt    string
	startedAt time.Time
	steps     []Step
	finished  bool
}

// RequestID returns the id the trace was begun with.
func (t *Trace) RequestID() string { return t.requestID }

// Append records a step.
func (t *Trace) Append(step Step) {
	if t.finished {
		return
	}
	t.steps = append(t.steps, step)
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int { return len(t.steps) }

// Finish seals the trace, flushes it to the sink (fire-and-forget) and
// returns the ordered steps. Safe to call after a partial run; the partial
// trace is still flushed.
func (t *Trace) Finish(roundsExecuted int) []Step {
	if t.finished {
		return t.steps
	}
	t.finished = true

	rec := &Record{
		RequestID:      t.requestID,
		Prompt:         t.prompt,
		StartedAt:      t.startedAt,
		CompletedAt:    time.Now().UTC(),
		RoundsExecuted: roundsExecuted,
		Steps:          t.steps,
	}
	if t.recorder.sink != nil {
		t.recorder.sink.Enqueue(rec)
	}
	return t.steps
}
