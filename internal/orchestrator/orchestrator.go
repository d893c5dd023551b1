// Package orchestrator drives the multi-round refinement loop between the
// primary and secondary models.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/frogcom/api/internal/llm"
	"github.com/frogcom/api/internal/provider"
	"github.com/frogcom/api/internal/trace"
)

const revisionInstruction = "A reviewer left the following critique of your answer. " +
	"Revise your answer to address it, keeping the original request in mind."

// Result is the outcome of one orchestrated request.
type Result struct {
	FinalText string
	// Critique is the last informational critique, set only when the final
	// round's secondary call succeeded.
	Critique       string
	Trace          []trace.Step
	RoundsExecuted int
}

// Engine runs the refinement protocol. It is stateless across requests;
// every call reads fresh snapshots from the stores and owns its own trace
// handle.
type Engine struct {
	primary         provider.Completer
	secondary       provider.Completer
	primaryParams   *llm.ParamsStore
	secondaryParams *llm.ParamsStore
	settings        *llm.SettingsStore
	recorder        *trace.Recorder
	logger          *zap.Logger
	tracer          oteltrace.Tracer
}

// NewEngine wires an engine from its collaborators.
func NewEngine(
	primary, secondary provider.Completer,
	primaryParams, secondaryParams *llm.ParamsStore,
	settings *llm.SettingsStore,
	recorder *trace.Recorder,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		primary:         primary,
		secondary:       secondary,
		primaryParams:   primaryParams,
		secondaryParams: secondaryParams,
		settings:        settings,
		recorder:        recorder,
		logger:          logger,
		tracer:          otel.Tracer("frogcom/orchestrator"),
	}
}

// Orchestrate runs the loop over the given conversation. Overrides apply to
// this request's primary parameter snapshot only and are validated like a
// store update.
func (e *Engine) Orchestrate(ctx context.Context, requestID string, conversation []llm.Turn, overrides llm.GenerationParamsUpdate) (*Result, error) {
	settings := e.settings.Get()
	primaryParams := e.primaryParams.Get()
	secondaryParams := e.secondaryParams.Get()

	if !overrides.IsZero() {
		merged, err := primaryParams.Merge(overrides)
		if err != nil {
			return nil, fmt.Errorf("per-request overrides: %w", err)
		}
		primaryParams = merged
	}

	ctx, span := e.tracer.Start(ctx, "orchestrate",
		oteltrace.WithAttributes(
			attribute.String("request_id", requestID),
			attribute.Bool("orchestration.enabled", settings.Enabled),
			attribute.Int("orchestration.rounds", settings.Rounds),
		),
	)
	defer span.End()

	originalPrompt := llm.LastUserContent(conversation)
	tr := e.recorder.Begin(requestID, originalPrompt)

	if !settings.Enabled || settings.Rounds == 0 {
		answer, err := e.invoke(ctx, tr, trace.ActorPrimary, 0, e.primary, conversation, primaryParams)
		steps := tr.Finish(0)
		if err != nil {
			span.SetStatus(codes.Error, "primary call failed")
			return nil, &ProviderFailure{Round: 0, Err: err}
		}
		return &Result{FinalText: answer, Trace: steps, RoundsExecuted: 0}, nil
	}

	var (
		primaryAnswer string
		critique      string
		critiqueOK    bool
		executed      int
	)

	for round := 1; round <= settings.Rounds; round++ {
		convo := conversation
		if round > 1 {
			convo = llm.CloneTurns(conversation)
			convo = append(convo,
				llm.Turn{Role: llm.RoleAssistant, Content: primaryAnswer},
				llm.Turn{Role: llm.RoleUser, Content: revisionInstruction + "\n\n" + critique},
			)
		}

		answer, err := e.invoke(ctx, tr, trace.ActorPrimary, round, e.primary, convo, primaryParams)
		if err != nil {
			tr.Finish(executed)
			span.SetStatus(codes.Error, "primary call failed")
			return nil, &ProviderFailure{Round: round, Err: err}
		}
		primaryAnswer = answer
		executed = round

		secConvo := []llm.Turn{
			{Role: llm.RoleSystem, Content: settings.SecondaryGoalPrompt},
			{Role: llm.RoleUser, Content: originalPrompt},
			{Role: llm.RoleUser, Content: "Candidate answer to review:\n\n" + primaryAnswer},
		}

		crit, err := e.invoke(ctx, tr, trace.ActorSecondary, round, e.secondary, secConvo, secondaryParams)
		if err != nil {
			// A critique failure never discards a good primary answer. Stop
			// here and return the current answer; the failing step stays in
			// the trace with its error marker.
			e.logger.Warn("critique call failed, degrading to current answer",
				zap.String("request_id", requestID),
				zap.Int("round", round),
				zap.Error(err),
			)
			critiqueOK = false
			break
		}
		critique = crit
		critiqueOK = true

		if ctx.Err() != nil {
			// Caller gone or deadline elapsed: abandon further rounds but
			// keep what we have and still flush the partial trace.
			e.logger.Warn("orchestration cancelled mid-run",
				zap.String("request_id", requestID),
				zap.Int("round", round),
			)
			break
		}
	}

	steps := tr.Finish(executed)

	res := &Result{
		FinalText:      primaryAnswer,
		Trace:          steps,
		RoundsExecuted: executed,
	}
	if critiqueOK {
		res.Critique = critique
	}
	return res, nil
}

// invoke calls one model, records the step, and returns the output.
func (e *Engine) invoke(ctx context.Context, tr *trace.Trace, actor string, round int, completer provider.Completer, convo []llm.Turn, params llm.GenerationParams) (string, error) {
	ctx, span := e.tracer.Start(ctx, "llm.complete",
		oteltrace.WithAttributes(
			attribute.String("llm.actor", actor),
			attribute.Int("llm.round", round),
			attribute.String("llm.model", params.Model),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := completer.Complete(ctx, convo, params)
	elapsed := time.Since(start)

	step := trace.Step{
		Round:     round,
		Actor:     actor,
		Status:    trace.StatusOK,
		Input:     llm.CloneTurns(convo),
		Output:    out,
		Timestamp: start.UTC(),
		Duration:  elapsed.Milliseconds(),
	}
	if err != nil {
		step.Status = trace.StatusError
		step.Output = ""
		step.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
	}
	tr.Append(step)

	return out, err
}
