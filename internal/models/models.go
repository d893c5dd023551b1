// Package models holds the API request/response bodies.
package models

import (
	"time"

	"github.com/frogcom/api/internal/llm"
	"github.com/frogcom/api/internal/trace"
)

// GenerateRequest asks for an orchestrated generation. Either Prompt or
// Messages must be set; parameter fields override this request's primary
// model snapshot only.
type GenerateRequest struct {
	Prompt   string     `json:"prompt,omitempty"`
	Messages []llm.Turn `json:"messages,omitempty"`

	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`

	// IncludeTrace echoes the full orchestration trace in the response.
	IncludeTrace bool `json:"include_trace,omitempty"`
}

// Overrides returns the per-request parameter overrides.
func (r GenerateRequest) Overrides() llm.GenerationParamsUpdate {
	return llm.GenerationParamsUpdate{
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		TopP:        r.TopP,
		Stop:        r.Stop,
		Seed:        r.Seed,
	}
}

// GenerateResponse is the orchestrated generation result.
type GenerateResponse struct {
	ID             string       `json:"id"`
	FinalText      string       `json:"final_text"`
	Critique       string       `json:"critique,omitempty"`
	RoundsExecuted int          `json:"rounds_executed"`
	Model          string       `json:"model"`
	Created        int64        `json:"created"`
	Trace          []trace.Step `json:"trace,omitempty"`
}

// LLMConfigResponse reports one model's current generation parameters.
type LLMConfigResponse struct {
	Role   string               `json:"role"`
	Params llm.GenerationParams `json:"params"`
}

// OrchestrationConfigResponse reports the current orchestration settings.
type OrchestrationConfigResponse struct {
	llm.OrchestrationSettings
}

// HealthResponse is the deep health report.
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Timestamp    time.Time         `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}
