package llm

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a config update or per-request
// override fails validation. The store is left untouched in that case.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// GenerationParams is a snapshot of the sampling parameters for one model.
// A snapshot is immutable once handed out; it changes only through an
// explicit store update, never mid-request.
type GenerationParams struct {
	Model       string   `json:"model"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

// GenerationParamsUpdate is a partial update. Nil fields keep their prior
// value. The same type carries per-request overrides on /generate.
type GenerationParamsUpdate struct {
	Model       *string  `json:"model,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

// IsZero reports whether the update carries no fields at all.
func (u GenerationParamsUpdate) IsZero() bool {
	return u.Model == nil && u.MaxTokens == nil && u.Temperature == nil &&
		u.TopP == nil && u.Stop == nil && u.Seed == nil
}

// Validate checks the parameter ranges.
func (p GenerationParams) Validate() error {
	if p.Model == "" {
		return fmt.Errorf("model must not be empty: %w", ErrInvalidConfiguration)
	}
	if p.MaxTokens < 1 {
		return fmt.Errorf("max_tokens %d must be >= 1: %w", p.MaxTokens, ErrInvalidConfiguration)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]: %w", p.Temperature, ErrInvalidConfiguration)
	}
	if p.TopP <= 0 || p.TopP > 1 {
		return fmt.Errorf("top_p %.2f out of range (0, 1]: %w", p.TopP, ErrInvalidConfiguration)
	}
	return nil
}

// clone deep-copies the snapshot so callers can never alias store state.
func (p GenerationParams) clone() GenerationParams {
	out := p
	if p.Stop != nil {
		out.Stop = append([]string(nil), p.Stop...)
	}
	if p.Seed != nil {
		seed := *p.Seed
		out.Seed = &seed
	}
	return out
}

// Merge applies the update on top of the snapshot and validates the result.
// The receiver is not modified. Used both for store updates and for
// per-request overrides, so both paths share one set of validation rules.
func (p GenerationParams) Merge(u GenerationParamsUpdate) (GenerationParams, error) {
	next := p.clone()
	if u.Model != nil {
		next.Model = *u.Model
	}
	if u.MaxTokens != nil {
		next.MaxTokens = *u.MaxTokens
	}
	if u.Temperature != nil {
		next.Temperature = *u.Temperature
	}
	if u.TopP != nil {
		next.TopP = *u.TopP
	}
	if u.Stop != nil {
		next.Stop = append([]string(nil), u.Stop...)
	}
	if u.Seed != nil {
		seed := *u.Seed
		next.Seed = &seed
	}
	if err := next.Validate(); err != nil {
		return GenerationParams{}, err
	}
	return next, nil
}
