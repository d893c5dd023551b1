package llm

import "fmt"

// MaxRounds caps the configurable refinement round count.
const MaxRounds = 10

// OrchestrationSettings controls the primary/secondary refinement loop.
// Read once at the start of a request; concurrent updates never affect a
// request already in flight.
type OrchestrationSettings struct {
	Enabled             bool   `json:"enabled"`
	Rounds              int    `json:"communication_rounds"`
	SecondaryGoalPrompt string `json:"secondary_goal_prompt"`
}

// OrchestrationUpdate is a partial update of the orchestration settings.
type OrchestrationUpdate struct {
	Enabled             *bool   `json:"enabled,omitempty"`
	Rounds              *int    `json:"communication_rounds,omitempty"`
	SecondaryGoalPrompt *string `json:"secondary_goal_prompt,omitempty"`
}

// Validate checks the settings ranges.
func (s OrchestrationSettings) Validate() error {
	if s.Rounds < 0 || s.Rounds > MaxRounds {
		return fmt.Errorf("communication_rounds %d out of range [0, %d]: %w", s.Rounds, MaxRounds, ErrInvalidConfiguration)
	}
	if s.SecondaryGoalPrompt == "" {
		return fmt.Errorf("secondary_goal_prompt must not be empty: %w", ErrInvalidConfiguration)
	}
	return nil
}

// Merge applies the update on top of the snapshot and validates the result.
func (s OrchestrationSettings) Merge(u OrchestrationUpdate) (OrchestrationSettings, error) {
	next := s
	if u.Enabled != nil {
		next.Enabled = *u.Enabled
	}
	if u.Rounds != nil {
		next.Rounds = *u.Rounds
	}
	if u.SecondaryGoalPrompt != nil {
		next.SecondaryGoalPrompt = *u.SecondaryGoalPrompt
	}
	if err := next.Validate(); err != nil {
		return OrchestrationSettings{}, err
	}
	return next, nil
}
