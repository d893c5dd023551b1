package llm

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func validParams() GenerationParams {
	return GenerationParams{
		Model:       "Qwen/Qwen2.5-0.5B-Instruct",
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

func TestNewParamsStoreRejectsInvalid(t *testing.T) {
	p := validParams()
	p.Model = ""
	if _, err := NewParamsStore(p); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestParamsStorePartialUpdate(t *testing.T) {
	store, err := NewParamsStore(validParams())
	if err != nil {
		t.Fatalf("NewParamsStore: %v", err)
	}

	tokens := 2048
	updated, err := store.Update(GenerationParamsUpdate{MaxTokens: &tokens})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d, want 2048", updated.MaxTokens)
	}
	// Untouched fields survive the partial update.
	if updated.Model != "Qwen/Qwen2.5-0.5B-Instruct" {
		t.Errorf("Model = %q, changed by a partial update", updated.Model)
	}
	if updated.Temperature != 0.7 || updated.TopP != 0.9 {
		t.Errorf("sampling params changed: temp=%v top_p=%v", updated.Temperature, updated.TopP)
	}
	if got := store.Get(); got.MaxTokens != 2048 {
		t.Errorf("store snapshot MaxTokens = %d after commit", got.MaxTokens)
	}
}

func TestParamsStoreInvalidUpdateLeavesSnapshot(t *testing.T) {
	store, err := NewParamsStore(validParams())
	if err != nil {
		t.Fatalf("NewParamsStore: %v", err)
	}

	temp := 3.5
	tokens := 2048
	_, err = store.Update(GenerationParamsUpdate{Temperature: &temp, MaxTokens: &tokens})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
	}

	// The whole update is rejected, including its valid fields.
	got := store.Get()
	if got.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, partial update leaked through", got.MaxTokens)
	}
	if got.Temperature != 0.7 {
		t.Errorf("Temperature = %v, partial update leaked through", got.Temperature)
	}
}

func TestParamsStoreGetReturnsCopy(t *testing.T) {
	p := validParams()
	p.Stop = []string{"</s>"}
	store, err := NewParamsStore(p)
	if err != nil {
		t.Fatalf("NewParamsStore: %v", err)
	}

	got := store.Get()
	got.Stop[0] = "mutated"
	got.Model = "mutated"

	fresh := store.Get()
	if fresh.Stop[0] != "</s>" || fresh.Model != "Qwen/Qwen2.5-0.5B-Instruct" {
		t.Error("mutating a returned snapshot changed store state")
	}
}

func TestParamsStoreConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	store, err := NewParamsStore(validParams())
	if err != nil {
		t.Fatalf("NewParamsStore: %v", err)
	}

	// Writer alternates between two self-consistent snapshots where the
	// model name encodes the expected max_tokens. A torn read would pair a
	// model from one snapshot with tokens from the other.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			model := fmt.Sprintf("model-%d", i%2)
			tokens := 1000 + i%2
			if _, err := store.Update(GenerationParamsUpdate{Model: &model, MaxTokens: &tokens}); err != nil {
				t.Errorf("Update: %v", err)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				got := store.Get()
				switch got.Model {
				case "Qwen/Qwen2.5-0.5B-Instruct":
					if got.MaxTokens != 1024 {
						t.Errorf("torn read: %s with max_tokens %d", got.Model, got.MaxTokens)
					}
				case "model-0":
					if got.MaxTokens != 1000 {
						t.Errorf("torn read: %s with max_tokens %d", got.Model, got.MaxTokens)
					}
				case "model-1":
					if got.MaxTokens != 1001 {
						t.Errorf("torn read: %s with max_tokens %d", got.Model, got.MaxTokens)
					}
				default:
					t.Errorf("unexpected model %q", got.Model)
				}
			}
		}()
	}

	wg.Wait()
	<-done
}

func TestMergeOverridesDoNotMutateReceiver(t *testing.T) {
	base := validParams()
	temp := 1.2
	merged, err := base.Merge(GenerationParamsUpdate{Temperature: &temp})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Temperature != 1.2 {
		t.Errorf("merged Temperature = %v", merged.Temperature)
	}
	if base.Temperature != 0.7 {
		t.Errorf("receiver mutated: Temperature = %v", base.Temperature)
	}
}

func TestGenerationParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GenerationParams)
		ok     bool
	}{
		{"valid", func(*GenerationParams) {}, true},
		{"empty model", func(p *GenerationParams) { p.Model = "" }, false},
		{"zero max_tokens", func(p *GenerationParams) { p.MaxTokens = 0 }, false},
		{"temperature too high", func(p *GenerationParams) { p.Temperature = 2.1 }, false},
		{"temperature zero ok", func(p *GenerationParams) { p.Temperature = 0 }, true},
		{"negative temperature", func(p *GenerationParams) { p.Temperature = -0.1 }, false},
		{"top_p zero", func(p *GenerationParams) { p.TopP = 0 }, false},
		{"top_p one ok", func(p *GenerationParams) { p.TopP = 1 }, true},
		{"top_p above one", func(p *GenerationParams) { p.TopP = 1.01 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestSettingsStoreUpdate(t *testing.T) {
	store, err := NewSettingsStore(OrchestrationSettings{
		Enabled:             true,
		Rounds:              1,
		SecondaryGoalPrompt: "Review the answer.",
	})
	if err != nil {
		t.Fatalf("NewSettingsStore: %v", err)
	}

	rounds := 3
	updated, err := store.Update(OrchestrationUpdate{Rounds: &rounds})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Rounds != 3 || !updated.Enabled {
		t.Errorf("updated = %+v", updated)
	}

	rounds = MaxRounds + 1
	if _, err := store.Update(OrchestrationUpdate{Rounds: &rounds}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("rounds above cap: error = %v, want ErrInvalidConfiguration", err)
	}
	if got := store.Get(); got.Rounds != 3 {
		t.Errorf("Rounds = %d after rejected update, want 3", got.Rounds)
	}

	empty := ""
	if _, err := store.Update(OrchestrationUpdate{SecondaryGoalPrompt: &empty}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("empty goal prompt: error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestSettingsRoundsZeroValid(t *testing.T) {
	s := OrchestrationSettings{Enabled: true, Rounds: 0, SecondaryGoalPrompt: "Review."}
	if err := s.Validate(); err != nil {
		t.Fatalf("Rounds=0 must be valid: %v", err)
	}
}
