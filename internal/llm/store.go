package llm

import (
	"sync"
	"sync/atomic"
)

// ParamsStore holds the current GenerationParams for one model role behind
// an atomic pointer swap. Readers never block writers: Get loads the current
// snapshot without taking the write lock, and an update either fully commits
// a validated snapshot or leaves the prior one intact.
type ParamsStore struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[GenerationParams]
}

// NewParamsStore seeds a store with a validated initial snapshot.
func NewParamsStore(initial GenerationParams) (*ParamsStore, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	s := &ParamsStore{}
	snap := initial.clone()
	s.cur.Store(&snap)
	return s, nil
}

// Get returns a copy of the current snapshot.
func (s *ParamsStore) Get() GenerationParams {
	return s.cur.Load().clone()
}

// Update applies the partial update atomically. On validation failure the
// store is unchanged and the error wraps ErrInvalidConfiguration.
func (s *ParamsStore) Update(u GenerationParamsUpdate) (GenerationParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.cur.Load().Merge(u)
	if err != nil {
		return GenerationParams{}, err
	}
	s.cur.Store(&next)
	return next.clone(), nil
}

// SettingsStore holds the current OrchestrationSettings, same swap scheme
// as ParamsStore.
type SettingsStore struct {
	mu  sync.Mutex
	cur atomic.Pointer[OrchestrationSettings]
}

// NewSettingsStore seeds a store with validated initial settings.
func NewSettingsStore(initial OrchestrationSettings) (*SettingsStore, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	s := &SettingsStore{}
	snap := initial
	s.cur.Store(&snap)
	return s, nil
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() OrchestrationSettings {
	return *s.cur.Load()
}

// Update applies the partial update atomically.
func (s *SettingsStore) Update(u OrchestrationUpdate) (OrchestrationSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.cur.Load().Merge(u)
	if err != nil {
		return OrchestrationSettings{}, err
	}
	s.cur.Store(&next)
	return next, nil
}
