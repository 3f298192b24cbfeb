package provider

import (
	"sync"
	"time"
)

// Health store defaults.
const (
	DefaultDisableAfterFailures = 3
	DefaultDisableFor           = 60 * time.Second
)

// HealthSnapshot is a point-in-time view of a provider's circuit state.
// OK is true iff DisabledUntil is unset or in the past.
type HealthSnapshot struct {
	OK                  bool
	ConsecutiveFailures int
	LastFailureAt       *time.Time
	DisabledUntil       *time.Time
}

// HealthStore tracks per-provider circuit-breaker state. Implementations
// must be safe for concurrent use.
type HealthStore interface {
	Snapshot(providerID string) HealthSnapshot
	RecordSuccess(providerID string)
	RecordFailure(providerID string)
}

// HealthConfig controls when a provider is disabled and for how long.
type HealthConfig struct {
	DisableAfterFailures int
	DisableFor           time.Duration
}

type healthState struct {
	consecutiveFailures int
	lastFailureAt       time.Time
	disabledUntil       time.Time
}

// MemoryHealthStore is the in-process HealthStore. State is process-lifetime
// and resets on restart; there is no cross-instance coordination.
type MemoryHealthStore struct {
	mu    sync.Mutex
	cfg   HealthConfig
	now   func() time.Time
	state map[string]*healthState
}

// NewMemoryHealthStore creates a health store, filling zero config fields
// with defaults.
func NewMemoryHealthStore(cfg HealthConfig) *MemoryHealthStore {
	if cfg.DisableAfterFailures <= 0 {
		cfg.DisableAfterFailures = DefaultDisableAfterFailures
	}
	if cfg.DisableFor <= 0 {
		cfg.DisableFor = DefaultDisableFor
	}
	return &MemoryHealthStore{
		cfg:   cfg,
		now:   time.Now,
		state: make(map[string]*healthState),
	}
}

// Snapshot returns the current circuit state for a provider. Unknown
// providers report healthy.
func (s *MemoryHealthStore) Snapshot(providerID string) HealthSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[providerID]
	if !ok {
		return HealthSnapshot{OK: true}
	}

	snap := HealthSnapshot{ConsecutiveFailures: st.consecutiveFailures}
	if !st.lastFailureAt.IsZero() {
		t := st.lastFailureAt
		snap.LastFailureAt = &t
	}
	if !st.disabledUntil.IsZero() {
		t := st.disabledUntil
		snap.DisabledUntil = &t
	}
	snap.OK = st.disabledUntil.IsZero() || !s.now().Before(st.disabledUntil)
	return snap
}

// RecordSuccess fully rehabilitates the provider: zero failures, no disable
// window.
func (s *MemoryHealthStore) RecordSuccess(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, providerID)
}

// RecordFailure increments the failure counter; reaching the configured
// threshold opens the circuit until now + DisableFor.
func (s *MemoryHealthStore) RecordFailure(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[providerID]
	if !ok {
		st = &healthState{}
		s.state[providerID] = st
	}

	st.consecutiveFailures++
	st.lastFailureAt = s.now()
	if st.consecutiveFailures >= s.cfg.DisableAfterFailures {
		st.disabledUntil = s.now().Add(s.cfg.DisableFor)
	}
}
