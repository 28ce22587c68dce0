package model

import (
	"sync"
	"time"
)

// EndpointHealth is a snapshot of one endpoint's circuit state.
type EndpointHealth struct {
	LastSuccess     time.Time `json:"last_success,omitzero"`
	LastFailure     time.Time `json:"last_failure,omitzero"`
	FailureCount    int       `json:"failure_count"`
	CircuitOpen     bool      `json:"circuit_open"`
	CircuitOpenedAt time.Time `json:"circuit_opened_at,omitzero"`
}

// HealthConfig configures the circuit breaker.
type HealthConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long an open circuit rejects requests before
	// letting one through again.
	RecoveryTimeout time.Duration
}

// DefaultHealthConfig opens after three failures and retries after 30s.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
	}
}

type healthState struct {
	mu       sync.Mutex
	config   HealthConfig
	statuses map[string]*EndpointHealth
	now      func() time.Time
}

func newHealthState(cfg HealthConfig) *healthState {
	return &healthState{
		config:   cfg,
		statuses: make(map[string]*EndpointHealth),
		now:      time.Now,
	}
}

// status must be called with h.mu held.
func (h *healthState) status(name string) *EndpointHealth {
	s, ok := h.statuses[name]
	if !ok {
		s = &EndpointHealth{}
		h.statuses[name] = s
	}
	return s
}

// MarkEndpointSuccess closes the endpoint's circuit.
func (r *Registry) MarkEndpointSuccess(name string) {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.status(name)
	s.LastSuccess = h.now()
	s.FailureCount = 0
	s.CircuitOpen = false
}

// MarkEndpointFailure counts a failure and opens the circuit at the threshold.
func (r *Registry) MarkEndpointFailure(name string) {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.status(name)
	s.LastFailure = h.now()
	s.FailureCount++
	if s.FailureCount >= h.config.FailureThreshold {
		s.CircuitOpen = true
		s.CircuitOpenedAt = s.LastFailure
	}
}

// IsEndpointAvailable is false only while the circuit is open and the
// recovery timeout has not passed. Past the timeout requests are let through
// again; another failure re-arms the timeout.
func (r *Registry) IsEndpointAvailable(name string) bool {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.statuses[name]
	if !ok || !s.CircuitOpen {
		return true
	}
	return h.now().Sub(s.CircuitOpenedAt) > h.config.RecoveryTimeout
}

// GetEndpointHealth returns a copy of the endpoint's health, or nil when
// nothing has been recorded.
func (r *Registry) GetEndpointHealth(name string) *EndpointHealth {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.statuses[name]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// GetAvailableFallbackChain filters the fallback chain to endpoints whose
// circuit admits a request. When every circuit is open the full chain is
// returned so the caller still has something to try.
func (r *Registry) GetAvailableFallbackChain(c Capability) []string {
	chain := r.GetFallbackChain(c)
	available := make([]string, 0, len(chain))
	for _, name := range chain {
		if r.IsEndpointAvailable(name) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return chain
	}
	return available
}

// SetHealthConfig replaces the circuit breaker configuration.
func (r *Registry) SetHealthConfig(cfg HealthConfig) {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()
	r.health.config = cfg
}

// ResetEndpointHealth forgets everything recorded for an endpoint.
func (r *Registry) ResetEndpointHealth(name string) {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()
	delete(r.health.statuses, name)
}
