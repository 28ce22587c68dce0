package model

import (
	"slices"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(threshold int, recovery time.Duration) (*Registry, *fakeClock) {
	r := NewDefaultRegistry()
	clock := &fakeClock{t: time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)}
	r.health.now = clock.now
	r.SetHealthConfig(HealthConfig{FailureThreshold: threshold, RecoveryTimeout: recovery})
	return r, clock
}

func TestEndpointHealthTracking(t *testing.T) {
	r, _ := newTestRegistry(3, time.Minute)

	if !r.IsEndpointAvailable("ollama") {
		t.Error("expected endpoint to be available initially")
	}
	if r.GetEndpointHealth("ollama") != nil {
		t.Error("expected no health info before any requests")
	}

	r.MarkEndpointSuccess("ollama")

	health := r.GetEndpointHealth("ollama")
	if health == nil {
		t.Fatal("expected health info after success")
	}
	if health.CircuitOpen || health.FailureCount != 0 || health.LastSuccess.IsZero() {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	r, clock := newTestRegistry(2, time.Minute)

	r.MarkEndpointFailure("gemini-flash")
	if !r.IsEndpointAvailable("gemini-flash") {
		t.Error("one failure should not open the circuit")
	}

	r.MarkEndpointFailure("gemini-flash")
	if r.IsEndpointAvailable("gemini-flash") {
		t.Error("circuit should be open after reaching the threshold")
	}

	clock.advance(2 * time.Minute)
	if !r.IsEndpointAvailable("gemini-flash") {
		t.Error("circuit should admit a request after the recovery timeout")
	}

	// another failure re-arms the timeout
	r.MarkEndpointFailure("gemini-flash")
	if r.IsEndpointAvailable("gemini-flash") {
		t.Error("failure after recovery should reopen the circuit")
	}

	r.MarkEndpointSuccess("gemini-flash")
	if !r.IsEndpointAvailable("gemini-flash") {
		t.Error("success should close the circuit")
	}
	if h := r.GetEndpointHealth("gemini-flash"); h.CircuitOpen || h.FailureCount != 0 {
		t.Errorf("health after success = %+v", h)
	}
}

func TestGetAvailableFallbackChain(t *testing.T) {
	r, _ := newTestRegistry(1, time.Hour)

	r.MarkEndpointFailure("gemini-flash")
	chain := r.GetAvailableFallbackChain(CapabilityConcierge)
	if !slices.Equal(chain, []string{"claude-haiku", "ollama"}) {
		t.Errorf("chain = %v", chain)
	}

	r.MarkEndpointFailure("claude-haiku")
	r.MarkEndpointFailure("ollama")
	chain = r.GetAvailableFallbackChain(CapabilityConcierge)
	if len(chain) != 3 {
		t.Errorf("all-open chain should fall back to the full chain, got %v", chain)
	}
}

func TestResetEndpointHealth(t *testing.T) {
	r, _ := newTestRegistry(1, time.Hour)

	r.MarkEndpointFailure("ollama")
	r.ResetEndpointHealth("ollama")

	if !r.IsEndpointAvailable("ollama") {
		t.Error("reset endpoint should be available")
	}
	if r.GetEndpointHealth("ollama") != nil {
		t.Error("reset endpoint should have no health info")
	}
}
