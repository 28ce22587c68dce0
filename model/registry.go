package model

import (
	"maps"
	"slices"
	"sync"
)

// Registry resolves capabilities to endpoint fallback chains and tracks
// endpoint health.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[Capability]*CapabilityConfig
	endpoints    map[string]*EndpointConfig
	defaultModel string
	health       *healthState
}

// CapabilityConfig orders the endpoints tried for one capability.
type CapabilityConfig struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Preferred lists endpoint names in order of preference.
	Preferred []string `yaml:"preferred" json:"preferred"`

	// Fallback lists backup endpoints tried after every preferred one.
	Fallback []string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// EndpointConfig is one callable model: provider adapter, base URL and model id.
type EndpointConfig struct {
	// Provider names a registered llm provider (anthropic, gemini, ollama, openai).
	Provider string `yaml:"provider" json:"provider" validate:"required"`

	// URL overrides the provider's default base URL.
	URL string `yaml:"url,omitempty" json:"url,omitempty" validate:"omitempty,url"`

	// Model is the identifier sent to the provider.
	Model string `yaml:"model" json:"model" validate:"required"`

	// MaxTokens is the default completion limit when a request sets none.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty" validate:"gte=0"`
}

// NewRegistry creates a registry from explicit tables. The first capability's
// first preferred endpoint, if any, becomes the default model.
func NewRegistry(caps map[Capability]*CapabilityConfig, endpoints map[string]*EndpointConfig) *Registry {
	if caps == nil {
		caps = make(map[Capability]*CapabilityConfig)
	}
	if endpoints == nil {
		endpoints = make(map[string]*EndpointConfig)
	}

	r := &Registry{
		capabilities: caps,
		endpoints:    endpoints,
		health:       newHealthState(DefaultHealthConfig()),
	}
	if cfg, ok := caps[CapabilityConcierge]; ok && len(cfg.Preferred) > 0 {
		r.defaultModel = cfg.Preferred[0]
	}
	return r
}

// NewDefaultRegistry prefers Gemini Flash, then Claude Haiku, then a local
// Ollama model. The mock endpoint is configured but only reached when a
// capability names it.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityConcierge: {
				Description: "Chat planning turns, one JSON action per reply",
				Preferred:   []string{"gemini-flash"},
				Fallback:    []string{"claude-haiku", "ollama"},
			},
			CapabilityCatalog: {
				Description: "Venue dataset generation",
				Preferred:   []string{"gemini-flash"},
				Fallback:    []string{"claude-sonnet", "ollama"},
			},
		},
		map[string]*EndpointConfig{
			"gemini-flash": {
				Provider:  "gemini",
				Model:     "gemini-2.5-flash",
				MaxTokens: 8192,
			},
			"claude-haiku": {
				Provider:  "anthropic",
				Model:     "claude-3-5-haiku-latest",
				MaxTokens: 2048,
			},
			"claude-sonnet": {
				Provider:  "anthropic",
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 16384,
			},
			"ollama": {
				Provider: "ollama",
				URL:      "http://localhost:11434/v1",
				Model:    "qwen2.5:7b",
			},
			"mock": {
				Provider: "ollama",
				URL:      "http://localhost:11435/v1",
				Model:    "mock-concierge",
			},
		},
	)
	r.defaultModel = "ollama"
	return r
}

// NewSingleEndpointRegistry routes every capability to one endpoint. Used
// for the mock server and for tests.
func NewSingleEndpointRegistry(name string, ep *EndpointConfig) *Registry {
	caps := make(map[Capability]*CapabilityConfig, len(Capabilities))
	for _, c := range Capabilities {
		caps[c] = &CapabilityConfig{Preferred: []string{name}}
	}
	return NewRegistry(caps, map[string]*EndpointConfig{name: ep})
}

// Resolve returns the preferred endpoint for a capability.
func (r *Registry) Resolve(c Capability) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.capabilities[c]; ok && len(cfg.Preferred) > 0 {
		return cfg.Preferred[0]
	}
	return r.defaultModel
}

// GetFallbackChain returns preferred then fallback endpoints. An unconfigured
// capability gets the default model alone, or nothing when none is set.
func (r *Registry) GetFallbackChain(c Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.capabilities[c]; ok {
		chain := make([]string, 0, len(cfg.Preferred)+len(cfg.Fallback))
		chain = append(chain, cfg.Preferred...)
		chain = append(chain, cfg.Fallback...)
		return chain
	}
	if r.defaultModel == "" {
		return nil
	}
	return []string{r.defaultModel}
}

// GetEndpoint returns nil for names with no endpoint.
func (r *Registry) GetEndpoint(name string) *EndpointConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.endpoints[name]
}

// SetCapability replaces the chain for capability.
func (r *Registry) SetCapability(c Capability, cfg *CapabilityConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[c] = cfg
}

// SetEndpoint adds or replaces the endpoint called name.
func (r *Registry) SetEndpoint(name string, cfg *EndpointConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[name] = cfg
}

// SetDefault sets the endpoint used for unconfigured capabilities.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultModel = name
}

// ListCapabilities returns the configured capabilities, sorted.
func (r *Registry) ListCapabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.capabilities))
}

// ListEndpoints returns the configured endpoint names, sorted.
func (r *Registry) ListEndpoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.endpoints))
}
