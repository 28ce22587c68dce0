package model

import (
	"errors"
	"fmt"
)

// ErrUnknownEndpoint reports a capability that names an unconfigured endpoint.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// RegistryConfig is the serialized form of a Registry, as found under
// "models" in nightlife.yaml.
type RegistryConfig struct {
	Capabilities map[string]*CapabilityConfig `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Endpoints    map[string]*EndpointConfig   `yaml:"endpoints,omitempty" json:"endpoints,omitempty" validate:"dive"`
	Default      string                       `yaml:"default,omitempty" json:"default,omitempty"`
}

// Empty reports whether nothing is configured.
func (c *RegistryConfig) Empty() bool {
	return c == nil || (len(c.Capabilities) == 0 && len(c.Endpoints) == 0 && c.Default == "")
}

// FromConfig builds a registry on top of the defaults: configured
// capabilities and endpoints replace the built-in entries of the same name.
func FromConfig(cfg *RegistryConfig) (*Registry, error) {
	r := NewDefaultRegistry()
	if cfg.Empty() {
		return r, nil
	}
	r.Apply(cfg)
	if err := r.Check(); err != nil {
		return nil, err
	}
	return r, nil
}

// Apply merges cfg into the registry. Entries in cfg overwrite existing ones.
func (r *Registry) Apply(cfg *RegistryConfig) {
	if cfg == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range cfg.Capabilities {
		r.capabilities[Capability(k)] = v
	}
	for k, v := range cfg.Endpoints {
		r.endpoints[k] = v
	}
	if cfg.Default != "" {
		r.defaultModel = cfg.Default
	}
}

// Check verifies that every capability and the default point at configured
// endpoints.
func (r *Registry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for c, cfg := range r.capabilities {
		if cfg == nil || len(cfg.Preferred) == 0 {
			errs = append(errs, fmt.Errorf("capability %s: no preferred endpoint", c))
			continue
		}
		for _, name := range append(append([]string{}, cfg.Preferred...), cfg.Fallback...) {
			if _, ok := r.endpoints[name]; !ok {
				errs = append(errs, fmt.Errorf("capability %s: %w %q", c, ErrUnknownEndpoint, name))
			}
		}
	}
	if r.defaultModel != "" {
		if _, ok := r.endpoints[r.defaultModel]; !ok {
			errs = append(errs, fmt.Errorf("default: %w %q", ErrUnknownEndpoint, r.defaultModel))
		}
	}
	return errors.Join(errs...)
}

// ToConfig returns the serializable form of the registry.
func (r *Registry) ToConfig() *RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string]*CapabilityConfig, len(r.capabilities))
	for k, v := range r.capabilities {
		caps[string(k)] = v
	}
	endpoints := make(map[string]*EndpointConfig, len(r.endpoints))
	for k, v := range r.endpoints {
		endpoints[k] = v
	}

	return &RegistryConfig{
		Capabilities: caps,
		Endpoints:    endpoints,
		Default:      r.defaultModel,
	}
}
