// Package model maps planner capabilities to LLM endpoints. Callers ask for a
// capability ("concierge", "catalog") and the registry resolves it to an
// ordered chain of endpoints, skipping ones whose circuit is open.
package model

// Capability names a kind of LLM work the planner needs done.
type Capability string

const (
	// CapabilityConcierge drives the chat planner. Replies are short JSON objects.
	CapabilityConcierge Capability = "concierge"

	// CapabilityCatalog generates venue datasets. Replies are long JSON arrays.
	CapabilityCatalog Capability = "catalog"
)

// Capabilities lists every known capability.
var Capabilities = []Capability{CapabilityConcierge, CapabilityCatalog}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityConcierge, CapabilityCatalog:
		return true
	}
	return false
}

func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	c := Capability(s)
	if c.IsValid() {
		return c
	}
	return ""
}
