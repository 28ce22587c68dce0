package providers

import (
	"strings"

	"github.com/kevinbrodzinski/nightlife/llm"
)

// splitSystem pulls system prompts out of the history for vendors that take
// them as a separate field. Turn order is kept.
func splitSystem(messages []llm.Message) (system []string, turns []llm.Message) {
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

// endpoint joins a base URL, or def when base is empty, with path.
func endpoint(base, def, path string) string {
	if base == "" {
		base = def
	}
	return strings.TrimSuffix(base, "/") + path
}

// firstEnv returns the first non-empty value among the named env vars.
func firstEnv(getenv func(string) string, names ...string) string {
	for _, n := range names {
		if v := getenv(n); v != "" {
			return v
		}
	}
	return ""
}
