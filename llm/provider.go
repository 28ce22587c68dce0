package llm

import (
	"net/http"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Provider translates between Message/Response and one vendor's HTTP API.
// Endpoints name their provider in the model registry.
type Provider interface {
	Name() string

	// BuildURL returns the completion URL. An empty baseURL means the
	// vendor default. model is passed for vendors that route on it.
	BuildURL(baseURL, model string) string

	// SetHeaders adds auth and vendor headers, read from the environment.
	SetHeaders(req *http.Request)

	// BuildRequestBody encodes the call. A nil temperature and a zero
	// maxTokens are left out so the vendor default applies.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)

	// ParseResponse decodes a 200 reply. model fills Response.Model when the
	// vendor does not echo it.
	ParseResponse(body []byte, model string) (*Response, error)
}

var providers = struct {
	sync.RWMutex
	byName map[string]Provider
}{byName: map[string]Provider{}}

// RegisterProvider makes p available under p.Name(), replacing any
// earlier registration. Adapters call it from init.
func RegisterProvider(p Provider) {
	providers.Lock()
	defer providers.Unlock()
	providers.byName[p.Name()] = p
}

// GetProvider returns nil for unregistered names.
func GetProvider(name string) Provider {
	providers.RLock()
	defer providers.RUnlock()
	return providers.byName[name]
}

// ListProviders returns the registered names in sorted order.
func ListProviders() []string {
	providers.RLock()
	names := lo.Keys(providers.byName)
	providers.RUnlock()

	slices.Sort(names)
	return names
}
