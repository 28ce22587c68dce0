// Package llm is the chat-completion client behind the concierge and the
// catalog generator. It resolves a capability to a chain of endpoints through
// the model registry and walks that chain with retry and fallback.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kevinbrodzinski/nightlife/model"
)

// Replies larger than this are cut off before parsing.
const maxResponseSize = 10 << 20

var (
	ErrNoCapability = errors.New("capability is required")
	ErrNoMessages   = errors.New("at least one message is required")
	ErrNoEndpoints  = errors.New("no models configured")
)

// Completer answers one completion request. *Client is the real one;
// testutil.MockLLMClient scripts replies in tests.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Observer hears about every finished Complete call.
type Observer interface {
	ObserveCompletion(capability, model string, elapsed time.Duration, err error)
}

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	// Capability picks the registry chain, "concierge" or "catalog".
	// Unknown names fall back to concierge.
	Capability string

	// Messages go out in order, system prompt first.
	Messages []Message

	// Temperature nil leaves the endpoint default; 0 asks for determinism.
	Temperature *float64

	// MaxTokens 0 uses the endpoint's configured limit.
	MaxTokens int
}

// TokenUsage uses the OpenAI field names; other adapters translate.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Response struct {
	RequestID    string // set by Client, for log correlation
	Content      string
	Model        string // as reported by the provider
	Usage        TokenUsage
	FinishReason string
}

// Client calls whichever configured endpoint is healthy for a capability.
type Client struct {
	registry   *model.Registry
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
	observer   Observer
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each HTTP attempt. Non-positive values are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithRetryConfig(rc RetryConfig) ClientOption {
	return func(c *Client) { c.retry = rc }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithObserver reports call outcomes, typically to metrics.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a client over registry. Each attempt times out after 45s
// unless WithTimeout or WithHTTPClient says otherwise.
func NewClient(registry *model.Registry, opts ...ClientOption) *Client {
	c := &Client{
		registry:   registry,
		httpClient: &http.Client{Timeout: 45 * time.Second},
		retry:      DefaultRetryConfig(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete walks the capability's fallback chain. Each endpoint gets the
// configured retries for transient failures; a fatal error stops the walk.
func (c *Client) Complete(ctx context.Context, req Request) (resp *Response, err error) {
	if req.Capability == "" {
		return nil, ErrNoCapability
	}
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	requestID := uuid.New().String()
	startedAt := time.Now()
	var usedModel string
	if c.observer != nil {
		defer func() {
			c.observer.ObserveCompletion(req.Capability, usedModel, time.Since(startedAt), err)
		}()
	}

	capability := model.ParseCapability(req.Capability)
	if capability == "" {
		capability = model.CapabilityConcierge
	}
	log := c.logger.With("request_id", requestID, "capability", req.Capability)

	var lastErr error
	for _, name := range c.registry.GetAvailableFallbackChain(capability) {
		ep := c.registry.GetEndpoint(name)
		if ep == nil || !c.registry.IsEndpointAvailable(name) {
			log.Debug("Skipping endpoint", "model", name, "configured", ep != nil)
			continue
		}

		usedModel = name
		resp, err := c.callEndpoint(ctx, log, name, ep, req)
		if err == nil {
			resp.RequestID = requestID
			log.Debug("LLM call complete", "model", resp.Model, "duration", time.Since(startedAt))
			return resp, nil
		}
		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		log.Warn("Endpoint failed, trying fallback", "model", name, "provider", ep.Provider, "error", err)
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w for capability %s", ErrNoEndpoints, req.Capability)
	}
	return nil, fmt.Errorf("all endpoints failed for capability %s: %w", req.Capability, lastErr)
}

// callEndpoint retries one endpoint and records its health. Fatal errors are
// about the request or credentials, so they leave the circuit alone.
func (c *Client) callEndpoint(ctx context.Context, log *slog.Logger, name string, ep *model.EndpointConfig, req Request) (*Response, error) {
	provider := GetProvider(ep.Provider)
	if provider == nil {
		return nil, NewFatalError(fmt.Errorf("provider %q is not registered", ep.Provider))
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = ep.MaxTokens
	}
	body, err := provider.BuildRequestBody(ep.Model, req.Messages, req.Temperature, maxTokens)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("encode %s request: %w", ep.Provider, err))
	}
	url := provider.BuildURL(ep.URL, ep.Model)

	resp, err := c.retry.run(ctx,
		func() (*Response, error) { return c.post(ctx, provider, url, body, ep.Model) },
		func(attempt int, wait time.Duration, err error) {
			log.Debug("Retrying endpoint", "model", name, "attempt", attempt, "backoff", wait, "error", err)
		})
	switch {
	case err == nil:
		c.registry.MarkEndpointSuccess(name)
	case !IsFatal(err) && ctx.Err() == nil:
		c.registry.MarkEndpointFailure(name)
	}
	return resp, err
}

// post sends one prepared body and parses the reply.
func (c *Client) post(ctx context.Context, provider Provider, url string, body []byte, modelName string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("new request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	provider.SetHeaders(httpReq)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("post %s: %w", provider.Name(), err))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read %s reply: %w", provider.Name(), err))
	}
	if res.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(res.StatusCode, raw)
	}

	resp, err := provider.ParseResponse(raw, modelName)
	if err != nil {
		// garbled body from a healthy endpoint
		return nil, NewTransientError(err)
	}
	return resp, nil
}
