package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/llm"
)

// Compat speaks the OpenAI chat-completions wire format. Ollama, vLLM,
// OpenAI, OpenRouter and the bundled mock-llm server all accept it; they
// differ only in name, default base URL and auth headers.
type Compat struct {
	ID         string
	DefaultURL string
	// KeyEnv names the env var holding the bearer token. Empty keys are
	// not sent, so local servers work without one.
	KeyEnv string
	// Headers maps extra header names to the env vars that fill them.
	Headers map[string]string
}

// Registered OpenAI-compatible providers.
var (
	Ollama = &Compat{ID: "ollama", DefaultURL: "http://localhost:11434/v1", KeyEnv: "OPENAI_API_KEY"}
	OpenAI = &Compat{
		ID:         "openai",
		DefaultURL: "https://api.openai.com/v1",
		KeyEnv:     "OPENAI_API_KEY",
		Headers:    openRouterHeaders,
	}
	OpenRouter = &Compat{
		ID:         "openrouter",
		DefaultURL: "https://openrouter.ai/api/v1",
		KeyEnv:     "OPENROUTER_API_KEY",
		Headers:    openRouterHeaders,
	}
)

// openRouterHeaders attribute requests to the app in OpenRouter rankings.
var openRouterHeaders = map[string]string{
	"HTTP-Referer": "OPENROUTER_SITE_URL",
	"X-Title":      "OPENROUTER_SITE_NAME",
}

func init() {
	for _, p := range []*Compat{Ollama, OpenAI, OpenRouter} {
		llm.RegisterProvider(p)
	}
}

// Name returns the provider identifier.
func (c *Compat) Name() string { return c.ID }

// BuildURL appends /chat/completions unless baseURL already ends with it.
func (c *Compat) BuildURL(baseURL, _ string) string {
	if baseURL == "" {
		baseURL = c.DefaultURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

// SetHeaders adds the bearer token and any configured extra headers.
func (c *Compat) SetHeaders(req *http.Request) {
	if key := os.Getenv(c.KeyEnv); c.KeyEnv != "" && key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	for header, env := range c.Headers {
		if v := os.Getenv(env); v != "" {
			req.Header.Set(header, v)
		}
	}
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatRequest struct {
	Model       string          `json:"model"`
	Messages    []compatMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"` // nil = server default, 0 = deterministic
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

// BuildRequestBody passes roles through unchanged.
func (c *Compat) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	req := compatRequest{
		Model: model,
		Messages: lo.Map(messages, func(m llm.Message, _ int) compatMessage {
			return compatMessage{Role: m.Role, Content: m.Content}
		}),
		Temperature: temperature,
	}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	return json.Marshal(req)
}

type compatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      compatMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage llm.TokenUsage `json:"usage"`
}

// ParseResponse reads the first choice. Servers that omit the model name
// report the requested one.
func (c *Compat) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp compatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", c.ID, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in %s response", c.ID)
	}

	first := resp.Choices[0]
	return &llm.Response{
		Content:      first.Message.Content,
		Model:        lo.CoalesceOrEmpty(resp.Model, model),
		Usage:        resp.Usage,
		FinishReason: first.FinishReason,
	}, nil
}
