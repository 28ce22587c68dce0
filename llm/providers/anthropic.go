// Package providers implements LLM provider adapters. Importing it for side
// effects registers every adapter with the llm package.
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

// Anthropic speaks the messages API.
type Anthropic struct{}

const (
	anthropicVersion = "2023-06-01"
	// anthropicDefaultMaxTokens fits a chat reply or a 30-venue catalog.
	anthropicDefaultMaxTokens = 8192
)

func init() {
	llm.RegisterProvider(Anthropic{})
}

func (Anthropic) Name() string { return "anthropic" }

func (Anthropic) BuildURL(baseURL, _ string) string {
	return endpoint(baseURL, "https://api.anthropic.com", "/v1/messages")
}

func (Anthropic) SetHeaders(req *http.Request) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		req.Header.Set("x-api-key", key)
	}
	req.Header.Set("anthropic-version", anthropicVersion)
}

type anthropicTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"` // required by the API
	System      string          `json:"system,omitempty"`
	Messages    []anthropicTurn `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
}

// BuildRequestBody joins system prompts into the top-level system field.
func (Anthropic) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	system, turns := splitSystem(messages)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	return json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    strings.Join(system, "\n\n"),
		Messages: lo.Map(turns, func(m llm.Message, _ int) anthropicTurn {
			return anthropicTurn{Role: m.Role, Content: m.Content}
		}),
		Temperature: temperature,
	})
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ParseResponse concatenates the text blocks; tool and thinking blocks are
// ignored.
func (Anthropic) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse anthropic response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	return &llm.Response{
		Content:      text.String(),
		Model:        lo.CoalesceOrEmpty(resp.Model, model),
		Usage:        llm.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
		FinishReason: resp.StopReason,
	}, nil
}
