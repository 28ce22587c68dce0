package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/llm"
)

// Gemini speaks the Generative Language generateContent API. The model is
// part of the URL rather than the body.
type Gemini struct{}

var errNoCandidates = errors.New("no candidates in gemini response")

func init() {
	llm.RegisterProvider(Gemini{})
}

func (Gemini) Name() string { return "gemini" }

func (Gemini) BuildURL(baseURL, model string) string {
	return endpoint(baseURL, "https://generativelanguage.googleapis.com/v1beta",
		"/models/"+url.PathEscape(model)+":generateContent")
}

// SetHeaders prefers GEMINI_API_KEY and falls back to API_KEY.
func (Gemini) SetHeaders(req *http.Request) {
	if key := firstEnv(os.Getenv, "GEMINI_API_KEY", "API_KEY"); key != "" {
		req.Header.Set("x-goog-api-key", key)
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// BuildRequestBody sends assistant turns under the "model" role.
func (Gemini) BuildRequestBody(_ string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	system, turns := splitSystem(messages)

	req := geminiRequest{
		Contents: lo.Map(turns, func(m llm.Message, _ int) geminiContent {
			role := "user"
			if m.Role == "assistant" {
				role = "model"
			}
			return geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}}
		}),
	}
	if len(system) > 0 {
		req.SystemInstruction = &geminiContent{Parts: lo.Map(system, func(s string, _ int) geminiPart {
			return geminiPart{Text: s}
		})}
	}
	if temperature != nil || maxTokens > 0 {
		req.GenerationConfig = &geminiGenerationConfig{Temperature: temperature, MaxOutputTokens: maxTokens}
	}
	return json.Marshal(req)
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

func (Gemini) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, errNoCandidates
	}

	first := resp.Candidates[0]
	var text strings.Builder
	for _, part := range first.Content.Parts {
		text.WriteString(part.Text)
	}

	usage := resp.UsageMetadata
	return &llm.Response{
		Content: text.String(),
		Model:   lo.CoalesceOrEmpty(resp.ModelVersion, model),
		Usage: llm.TokenUsage{
			PromptTokens:     usage.PromptTokenCount,
			CompletionTokens: usage.CandidatesTokenCount,
			TotalTokens:      usage.TotalTokenCount,
		},
		FinishReason: first.FinishReason,
	}, nil
}
