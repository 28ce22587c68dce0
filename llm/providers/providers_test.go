package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kevinbrodzinski/nightlife/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistered(t *testing.T) {
	for _, name := range []string{"anthropic", "gemini", "ollama", "openai", "openrouter"} {
		p := llm.GetProvider(name)
		require.NotNil(t, p, name)
		assert.Equal(t, name, p.Name())
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		baseURL  string
		model    string
		want     string
	}{
		{"ollama default", Ollama, "", "qwen", "http://localhost:11434/v1/chat/completions"},
		{"ollama trailing slash", Ollama, "http://localhost:11434/v1/", "qwen", "http://localhost:11434/v1/chat/completions"},
		{"ollama already complete", Ollama, "http://mock:11434/v1/chat/completions", "mock", "http://mock:11434/v1/chat/completions"},
		{"openai default", OpenAI, "", "gpt-4o-mini", "https://api.openai.com/v1/chat/completions"},
		{"openrouter default", OpenRouter, "", "x", "https://openrouter.ai/api/v1/chat/completions"},
		{"anthropic default", Anthropic{}, "", "claude", "https://api.anthropic.com/v1/messages"},
		{"anthropic custom", Anthropic{}, "http://proxy:8080/", "claude", "http://proxy:8080/v1/messages"},
		{"gemini default", Gemini{}, "", "gemini-2.5-flash", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"},
		{"gemini custom", Gemini{}, "http://localhost:9999/v1beta/", "g", "http://localhost:9999/v1beta/models/g:generateContent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.provider.BuildURL(tt.baseURL, tt.model))
		})
	}
}

func TestCompat_BuildRequestBody(t *testing.T) {
	p := Ollama
	temp := 0.7

	body, err := p.BuildRequestBody("qwen2.5:7b", []llm.Message{
		{Role: "system", Content: "You are Nova."},
		{Role: "user", Content: "rooftop drinks"},
	}, &temp, 1024)
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, `"model":"qwen2.5:7b"`)
	assert.Contains(t, s, `"role":"system"`)
	assert.Contains(t, s, `"temperature":0.7`)
	assert.Contains(t, s, `"max_tokens":1024`)
}

func TestCompat_BuildRequestBody_ZeroTemperatureKept(t *testing.T) {
	p := Ollama
	zero := 0.0

	body, err := p.BuildRequestBody("m", []llm.Message{{Role: "user", Content: "hi"}}, &zero, 0)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"temperature":0`)
	assert.NotContains(t, string(body), "max_tokens")

	body, err = p.BuildRequestBody("m", []llm.Message{{Role: "user", Content: "hi"}}, nil, 0)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "temperature")
}

func TestCompat_ParseResponse(t *testing.T) {
	p := Ollama

	body := []byte(`{
		"id": "chatcmpl-1",
		"model": "qwen2.5:7b",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"action\":\"ask_next\"}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 40, "completion_tokens": 8, "total_tokens": 48}
	}`)

	resp, err := p.ParseResponse(body, "fallback")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"ask_next"}`, resp.Content)
	assert.Equal(t, "qwen2.5:7b", resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 48, resp.Usage.TotalTokens)
	assert.Equal(t, 40, resp.Usage.PromptTokens)
}

func TestCompat_ParseResponse_Errors(t *testing.T) {
	p := Ollama

	_, err := p.ParseResponse([]byte(`{"choices": []}`), "m")
	assert.Error(t, err)

	_, err = p.ParseResponse([]byte(`not json`), "m")
	assert.Error(t, err)
}

func TestCompat_ParseResponse_DefaultsModel(t *testing.T) {
	p := Ollama

	resp, err := p.ParseResponse([]byte(`{"choices":[{"message":{"content":"ok"}}]}`), "mock-concierge")
	require.NoError(t, err)
	assert.Equal(t, "mock-concierge", resp.Model)
}

func TestOpenAI_SetHeaders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_SITE_URL", "https://nightlife.example")
	t.Setenv("OPENROUTER_SITE_NAME", "Nightlife")

	req, err := http.NewRequest(http.MethodPost, "http://x", nil)
	require.NoError(t, err)
	OpenAI.SetHeaders(req)

	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	assert.Equal(t, "https://nightlife.example", req.Header.Get("HTTP-Referer"))
	assert.Equal(t, "Nightlife", req.Header.Get("X-Title"))
}

func TestAnthropic_BuildRequestBody(t *testing.T) {
	p := Anthropic{}

	body, err := p.BuildRequestBody("claude-sonnet", []llm.Message{
		{Role: "system", Content: "You are Nova."},
		{Role: "system", Content: "Plan for Friday."},
		{Role: "user", Content: "dinner"},
		{Role: "assistant", Content: "{}"},
	}, nil, 0)
	require.NoError(t, err)

	var req anthropicRequest
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "You are Nova.\n\nPlan for Friday.", req.System)
	assert.Equal(t, anthropicDefaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "assistant", req.Messages[1].Role)
	assert.Nil(t, req.Temperature)
}

func TestAnthropic_SetHeaders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")

	req, err := http.NewRequest(http.MethodPost, "http://x", nil)
	require.NoError(t, err)
	Anthropic{}.SetHeaders(req)

	assert.Equal(t, "ak-test", req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
}

func TestAnthropic_ParseResponse(t *testing.T) {
	p := Anthropic{}

	body := []byte(`{
		"model": "claude-sonnet",
		"content": [{"type": "text", "text": "{\"action\":"}, {"type": "text", "text": "\"clarify\"}"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 12, "output_tokens": 5}
	}`)

	resp, err := p.ParseResponse(body, "ignored")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"clarify"}`, resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 17, resp.Usage.TotalTokens)
}

func TestGemini_BuildRequestBody(t *testing.T) {
	p := Gemini{}
	temp := 0.6

	body, err := p.BuildRequestBody("gemini-2.5-flash", []llm.Message{
		{Role: "system", Content: "You are Nova."},
		{Role: "user", Content: "live music"},
		{Role: "assistant", Content: "{}"},
	}, &temp, 512)
	require.NoError(t, err)

	var req geminiRequest
	require.NoError(t, json.Unmarshal(body, &req))
	require.NotNil(t, req.SystemInstruction)
	assert.Equal(t, "You are Nova.", req.SystemInstruction.Parts[0].Text)
	require.Len(t, req.Contents, 2)
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, "model", req.Contents[1].Role)
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, 512, req.GenerationConfig.MaxOutputTokens)
	require.NotNil(t, req.GenerationConfig.Temperature)
	assert.InDelta(t, 0.6, *req.GenerationConfig.Temperature, 1e-9)
}

func TestGemini_BuildRequestBody_NoConfig(t *testing.T) {
	body, err := Gemini{}.BuildRequestBody("g", []llm.Message{{Role: "user", Content: "hi"}}, nil, 0)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "generationConfig")
	assert.NotContains(t, string(body), "systemInstruction")
}

func TestGemini_SetHeaders(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")

	req, err := http.NewRequest(http.MethodPost, "http://x", nil)
	require.NoError(t, err)
	Gemini{}.SetHeaders(req)
	assert.Equal(t, "fallback-key", req.Header.Get("x-goog-api-key"))

	t.Setenv("GEMINI_API_KEY", "primary-key")
	Gemini{}.SetHeaders(req)
	assert.Equal(t, "primary-key", req.Header.Get("x-goog-api-key"))
}

func TestGemini_ParseResponse(t *testing.T) {
	p := Gemini{}

	body := []byte(`{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "[{\"id\":"}, {"text": "\"v1\"}]"}]}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 100, "candidatesTokenCount": 20, "totalTokenCount": 120}
	}`)

	resp, err := p.ParseResponse(body, "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"v1"}]`, resp.Content)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, 120, resp.Usage.TotalTokens)

	_, err = p.ParseResponse([]byte(`{"candidates": []}`), "g")
	assert.Error(t, err)
}

func TestCompat_SetHeaders_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	req, err := http.NewRequest(http.MethodPost, "http://x", nil)
	require.NoError(t, err)
	Ollama.SetHeaders(req)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestOpenRouter_SetHeaders(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("OPENROUTER_SITE_URL", "")
	t.Setenv("OPENROUTER_SITE_NAME", "")

	req, err := http.NewRequest(http.MethodPost, "http://x", nil)
	require.NoError(t, err)
	OpenRouter.SetHeaders(req)
	assert.Equal(t, "Bearer or-key", req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get("X-Title"))
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]llm.Message{
		{Role: "system", Content: "a"},
		{Role: "user", Content: "u1"},
		{Role: "system", Content: "b"},
		{Role: "assistant", Content: "a1"},
	})
	assert.Equal(t, []string{"a", "b"}, system)
	require.Len(t, turns, 2)
	assert.Equal(t, "u1", turns[0].Content)
	assert.Equal(t, "a1", turns[1].Content)
}
