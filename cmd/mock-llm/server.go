package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// rulesModel is always listed; it is answered by the rule responder.
const rulesModel = "mock-concierge"

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// exchange is one served call, kept for /requests.
type exchange struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Reply     string        `json:"reply"`
	Scripted  bool          `json:"scripted"`
	CallIndex int           `json:"call_index"` // 1-indexed per model
	Timestamp int64         `json:"timestamp"`
}

type server struct {
	scripts map[string]*script
	now     func() time.Time

	mu         sync.Mutex
	transcript []exchange
	perModel   map[string]int
}

func newServer(scripts map[string]*script) *server {
	if scripts == nil {
		scripts = map[string]*script{}
	}
	return &server{scripts: scripts, now: time.Now, perModel: map[string]int{}}
}

// lookup resolves the script for model, falling back to the name without
// the "mock-" prefix.
func (s *server) lookup(model string) *script {
	if sc, ok := s.scripts[model]; ok {
		return sc
	}
	return s.scripts[strings.TrimPrefix(model, "mock-")]
}

// serve records the call and picks its reply.
func (s *server) serve(req chatRequest) exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.perModel[req.Model]
	s.perModel[req.Model] = n + 1

	ex := exchange{
		Model:     req.Model,
		Messages:  req.Messages,
		CallIndex: n + 1,
		Timestamp: s.now().UnixMilli(),
	}
	if sc := s.lookup(req.Model); sc != nil {
		ex.Reply, ex.Scripted = sc.reply(n)
	}
	if !ex.Scripted {
		ex.Reply = respond(req.Messages)
	}
	s.transcript = append(s.transcript, ex)
	return ex
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1/models", s.handleModels)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	ex := s.serve(req)
	slog.Debug("Chat completion", "model", req.Model, "call", ex.CallIndex, "scripted", ex.Scripted)

	prompt := lo.SumBy(req.Messages, func(m chatMessage) int { return len(m.Content) }) / 4
	completion := len(ex.Reply) / 4
	writeJSON(w, chatResponse{
		ID:      fmt.Sprintf("mock-%s-%d", req.Model, ex.CallIndex),
		Object:  "chat.completion",
		Created: ex.Timestamp / 1000,
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: ex.Reply},
			FinishReason: "stop",
		}},
		Usage: chatUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	})
}

// handleModels lists scripted models plus the rule responder.
func (s *server) handleModels(w http.ResponseWriter, _ *http.Request) {
	type modelEntry struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	}
	names := lo.Uniq(append(lo.Keys(s.scripts), rulesModel))
	slices.Sort(names)
	writeJSON(w, map[string]any{
		"object": "list",
		"data": lo.Map(names, func(name string, _ int) modelEntry {
			return modelEntry{ID: name, Object: "model", OwnedBy: "mock-llm"}
		}),
	})
}

// handleStats reports total and per-model call counts.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	total := len(s.transcript)
	byModel := maps.Clone(s.perModel)
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"total_calls":    total,
		"calls_by_model": byModel,
	})
}

// handleRequests returns the transcript, optionally narrowed by ?model= and
// ?call= (1-indexed per model).
func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("model")
	call, _ := strconv.Atoi(r.URL.Query().Get("call"))

	s.mu.Lock()
	matched := lo.Filter(s.transcript, func(ex exchange, _ int) bool {
		return (model == "" || ex.Model == model) && (call == 0 || ex.CallIndex == call)
	})
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"requests_by_model": lo.GroupBy(matched, func(ex exchange) string { return ex.Model }),
	})
}
