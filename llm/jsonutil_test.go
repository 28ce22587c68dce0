package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string // if non-empty, check this key exists in parsed JSON
		wantErr bool
	}{
		{
			name:    "plain JSON",
			input:   `{"action": "clarify", "responseText": "Any music preference?"}`,
			wantKey: "action",
		},
		{
			name:    "markdown code block",
			input:   "```json\n{\"action\": \"show_plan\", \"responseText\": \"Here it is\"}\n```",
			wantKey: "action",
		},
		{
			name:    "markdown block with trailing text",
			input:   "```json\n{\"action\": \"ask_next\", \"responseText\": \"What next?\"}\n```\n\nLet me know!",
			wantKey: "responseText",
		},
		{
			name:    "prose around object",
			input:   "Sure! {\"action\": \"filter_venues\", \"keywords\": [\"rooftop\"], \"responseText\": \"ok\"} Hope that helps.",
			wantKey: "keywords",
		},
		{
			name:    "comments and trailing commas",
			input:   "```json\n{\n  \"action\": \"filter_venues\",\n  \"keywords\": [\n    \"rooftop\",  // vibe\n    \"cocktail\",\n  ],\n  \"responseText\": \"ok\",\n}\n```",
			wantKey: "keywords",
		},
		{
			name:    "URL in string not stripped",
			input:   `{"bannerImage": "https://picsum.photos/seed/1/600/200"}`,
			wantKey: "bannerImage",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   "Sure, here's my answer: not json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractJSON(tt.input)

			if tt.wantErr {
				if result != "" {
					t.Errorf("expected empty result, got: %s", result)
				}
				return
			}

			if result == "" {
				t.Fatal("expected JSON result, got empty string")
			}

			var parsed map[string]any
			if err := json.Unmarshal([]byte(result), &parsed); err != nil {
				t.Fatalf("result is not valid JSON: %v\nresult: %s", err, result)
			}

			if tt.wantKey != "" {
				if _, ok := parsed[tt.wantKey]; !ok {
					t.Errorf("expected key %q in parsed JSON, got keys: %v", tt.wantKey, keysOf(parsed))
				}
			}
		})
	}
}

func TestExtractFenced(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"bare fence", "```\nhello\n```", "hello", true},
		{"fence with prose", "Here you go:\n```json\n{\"a\":1}\n```\nbye", `{"a":1}`, true},
		{"no fence", `{"a":1}`, "", false},
		{"empty fence", "```\n```", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFenced(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractFenced(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractBraced(t *testing.T) {
	got, ok := ExtractBraced(`noise {"a": {"b": 1}} tail`)
	if !ok || got != `{"a": {"b": 1}}` {
		t.Errorf("got %q, %v", got, ok)
	}

	if _, ok := ExtractBraced("} backwards {"); ok {
		t.Error("expected no match when the last } precedes the first {")
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{
			name:    "plain array",
			input:   `[{"id": "venue-1"}, {"id": "venue-2"}]`,
			wantLen: 2,
		},
		{
			name:    "markdown code block array",
			input:   "```json\n[{\"id\": \"venue-1\"}]\n```",
			wantLen: 1,
		},
		{
			name:    "array with comments",
			input:   "```json\n[\n  {\"id\": \"venue-1\"},  // first\n  {\"id\": \"venue-2\"}   // second\n]\n```",
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractJSONArray(tt.input)
			if result == "" {
				t.Fatal("expected result, got empty string")
			}

			var parsed []any
			if err := json.Unmarshal([]byte(result), &parsed); err != nil {
				t.Fatalf("result is not valid JSON array: %v\nresult: %s", err, result)
			}

			if len(parsed) != tt.wantLen {
				t.Errorf("expected array length %d, got %d", tt.wantLen, len(parsed))
			}
		})
	}
}

func TestStripLineComment(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no comment",
			input:    `  "action": "clarify",`,
			expected: `  "action": "clarify",`,
		},
		{
			name:     "trailing comment",
			input:    `  "action": "clarify",  // ask a question`,
			expected: `  "action": "clarify",`,
		},
		{
			name:     "URL in string preserved",
			input:    `  "bannerImage": "https://picsum.photos/seed/1/600/200",`,
			expected: `  "bannerImage": "https://picsum.photos/seed/1/600/200",`,
		},
		{
			name:     "whole line comment",
			input:    `  // keywords below`,
			expected: ``,
		},
		{
			name:     "escaped quote in string",
			input:    `  "responseText": "a\"b//c",  // comment`,
			expected: `  "responseText": "a\"b//c",`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripLineComment(tt.input)
			if got != tt.expected {
				t.Errorf("stripLineComment(%q)\ngot:  %q\nwant: %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"trailing comma in array", `{"keywords": ["bar", "rooftop",]}`},
		{"trailing comma in object", `{"action": "clarify", "responseText": "hi",}`},
		{"comments and trailing commas", "{\n  \"keywords\": [\n    \"bar\",  // first\n    \"dj\",  // second\n  ]\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RepairJSON(tt.input)

			var parsed any
			if err := json.Unmarshal([]byte(result), &parsed); err != nil {
				t.Fatalf("repaired JSON is invalid: %v\nresult: %s", err, result)
			}
		})
	}
}

func TestRepairJSON_KeepsCommasInStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"responseText": "Pick one: bars, ] or clubs"}`, `{"responseText": "Pick one: bars, ] or clubs"}`},
		{`{"responseText": "a,}", "keywords": ["x",]}`, `{"responseText": "a,}", "keywords": ["x"]}`},
		{`{"responseText": "say \"hi,\" ]", }`, `{"responseText": "say \"hi,\" ]"}`},
		{"[\n  {\"id\": \"v1\"},\n]", "[\n  {\"id\": \"v1\"}]"},
	}

	for _, tt := range tests {
		if got := RepairJSON(tt.input); got != tt.want {
			t.Errorf("RepairJSON(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
