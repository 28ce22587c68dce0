package concierge

import (
	"encoding/json"
	"strings"

	"github.com/kevinbrodzinski/nightlife/llm"
)

// Fallback names why a reply could not be used as the agent sent it.
type Fallback string

const (
	FallbackNone          Fallback = ""
	FallbackBlank         Fallback = "blank"
	FallbackNotJSON       Fallback = "not_json"
	FallbackParse         Fallback = "parse"
	FallbackStructure     Fallback = "structure"
	FallbackKeywords      Fallback = "keywords"
	FallbackUnknownAction Fallback = "unknown_action"
)

// Canned replies used when the agent's reply is unusable.
const (
	MsgBlankReply        = "Sorry, I didn't catch that. What are you in the mood for tonight?"
	MsgStructureMismatch = "I'm not sure how to respond to that. Can we try something else?"
	MsgBadKeywords       = "I had a bit of trouble with that request. Could you try rephrasing?"
)

const (
	// echoLimit bounds the raw prefix quoted back after a parse failure.
	echoLimit = 70
	// verbatimLimit bounds a non-JSON reply passed through as a question.
	verbatimLimit = 600
)

// Interpret turns a raw agent reply into an action. It never panics and the
// returned action always has non-empty text.
func Interpret(raw string) Action {
	a, _ := Decode(raw)
	return a
}

// Decode is Interpret that also reports which fallback, if any, was taken.
//
// The JSON candidate is the body of a code fence, else the span from the
// first '{' to the last '}'. A reply with neither is passed through as a
// Clarify. The candidate is repaired before parsing.
func Decode(raw string) (Action, Fallback) {
	trimmed := strings.TrimSpace(raw)

	candidate, ok := llm.ExtractFenced(trimmed)
	if !ok {
		candidate, ok = llm.ExtractBraced(trimmed)
	}
	if !ok {
		if trimmed == "" {
			return Clarify{MsgBlankReply}, FallbackBlank
		}
		return Clarify{truncate(trimmed, verbatimLimit)}, FallbackNotJSON
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(llm.RepairJSON(candidate)), &fields); err != nil || fields == nil {
		return Clarify{parseFailure(trimmed)}, FallbackParse
	}

	name, _ := fields["action"].(string)
	text, textOK := fields["responseText"].(string)
	name = strings.TrimSpace(name)
	if name == "" || !textOK || strings.TrimSpace(text) == "" {
		return ErrorMisunderstood{MsgStructureMismatch}, FallbackStructure
	}

	if Name(name) == ActionFilterVenues {
		keywords, ok := stringSlice(fields["keywords"])
		if !ok {
			return ErrorMisunderstood{MsgBadKeywords}, FallbackKeywords
		}
		return FilterVenues{Keywords: keywords, ResponseText: text}, FallbackNone
	}

	if a, ok := withText(Name(name), text); ok {
		return a, FallbackNone
	}
	return Clarify{text}, FallbackUnknownAction
}

func parseFailure(raw string) string {
	return `I tried to understand, but there was a formatting issue. The response started with: "` +
		truncate(raw, echoLimit) + `...". Let's try that again.`
}

// stringSlice accepts a JSON array whose elements are all strings.
func stringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
