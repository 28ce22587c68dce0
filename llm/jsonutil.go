package llm

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns for pulling JSON out of model replies.
var (
	// fencePattern matches the body of a markdown code fence, any language tag.
	fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \\t]*\\n?(.*?)\\n?[ \\t]*```")
	// fenced array
	jsonArrayBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*```")
	// first [ to last ]
	jsonArrayPattern = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// ExtractFenced returns the trimmed body of the first code fence in content.
func ExtractFenced(content string) (string, bool) {
	m := fencePattern.FindStringSubmatch(content)
	if len(m) < 2 {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	return body, body != ""
}

// ExtractBraced returns the span from the first '{' to the last '}'.
func ExtractBraced(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// ExtractJSON extracts a JSON object from a reply: fenced body if it holds
// an object, else the outermost braces. The result is repaired. Returns ""
// when no object is present.
func ExtractJSON(content string) string {
	if body, ok := ExtractFenced(content); ok {
		if obj, ok := ExtractBraced(body); ok {
			return RepairJSON(obj)
		}
	}
	if obj, ok := ExtractBraced(content); ok {
		return RepairJSON(obj)
	}
	return ""
}

// ExtractJSONArray finds the venue array in a catalog reply.
func ExtractJSONArray(content string) string {
	if matches := jsonArrayBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		return RepairJSON(matches[1])
	}
	if match := jsonArrayPattern.FindString(content); match != "" {
		return RepairJSON(match)
	}
	return ""
}

// RepairJSON strips // line comments outside strings and trailing commas,
// the two artifacts models most often add to otherwise valid JSON.
func RepairJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return dropTrailingCommas(strings.Join(lines, "\n"))
}

// dropTrailingCommas removes a comma, and the whitespace after it, that
// directly precedes ] or }. Commas inside string values are kept.
func dropTrailingCommas(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == ',':
			j := i + 1
			for j < len(raw) && strings.IndexByte(" \t\r\n", raw[j]) >= 0 {
				j++
			}
			if j < len(raw) && (raw[j] == ']' || raw[j] == '}') {
				i = j - 1
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// stripLineComment drops a trailing // comment unless it sits inside a string.
//
//	"keywords": ["rooftop"], // vibe   → "keywords": ["rooftop"],
//	"url": "http://example.com"        → unchanged
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}

	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
