package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
)

// replyFileRe splits "mock-concierge.2.json" into model "mock-concierge"
// and turn 2. A file without a turn number is the model's fallback reply.
var replyFileRe = regexp.MustCompile(`^(.+?)(?:\.(\d+))?\.(json|txt)$`)

// script is the scripted reply sequence of one model. Numbered turns are
// served in order; once they run out the fallback repeats. With neither,
// the rule responder answers.
type script struct {
	turns    []string
	fallback string
	hasBase  bool
}

// reply returns the scripted content for the 0-based call n.
func (s *script) reply(n int) (string, bool) {
	switch {
	case n < len(s.turns):
		return s.turns[n], true
	case s.hasBase:
		return s.fallback, true
	case len(s.turns) > 0:
		return s.turns[len(s.turns)-1], true
	}
	return "", false
}

func (s *script) len() int {
	n := len(s.turns)
	if s.hasBase {
		n++
	}
	return n
}

type numberedReply struct {
	turn    int
	content string
}

// loadScripts reads every *.json and *.txt reply under fsys. JSON files must
// be valid JSON; text files are served verbatim, which is how fenced or
// malformed agent replies are scripted.
func loadScripts(fsys fs.FS) (map[string]*script, error) {
	matches, err := doublestar.Glob(fsys, "**/*.{json,txt}")
	if err != nil {
		return nil, fmt.Errorf("glob replies: %w", err)
	}

	scripts := make(map[string]*script)
	numbered := make(map[string][]numberedReply)
	for _, name := range matches {
		m := replyFileRe.FindStringSubmatch(path.Base(name))
		if m == nil {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if m[3] == "json" && !json.Valid(data) {
			return nil, fmt.Errorf("invalid JSON in %s", name)
		}

		model := m[1]
		s, ok := scripts[model]
		if !ok {
			s = &script{}
			scripts[model] = s
		}
		if m[2] == "" {
			s.fallback, s.hasBase = string(data), true
			continue
		}
		turn, _ := strconv.Atoi(m[2])
		numbered[model] = append(numbered[model], numberedReply{turn: turn, content: string(data)})
	}

	for model, replies := range numbered {
		slices.SortFunc(replies, func(a, b numberedReply) int { return cmp.Compare(a.turn, b.turn) })
		for _, r := range replies {
			scripts[model].turns = append(scripts[model].turns, r.content)
		}
	}
	return scripts, nil
}
