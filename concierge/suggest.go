package concierge

import (
	"slices"
	"strings"

	"github.com/kevinbrodzinski/nightlife/venue"
)

// MaxSuggestions caps the venues offered for one filter_venues reply.
const MaxSuggestions = 3

// Suggest matches keywords against venue name, category and tags by
// case-insensitive substring. Venues currently Empty are dropped unless the
// user asked for a quiet place. Results are ordered by score, highest first.
func Suggest(venues []venue.Processed, keywords []string) []venue.Processed {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			terms = append(terms, k)
		}
	}
	if len(terms) == 0 {
		return nil
	}

	keepEmpty := (len(terms) == 1 && terms[0] == "busy") ||
		slices.ContainsFunc(terms, func(t string) bool { return t == "empty" || t == "quiet" || t == "light" })

	var out []venue.Processed
	for _, v := range venues {
		if v.Level == venue.LevelEmpty && !keepEmpty {
			continue
		}
		if matchesAny(v, terms) {
			out = append(out, v)
		}
	}
	venue.SortByScore(out)
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func matchesAny(v venue.Processed, terms []string) bool {
	name := strings.ToLower(v.Name)
	category := strings.ToLower(v.Category)
	for _, t := range terms {
		if strings.Contains(name, t) || strings.Contains(category, t) {
			return true
		}
		for _, tag := range v.Tags {
			if strings.Contains(strings.ToLower(tag), t) {
				return true
			}
		}
	}
	return false
}
