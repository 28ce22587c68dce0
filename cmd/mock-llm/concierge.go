package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/concierge"
	"github.com/kevinbrodzinski/nightlife/venue"
)

// vocabulary is what the rule responder recognizes as filter keywords.
var vocabulary = lo.Uniq(append(append(append([]string{
	"rooftop", "cocktail", "dive", "wine", "jazz", "karaoke", "beer", "patio",
	"dancing", "club", "quiet", "busy", "empty", "light",
}, lo.Map(venue.Categories, func(c string, _ int) string { return strings.ToLower(c) })...),
	venue.Vibes...), venue.Features...))

var (
	catalogCountRe = regexp.MustCompile(`JSON array of (\d+) fictional`)
	catalogCityRe  = regexp.MustCompile(`fictional entertainment venues in ([^.\n]+)\.`)
)

// respond picks a rule-based reply for a request no fixture covers.
func respond(messages []chatMessage) string {
	last := lastUser(messages)
	if m := catalogCountRe.FindStringSubmatch(last); m != nil {
		n, _ := strconv.Atoi(m[1])
		city := "Los Angeles"
		if c := catalogCityRe.FindStringSubmatch(last); c != nil {
			city = strings.TrimSpace(c[1])
		}
		return generateCatalog(n, city)
	}
	return conciergeReply(last)
}

func lastUser(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// conciergeReply maps one user message to a JSON action envelope.
func conciergeReply(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	var action concierge.Action
	switch {
	case lower == "":
		action = concierge.Clarify{ResponseText: "What kind of night are you after?"}
	case strings.HasPrefix(lower, "system:"):
		action = concierge.AskNext{ResponseText: "Nice pick! Want to add another stop, or shall we look at the plan?"}
	case containsAny(lower, "that's it", "thats it", "done", "finish", "looks good"):
		action = concierge.CompletePlan{ResponseText: "Perfect, your night is set. Have fun out there!"}
	case containsAny(lower, "show", "plan", "itinerary"):
		action = concierge.ShowPlan{ResponseText: "Here's what we have so far."}
	default:
		keywords := lo.Filter(vocabulary, func(k string, _ int) bool { return strings.Contains(lower, k) })
		if len(keywords) == 0 {
			action = concierge.Clarify{ResponseText: "Any vibe in mind? Rooftop, cocktails, live music or dancing?"}
			break
		}
		action = concierge.FilterVenues{
			Keywords:     keywords,
			ResponseText: fmt.Sprintf("Let me find some %s spots for you.", strings.Join(keywords, " and ")),
		}
	}

	data, _ := json.Marshal(concierge.ToEnvelope(action))
	return "```json\n" + string(data) + "\n```"
}

func containsAny(s string, subs ...string) bool {
	return lo.SomeBy(subs, func(sub string) bool { return strings.Contains(s, sub) })
}

// mockTags are cycled through the generated venues.
var mockTags = [][]string{
	{"rooftop", "cocktails", "upscale"},
	{"live music", "lively"},
	{"craft beer", "sports", "games"},
	{"dj", "dancing", "energetic"},
	{"cozy", "wine", "romantic"},
	{"divey", "happy hour"},
}

// generateCatalog builds n deterministic venues near the downtown of a
// fixed anchor. Popularity peaks later in the week and later at night.
func generateCatalog(n int, city string) string {
	n = max(1, min(n, 100))
	venues := make([]venue.Venue, n)
	for i := range venues {
		id := i + 1
		popularity := make(venue.Popularity, 7)
		for d := time.Sunday; d <= time.Saturday; d++ {
			day := make(map[string]venue.Level, len(venue.Slots))
			for h, slot := range venue.Slots {
				weekend := 0
				if d == time.Friday || d == time.Saturday {
					weekend = 2
				}
				day[slot.Hour] = venue.Levels[(h/2+weekend+i)%len(venue.Levels)]
			}
			popularity[d.String()] = day
		}
		venues[i] = venue.Venue{
			ID:                   fmt.Sprintf("venue-%d", id),
			Name:                 fmt.Sprintf("Mock Venue %d", id),
			Address:              fmt.Sprintf("%d Main St, %s", 100+id*10, city),
			Latitude:             34.0522 + float64(i%10)*0.01,
			Longitude:            -118.2437 - float64(i/10)*0.01,
			Category:             venue.Categories[i%len(venue.Categories)],
			Description:          "A mock venue for offline planning.",
			Tags:                 mockTags[i%len(mockTags)],
			HistoricalPopularity: popularity,
			BannerImage:          fmt.Sprintf("https://picsum.photos/seed/%d/600/200", id),
		}
	}
	data, _ := json.Marshal(venues)
	return string(data)
}
