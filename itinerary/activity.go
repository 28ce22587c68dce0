// Package itinerary builds time-sequenced night-out plans from activity
// intents or individual venue picks, and keeps the planner's session state.
package itinerary

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Activity is a kind of outing the builder can match venues against.
type Activity struct {
	Value           string        `json:"value"`
	Label           string        `json:"label"`
	RelatedCategory string        `json:"relatedCategory,omitempty"`
	Duration        time.Duration `json:"duration"`
}

// Activities is the fixed intent table offered to the user.
var Activities = []Activity{
	{Value: "dinner", Label: "Dinner", RelatedCategory: "Restaurant & Bar", Duration: 90 * time.Minute},
	{Value: "drinks", Label: "Drinks", RelatedCategory: "Bar", Duration: 60 * time.Minute},
	{Value: "cocktails", Label: "Cocktails", RelatedCategory: "Cocktail Lounge", Duration: 90 * time.Minute},
	{Value: "live music", Label: "Live Music", RelatedCategory: "Live Music Club", Duration: 120 * time.Minute},
	{Value: "dancing", Label: "Dancing", RelatedCategory: "Nightclub", Duration: 120 * time.Minute},
	{Value: "show", Label: "Show/Event", Duration: 120 * time.Minute},
	{Value: "chill bar", Label: "Chill Bar", RelatedCategory: "Bar", Duration: 90 * time.Minute},
	{Value: "rooftop", Label: "Rooftop", RelatedCategory: "Rooftop Bar", Duration: 90 * time.Minute},
	{Value: "brewery", Label: "Brewery Visit", RelatedCategory: "Brewery", Duration: 75 * time.Minute},
	{Value: "sports bar", Label: "Watch Game", RelatedCategory: "Sports Bar", Duration: 120 * time.Minute},
}

var titleCaser = cases.Title(language.English)

// LookupActivity finds a table entry by value or label, ignoring case.
func LookupActivity(s string) (Activity, bool) {
	s = strings.TrimSpace(s)
	for _, a := range Activities {
		if strings.EqualFold(a.Value, s) || strings.EqualFold(a.Label, s) {
			return a, true
		}
	}
	return Activity{}, false
}

// ActivityFor returns the table entry for intent. An unknown intent becomes
// an ad-hoc activity keyed by the lower-cased intent with a title-cased label
// and no duration, so the builder applies its default.
func ActivityFor(intent string) Activity {
	if a, ok := LookupActivity(intent); ok {
		return a
	}
	value := strings.ToLower(strings.TrimSpace(intent))
	return Activity{Value: value, Label: titleCaser.String(value)}
}

// terms are the lower-cased words matched against venue categories and tags.
func (a Activity) terms() []string {
	label := strings.ToLower(a.Label)
	terms := []string{strings.ToLower(a.Value), label}
	for _, w := range strings.Fields(label) {
		if w != label {
			terms = append(terms, w)
		}
	}
	return terms
}

// activityForCategory picks the activity whose related category is category,
// falling back to one whose label or value is label.
func activityForCategory(category, label string) (Activity, bool) {
	for _, a := range Activities {
		if a.RelatedCategory != "" && strings.EqualFold(a.RelatedCategory, category) {
			return a, true
		}
	}
	return LookupActivity(label)
}
