package concierge

import (
	"fmt"
	"strings"

	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/venue"
)

// DefaultPersona is the agent's name when none is configured.
const DefaultPersona = "Nova"

// PromptParams fills the system instruction.
type PromptParams struct {
	Persona   string
	Day       string // long date, "Friday, August 16, 2024"
	TimeLabel string // slot label, "7:00 PM"
	MaxStops  int
}

// SystemInstruction returns the instruction that fixes the agent's persona and
// its reply vocabulary.
func SystemInstruction(p PromptParams) string {
	if p.Persona == "" {
		p.Persona = DefaultPersona
	}
	if p.MaxStops <= 0 {
		p.MaxStops = itinerary.DefaultMaxStops
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a friendly and expert Nightlife Concierge AI. ", p.Persona)
	fmt.Fprintf(&b, "The user is planning for %s around %s.\n", p.Day, p.TimeLabel)
	b.WriteString("Help them build a night out one stop at a time. ")
	b.WriteString("Answer every message with exactly one of the following actions.\n\n")

	b.WriteString(`1. "filter_venues": the user described what they want. Give 1-3 short lower-case keywords (a vibe, a category or a feature) used to search the venue catalog.
   {"action": "filter_venues", "keywords": ["rooftop", "cocktail"], "responseText": "Great choice! Here are some rooftop spots with great cocktails."}
2. "clarify": you need more detail before searching.
   {"action": "clarify", "responseText": "Are you thinking dinner, drinks or dancing?"}
3. "ask_next": a message starting with "System: User added" tells you a stop was added. Acknowledge it and ask what comes next.
   {"action": "ask_next", "responseText": "Nice pick! What would you like to do after that?"}
4. "show_plan": the user wants to see their plan.
   {"action": "show_plan", "responseText": "Here's your plan so far."}
5. "complete_plan": the user is done planning.
   {"action": "complete_plan", "responseText": "Your night is all set. Have fun!"}
6. "error_misunderstood": the request makes no sense for nightlife planning.
   {"action": "error_misunderstood", "responseText": "Sorry, I didn't quite get that. Could you say it another way?"}
`)
	fmt.Fprintf(&b, `7. "no_venues_found_ack": nothing matched the last search.
   {"action": "no_venues_found_ack", "responseText": "Hmm, I couldn't find exactly that for %s around %s. How about we try a different vibe or activity, or broaden the search?"}
`, p.Day, p.TimeLabel)

	b.WriteString("\nDo not suggest specific venue names yourself; the app finds venues from your keywords. ")
	fmt.Fprintf(&b, "The user can add up to %d stops. ", p.MaxStops)
	b.WriteString("Return your response as raw JSON only, with no markdown and no extra text. Only return a single JSON object.")
	return b.String()
}

// Greeting is the opening message for a new conversation.
func Greeting(persona string, date string) string {
	if persona == "" {
		persona = DefaultPersona
	}
	return fmt.Sprintf("Hi! I'm %s, your personal nightlife concierge for %s. What are you in the mood for tonight?",
		persona, venue.ShortDate(date))
}

// ContextGreeting restarts the conversation after the day or time changed.
func ContextGreeting(c venue.Context) string {
	return fmt.Sprintf("Okay, planning for %s around %s! What's the plan?", venue.ShortDate(c.Date), c.HourLabel())
}

// AddedUpdate is the system update sent after the user adds a suggestion.
func AddedUpdate(v venue.Processed, c venue.Context, prompt string, length int) string {
	return fmt.Sprintf("System: User added %s (category: %s) to the plan for %s. "+
		"This was based on AI suggestion related to: \"%s\". My current itinerary length is %d. What's next?",
		v.Name, v.Category, venue.LongDate(c.Date), prompt, length)
}

// LoadedUpdate is the system update sent after a saved plan is opened.
func LoadedUpdate(c venue.Context, it itinerary.Itinerary) string {
	first := "not set"
	if len(it) > 0 {
		first = it[0].Venue.Name
	}
	return fmt.Sprintf("System: I've loaded my saved plan for %s at %s. The first stop is %s. The full plan is now active.",
		venue.LongDate(c.Date), c.HourLabel(), first)
}

// JoinedUpdate is the system update sent after joining someone's group plan.
func JoinedUpdate(code, creator string, it itinerary.Itinerary) string {
	first := "not set"
	if len(it) > 0 {
		first = fmt.Sprintf("%s at %s", it[0].Venue.Name, it[0].StartLabel())
	}
	return fmt.Sprintf("System: I've joined %s's group plan %s. It has %d stops and the first is %s. The group plan is now active.",
		creator, code, len(it), first)
}
