// Package concierge runs the chat planner: the action vocabulary the agent
// answers in, the interpreter that turns raw replies into actions, and the
// session that applies them to the planner.
package concierge

// Name identifies an agent action on the wire.
type Name string

// The seven actions the agent may answer with.
const (
	ActionFilterVenues       Name = "filter_venues"
	ActionClarify            Name = "clarify"
	ActionAskNext            Name = "ask_next"
	ActionShowPlan           Name = "show_plan"
	ActionCompletePlan       Name = "complete_plan"
	ActionErrorMisunderstood Name = "error_misunderstood"
	ActionNoVenuesFound      Name = "no_venues_found_ack"
)

// Names lists every action in prompt order.
var Names = []Name{
	ActionFilterVenues, ActionClarify, ActionAskNext, ActionShowPlan,
	ActionCompletePlan, ActionErrorMisunderstood, ActionNoVenuesFound,
}

// Action is one agent reply. The concrete types below are the only
// implementations.
type Action interface {
	Name() Name
	Text() string
	action()
}

// FilterVenues asks the planner to suggest venues matching Keywords.
type FilterVenues struct {
	Keywords     []string
	ResponseText string
}

// Clarify asks the user a question.
type Clarify struct{ ResponseText string }

// AskNext acknowledges an added stop and asks what comes next.
type AskNext struct{ ResponseText string }

// ShowPlan asks to display the current itinerary.
type ShowPlan struct{ ResponseText string }

// CompletePlan signals the user is done planning.
type CompletePlan struct{ ResponseText string }

// ErrorMisunderstood reports a request the agent could not act on.
type ErrorMisunderstood struct{ ResponseText string }

// NoVenuesFound acknowledges an empty suggestion list.
type NoVenuesFound struct{ ResponseText string }

func (a FilterVenues) Name() Name       { return ActionFilterVenues }
func (a Clarify) Name() Name            { return ActionClarify }
func (a AskNext) Name() Name            { return ActionAskNext }
func (a ShowPlan) Name() Name           { return ActionShowPlan }
func (a CompletePlan) Name() Name       { return ActionCompletePlan }
func (a ErrorMisunderstood) Name() Name { return ActionErrorMisunderstood }
func (a NoVenuesFound) Name() Name      { return ActionNoVenuesFound }

func (a FilterVenues) Text() string       { return a.ResponseText }
func (a Clarify) Text() string            { return a.ResponseText }
func (a AskNext) Text() string            { return a.ResponseText }
func (a ShowPlan) Text() string           { return a.ResponseText }
func (a CompletePlan) Text() string       { return a.ResponseText }
func (a ErrorMisunderstood) Text() string { return a.ResponseText }
func (a NoVenuesFound) Text() string      { return a.ResponseText }

func (FilterVenues) action()       {}
func (Clarify) action()            {}
func (AskNext) action()            {}
func (ShowPlan) action()           {}
func (CompletePlan) action()       {}
func (ErrorMisunderstood) action() {}
func (NoVenuesFound) action()      {}

// Envelope is the JSON shape of an action.
type Envelope struct {
	Action       Name     `json:"action"`
	Keywords     []string `json:"keywords,omitempty"`
	ResponseText string   `json:"responseText"`
}

// ToEnvelope converts a to its JSON shape.
func ToEnvelope(a Action) Envelope {
	e := Envelope{Action: a.Name(), ResponseText: a.Text()}
	if f, ok := a.(FilterVenues); ok {
		e.Keywords = f.Keywords
	}
	return e
}

// withText builds the variant for name carrying text. FilterVenues is built
// by the interpreter since it needs keywords.
func withText(name Name, text string) (Action, bool) {
	switch name {
	case ActionClarify:
		return Clarify{text}, true
	case ActionAskNext:
		return AskNext{text}, true
	case ActionShowPlan:
		return ShowPlan{text}, true
	case ActionCompletePlan:
		return CompletePlan{text}, true
	case ActionErrorMisunderstood:
		return ErrorMisunderstood{text}, true
	case ActionNoVenuesFound:
		return NoVenuesFound{text}, true
	}
	return nil, false
}
