package venue

// Processed is a venue with its per-context derived fields.
type Processed struct {
	Venue

	// Level is the popularity for the active weekday and hour.
	Level Level `json:"currentPopularity"`
	// Score is Level's ordinal, 0 for unknown.
	Score int `json:"currentPopularityScore"`
	// DistanceMiles is nil when no location resolves or the venue has no
	// coordinates.
	DistanceMiles *float64 `json:"distance,omitempty"`
}

// KnownPopularity reports whether the catalog had an entry for the context.
func (p Processed) KnownPopularity() bool {
	return p.Level.Known()
}

// Process derives popularity and distance for every venue. The input slice
// and its nested tables are never modified.
func Process(venues []Venue, ctx Context) ([]Processed, error) {
	weekday, err := ctx.Weekday()
	if err != nil {
		return nil, err
	}

	out := make([]Processed, len(venues))
	for i, v := range venues {
		level := v.HistoricalPopularity.At(weekday, ctx.Hour)
		p := Processed{
			Venue: v,
			Level: level,
			Score: level.Score(),
		}
		if ctx.Location != nil && v.HasCoordinate() {
			d := DistanceMiles(*ctx.Location, v.Coordinate())
			p.DistanceMiles = &d
		}
		out[i] = p
	}
	return out, nil
}

// Raw strips derived fields.
func Raw(processed []Processed) []Venue {
	out := make([]Venue, len(processed))
	for i, p := range processed {
		out[i] = p.Venue
	}
	return out
}
