// Package venue holds the venue catalog model and the popularity, distance
// and ranking pipeline that derives per-context views of it.
package venue

import "strings"

// Level is a categorical crowd-density state.
type Level string

// Popularity levels in ascending order. LevelUnknown marks a missing entry.
const (
	LevelUnknown     Level = ""
	LevelEmpty       Level = "Empty"
	LevelLight       Level = "Light"
	LevelModerate    Level = "Moderate"
	LevelBusy        Level = "Busy"
	LevelVeryCrowded Level = "Very Crowded"
)

// Levels lists the known levels, index equals score.
var Levels = []Level{LevelEmpty, LevelLight, LevelModerate, LevelBusy, LevelVeryCrowded}

// Known reports whether l is one of the five recorded levels.
func (l Level) Known() bool {
	switch l {
	case LevelEmpty, LevelLight, LevelModerate, LevelBusy, LevelVeryCrowded:
		return true
	}
	return false
}

// Score returns the ordinal 0-4. Unknown levels rank as 0.
func (l Level) Score() int {
	for i, known := range Levels {
		if l == known {
			return i
		}
	}
	return 0
}

// String returns the display form; unknown levels render as "Unknown".
func (l Level) String() string {
	if !l.Known() {
		return "Unknown"
	}
	return string(l)
}

// ParseLevel matches s case-insensitively against the known levels.
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, true
		}
	}
	return LevelUnknown, false
}

// Popularity maps weekday name ("Monday") to hour slot ("17".."02") to level.
type Popularity map[string]map[string]Level

// At returns the recorded level, or LevelUnknown when absent.
func (p Popularity) At(weekday, hour string) Level {
	day, ok := p[weekday]
	if !ok {
		return LevelUnknown
	}
	level, ok := day[hour]
	if !ok || !level.Known() {
		return LevelUnknown
	}
	return level
}

// Venue is one catalog record.
type Venue struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Address              string     `json:"address"`
	Latitude             float64    `json:"latitude"`
	Longitude            float64    `json:"longitude"`
	Category             string     `json:"category"`
	Description          string     `json:"description"`
	Tags                 []string   `json:"tags"`
	HistoricalPopularity Popularity `json:"historicalPopularity"`
	BannerImage          string     `json:"bannerImage,omitempty"`
}

// Coordinate returns the venue location.
func (v Venue) Coordinate() Coordinate {
	return Coordinate{Lat: v.Latitude, Lon: v.Longitude}
}

// HasCoordinate is false for catalog entries that left latitude and
// longitude at zero.
func (v Venue) HasCoordinate() bool {
	return v.Latitude != 0 || v.Longitude != 0
}

// HasTag reports whether any tag equals tag, ignoring case.
func (v Venue) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Category names used by the catalog generator.
var Categories = []string{
	"Sports Bar", "Cocktail Lounge", "Dive Bar", "Restaurant & Bar", "Live Music Club",
	"Rooftop Bar", "Gastropub", "Wine Bar", "Nightclub", "Brewery",
}

// Vibes are the vibe tags offered as filters.
var Vibes = []string{"chill", "energetic", "upscale", "divey", "romantic", "cozy", "lively", "sports"}

// Features are the feature tags offered as filters.
var Features = []string{"live music", "dj", "happy hour", "outdoor seating", "craft beer", "full menu", "games"}

// DistanceOptions are the offered distance thresholds in miles; 0 means any.
var DistanceOptions = []float64{0, 1, 3, 5}
