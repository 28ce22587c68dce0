package venue

import (
	"fmt"
	"strings"
)

// CatalogPrompt asks a model for count fictional venues in city, in the
// catalog JSON schema.
func CatalogPrompt(count int, city string) string {
	return fmt.Sprintf(`Generate a JSON array of %d fictional entertainment venues in %s.
Each venue object must have the following properties:
- "id": a unique string identifier using sequential numbers ("venue-1", "venue-2", ...).
- "name": a creative and plausible venue name (e.g. "The Midnight Bloom", "Electric Owl Cantina").
- "address": a fictional street address in %s.
- "latitude" and "longitude": numbers with 4 decimal places inside the %s metro area.
- "category": one of: %s.
- "description": a short, enticing description (1-2 sentences).
- "tags": an array of 2-4 lowercase tags (e.g. "live music", "craft beer", "rooftop", "dancing", "happy hour", "sports", "cozy", "upscale").
- "historicalPopularity": an object keyed by weekday ("Monday" through "Sunday"). Each day maps the hours "17", "18", "19", "20", "21", "22", "23", "00", "01", "02" to one of the quoted strings "Very Crowded", "Busy", "Moderate", "Light", "Empty". Cover every hour of every day and vary the patterns: a nightclub can be Empty on Tuesday evening and Very Crowded on Saturday at midnight.
- "bannerImage": "https://picsum.photos/seed/N/600/200" where N is the number from the id.

The output MUST be a valid JSON array of these objects. Do not include any text before or after the array.`,
		count, city, city, city, quoteJoin(Categories))
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
