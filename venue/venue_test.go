package venue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinbrodzinski/nightlife/venue"
	"github.com/kevinbrodzinski/nightlife/venue/venuetest"
)

func TestLevel_Score(t *testing.T) {
	tests := []struct {
		level venue.Level
		score int
		known bool
	}{
		{venue.LevelEmpty, 0, true},
		{venue.LevelLight, 1, true},
		{venue.LevelModerate, 2, true},
		{venue.LevelBusy, 3, true},
		{venue.LevelVeryCrowded, 4, true},
		{venue.LevelUnknown, 0, false},
		{venue.Level("Packed"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.score, tt.level.Score())
			assert.Equal(t, tt.known, tt.level.Known())
		})
	}
}

func TestLevel_Ordering(t *testing.T) {
	for i := 1; i < len(venue.Levels); i++ {
		assert.Greater(t, venue.Levels[i].Score(), venue.Levels[i-1].Score())
	}
}

func TestParseLevel(t *testing.T) {
	l, ok := venue.ParseLevel("very crowded")
	assert.True(t, ok)
	assert.Equal(t, venue.LevelVeryCrowded, l)

	_, ok = venue.ParseLevel("rammed")
	assert.False(t, ok)
}

func TestPopularity_At(t *testing.T) {
	p := venue.Popularity{
		"Friday": {"19": venue.LevelBusy, "20": venue.Level("nonsense")},
	}

	assert.Equal(t, venue.LevelBusy, p.At("Friday", "19"))
	assert.Equal(t, venue.LevelUnknown, p.At("Friday", "21"))
	assert.Equal(t, venue.LevelUnknown, p.At("Friday", "20"))
	assert.Equal(t, venue.LevelUnknown, p.At("Monday", "19"))
	assert.Equal(t, venue.LevelUnknown, venue.Popularity(nil).At("Friday", "19"))
}

func TestDistanceMiles(t *testing.T) {
	la := venue.Coordinate{Lat: 34.0522, Lon: -118.2437}
	sf := venue.Coordinate{Lat: 37.7749, Lon: -122.4194}

	assert.InDelta(t, 0, venue.DistanceMiles(la, la), 1e-9)
	assert.InDelta(t, 347, venue.DistanceMiles(la, sf), 3)
	assert.InDelta(t, venue.DistanceMiles(la, sf), venue.DistanceMiles(sf, la), 1e-9)
}

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       venue.Coordinate
		wantErr bool
	}{
		{"origin", venue.Coordinate{}, false},
		{"bounds", venue.Coordinate{Lat: -90, Lon: 180}, false},
		{"lat too high", venue.Coordinate{Lat: 90.5}, true},
		{"lon too low", venue.Coordinate{Lon: -181}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, venue.ErrInvalidCoordinate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContext(t *testing.T) {
	t.Run("weekday", func(t *testing.T) {
		day, err := venue.Context{Date: venuetest.Friday, Hour: "19"}.Weekday()
		require.NoError(t, err)
		assert.Equal(t, "Friday", day)
	})

	t.Run("start time same day", func(t *testing.T) {
		start, err := venue.Context{Date: venuetest.Friday, Hour: "19"}.StartTime()
		require.NoError(t, err)
		assert.Equal(t, 19, start.Hour())
		assert.Equal(t, 16, start.Day())
	})

	t.Run("after midnight rolls to next day", func(t *testing.T) {
		start, err := venue.Context{Date: venuetest.Friday, Hour: "01"}.StartTime()
		require.NoError(t, err)
		assert.Equal(t, 1, start.Hour())
		assert.Equal(t, 17, start.Day())
	})

	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, venue.Context{Date: venuetest.Friday, Hour: "00"}.Validate())
		assert.ErrorIs(t, venue.Context{Date: "16/08/2024", Hour: "19"}.Validate(), venue.ErrInvalidContext)
		assert.ErrorIs(t, venue.Context{Date: venuetest.Friday, Hour: "12"}.Validate(), venue.ErrInvalidContext)
	})
}

func TestDefaultContext(t *testing.T) {
	zone := time.UTC

	evening := time.Date(2024, 8, 16, 21, 30, 0, 0, zone)
	ctx := venue.DefaultContext(evening, zone)
	assert.Equal(t, "2024-08-16", ctx.Date)
	assert.Equal(t, "21", ctx.Hour)

	noon := time.Date(2024, 8, 16, 12, 0, 0, 0, zone)
	assert.Equal(t, venue.FallbackHour, venue.DefaultContext(noon, zone).Hour)

	late := time.Date(2024, 8, 17, 1, 15, 0, 0, zone)
	assert.Equal(t, "01", venue.DefaultContext(late, zone).Hour)
}

func TestDateLabels(t *testing.T) {
	assert.Equal(t, "Fri, Aug 16", venue.ShortDate(venuetest.Friday))
	assert.Equal(t, "Friday, August 16, 2024", venue.LongDate(venuetest.Friday))
	assert.Equal(t, "garbage", venue.ShortDate("garbage"))

	now := time.Date(2024, 8, 16, 20, 0, 0, 0, time.Local)
	assert.Equal(t, "Today", venue.DayLabel("2024-08-16", now))
	assert.Equal(t, "Tomorrow", venue.DayLabel("2024-08-17", now))
	assert.Equal(t, "Sun, Aug 18", venue.DayLabel("2024-08-18", now))
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "7:00 PM", venue.SlotLabel("19"))
	assert.Equal(t, "12:00 AM (Midnight)", venue.SlotLabel("00"))
	assert.Equal(t, "13", venue.SlotLabel("13"))
	assert.Len(t, venue.Slots, 10)
}

func TestProcess(t *testing.T) {
	busy := venuetest.New("v1", "Nightclub", venue.LevelBusy)
	unknown := venuetest.New("v2", "Dive Bar", venue.LevelUnknown)
	catalog := []venue.Venue{busy, unknown}

	t.Run("derives level and score", func(t *testing.T) {
		out, err := venue.Process(catalog, venue.Context{Date: venuetest.Friday, Hour: "19"})
		require.NoError(t, err)
		require.Len(t, out, 2)

		assert.Equal(t, venue.LevelBusy, out[0].Level)
		assert.Equal(t, 3, out[0].Score)
		assert.True(t, out[0].KnownPopularity())
		assert.Nil(t, out[0].DistanceMiles)

		assert.Equal(t, venue.LevelUnknown, out[1].Level)
		assert.Equal(t, 0, out[1].Score)
		assert.False(t, out[1].KnownPopularity())
	})

	t.Run("computes distance with a location", func(t *testing.T) {
		here := venue.Coordinate{Lat: 34.0522, Lon: -118.2437}
		out, err := venue.Process(catalog, venue.Context{Date: venuetest.Friday, Hour: "19", Location: &here})
		require.NoError(t, err)
		require.NotNil(t, out[0].DistanceMiles)
		assert.InDelta(t, 0, *out[0].DistanceMiles, 1e-6)
	})

	t.Run("no distance for a venue without coordinates", func(t *testing.T) {
		here := venue.Coordinate{Lat: 34.0522, Lon: -118.2437}
		unplaced := venuetest.At(venuetest.New("v3", "Lounge", venue.LevelLight), 0, 0)
		assert.False(t, unplaced.HasCoordinate())

		out, err := venue.Process([]venue.Venue{unplaced, busy}, venue.Context{Date: venuetest.Friday, Hour: "19", Location: &here})
		require.NoError(t, err)
		assert.Nil(t, out[0].DistanceMiles)
		assert.NotNil(t, out[1].DistanceMiles)
	})

	t.Run("does not mutate the catalog", func(t *testing.T) {
		before := busy.HistoricalPopularity["Friday"]["19"]
		_, err := venue.Process(catalog, venue.Context{Date: venuetest.Friday, Hour: "19"})
		require.NoError(t, err)
		assert.Equal(t, before, catalog[0].HistoricalPopularity["Friday"]["19"])
		assert.Equal(t, catalog, venue.Raw(venuetest.Processed(catalog...)))
	})

	t.Run("score in range for every level", func(t *testing.T) {
		for _, level := range append([]venue.Level{venue.LevelUnknown}, venue.Levels...) {
			out := venuetest.Processed(venuetest.New("x", "Bar", level))
			assert.GreaterOrEqual(t, out[0].Score, 0)
			assert.LessOrEqual(t, out[0].Score, 4)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := venue.Process(catalog, venue.Context{Date: "nope", Hour: "19"})
		assert.ErrorIs(t, err, venue.ErrInvalidContext)
	})
}
