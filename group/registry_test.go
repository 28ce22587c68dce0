package group_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinbrodzinski/nightlife/group"
	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/storage"
	"github.com/kevinbrodzinski/nightlife/storage/storagetest"
	"github.com/kevinbrodzinski/nightlife/venue"
	"github.com/kevinbrodzinski/nightlife/venue/venuetest"
)

var friday7pm = venue.Context{Date: venuetest.Friday, Hour: "19"}

type gauge struct {
	mu sync.Mutex
	n  int
}

func (g *gauge) SetActivePlans(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = n
}

func twoStops(t *testing.T) itinerary.Itinerary {
	t.Helper()
	venues := venuetest.Processed(
		venuetest.New("resto", "Restaurant & Bar", venue.LevelModerate),
		venuetest.New("club", "Nightclub", venue.LevelBusy),
	)
	it, err := itinerary.NewBuilder().Generate([]string{"dinner", "dancing"}, venues, friday7pm)
	require.NoError(t, err)
	require.Len(t, it, 2)
	return it
}

// codes returns a code source that yields the given codes in order.
func codes(seq ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(seq) {
			return "", errors.New("code sequence exhausted")
		}
		i++
		return seq[i-1], nil
	}
}

func newRegistry(t *testing.T, store storage.Store, opts ...group.Option) *group.Registry {
	t.Helper()
	r, err := group.Load(context.Background(), store, opts...)
	require.NoError(t, err)
	return r
}

func TestCreatorLeavingDeletesPlan(t *testing.T) {
	ctx := context.Background()
	g := &gauge{}
	r := newRegistry(t, storage.NewMemoryStore(), group.WithObserver(g))

	p, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"You"}, p.Members)
	assert.Equal(t, group.Presence{Status: group.StatusNotArrived}, p.Presence["You"])
	assert.Equal(t, 1, g.n)

	_, err = r.Join(ctx, p.Code, "Sam")
	require.NoError(t, err)

	deleted, err := r.Leave(ctx, p.Code, "You")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Zero(t, r.Len())
	assert.Zero(t, g.n)

	_, err = r.Get(p.Code)
	assert.ErrorIs(t, err, group.ErrPlanNotFound)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore())

	_, err := r.Create(ctx, "You", nil)
	assert.ErrorIs(t, err, group.ErrEmptyItinerary)

	_, err = r.Create(ctx, "  ", twoStops(t))
	assert.ErrorIs(t, err, group.ErrInvalidMember)

	p, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)
	assert.Len(t, p.Code, group.CodeLength)
	for _, c := range p.Code {
		assert.True(t, strings.ContainsRune(group.CodeAlphabet, c), "unexpected %q in %s", c, p.Code)
	}
	assert.Equal(t, "You", p.Creator)
	assert.Len(t, p.Itinerary, 2)
}

func TestCreate_RemintsOnCollision(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore(), group.WithCodeSource(codes("AAAAAA", "AAAAAA", "BBBBBB")))

	first, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)
	second, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.Code)
	assert.Equal(t, "BBBBBB", second.Code)
}

func TestCreate_CodeExhausted(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore(), group.WithCodeSource(func() (string, error) { return "SAME00", nil }))

	_, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)
	_, err = r.Create(ctx, "You", twoStops(t))
	assert.ErrorIs(t, err, group.ErrCodeExhausted)
	assert.Equal(t, 1, r.Len())
}

func TestJoin(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore(), group.WithCodeSource(codes("ABC123")))

	_, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)

	p, err := r.Join(ctx, " abc123 ", "Sam")
	require.NoError(t, err)
	assert.Equal(t, []string{"You", "Sam"}, p.Members)
	assert.Equal(t, group.StatusNotArrived, p.Presence["Sam"].Status)
	assert.Equal(t, []string{"resto", "club"}, p.Itinerary.VenueIDs())

	again, err := r.Join(ctx, "ABC123", "Sam")
	require.NoError(t, err)
	assert.Equal(t, p.Members, again.Members, "rejoining does not duplicate")

	_, err = r.Join(ctx, "ZZZZZZ", "Sam")
	assert.ErrorIs(t, err, group.ErrPlanNotFound)
	_, err = r.Join(ctx, "ABC123", "")
	assert.ErrorIs(t, err, group.ErrInvalidMember)
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore(), group.WithCodeSource(codes("ABC123")))

	_, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)
	_, err = r.Join(ctx, "ABC123", "Sam")
	require.NoError(t, err)

	_, err = r.Leave(ctx, "ABC123", "Alex")
	assert.ErrorIs(t, err, group.ErrNotMember)

	deleted, err := r.Leave(ctx, "abc123", "Sam")
	require.NoError(t, err)
	assert.False(t, deleted)

	p, err := r.Get("ABC123")
	require.NoError(t, err)
	assert.Equal(t, []string{"You"}, p.Members)
	assert.NotContains(t, p.Presence, "Sam")

	_, err = r.Leave(ctx, "NOPE00", "You")
	assert.ErrorIs(t, err, group.ErrPlanNotFound)
}

func TestLeave_LastMemberDeletesPlan(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	// A plan whose creator already left can only come from older data.
	plans := map[string]group.Plan{
		"OLD001": {
			Code: "OLD001", Itinerary: twoStops(t), Creator: "Gone",
			Members: []string{"Sam"}, Presence: map[string]group.Presence{"Sam": {Status: group.StatusOnTheWay}},
		},
	}
	require.NoError(t, storage.SaveJSON(ctx, store, storage.KeySharedPlans, plans))
	r := newRegistry(t, store)

	deleted, err := r.Leave(ctx, "OLD001", "Sam")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Zero(t, r.Len())
}

func TestNoEmptyPlansAfterLeave(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore())
	members := []string{"A", "B", "C"}

	for i := range 5 {
		p, err := r.Create(ctx, members[i%len(members)], twoStops(t))
		require.NoError(t, err)
		for _, m := range members {
			_, err := r.Join(ctx, p.Code, m)
			require.NoError(t, err)
		}
		for _, m := range members[i%2:] {
			if _, err := r.Leave(ctx, p.Code, m); err != nil {
				require.ErrorIs(t, err, group.ErrPlanNotFound)
			}
			for _, live := range r.List() {
				assert.NotEmpty(t, live.Members, "plan %s", live.Code)
			}
		}
	}
}

func TestUpdatePresence(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore(), group.WithCodeSource(codes("ABC123")))

	_, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)

	p, err := r.UpdatePresence(ctx, "abc123", "You", "resto", group.StatusAtVenue)
	require.NoError(t, err)
	assert.Equal(t, group.Presence{VenueID: "resto", Status: group.StatusAtVenue}, p.Presence["You"])

	p, err = r.UpdatePresence(ctx, "ABC123", "You", "", group.StatusOnTheWay)
	require.NoError(t, err)
	assert.Equal(t, group.Presence{Status: group.StatusOnTheWay}, p.Presence["You"])

	tests := []struct {
		name    string
		member  string
		venueID string
		status  group.Status
		wantErr error
	}{
		{"unknown stop", "You", "elsewhere", group.StatusAtVenue, group.ErrUnknownStop},
		{"bad status", "You", "resto", group.Status("dancing"), group.ErrInvalidStatus},
		{"at venue without venue", "You", "", group.StatusAtVenue, group.ErrInvalidStatus},
		{"not a member", "Sam", "resto", group.StatusAtVenue, group.ErrNotMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.UpdatePresence(ctx, "ABC123", tt.member, tt.venueID, tt.status)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	got, err := r.Get("ABC123")
	require.NoError(t, err)
	assert.Equal(t, group.StatusOnTheWay, got.Presence["You"].Status, "failed updates leave presence unchanged")
}

func TestParseStatus(t *testing.T) {
	for _, s := range group.Statuses {
		got, err := group.ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := group.ParseStatus("asleep")
	assert.ErrorIs(t, err, group.ErrInvalidStatus)
}

func TestPersistenceFailureLeavesRegistryUnchanged(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewFlakyStore()
	r := newRegistry(t, store, group.WithCodeSource(codes("ABC123", "DEF456")))

	_, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)

	boom := errors.New("disk full")
	store.FailWrites(boom)

	_, err = r.Create(ctx, "You", twoStops(t))
	assert.ErrorIs(t, err, boom)
	_, err = r.Join(ctx, "ABC123", "Sam")
	assert.ErrorIs(t, err, boom)
	_, err = r.UpdatePresence(ctx, "ABC123", "You", "club", group.StatusAtVenue)
	assert.ErrorIs(t, err, boom)
	_, err = r.Leave(ctx, "ABC123", "You")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1, r.Len())
	p, err := r.Get("ABC123")
	require.NoError(t, err)
	assert.Equal(t, []string{"You"}, p.Members)
	assert.Equal(t, group.StatusNotArrived, p.Presence["You"].Status)
}

func TestLoad_RoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := newRegistry(t, store, group.WithCodeSource(codes("ABC123")))

	_, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)
	_, err = r.Join(ctx, "ABC123", "Sam")
	require.NoError(t, err)

	reloaded := newRegistry(t, store)
	p, err := reloaded.Get("ABC123")
	require.NoError(t, err)
	assert.Equal(t, []string{"You", "Sam"}, p.Members)
	assert.Equal(t, []string{"resto", "club"}, p.Itinerary.VenueIDs())
}

func TestLoad_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, storage.KeySharedPlans, []byte("{not json")))

	r := newRegistry(t, store)
	assert.Zero(t, r.Len())

	_, err := store.Get(ctx, storage.KeySharedPlans)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConcurrentJoins(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore(), group.WithCodeSource(codes("ABC123")))
	_, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Join(ctx, "ABC123", fmt.Sprintf("friend-%d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := r.Get("ABC123")
	require.NoError(t, err)
	assert.Len(t, p.Members, 21)
	assert.Len(t, p.Presence, 21)
}

func TestNewCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		code, err := group.NewCode()
		require.NoError(t, err)
		require.Len(t, code, group.CodeLength)
		for _, c := range code {
			require.True(t, strings.ContainsRune(group.CodeAlphabet, c))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestShare(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, storage.NewMemoryStore(), group.WithCodeSource(codes("ABC123")))
	p, err := r.Create(ctx, "You", twoStops(t))
	require.NoError(t, err)

	assert.Equal(t, "nightlife://join/ABC123", group.JoinURL("abc123"))

	text := group.ShareText(p)
	assert.Contains(t, text, "ABC123")
	assert.Contains(t, text, "7:00 PM Venue resto")
	assert.Contains(t, text, "Venue club")

	png, err := group.QRCode(p, 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}
