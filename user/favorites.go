package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/storage"
	"github.com/kevinbrodzinski/nightlife/venue"
)

// ErrNotFavorite is returned when toggling notifications for a venue that
// is not a favorite.
var ErrNotFavorite = errors.New("venue is not a favorite")

// Favorite is one favorited venue. New favorites notify by default.
type Favorite struct {
	ID     string `json:"id"`
	Notify bool   `json:"notify"`
}

// FavoriteVenue joins a favorite with its venue for display.
type FavoriteVenue struct {
	venue.Processed
	Notify bool `json:"isNotificationEnabled"`
}

// Favorites is the persisted favorites list.
type Favorites struct {
	rec *record[[]Favorite]
}

// LoadFavorites reads the favorites list.
func LoadFavorites(ctx context.Context, store storage.Store, logger *slog.Logger) (*Favorites, error) {
	rec, err := loadRecord(ctx, store, storage.KeyFavorites, []Favorite{}, logger)
	if err != nil {
		return nil, err
	}
	return &Favorites{rec: rec}, nil
}

// List returns the favorites in the order they were added.
func (f *Favorites) List() []Favorite {
	return slices.Clone(f.rec.get())
}

// IsFavorite reports whether id is a favorite.
func (f *Favorites) IsFavorite(id string) bool {
	return slices.ContainsFunc(f.rec.get(), func(fav Favorite) bool { return fav.ID == id })
}

// Toggle adds or removes id and reports whether it is now a favorite.
func (f *Favorites) Toggle(ctx context.Context, id string) (bool, error) {
	var added bool
	err := f.rec.update(ctx, func(favs []Favorite) ([]Favorite, error) {
		if i := slices.IndexFunc(favs, func(fav Favorite) bool { return fav.ID == id }); i >= 0 {
			added = false
			return slices.Delete(slices.Clone(favs), i, i+1), nil
		}
		added = true
		return append(slices.Clone(favs), Favorite{ID: id, Notify: true}), nil
	})
	return added, err
}

// ToggleNotify flips the notification flag of a favorite.
func (f *Favorites) ToggleNotify(ctx context.Context, id string) (bool, error) {
	var notify bool
	err := f.rec.update(ctx, func(favs []Favorite) ([]Favorite, error) {
		i := slices.IndexFunc(favs, func(fav Favorite) bool { return fav.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFavorite, id)
		}
		next := slices.Clone(favs)
		next[i].Notify = !next[i].Notify
		notify = next[i].Notify
		return next, nil
	})
	return notify, err
}

// Clear removes every favorite.
func (f *Favorites) Clear(ctx context.Context) error {
	return f.rec.update(ctx, func([]Favorite) ([]Favorite, error) { return []Favorite{}, nil })
}

// Details returns the favorited venues among venues, busiest first.
func (f *Favorites) Details(venues []venue.Processed) []FavoriteVenue {
	settings := lo.KeyBy(f.rec.get(), func(fav Favorite) string { return fav.ID })
	matched := lo.Filter(venues, func(v venue.Processed, _ int) bool {
		_, ok := settings[v.ID]
		return ok
	})
	venue.SortByScore(matched)
	return lo.Map(matched, func(v venue.Processed, _ int) FavoriteVenue {
		return FavoriteVenue{Processed: v, Notify: settings[v.ID].Notify}
	})
}
