package user

import (
	"context"
	"log/slog"

	"github.com/kevinbrodzinski/nightlife/storage"
)

// Data bundles every per-user store.
type Data struct {
	Profiles  *Profiles
	Friends   *Friends
	Favorites *Favorites
	DaySaves  *DaySaves
	Location  *Location
}

// Open loads every per-user store from store. directory lists the users
// that can be befriended; nil uses DefaultDirectory.
func Open(ctx context.Context, store storage.Store, directory []string, logger *slog.Logger) (*Data, error) {
	if logger == nil {
		logger = slog.Default()
	}
	profiles, err := LoadProfiles(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	friends, err := LoadFriends(ctx, store, profiles, directory, logger)
	if err != nil {
		return nil, err
	}
	favorites, err := LoadFavorites(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	daySaves, err := LoadDaySaves(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	location, err := LoadLocation(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	return &Data{
		Profiles:  profiles,
		Friends:   friends,
		Favorites: favorites,
		DaySaves:  daySaves,
		Location:  location,
	}, nil
}
