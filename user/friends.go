package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/kevinbrodzinski/nightlife/storage"
)

var (
	ErrSelfFriend    = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriend = errors.New("already a friend")
	ErrUnknownUser   = errors.New("user not found")
)

// DefaultDirectory is the set of discoverable users when none is configured.
var DefaultDirectory = []string{
	"NightOwlNina", "PartyPete", "ChillCharlie", "RooftopRita",
	"VenueValerie", "GrooveGary", "SocialSam", "EventEric",
}

// Friends is the persisted friend list.
type Friends struct {
	rec       *record[[]string]
	directory []string
	profiles  *Profiles
}

// LoadFriends reads the friend list. Only names in directory can be added;
// a nil directory uses DefaultDirectory.
func LoadFriends(ctx context.Context, store storage.Store, profiles *Profiles, directory []string, logger *slog.Logger) (*Friends, error) {
	rec, err := loadRecord(ctx, store, storage.KeyFriends, []string{}, logger)
	if err != nil {
		return nil, err
	}
	if directory == nil {
		directory = DefaultDirectory
	}
	return &Friends{rec: rec, directory: slices.Clone(directory), profiles: profiles}, nil
}

// Directory lists the discoverable users.
func (f *Friends) Directory() []string {
	return slices.Clone(f.directory)
}

// List returns the friends in the order they were added.
func (f *Friends) List() []string {
	return slices.Clone(f.rec.get())
}

// IsFriend reports whether name is a friend.
func (f *Friends) IsFriend(name string) bool {
	return slices.Contains(f.rec.get(), name)
}

// Add befriends name.
func (f *Friends) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if f.profiles != nil {
		if cur, ok := f.profiles.Current(); ok && cur.Username == name {
			return ErrSelfFriend
		}
	}
	if !slices.Contains(f.directory, name) {
		return fmt.Errorf("%w: %q", ErrUnknownUser, name)
	}
	return f.rec.update(ctx, func(friends []string) ([]string, error) {
		if slices.Contains(friends, name) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyFriend, name)
		}
		return append(slices.Clone(friends), name), nil
	})
}

// Remove unfriends name. Removing a non-friend is a no-op.
func (f *Friends) Remove(ctx context.Context, name string) error {
	return f.rec.update(ctx, func(friends []string) ([]string, error) {
		return lo.Without(friends, name), nil
	})
}
