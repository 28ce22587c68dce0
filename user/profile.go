package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kevinbrodzinski/nightlife/storage"
)

// ErrInvalidUsername is returned for a username shorter than MinUsernameLength.
var ErrInvalidUsername = errors.New("invalid username")

const (
	// MinUsernameLength is the shortest accepted username after trimming.
	MinUsernameLength = 3
	// DefaultName stands in for a user without a profile.
	DefaultName = "You"
)

// Profile is the signed-in user.
type Profile struct {
	Username string `json:"username"`
}

// Profiles persists the current profile.
type Profiles struct {
	rec *record[*Profile]
}

// LoadProfiles reads the stored profile, if any.
func LoadProfiles(ctx context.Context, store storage.Store, logger *slog.Logger) (*Profiles, error) {
	rec, err := loadRecord[*Profile](ctx, store, storage.KeyProfile, nil, logger)
	if err != nil {
		return nil, err
	}
	return &Profiles{rec: rec}, nil
}

// Current returns the profile and whether one is set.
func (p *Profiles) Current() (Profile, bool) {
	cur := p.rec.get()
	if cur == nil || cur.Username == "" {
		return Profile{}, false
	}
	return *cur, true
}

// DisplayName returns the username, or DefaultName when signed out.
func (p *Profiles) DisplayName() string {
	if cur, ok := p.Current(); ok {
		return cur.Username
	}
	return DefaultName
}

// SetUsername validates and stores name.
func (p *Profiles) SetUsername(ctx context.Context, name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, fmt.Errorf("%w: username cannot be empty", ErrInvalidUsername)
	}
	if len([]rune(name)) < MinUsernameLength {
		return Profile{}, fmt.Errorf("%w: must be at least %d characters", ErrInvalidUsername, MinUsernameLength)
	}
	next := &Profile{Username: name}
	if err := p.rec.update(ctx, func(*Profile) (*Profile, error) { return next, nil }); err != nil {
		return Profile{}, err
	}
	return *next, nil
}

// SignOut removes the stored profile.
func (p *Profiles) SignOut(ctx context.Context) error {
	return p.rec.reset(ctx, nil)
}
