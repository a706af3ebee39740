package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
)

// Resolver answers "which channels may this notification use" for a user.
type Resolver struct {
	prefs storage.PreferenceStore
}

// NewResolver creates a Resolver over the preference store.
func NewResolver(prefs storage.PreferenceStore) *Resolver {
	return &Resolver{prefs: prefs}
}

// Resolve returns the channel set for one user and type. Users without a
// preference record get every channel; a store error other than not-found
// also falls back to deliver-everywhere so a cache or DB blip never
// silently drops notifications.
func (r *Resolver) Resolve(ctx context.Context, userID string, typ notification.Type) (notification.ChannelSet, error) {
	pref, err := r.prefs.GetPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notification.AllChannels(), nil
		}
		return notification.AllChannels(), err
	}
	return pref.Resolve(typ), nil
}

// Get returns the stored preference, or the permissive default when none
// exists.
func (r *Resolver) Get(ctx context.Context, userID string) (notification.Preference, error) {
	pref, err := r.prefs.GetPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notification.Preference{UserID: userID}, nil
		}
		return notification.Preference{}, err
	}
	return pref, nil
}

// Update validates and persists a preference matrix.
func (r *Resolver) Update(ctx context.Context, pref notification.Preference) (notification.Preference, error) {
	if pref.UserID == "" {
		return notification.Preference{}, fmt.Errorf("user id is required")
	}
	for _, m := range []map[notification.Type]bool{pref.InApp, pref.Push, pref.Email} {
		for t := range m {
			if !t.Valid() {
				return notification.Preference{}, fmt.Errorf("unknown notification type %q", t)
			}
		}
	}
	return r.prefs.UpsertPreference(ctx, pref)
}
