package storage

import (
	"context"
	"errors"
)

// Scope selects the durability class of a persisted entry.
type Scope int

const (
	// ScopeSession entries end with the browsing session.
	ScopeSession Scope = iota
	// ScopeProfile entries survive restarts.
	ScopeProfile
)

func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Persisted keys shared by every atlas instance.
const (
	KeyFavorites      = "favoriteCountries"
	KeyTheme          = "theme"
	KeySelectedRegion = "selectedRegion"
	KeySearchTerm     = "searchTerm"
)

var (
	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("storage: backend closed")
	// ErrNoSignal is returned by Watch when the profile backend cannot
	// announce changes to other instances.
	ErrNoSignal = errors.New("storage: backend has no change signal")
)

// Backend is a raw text key-value store.
type Backend interface {
	// Get returns the stored text and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Change reports that an instance wrote or removed a key.
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Signaler is implemented by backends that can tell other instances about
// writes. Watchers receive every change, including their own; callers filter
// by origin.
type Signaler interface {
	Announce(ctx context.Context, change Change) error
	Watch(ctx context.Context, fn func(Change)) (stop func(), err error)
}
