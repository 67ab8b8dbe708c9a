package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WriteError reports a persistence failure. The value the caller tried to
// store is still authoritative in memory; only durability was lost.
type WriteError struct {
	Scope Scope
	Key   string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s/%s: %v", e.Scope, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Adapter is the typed gateway over the session and profile backends.
// It holds no cached state: every call round-trips to a backend.
type Adapter struct {
	session Backend
	profile Backend
	origin  string
	log     logrus.FieldLogger
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for read and announce failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// WithOrigin overrides the generated instance origin ID.
func WithOrigin(origin string) Option {
	return func(a *Adapter) {
		if origin != "" {
			a.origin = origin
		}
	}
}

// NewAdapter builds an Adapter over the two backends. Each adapter gets a
// unique origin so change signals can skip the instance that wrote them.
func NewAdapter(session, profile Backend, opts ...Option) *Adapter {
	a := &Adapter{
		session: session,
		profile: profile,
		origin:  uuid.NewString(),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Origin identifies this adapter in change signals.
func (a *Adapter) Origin() string {
	return a.origin
}

// ReadRaw returns the stored text for key. Backend failures are logged and
// read as absent.
func (a *Adapter) ReadRaw(ctx context.Context, scope Scope, key string) (string, bool) {
	backend, err := a.backend(scope)
	if err != nil {
		a.log.WithError(err).WithField("key", key).Error("read from unknown scope")
		return "", false
	}
	raw, ok, err := backend.Get(ctx, key)
	if err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"scope": scope.String(),
			"key":   key,
		}).Warn("storage read failed")
		return "", false
	}
	return raw, ok
}

// Read decodes the JSON stored under key into T. It reports false when the
// key is absent or the stored text does not decode; a corrupt entry is left in
// place for the next write to overwrite.
func Read[T any](ctx context.Context, a *Adapter, scope Scope, key string) (T, bool) {
	var value T
	raw, ok := a.ReadRaw(ctx, scope, key)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"scope": scope.String(),
			"key":   key,
		}).Debug("ignoring undecodable entry")
		var zero T
		return zero, false
	}
	return value, true
}

// Entry is one key and value for WriteAll.
type Entry struct {
	Key   string
	Value any
}

// Write JSON-encodes value and stores it under key. Failures are returned as
// *WriteError. Profile writes are announced to other instances.
func (a *Adapter) Write(ctx context.Context, scope Scope, key string, value any) error {
	return a.WriteAll(ctx, scope, Entry{Key: key, Value: value})
}

// WriteAll stores entries in order and announces a single change, under the
// last key, once every entry is stored. Nothing is written when an entry fails
// to encode. A failed Set stops the batch without an announcement.
func (a *Adapter) WriteAll(ctx context.Context, scope Scope, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	encoded := make([]string, len(entries))
	for i, e := range entries {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return &WriteError{Scope: scope, Key: e.Key, Err: fmt.Errorf("encode: %w", err)}
		}
		encoded[i] = string(raw)
	}
	backend, err := a.backend(scope)
	if err != nil {
		return &WriteError{Scope: scope, Key: entries[0].Key, Err: err}
	}
	for i, e := range entries {
		if err := backend.Set(ctx, e.Key, encoded[i]); err != nil {
			return &WriteError{Scope: scope, Key: e.Key, Err: err}
		}
	}
	a.announce(ctx, scope, entries[len(entries)-1].Key)
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (a *Adapter) Remove(ctx context.Context, scope Scope, key string) error {
	backend, err := a.backend(scope)
	if err != nil {
		return &WriteError{Scope: scope, Key: key, Err: err}
	}
	if err := backend.Delete(ctx, key); err != nil {
		return &WriteError{Scope: scope, Key: key, Err: err}
	}
	a.announce(ctx, scope, key)
	return nil
}

// Watch calls fn for profile changes made by other instances. It returns
// ErrNoSignal when the profile backend cannot announce changes.
func (a *Adapter) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	signaler, ok := a.profile.(Signaler)
	if !ok {
		return func() {}, ErrNoSignal
	}
	return signaler.Watch(ctx, func(change Change) {
		if change.Origin == a.origin {
			return
		}
		fn(change)
	})
}

// Close closes both backends, once each.
func (a *Adapter) Close() error {
	var err error
	if a.session != nil {
		err = a.session.Close()
	}
	if a.profile != nil && a.profile != a.session {
		if perr := a.profile.Close(); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

func (a *Adapter) announce(ctx context.Context, scope Scope, key string) {
	if scope != ScopeProfile {
		return
	}
	signaler, ok := a.profile.(Signaler)
	if !ok {
		return
	}
	if err := signaler.Announce(ctx, Change{Key: key, Origin: a.origin}); err != nil {
		a.log.WithError(err).WithField("key", key).Warn("change announce failed")
	}
}

func (a *Adapter) backend(scope Scope) (Backend, error) {
	switch scope {
	case ScopeSession:
		if a.session != nil {
			return a.session, nil
		}
	case ScopeProfile:
		if a.profile != nil {
			return a.profile, nil
		}
	default:
		return nil, fmt.Errorf("unknown scope %d", int(scope))
	}
	return nil, fmt.Errorf("no %s backend configured", scope)
}
