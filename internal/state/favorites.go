package state

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/restcountries"
	"github.com/five82/atlas/internal/storage"
)

// FavoriteStore holds the set of favorited country codes, persisted to
// session scope as one JSON array. It hydrates on first access.
//
// Two stores sharing a session backend do not coordinate: whichever persists
// last overwrites the other's set in full. After a failed write the in-memory
// set stays authoritative and reloads leave it alone until a write succeeds.
type FavoriteStore struct {
	ctx     context.Context
	adapter *storage.Adapter
	pub     Publisher
	log     logrus.FieldLogger

	mu       sync.RWMutex
	codes    map[string]struct{}
	hydrated bool
	gen      uint64 // bumped by every applied mutation
	dirty    bool   // last write failed
}

// NewFavoriteStore builds a store; ctx bounds the lazy hydration read.
func NewFavoriteStore(ctx context.Context, adapter *storage.Adapter, pub Publisher, log logrus.FieldLogger) *FavoriteStore {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FavoriteStore{ctx: ctx, adapter: adapter, pub: pub, log: log}
}

// All returns the favorite codes in ascending order.
func (s *FavoriteStore) All() []string {
	s.hydrate()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCodes(s.codes)
}

// Contains reports whether id is a favorite. Invalid ids are never members.
func (s *FavoriteStore) Contains(id string) bool {
	code, err := NormalizeCode(id)
	if err != nil {
		return false
	}
	s.hydrate()
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codes[code]
	return ok
}

// Count returns the number of favorites.
func (s *FavoriteStore) Count() int {
	s.hydrate()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes)
}

// Toggle adds id when absent and removes it when present, then persists the
// whole set and publishes. A write failure is returned after the in-memory
// change has been applied and published.
func (s *FavoriteStore) Toggle(ctx context.Context, id string) error {
	code, err := NormalizeCode(id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(codes map[string]struct{}) bool {
		if _, ok := codes[code]; ok {
			delete(codes, code)
		} else {
			codes[code] = struct{}{}
		}
		return true
	})
}

// Add makes id a favorite. Adding an existing member is a no-op.
func (s *FavoriteStore) Add(ctx context.Context, id string) error {
	code, err := NormalizeCode(id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(codes map[string]struct{}) bool {
		if _, ok := codes[code]; ok {
			return false
		}
		codes[code] = struct{}{}
		return true
	})
}

// Remove drops id. Removing a non-member is a no-op: nothing is written or
// published.
func (s *FavoriteStore) Remove(ctx context.Context, id string) error {
	code, err := NormalizeCode(id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(codes map[string]struct{}) bool {
		if _, ok := codes[code]; !ok {
			return false
		}
		delete(codes, code)
		return true
	})
}

// Reload re-reads the persisted set and reports whether it replaced the
// in-memory one. The read is discarded when a local mutation landed while it
// was in flight, or while the last write is unpersisted.
func (s *FavoriteStore) Reload(ctx context.Context) bool {
	s.mu.RLock()
	gen, dirty := s.gen, s.dirty
	s.mu.RUnlock()
	if dirty {
		return false
	}

	fresh := s.load(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.dirty {
		return false
	}
	if !s.hydrated {
		s.codes = fresh
		s.hydrated = true
		return false
	}
	if sameCodes(s.codes, fresh) {
		return false
	}
	s.codes = fresh
	return true
}

// Select returns the favorite countries in dataset order.
func (s *FavoriteStore) Select(countries []restcountries.Country) []restcountries.Country {
	s.hydrate()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]restcountries.Country, 0, len(s.codes))
	for _, c := range countries {
		if _, ok := s.codes[c.CCA3]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SearchFavorites returns the favorites whose common name or region contains
// query, case-insensitively. An empty query returns every favorite.
func (s *FavoriteStore) SearchFavorites(countries []restcountries.Country, query string) []restcountries.Country {
	favs := s.Select(countries)
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return favs
	}
	out := favs[:0]
	for _, c := range favs {
		if strings.Contains(strings.ToLower(c.Name.Common), needle) ||
			strings.Contains(strings.ToLower(c.Region), needle) {
			out = append(out, c)
		}
	}
	return out
}

func (s *FavoriteStore) mutate(ctx context.Context, apply func(map[string]struct{}) bool) error {
	s.hydrate()

	s.mu.Lock()
	if !apply(s.codes) {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	codes := sortedCodes(s.codes)
	err := s.adapter.Write(ctx, storage.ScopeSession, storage.KeyFavorites, codes)
	s.dirty = err != nil
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).WithField("count", len(codes)).Warn("favorites not persisted; keeping in-memory set")
	}
	publish(s.pub, notify.Favorites)
	return err
}

func (s *FavoriteStore) hydrate() {
	s.mu.RLock()
	done := s.hydrated
	s.mu.RUnlock()
	if done {
		return
	}

	fresh := s.load(s.ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		s.codes = fresh
		s.hydrated = true
	}
}

// load reads the stored array, dropping members that are not valid codes.
func (s *FavoriteStore) load(ctx context.Context) map[string]struct{} {
	codes := make(map[string]struct{})
	stored, ok := storage.Read[[]string](ctx, s.adapter, storage.ScopeSession, storage.KeyFavorites)
	if !ok {
		return codes
	}
	for _, id := range stored {
		code, err := NormalizeCode(id)
		if err != nil {
			s.log.WithField("code", id).Debug("dropping invalid stored favorite")
			continue
		}
		codes[code] = struct{}{}
	}
	return codes
}

func sortedCodes(codes map[string]struct{}) []string {
	out := make([]string, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func sameCodes(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for code := range a {
		if _, ok := b[code]; !ok {
			return false
		}
	}
	return true
}
