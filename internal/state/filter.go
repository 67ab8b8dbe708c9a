package state

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/restcountries"
	"github.com/five82/atlas/internal/storage"
)

// Filter is the search criteria applied to the dataset.
type Filter struct {
	SearchTerm string
	Region     string
}

// Empty reports whether the filter passes everything through.
func (f Filter) Empty() bool {
	return f.SearchTerm == "" && f.Region == ""
}

// FilterStore holds the search term and region, persisted to profile scope.
// Both fields are written together so other instances never reload half an
// update.
type FilterStore struct {
	adapter *storage.Adapter
	pub     Publisher
	log     logrus.FieldLogger

	mu     sync.RWMutex
	filter Filter
	gen    uint64
	dirty  bool
}

// NewFilterStore hydrates the filter from profile scope. Absent or invalid
// entries default to empty.
func NewFilterStore(ctx context.Context, adapter *storage.Adapter, pub Publisher, log logrus.FieldLogger) *FilterStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &FilterStore{adapter: adapter, pub: pub, log: log}
	s.filter = s.load(ctx)
	return s
}

// State returns the current filter.
func (s *FilterStore) State() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetSearchTerm replaces the search term. A write failure is returned after
// the in-memory change has been applied and published.
func (s *FilterStore) SetSearchTerm(ctx context.Context, text string) error {
	return s.update(ctx, func(f *Filter) { f.SearchTerm = text })
}

// SetRegion replaces the region. Values outside Regions return
// ErrUnknownRegion and change nothing.
func (s *FilterStore) SetRegion(ctx context.Context, region string) error {
	if !ValidRegion(region) {
		return ErrUnknownRegion
	}
	return s.update(ctx, func(f *Filter) { f.Region = region })
}

// Clear resets both fields.
func (s *FilterStore) Clear(ctx context.Context) error {
	return s.update(ctx, func(f *Filter) { *f = Filter{} })
}

// DeriveView filters countries by region (exact) and then by a
// case-insensitive substring of the common name, preserving input order.
func (s *FilterStore) DeriveView(countries []restcountries.Country) []restcountries.Country {
	return ApplyFilter(s.State(), countries)
}

// ApplyFilter is DeriveView for an explicit filter.
func ApplyFilter(f Filter, countries []restcountries.Country) []restcountries.Country {
	needle := strings.ToLower(f.SearchTerm)
	out := make([]restcountries.Country, 0, len(countries))
	for _, c := range countries {
		if f.Region != "" && c.Region != f.Region {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Name.Common), needle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Reload re-reads both keys and reports whether the filter changed. Like
// FavoriteStore.Reload it keeps an unpersisted or newer local value.
func (s *FilterStore) Reload(ctx context.Context) bool {
	s.mu.RLock()
	gen, dirty := s.gen, s.dirty
	s.mu.RUnlock()
	if dirty {
		return false
	}

	fresh := s.load(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.dirty || fresh == s.filter {
		return false
	}
	s.filter = fresh
	return true
}

func (s *FilterStore) update(ctx context.Context, mutate func(*Filter)) error {
	s.mu.Lock()
	mutate(&s.filter)
	s.gen++
	next := s.filter
	err := s.adapter.WriteAll(ctx, storage.ScopeProfile,
		storage.Entry{Key: storage.KeySearchTerm, Value: next.SearchTerm},
		storage.Entry{Key: storage.KeySelectedRegion, Value: next.Region},
	)
	s.dirty = err != nil
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Warn("filter not persisted; keeping in-memory value")
	}
	publish(s.pub, notify.Filter)
	return err
}

func (s *FilterStore) load(ctx context.Context) Filter {
	var f Filter
	if term, ok := storage.Read[string](ctx, s.adapter, storage.ScopeProfile, storage.KeySearchTerm); ok {
		f.SearchTerm = term
	}
	if region, ok := storage.Read[string](ctx, s.adapter, storage.ScopeProfile, storage.KeySelectedRegion); ok {
		if ValidRegion(region) {
			f.Region = region
		} else {
			s.log.WithField("region", region).Debug("ignoring stored region outside the known set")
		}
	}
	return f
}
