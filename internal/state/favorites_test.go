package state

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/restcountries"
	"github.com/five82/atlas/internal/storage"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// recordingPublisher counts publishes per channel.
type recordingPublisher struct {
	mu    sync.Mutex
	calls []notify.Channel
}

func (p *recordingPublisher) Publish(ch notify.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ch)
}

func (p *recordingPublisher) count(ch notify.Channel) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c == ch {
			n++
		}
	}
	return n
}

// brokenBackend fails every write.
type brokenBackend struct {
	*storage.Memory
}

var errQuota = errors.New("quota exceeded")

func (b brokenBackend) Set(context.Context, string, string) error { return errQuota }

// flakyBackend fails writes while fail is set.
type flakyBackend struct {
	*storage.Memory
	fail atomic.Bool
}

func (b *flakyBackend) Set(ctx context.Context, key, value string) error {
	if b.fail.Load() {
		return errQuota
	}
	return b.Memory.Set(ctx, key, value)
}

// stallingBackend parks the first Get after arm until release is closed. The
// value returned is the one read before parking.
type stallingBackend struct {
	*storage.Memory
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func newStallingBackend() *stallingBackend {
	return &stallingBackend{
		Memory:  storage.NewMemory(),
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *stallingBackend) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := b.Memory.Get(ctx, key)
	if b.armed.CompareAndSwap(true, false) {
		close(b.reached)
		<-b.release
	}
	return raw, ok, err
}

type backends struct {
	session *storage.Memory
	profile *storage.Memory
}

func newBackends() backends {
	return backends{session: storage.NewMemory(), profile: storage.NewMemory()}
}

func (b backends) adapter() *storage.Adapter {
	return storage.NewAdapter(b.session, b.profile, storage.WithLogger(quietLogger()))
}

func newFavorites(adapter *storage.Adapter, pub Publisher) *FavoriteStore {
	return NewFavoriteStore(context.Background(), adapter, pub, quietLogger())
}

func rawFavorites(t *testing.T, a *storage.Adapter) string {
	t.Helper()
	raw, ok := a.ReadRaw(context.Background(), storage.ScopeSession, storage.KeyFavorites)
	require.True(t, ok, "favorites key should be present")
	return raw
}

func TestFavoriteStore_EndToEndUSA(t *testing.T) {
	ctx := context.Background()
	adapter := newBackends().adapter()
	pub := &recordingPublisher{}
	favs := newFavorites(adapter, pub)

	assert.Empty(t, favs.All())

	require.NoError(t, favs.Toggle(ctx, "USA"))
	assert.Equal(t, []string{"USA"}, favs.All())
	assert.JSONEq(t, `["USA"]`, rawFavorites(t, adapter))

	require.NoError(t, favs.Toggle(ctx, "USA"))
	assert.Empty(t, favs.All())
	assert.JSONEq(t, `[]`, rawFavorites(t, adapter))

	assert.Equal(t, 2, pub.count(notify.Favorites))
}

func TestFavoriteStore_ToggleInvolution(t *testing.T) {
	ctx := context.Background()
	for _, start := range [][]string{nil, {"FRA"}, {"FRA", "JPN"}} {
		adapter := newBackends().adapter()
		favs := newFavorites(adapter, nil)
		for _, code := range start {
			require.NoError(t, favs.Add(ctx, code))
		}
		before := favs.All()

		for _, x := range []string{"FRA", "BRA"} {
			require.NoError(t, favs.Toggle(ctx, x))
			assert.NotEqual(t, before, favs.All(), "odd toggle count flips membership of %s", x)
			require.NoError(t, favs.Toggle(ctx, x))
			assert.Equal(t, before, favs.All(), "even toggle count restores membership of %s", x)
		}
	}
}

func TestFavoriteStore_NormalizesAndRejects(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	favs := newFavorites(newBackends().adapter(), pub)

	require.NoError(t, favs.Toggle(ctx, " deu "))
	assert.True(t, favs.Contains("DEU"))
	assert.True(t, favs.Contains("deu"))

	for _, bad := range []string{"", "DE", "DEUT", "D3U", "ÄBC"} {
		assert.ErrorIs(t, favs.Toggle(ctx, bad), ErrInvalidCode, bad)
		assert.ErrorIs(t, favs.Remove(ctx, bad), ErrInvalidCode, bad)
		assert.False(t, favs.Contains(bad))
	}
	assert.Equal(t, []string{"DEU"}, favs.All())
	assert.Equal(t, 1, pub.count(notify.Favorites))
}

func TestFavoriteStore_RemoveNonMemberIsNoop(t *testing.T) {
	ctx := context.Background()
	adapter := newBackends().adapter()
	pub := &recordingPublisher{}
	favs := newFavorites(adapter, pub)

	require.NoError(t, favs.Remove(ctx, "CAN"))
	assert.Zero(t, pub.count(notify.Favorites))
	_, ok := adapter.ReadRaw(ctx, storage.ScopeSession, storage.KeyFavorites)
	assert.False(t, ok, "no write for a no-op remove")

	require.NoError(t, favs.Add(ctx, "CAN"))
	require.NoError(t, favs.Add(ctx, "CAN"))
	require.NoError(t, favs.Remove(ctx, "CAN"))
	assert.Equal(t, 2, pub.count(notify.Favorites))
	assert.Zero(t, favs.Count())
}

func TestFavoriteStore_HydrationDropsInvalidMembers(t *testing.T) {
	ctx := context.Background()
	b := newBackends()
	require.NoError(t, b.session.Set(ctx, storage.KeyFavorites, `["usa","bogus","FRA","12"]`))

	favs := newFavorites(b.adapter(), nil)
	assert.Equal(t, []string{"FRA", "USA"}, favs.All())

	require.NoError(t, b.session.Set(ctx, storage.KeyFavorites, `{not json`))
	fresh := newFavorites(b.adapter(), nil)
	assert.Empty(t, fresh.All(), "undecodable entry hydrates as empty")
}

func TestFavoriteStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	b := newBackends()
	first := newFavorites(b.adapter(), nil)
	second := newFavorites(b.adapter(), nil)

	// Both hydrate the empty set before either writes.
	require.Empty(t, first.All())
	require.Empty(t, second.All())

	require.NoError(t, first.Toggle(ctx, "USA"))
	require.NoError(t, second.Toggle(ctx, "FRA"))

	// The second writer's full set replaces the first writer's; USA is lost.
	assert.JSONEq(t, `["FRA"]`, rawFavorites(t, b.adapter()))
	assert.Equal(t, []string{"USA"}, first.All(), "first writer keeps its stale in-memory set until reload")

	assert.True(t, first.Reload(ctx))
	assert.Equal(t, []string{"FRA"}, first.All())
	assert.False(t, first.Reload(ctx), "reloading an unchanged set reports no change")
}

func TestFavoriteStore_WriteFailureKeepsMemoryAndPublishes(t *testing.T) {
	ctx := context.Background()
	session := brokenBackend{Memory: storage.NewMemory()}
	adapter := storage.NewAdapter(session, storage.NewMemory(), storage.WithLogger(quietLogger()))
	pub := &recordingPublisher{}
	favs := newFavorites(adapter, pub)

	err := favs.Toggle(ctx, "JPN")
	require.Error(t, err)
	var writeErr *storage.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, storage.ScopeSession, writeErr.Scope)
	assert.ErrorIs(t, err, errQuota)

	assert.True(t, favs.Contains("JPN"), "in-memory value stays authoritative")
	assert.Equal(t, 1, pub.count(notify.Favorites))
}

func TestFavoriteStore_SelectAndSearch(t *testing.T) {
	ctx := context.Background()
	favs := newFavorites(newBackends().adapter(), nil)
	countries := []restcountries.Country{
		{CCA3: "JPN", Name: restcountries.Name{Common: "Japan"}, Region: "Asia"},
		{CCA3: "DEU", Name: restcountries.Name{Common: "Germany"}, Region: "Europe"},
		{CCA3: "KEN", Name: restcountries.Name{Common: "Kenya"}, Region: "Africa"},
		{CCA3: "FRA", Name: restcountries.Name{Common: "France"}, Region: "Europe"},
	}
	for _, code := range []string{"FRA", "JPN", "DEU"} {
		require.NoError(t, favs.Add(ctx, code))
	}

	codes := func(cs []restcountries.Country) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.CCA3)
		}
		return out
	}

	assert.Equal(t, []string{"JPN", "DEU", "FRA"}, codes(favs.Select(countries)))
	assert.Equal(t, []string{"DEU", "FRA"}, codes(favs.SearchFavorites(countries, "europe")))
	assert.Equal(t, []string{"JPN"}, codes(favs.SearchFavorites(countries, "JAP")))
	assert.Equal(t, []string{"JPN", "DEU", "FRA"}, codes(favs.SearchFavorites(countries, "  ")))
	assert.Empty(t, favs.SearchFavorites(countries, "kenya"))
}

func TestFavoriteStore_ReloadBeforeHydrationIsQuiet(t *testing.T) {
	ctx := context.Background()
	b := newBackends()
	require.NoError(t, b.session.Set(ctx, storage.KeyFavorites, `["USA"]`))
	favs := newFavorites(b.adapter(), nil)

	assert.False(t, favs.Reload(ctx))
	assert.Equal(t, []string{"USA"}, favs.All())
}

func TestFavoriteStore_PollKeepsUnpersistedSet(t *testing.T) {
	ctx := context.Background()
	session := &flakyBackend{Memory: storage.NewMemory()}
	session.fail.Store(true)
	adapter := storage.NewAdapter(session, storage.NewMemory(), storage.WithLogger(quietLogger()))
	bus := notify.New(ctx, notify.Options{PollEvery: 5 * time.Millisecond, Logger: quietLogger()})
	t.Cleanup(bus.Close)
	favs := NewFavoriteStore(ctx, adapter, bus, quietLogger())
	bus.Register(notify.Favorites, favs)

	var polled atomic.Int32
	defer bus.Subscribe(notify.Favorites, func(ev notify.Event) {
		if ev.Detector == notify.DetectorPoll {
			polled.Add(1)
		}
	})()
	require.True(t, bus.Active())

	var writeErr *storage.WriteError
	require.ErrorAs(t, favs.Toggle(ctx, "JPN"), &writeErr)

	assert.Never(t, func() bool { return !favs.Contains("JPN") }, 100*time.Millisecond, 5*time.Millisecond,
		"the poll must not revert a set that failed to persist")
	assert.Zero(t, polled.Load())

	// The next successful write persists the whole in-memory set.
	session.fail.Store(false)
	require.NoError(t, favs.Toggle(ctx, "DEU"))
	assert.Equal(t, `["DEU","JPN"]`, rawFavorites(t, adapter))

	// Once persisted, the poll picks up other writers again.
	require.NoError(t, session.Set(ctx, storage.KeyFavorites, `["FRA"]`))
	require.Eventually(t, func() bool {
		return favs.Contains("FRA") && !favs.Contains("JPN")
	}, time.Second, 5*time.Millisecond)
	assert.Positive(t, polled.Load())
}

func TestFavoriteStore_ReloadDiscardsReadOvertakenByToggle(t *testing.T) {
	ctx := context.Background()
	session := newStallingBackend()
	adapter := storage.NewAdapter(session, storage.NewMemory(), storage.WithLogger(quietLogger()))
	pub := &recordingPublisher{}
	favs := newFavorites(adapter, pub)
	require.Empty(t, favs.All())

	session.armed.Store(true)
	changed := make(chan bool, 1)
	go func() { changed <- favs.Reload(ctx) }()
	<-session.reached

	// The reload has read the empty set and is parked; the toggle lands first.
	require.NoError(t, favs.Toggle(ctx, "USA"))
	close(session.release)

	assert.False(t, <-changed, "a read older than the toggle must be dropped")
	assert.Equal(t, []string{"USA"}, favs.All())
	assert.Equal(t, `["USA"]`, rawFavorites(t, adapter))
	assert.Equal(t, 1, pub.count(notify.Favorites))
	assert.False(t, favs.Reload(ctx))
}
