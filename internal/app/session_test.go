package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/config"
	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/storage"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.Storage.ProfileBackend = config.BackendMemory
	return cfg
}

func newTestSession(t *testing.T, session, profile storage.Backend, dark bool) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), testConfig(), session, profile, SessionOptions{
		Log:        quietLogger(),
		DetectDark: func() bool { return dark },
	})
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewSession_UsesEnvironmentThemeDefault(t *testing.T) {
	s := newTestSession(t, storage.NewMemory(), storage.NewMemory(), true)
	t.Cleanup(func() { _ = s.Close() })

	if !s.Theme.Dark() {
		t.Fatalf("Theme.Dark() = false, want environment default true")
	}
	if !s.Filter.State().Empty() {
		t.Fatalf("Filter.State() = %+v, want empty", s.Filter.State())
	}
	if s.Favorites.Count() != 0 {
		t.Fatalf("Favorites.Count() = %d, want 0", s.Favorites.Count())
	}
}

func TestSessions_ThemePropagatesAcrossInstances(t *testing.T) {
	session, profile := storage.NewMemory(), storage.NewMemory()
	a := newTestSession(t, session, profile, false)
	b := newTestSession(t, session, profile, false)
	t.Cleanup(func() {
		a.Notifier.Close()
		_ = b.Close()
	})

	var mu sync.Mutex
	var events []notify.Event
	unsubscribe := b.Notifier.Subscribe(notify.Theme, func(ev notify.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer unsubscribe()

	if err := a.Theme.SetDark(context.Background(), true); err != nil {
		t.Fatalf("SetDark returned error: %v", err)
	}

	waitFor(t, "theme event in second session", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) > 0
	})
	if !b.Theme.Dark() {
		t.Fatalf("second session Theme.Dark() = false, want true")
	}
	mu.Lock()
	first := events[0]
	mu.Unlock()
	if first.Local {
		t.Fatalf("event = %+v, want a remote event", first)
	}
}

func TestSessions_FavoritesConvergeByPolling(t *testing.T) {
	session, profile := storage.NewMemory(), storage.NewMemory()
	a := newTestSession(t, session, profile, false)
	b := newTestSession(t, session, profile, false)
	t.Cleanup(func() {
		a.Notifier.Close()
		_ = b.Close()
	})

	if b.Favorites.Contains("USA") {
		t.Fatalf("USA already a favorite before toggle")
	}
	unsubscribe := b.Notifier.Subscribe(notify.Favorites, func(notify.Event) {})
	defer unsubscribe()

	if err := a.Favorites.Toggle(context.Background(), "usa"); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	waitFor(t, "favorites to converge", func() bool {
		return b.Favorites.Contains("USA")
	})
}

func TestOpenBackends_SQLiteProfile(t *testing.T) {
	cfg := config.Default().Storage
	cfg.SQLitePath = filepath.Join(t.TempDir(), "profile.db")

	session, profile, err := OpenBackends(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("OpenBackends returned error: %v", err)
	}
	defer session.Close()
	defer profile.Close()

	if _, ok := session.(*storage.Memory); !ok {
		t.Fatalf("session backend = %T, want *storage.Memory", session)
	}
	if _, ok := profile.(*storage.SQLite); !ok {
		t.Fatalf("profile backend = %T, want *storage.SQLite", profile)
	}

	ctx := context.Background()
	if err := profile.Set(ctx, storage.KeyTheme, `"light"`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, ok, err := profile.Get(ctx, storage.KeyTheme)
	if err != nil || !ok || got != `"light"` {
		t.Fatalf("Get = %q, %v, %v; want stored value", got, ok, err)
	}
}

func TestNewLogger_WritesToConfiguredFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "nested", "atlas.log")
	cfg.LogLevel = "debug"

	log, closer, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	defer closer.Close()
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		t.Fatalf("debug level not enabled")
	}

	cfg.LogLevel = "loud"
	if _, _, err := NewLogger(cfg); err == nil {
		t.Fatalf("NewLogger accepted unknown level")
	}
}
