package prefs

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/storage"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type countingPublisher struct{ theme int }

func (c *countingPublisher) Publish(ch notify.Channel) {
	if ch == notify.Theme {
		c.theme++
	}
}

func newAdapter(profile storage.Backend) *storage.Adapter {
	return storage.NewAdapter(storage.NewMemory(), profile, storage.WithLogger(quietLogger()))
}

func fixed(dark bool) (func() bool, *int) {
	calls := 0
	return func() bool {
		calls++
		return dark
	}, &calls
}

func TestThemePreference_AbsentUsesEnvironmentDefault(t *testing.T) {
	for _, env := range []bool{true, false} {
		detect, calls := fixed(env)
		p := NewThemePreference(context.Background(), newAdapter(storage.NewMemory()), nil, detect, quietLogger())
		if p.Dark() != env {
			t.Fatalf("Dark() = %v, want environment default %v", p.Dark(), env)
		}
		p.Dark()
		p.Reload(context.Background())
		if *calls != 1 {
			t.Fatalf("environment queried %d times, want once at hydration", *calls)
		}
	}
}

func TestThemePreference_StoredValueWins(t *testing.T) {
	ctx := context.Background()
	profile := storage.NewMemory()
	if err := profile.Set(ctx, storage.KeyTheme, `"light"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	detect, _ := fixed(true)
	p := NewThemePreference(ctx, newAdapter(profile), nil, detect, quietLogger())
	if p.Dark() {
		t.Fatalf("Dark() = true, want stored light to win over dark environment")
	}

	if err := profile.Set(ctx, storage.KeyTheme, `"sepia"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	p = NewThemePreference(ctx, newAdapter(profile), nil, detect, quietLogger())
	if !p.Dark() {
		t.Fatalf("Dark() = false, want environment default for unknown stored theme")
	}
}

func TestThemePreference_SetDarkPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	profile := storage.NewMemory()
	adapter := newAdapter(profile)
	pub := &countingPublisher{}
	p := NewThemePreference(ctx, adapter, pub, nil, quietLogger())

	if err := p.SetDark(ctx, true); err != nil {
		t.Fatalf("SetDark returned error: %v", err)
	}
	raw, ok := adapter.ReadRaw(ctx, storage.ScopeProfile, storage.KeyTheme)
	if !ok || raw != `"dark"` {
		t.Fatalf("stored theme = %q (present=%v), want %q", raw, ok, `"dark"`)
	}

	if err := p.Toggle(ctx); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if p.Dark() || p.Name() != ThemeLight {
		t.Fatalf("after Toggle Dark() = %v Name() = %q, want light", p.Dark(), p.Name())
	}
	if pub.theme != 2 {
		t.Fatalf("theme publishes = %d, want 2", pub.theme)
	}

	reopened := NewThemePreference(ctx, newAdapter(profile), nil, func() bool { return true }, quietLogger())
	if reopened.Dark() {
		t.Fatalf("reopened Dark() = true, want persisted light")
	}
}

func TestThemePreference_ReloadReportsChange(t *testing.T) {
	ctx := context.Background()
	profile := storage.NewMemory()
	reader := NewThemePreference(ctx, newAdapter(profile), nil, nil, quietLogger())
	writer := NewThemePreference(ctx, newAdapter(profile), nil, nil, quietLogger())

	if err := writer.SetDark(ctx, true); err != nil {
		t.Fatalf("SetDark returned error: %v", err)
	}
	if !reader.Reload(ctx) || !reader.Dark() {
		t.Fatalf("Reload should pick up the other writer's dark theme")
	}
	if reader.Reload(ctx) {
		t.Fatalf("second Reload reported a change")
	}
}

type failingProfile struct {
	*storage.Memory
}

var errUnavailable = errors.New("storage unavailable")

func (failingProfile) Set(context.Context, string, string) error { return errUnavailable }

func TestThemePreference_WriteFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	pub := &countingPublisher{}
	p := NewThemePreference(ctx, newAdapter(failingProfile{storage.NewMemory()}), pub, nil, quietLogger())

	err := p.SetDark(ctx, true)
	var writeErr *storage.WriteError
	if !errors.As(err, &writeErr) || !errors.Is(err, errUnavailable) {
		t.Fatalf("SetDark error = %v, want *storage.WriteError wrapping errUnavailable", err)
	}
	if !p.Dark() {
		t.Fatalf("Dark() = false, want in-memory value kept after write failure")
	}
	if pub.theme != 1 {
		t.Fatalf("theme publishes = %d, want 1", pub.theme)
	}
}

func TestThemePreference_StorageSignalKeepsUnpersistedFlag(t *testing.T) {
	ctx := context.Background()
	shared := storage.NewMemory()
	adapter := newAdapter(failingProfile{shared})
	bus := notify.New(ctx, notify.Options{Watcher: adapter, PollEvery: time.Hour, Logger: quietLogger()})
	t.Cleanup(bus.Close)
	local := NewThemePreference(ctx, adapter, bus, nil, quietLogger())
	bus.Register(notify.Theme, local)

	signals := make(chan notify.Event, 8)
	defer bus.Subscribe(notify.Theme, func(ev notify.Event) {
		if !ev.Local {
			signals <- ev
		}
	})()

	if err := local.SetDark(ctx, true); !errors.Is(err, errUnavailable) {
		t.Fatalf("SetDark error = %v, want errUnavailable", err)
	}
	other := NewThemePreference(ctx, newAdapter(shared), nil, nil, quietLogger())
	if err := other.SetDark(ctx, false); err != nil {
		t.Fatalf("other SetDark: %v", err)
	}

	select {
	case ev := <-signals:
		if ev.Detector != notify.DetectorStorage {
			t.Fatalf("detector = %v, want storage", ev.Detector)
		}
	case <-time.After(time.Second):
		t.Fatalf("no storage signal for the other instance's write")
	}
	if !local.Dark() {
		t.Fatalf("Dark() = false, want the unpersisted dark flag kept")
	}
}

// stallingProfile parks the first Get after arm until release is closed.
type stallingProfile struct {
	*storage.Memory
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func (b *stallingProfile) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := b.Memory.Get(ctx, key)
	if b.armed.CompareAndSwap(true, false) {
		close(b.reached)
		<-b.release
	}
	return raw, ok, err
}

func TestThemePreference_ReloadDiscardsReadOvertakenByToggle(t *testing.T) {
	ctx := context.Background()
	profile := &stallingProfile{
		Memory:  storage.NewMemory(),
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
	adapter := newAdapter(profile)
	p := NewThemePreference(ctx, adapter, nil, nil, quietLogger())

	profile.armed.Store(true)
	changed := make(chan bool, 1)
	go func() { changed <- p.Reload(ctx) }()
	<-profile.reached

	if err := p.Toggle(ctx); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	close(profile.release)

	if <-changed {
		t.Fatalf("Reload applied a read taken before the toggle")
	}
	if !p.Dark() {
		t.Fatalf("Dark() = false, want the toggled dark flag")
	}
	if stored, _ := storage.Read[string](ctx, adapter, storage.ScopeProfile, storage.KeyTheme); stored != ThemeDark {
		t.Fatalf("stored theme = %q, want %q", stored, ThemeDark)
	}
}
