// Package prefs handles the atlas theme preference.
// The flag is stored in profile scope under "theme" as "dark" or "light".
package prefs

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/storage"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Publisher announces a local mutation. *notify.Notifier implements it.
type Publisher interface {
	Publish(ch notify.Channel)
}

// ThemePreference holds the dark/light flag.
type ThemePreference struct {
	adapter *storage.Adapter
	pub     Publisher
	log     logrus.FieldLogger

	mu         sync.RWMutex
	dark       bool
	envDefault bool
	gen        uint64
	dirty      bool
}

// NewThemePreference hydrates the flag from profile scope. When nothing is
// stored, detectDark supplies the environment default; it is called once,
// here, and never again.
func NewThemePreference(ctx context.Context, adapter *storage.Adapter, pub Publisher, detectDark func() bool, log logrus.FieldLogger) *ThemePreference {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &ThemePreference{adapter: adapter, pub: pub, log: log}
	if detectDark != nil {
		p.envDefault = detectDark()
	}
	p.dark = p.load(ctx)
	return p
}

// Dark reports whether the dark theme is active.
func (p *ThemePreference) Dark() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dark
}

// Name returns "dark" or "light".
func (p *ThemePreference) Name() string {
	return themeName(p.Dark())
}

// SetDark persists the flag and publishes. A write failure is returned after
// the in-memory value has been applied and published.
func (p *ThemePreference) SetDark(ctx context.Context, dark bool) error {
	return p.update(ctx, func(bool) bool { return dark })
}

// Toggle flips the flag.
func (p *ThemePreference) Toggle(ctx context.Context) error {
	return p.update(ctx, func(current bool) bool { return !current })
}

// Reload re-reads the stored flag and reports whether it changed. A flag
// that failed to persist, or that was set while the read was in flight, is
// kept.
func (p *ThemePreference) Reload(ctx context.Context) bool {
	p.mu.RLock()
	gen, dirty := p.gen, p.dirty
	p.mu.RUnlock()
	if dirty {
		return false
	}

	fresh := p.load(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.dirty || fresh == p.dark {
		return false
	}
	p.dark = fresh
	return true
}

func (p *ThemePreference) update(ctx context.Context, next func(bool) bool) error {
	p.mu.Lock()
	p.dark = next(p.dark)
	p.gen++
	err := p.adapter.Write(ctx, storage.ScopeProfile, storage.KeyTheme, themeName(p.dark))
	p.dirty = err != nil
	p.mu.Unlock()

	if err != nil {
		p.log.WithError(err).Warn("theme not persisted; keeping in-memory value")
	}
	if p.pub != nil {
		p.pub.Publish(notify.Theme)
	}
	return err
}

func (p *ThemePreference) load(ctx context.Context) bool {
	stored, ok := storage.Read[string](ctx, p.adapter, storage.ScopeProfile, storage.KeyTheme)
	if !ok {
		return p.envDefault
	}
	switch strings.ToLower(strings.TrimSpace(stored)) {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	default:
		p.log.WithField("theme", stored).Debug("ignoring unknown stored theme")
		return p.envDefault
	}
}

func themeName(dark bool) string {
	if dark {
		return ThemeDark
	}
	return ThemeLight
}
