package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/config"
	"github.com/five82/atlas/internal/notify"
	"github.com/five82/atlas/internal/prefs"
	"github.com/five82/atlas/internal/restcountries"
	"github.com/five82/atlas/internal/state"
	"github.com/five82/atlas/internal/storage"
)

// Session is one atlas instance: the stores every consumer shares plus the
// adapter and notifier that keep them in sync with other instances.
type Session struct {
	Config    config.Config
	Log       logrus.FieldLogger
	Adapter   *storage.Adapter
	Notifier  *notify.Notifier
	Filter    *state.FilterStore
	Favorites *state.FavoriteStore
	Theme     *prefs.ThemePreference
	Catalog   *state.Catalog
	Client    *restcountries.Client
}

// SessionOptions tune NewSession.
type SessionOptions struct {
	Log logrus.FieldLogger
	// DetectDark reports the terminal's color scheme; nil uses lipgloss.
	DetectDark func() bool
}

// OpenBackends builds the session and profile backends named by cfg.
func OpenBackends(ctx context.Context, cfg config.Storage, log logrus.FieldLogger) (session, profile storage.Backend, err error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		session, err = storage.NewRedis(ctx, storage.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.RedisNamespace + ":session",
			TTL:       cfg.SessionTTL,
			Logger:    log,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open session backend: %w", err)
		}
	default:
		session = storage.NewMemory()
	}

	switch cfg.ProfileBackend {
	case config.BackendRedis:
		profile, err = storage.NewRedis(ctx, storage.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.RedisNamespace + ":profile",
			Logger:    log,
		})
	case config.BackendMemory:
		profile = storage.NewMemory()
	default:
		profile, err = storage.OpenSQLite(storage.SQLiteOptions{Path: cfg.SQLitePath, Logger: log})
	}
	if err != nil {
		_ = session.Close()
		return nil, nil, fmt.Errorf("open profile backend: %w", err)
	}
	return session, profile, nil
}

// NewSession wires the stores over the given backends. The session owns the
// backends from here on and closes them in Close.
func NewSession(ctx context.Context, cfg config.Config, session, profile storage.Backend, opts SessionOptions) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	detectDark := opts.DetectDark
	if detectDark == nil {
		detectDark = lipgloss.HasDarkBackground
	}

	client, err := restcountries.NewClient(cfg.APIBase)
	if err != nil {
		return nil, fmt.Errorf("init restcountries client: %w", err)
	}

	adapter := storage.NewAdapter(session, profile, storage.WithLogger(log))
	log = log.WithField("origin", adapter.Origin())

	bus := notify.New(ctx, notify.Options{
		Watcher:   adapter,
		PollEvery: cfg.PollInterval,
		Structure: cfg.StructureHeuristic,
		Logger:    log,
	})

	s := &Session{
		Config:    cfg,
		Log:       log,
		Adapter:   adapter,
		Notifier:  bus,
		Filter:    state.NewFilterStore(ctx, adapter, bus, log),
		Favorites: state.NewFavoriteStore(ctx, adapter, bus, log),
		Theme:     prefs.NewThemePreference(ctx, adapter, bus, detectDark, log),
		Catalog:   &state.Catalog{},
		Client:    client,
	}
	bus.Register(notify.Filter, s.Filter)
	bus.Register(notify.Favorites, s.Favorites)
	bus.Register(notify.Theme, s.Theme)
	return s, nil
}

// Open builds the backends from cfg and a Session over them.
func Open(ctx context.Context, cfg config.Config, opts SessionOptions) (*Session, error) {
	session, profile, err := OpenBackends(ctx, cfg.Storage, opts.Log)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(ctx, cfg, session, profile, opts)
	if err != nil {
		return nil, errors.Join(err, session.Close(), profile.Close())
	}
	return s, nil
}

// Close stops the notifier and closes both backends.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.Notifier.Close()
	return s.Adapter.Close()
}
