package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/five82/atlas/internal/config"
	"github.com/five82/atlas/internal/ui"
)

// Options configure the atlas application.
type Options struct {
	ConfigPath string
}

// Run boots the atlas TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logFile, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	sess, err := Open(ctx, cfg, SessionOptions{Log: log})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, sess.Close())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	StartLoader(ctx, LoaderOptions{
		Catalog: sess.Catalog,
		Fetcher: sess.Client,
		Log:     sess.Log,
	})

	sess.Log.WithField("theme", sess.Theme.Name()).Info("atlas started")
	return ui.Run(ui.Options{
		Context:      ctx,
		Catalog:      sess.Catalog,
		Filter:       sess.Filter,
		Favorites:    sess.Favorites,
		Theme:        sess.Theme,
		Notifier:     sess.Notifier,
		Client:       sess.Client,
		DarkPalette:  cfg.DarkPalette,
		LightPalette: cfg.LightPalette,
		Log:          sess.Log,
	})
}
