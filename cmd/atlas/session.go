package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/atlas/internal/app"
	"github.com/five82/atlas/internal/config"
	"github.com/five82/atlas/internal/state"
)

// openSession loads the config and opens a Session for one command. The
// returned func closes the session and the log file.
func openSession(cmd *cobra.Command) (*app.Session, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, logFile, err := app.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	sess, err := app.Open(cmd.Context(), cfg, app.SessionOptions{Log: log})
	if err != nil {
		_ = logFile.Close()
		return nil, nil, err
	}
	closeAll := func() error {
		return errors.Join(sess.Close(), logFile.Close())
	}
	return sess, closeAll, nil
}

// withSession runs fn with a session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, sess *app.Session, out io.Writer) error) (err error) {
	sess, closeAll, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeAll())
	}()
	return fn(cmd.Context(), sess, cmd.OutOrStdout())
}

// loadCatalog fetches the dataset once. The CLI does not retry.
func loadCatalog(ctx context.Context, sess *app.Session) (state.CatalogSnapshot, error) {
	if err := app.LoadOnce(ctx, sess.Catalog, sess.Client); err != nil {
		return state.CatalogSnapshot{}, fmt.Errorf("fetch countries: %w", err)
	}
	return sess.Catalog.Snapshot(), nil
}
