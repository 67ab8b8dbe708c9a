package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/restcountries"
	"github.com/five82/atlas/internal/state"
)

const (
	defaultRetryInterval = 2 * time.Second
	maxBackoff           = 30 * time.Second
)

// LoaderOptions configure StartLoader.
type LoaderOptions struct {
	Catalog *state.Catalog
	Fetcher restcountries.Fetcher
	// Base is the first retry delay; zero uses two seconds.
	Base time.Duration
	Log  logrus.FieldLogger
}

// StartLoader fetches the country dataset in a background goroutine,
// retrying with exponential backoff until one fetch succeeds or ctx ends.
// The returned channel is closed when the goroutine exits.
func StartLoader(ctx context.Context, opts LoaderOptions) <-chan struct{} {
	base := opts.Base
	if base <= 0 {
		base = defaultRetryInterval
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for failures := 0; ; failures++ {
			err := LoadOnce(ctx, opts.Catalog, opts.Fetcher)
			if err == nil {
				log.WithField("countries", len(opts.Catalog.Snapshot().Countries)).Info("country dataset loaded")
				return
			}
			if ctx.Err() != nil {
				return
			}
			delay := calculateBackoff(failures, base)
			log.WithError(err).WithField("retry_in", delay).Warn("country dataset fetch failed")
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// LoadOnce performs a single fetch and records the outcome in catalog.
func LoadOnce(ctx context.Context, catalog *state.Catalog, fetcher restcountries.Fetcher) error {
	countries, err := fetcher.FetchAll(ctx)
	catalog.Update(countries, err)
	return err
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
