package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/atlas/internal/restcountries"
)

// CatalogSnapshot is the latest country dataset available to consumers.
type CatalogSnapshot struct {
	Countries           []restcountries.Country
	Loaded              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has failed on consecutive loads.
func (s CatalogSnapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Lookup returns the country with the given code from the snapshot.
func (s CatalogSnapshot) Lookup(code string) (restcountries.Country, bool) {
	for _, c := range s.Countries {
		if c.CCA3 == code {
			return c, true
		}
	}
	return restcountries.Country{}, false
}

// Catalog coordinates concurrent updates to the dataset snapshot.
type Catalog struct {
	mu       sync.RWMutex
	snapshot CatalogSnapshot
}

// Update replaces the stored dataset. When err is non-nil the previous
// countries are kept and the error is recorded for the UI.
func (c *Catalog) Update(countries []restcountries.Country, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.snapshot.LastError = err
		c.snapshot.LastUpdated = time.Now()
		c.snapshot.ConsecutiveFailures++
		return
	}

	c.snapshot.Countries = cloneCountries(countries)
	c.snapshot.Loaded = true
	c.snapshot.LastError = nil
	c.snapshot.LastUpdated = time.Now()
	c.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (c *Catalog) Snapshot() CatalogSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.snapshot
	snap.Countries = cloneCountries(c.snapshot.Countries)
	if c.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", c.snapshot.LastError)
	}
	return snap
}

func cloneCountries(items []restcountries.Country) []restcountries.Country {
	if len(items) == 0 {
		return nil
	}
	dup := make([]restcountries.Country, len(items))
	copy(dup, items)
	return dup
}
