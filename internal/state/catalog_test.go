package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/atlas/internal/restcountries"
)

func TestCatalog_UpdateAndSnapshotClone(t *testing.T) {
	var c Catalog

	countries := []restcountries.Country{
		{CCA3: "DEU", Name: restcountries.Name{Common: "Germany"}},
		{CCA3: "GHA", Name: restcountries.Name{Common: "Ghana"}},
	}

	before := time.Now()
	c.Update(countries, nil)

	snap := c.Snapshot()
	if !snap.Loaded || len(snap.Countries) != 2 || snap.Countries[0].CCA3 != "DEU" {
		t.Fatalf("snapshot = %#v, want 2 loaded countries", snap)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	snap.Countries[0].CCA3 = "XXX"
	if got := c.Snapshot().Countries[0].CCA3; got != "DEU" {
		t.Fatalf("Snapshot should clone countries; got %q want DEU", got)
	}

	gha, ok := c.Snapshot().Lookup("GHA")
	if !ok || gha.Name.Common != "Ghana" {
		t.Fatalf("Lookup(GHA) = %#v, %v", gha, ok)
	}
	if _, ok := c.Snapshot().Lookup("USA"); ok {
		t.Fatalf("Lookup(USA) found a country that was never loaded")
	}
}

func TestCatalog_UpdateErrorKeepsPreviousData(t *testing.T) {
	var c Catalog

	c.Update([]restcountries.Country{{CCA3: "FRA"}}, nil)

	origErr := errors.New("boom")
	c.Update(nil, origErr)

	snap := c.Snapshot()
	if !snap.Loaded || len(snap.Countries) != 1 || snap.Countries[0].CCA3 != "FRA" {
		t.Fatalf("countries changed on error: got %#v", snap.Countries)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError should wrap the original error")
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestCatalog_ConsecutiveFailures(t *testing.T) {
	var c Catalog

	if c.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false before any load")
	}

	c.Update(nil, errors.New("fail 1"))
	if snap := c.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after one failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	c.Update(nil, errors.New("fail 2"))
	if snap := c.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after two failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
	if c.Snapshot().Loaded {
		t.Fatal("Loaded = true, want false when nothing ever loaded")
	}

	c.Update([]restcountries.Country{{CCA3: "USA"}}, nil)
	if snap := c.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
