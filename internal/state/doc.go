// Package state provides the thread-safe stores shared by every atlas consumer.
//
// # Overview
//
// Three stores hold the user's mutable state and one holds the fetched dataset:
//
//   - FilterStore: search term and region, persisted to profile scope
//   - FavoriteStore: set of cca3 codes, persisted to session scope
//   - Catalog: latest country dataset plus load error state (not persisted)
//
// The theme flag lives in package prefs.
//
// # Architecture
//
//	Consumer (UI, CLI)          Store                       Notifier
//	┌────────────────┐         ┌──────────────────┐        ┌──────────────┐
//	│ Toggle("USA")  │────────→│ mutate + persist │───────→│ Publish(ch)  │
//	│                │         │   (write lock)   │        │      ↓       │
//	│ All()/State()  │←────────│ read lock, copy  │←───────│ subscribers  │
//	└────────────────┘         └──────────────────┘        └──────────────┘
//
// Each store guards its snapshot with a sync.RWMutex. A mutation and its
// persistence happen under the write lock; the publish happens after the lock
// is released so subscribers can call straight back into the store.
//
// FilterStore and FavoriteStore implement notify.Reloader. Registered with a
// Notifier they re-read storage when another instance may have written, and
// report whether anything changed so unchanged reloads publish nothing.
//
// # Hydration
//
// FilterStore hydrates when constructed. FavoriteStore hydrates on first
// access. Absent or undecodable entries yield the defaults: an empty filter
// and an empty favorite set. Stored regions outside Regions and stored codes
// that are not three letters are dropped.
//
// # Errors
//
// Mutators validate first: FavoriteStore returns ErrInvalidCode and
// FilterStore.SetRegion returns ErrUnknownRegion without changing anything.
// Once validated, the in-memory change and the publish always happen. A
// persistence failure is logged and returned as *storage.WriteError; the
// in-memory value stays authoritative for the rest of the process.
//
// # Concurrent writers
//
// Instances sharing storage do not coordinate. The favorite set and each
// filter key are written whole, so the last writer wins and the earlier
// writer's change is lost rather than merged. An instance holding a stale set
// overwrites newer data on its next mutation unless a reload ran first.
//
// # Catalog
//
// Catalog is fed by the dataset loader in package app. A failed Update keeps
// the previous countries, records the error and counts consecutive failures;
// two or more in a row mark the snapshot offline.
package state
