// Package storage persists atlas client state.
//
// # Overview
//
// Two scopes exist. Session-scoped entries (the favorite set) end with the
// browsing session. Profile-scoped entries (theme, region, search text)
// survive restarts. An Adapter pairs one Backend per scope and exposes typed
// JSON reads and writes over them.
//
// # Backends
//
//   - Memory: go-cache in the current process. Several sessions in one process
//     may share one Memory and see each other's changes.
//   - SQLite: a file on disk shared by every process that opens it.
//   - Redis: a namespace on a Redis server, with an optional TTL for session
//     data.
//
// # Change Signals
//
// A backend that implements Signaler can tell other instances that a key
// changed. Only profile writes are announced. Adapter.Watch filters out the
// adapter's own origin, so the writing instance never hears its own writes.
//
// # Error Handling
//
// Reads never fail: an absent key, an unreadable backend and an undecodable
// value all read as absent. Writes return *WriteError, which callers treat as
// recoverable.
package storage
