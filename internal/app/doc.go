// Package app is the composition root for atlas.
//
// Open builds the storage backends named in the config and wires one
// Session over them: a storage.Adapter with its own origin id, a
// notify.Notifier watching that adapter, and the three stores (filter,
// favorites, theme) registered as the notifier's reloaders. Every consumer
// in the process shares that one Session.
//
// Run loads the config, opens the log file, opens the Session, starts the
// dataset loader and then blocks in the TUI.
//
// # Dataset Loading
//
// StartLoader fetches the full country list once. A failed fetch is recorded
// in the Catalog so the UI can show it, and retried after a delay that
// doubles per failure up to 30 seconds. The CLI subcommands call LoadOnce
// directly and fail fast instead.
//
// # Backends
//
//	profile_backend  sqlite | redis | memory
//	session_backend  memory | redis
//
// With both on Redis the keys live under "<namespace>:profile:" and
// "<namespace>:session:", and session keys expire after session_ttl.
package app
