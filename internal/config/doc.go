// Package config handles loading and parsing the atlas configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/atlas/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// Files ending in .yaml or .yml are parsed as YAML; everything else is TOML.
// Both formats use the same snake_case keys.
//
// # Example
//
//	api_base = "https://restcountries.com/v3.1"
//	log_file = "~/.local/share/atlas/atlas.log"
//	log_level = "info"
//	poll_interval = "2s"
//	structure_heuristic = true
//	dark_palette = "Nightfox"
//	light_palette = "Dayfox"
//
//	[storage]
//	profile_backend = "sqlite"   # sqlite | redis | memory
//	session_backend = "memory"   # memory | redis
//	sqlite_path = "~/.local/share/atlas/profile.db"
//	redis_addr = "127.0.0.1:6379"
//	redis_db = 0
//	redis_namespace = "atlas"
//	session_ttl = "24h"
//
// # Storage Backends
//
// Profile data (theme, filter) must survive restarts, so the default is a
// SQLite file. Session data (favorites) lives in memory and ends with the
// process. Pointing both at Redis lets several atlas processes on different
// hosts share state; the session namespace then expires after session_ttl.
//
// # Validation
//
// Unknown backend names, unparseable or non-positive durations and negative
// Redis databases are load errors. Path values get ~ expansion and are made
// absolute; ":memory:" is passed through for SQLite.
package config
