package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config captures everything atlas reads from its config file.
type Config struct {
	APIBase            string
	LogFile            string
	LogLevel           string
	PollInterval       time.Duration
	StructureHeuristic bool
	DarkPalette        string
	LightPalette       string
	Storage            Storage
}

// Storage selects and configures the persistence backends.
type Storage struct {
	ProfileBackend string
	SessionBackend string
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string
	SessionTTL     time.Duration
}

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

const (
	defaultConfigPath     = "~/.config/atlas/config.toml"
	defaultAPIBase        = "https://restcountries.com/v3.1"
	defaultLogFile        = "~/.local/share/atlas/atlas.log"
	defaultLogLevel       = "info"
	defaultPollInterval   = 2 * time.Second
	defaultDarkPalette    = "Nightfox"
	defaultLightPalette   = "Dayfox"
	defaultSQLitePath     = "~/.local/share/atlas/profile.db"
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultRedisNamespace = "atlas"
	defaultSessionTTL     = 24 * time.Hour
)

// rawConfig is the on-disk shape shared by the TOML and YAML readers.
type rawConfig struct {
	APIBase            string     `toml:"api_base" yaml:"api_base"`
	LogFile            string     `toml:"log_file" yaml:"log_file"`
	LogLevel           string     `toml:"log_level" yaml:"log_level"`
	PollInterval       string     `toml:"poll_interval" yaml:"poll_interval"`
	StructureHeuristic *bool      `toml:"structure_heuristic" yaml:"structure_heuristic"`
	DarkPalette        string     `toml:"dark_palette" yaml:"dark_palette"`
	LightPalette       string     `toml:"light_palette" yaml:"light_palette"`
	Storage            rawStorage `toml:"storage" yaml:"storage"`
}

type rawStorage struct {
	ProfileBackend string `toml:"profile_backend" yaml:"profile_backend"`
	SessionBackend string `toml:"session_backend" yaml:"session_backend"`
	SQLitePath     string `toml:"sqlite_path" yaml:"sqlite_path"`
	RedisAddr      string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword  string `toml:"redis_password" yaml:"redis_password"`
	RedisDB        int    `toml:"redis_db" yaml:"redis_db"`
	RedisNamespace string `toml:"redis_namespace" yaml:"redis_namespace"`
	SessionTTL     string `toml:"session_ttl" yaml:"session_ttl"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:            defaultAPIBase,
		LogFile:            mustExpand(defaultLogFile),
		LogLevel:           defaultLogLevel,
		PollInterval:       defaultPollInterval,
		StructureHeuristic: true,
		DarkPalette:        defaultDarkPalette,
		LightPalette:       defaultLightPalette,
		Storage: Storage{
			ProfileBackend: BackendSQLite,
			SessionBackend: BackendMemory,
			SQLitePath:     mustExpand(defaultSQLitePath),
			RedisAddr:      defaultRedisAddr,
			RedisNamespace: defaultRedisNamespace,
			SessionTTL:     defaultSessionTTL,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the atlas config, falling back to defaults when
// missing. Files ending in .yaml or .yml are read as YAML, anything else as
// TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return raw.resolve()
}

func (raw rawConfig) resolve() (Config, error) {
	cfg := Default()

	cfg.APIBase = orDefault(raw.APIBase, defaultAPIBase)
	cfg.LogFile = mustExpand(orDefault(raw.LogFile, defaultLogFile))
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.DarkPalette = orDefault(raw.DarkPalette, defaultDarkPalette)
	cfg.LightPalette = orDefault(raw.LightPalette, defaultLightPalette)
	if raw.StructureHeuristic != nil {
		cfg.StructureHeuristic = *raw.StructureHeuristic
	}

	interval, err := parseDuration("poll_interval", raw.PollInterval, defaultPollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.PollInterval = interval

	st := raw.Storage
	cfg.Storage.ProfileBackend = strings.ToLower(orDefault(st.ProfileBackend, BackendSQLite))
	switch cfg.Storage.ProfileBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return Config{}, fmt.Errorf("storage.profile_backend %q: want sqlite, redis or memory", st.ProfileBackend)
	}
	cfg.Storage.SessionBackend = strings.ToLower(orDefault(st.SessionBackend, BackendMemory))
	switch cfg.Storage.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return Config{}, fmt.Errorf("storage.session_backend %q: want memory or redis", st.SessionBackend)
	}
	cfg.Storage.SQLitePath = mustExpand(orDefault(st.SQLitePath, defaultSQLitePath))
	cfg.Storage.RedisAddr = orDefault(st.RedisAddr, defaultRedisAddr)
	cfg.Storage.RedisPassword = st.RedisPassword
	if st.RedisDB < 0 {
		return Config{}, fmt.Errorf("storage.redis_db %d: must not be negative", st.RedisDB)
	}
	cfg.Storage.RedisDB = st.RedisDB
	cfg.Storage.RedisNamespace = orDefault(st.RedisNamespace, defaultRedisNamespace)

	ttl, err := parseDuration("storage.session_ttl", st.SessionTTL, defaultSessionTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.Storage.SessionTTL = ttl

	return cfg, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s %q: must be positive", field, value)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == ":memory:" {
		return trimmed, nil
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
