// Package config loads the thinkingspace configuration file.
//
// The file is TOML, read from $XDG_CONFIG_HOME/thinkingspace/config.toml
// (falling back to ~/.config). A missing file is not an error: every setting
// has a default, and command-line flags override the file.
//
//	[editor]
//	grid_size = 1.0
//	snap = true
//	mode = "translate"
//
//	[snapshot]
//	interval = "30s"
//	workspace = "default"
//
//	[store]
//	backend = "redis"
//	[store.redis]
//	addr = "localhost:6379"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	tserrors "github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

// AppName names the configuration and cache directories.
const AppName = "thinkingspace"

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete configuration.
type Config struct {
	Editor   EditorConfig   `toml:"editor"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
	Loader   LoaderConfig   `toml:"loader"`
	Export   ExportConfig   `toml:"export"`
}

// EditorConfig holds the interactive editor's initial settings.
type EditorConfig struct {
	GridSize      float64 `toml:"grid_size"`
	Snap          bool    `toml:"snap"`
	Mode          string  `toml:"mode"`
	ConfirmDelete bool    `toml:"confirm_delete"`
}

// SnapshotConfig controls periodic snapshots of the edited document.
type SnapshotConfig struct {
	Enabled   bool     `toml:"enabled"`
	Interval  Duration `toml:"interval"`
	Workspace string   `toml:"workspace"`
	// TTL bounds how long a snapshot is kept. Zero keeps it until replaced.
	TTL Duration `toml:"ttl"`
}

// StoreConfig selects the snapshot and artifact store.
type StoreConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `thinkingspace serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	DataDir        string   `toml:"data_dir"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LoaderConfig configures the initial document load.
type LoaderConfig struct {
	BaseURL  string   `toml:"base_url"`
	Timeout  Duration `toml:"timeout"`
	Attempts int      `toml:"attempts"`
}

// ExportConfig holds defaults for exports.
type ExportConfig struct {
	Dialect string `toml:"dialect"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			GridSize:      1.0,
			Snap:          true,
			Mode:          "translate",
			ConfirmDelete: true,
		},
		Snapshot: SnapshotConfig{
			Enabled:   true,
			Interval:  Duration{30 * time.Second},
			Workspace: "default",
		},
		Store: StoreConfig{
			Backend: store.BackendFile,
			Mongo:   MongoConfig{Database: AppName, Collection: "store"},
		},
		Server: ServerConfig{
			Addr:           "localhost:8080",
			DataDir:        "data",
			AllowedOrigins: []string{"*"},
		},
		Loader: LoaderConfig{
			Timeout:  Duration{10 * time.Second},
			Attempts: 3,
		},
		Export: ExportConfig{
			Dialect: string(codec.Block),
			Width:   1200,
			Height:  800,
		},
	}
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults. Keys the configuration does not know are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, tserrors.Wrap(tserrors.ErrCodeParse, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, tserrors.New(tserrors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Editor.GridSize <= 0 {
		return invalid("editor.grid_size must be positive, got %v", c.Editor.GridSize)
	}
	switch c.Editor.Mode {
	case "translate", "rotate", "scale":
	default:
		return invalid("editor.mode must be translate, rotate or scale, got %q", c.Editor.Mode)
	}
	if c.Snapshot.Enabled && c.Snapshot.Interval.Duration <= 0 {
		return invalid("snapshot.interval must be positive")
	}
	switch c.Store.Backend {
	case store.BackendFile, store.BackendMemory, store.BackendNone, "":
	case store.BackendRedis:
		if c.Store.Redis.Addr == "" {
			return invalid("store.redis.addr is required for the redis backend")
		}
	case store.BackendMongo:
		if c.Store.Mongo.URI == "" {
			return invalid("store.mongo.uri is required for the mongo backend")
		}
	default:
		return invalid("store.backend %q is not one of file, memory, redis, mongo, none", c.Store.Backend)
	}
	if c.Loader.BaseURL != "" {
		if err := tserrors.ValidateURL(c.Loader.BaseURL); err != nil {
			return err
		}
	}
	if c.Loader.Attempts < 1 {
		return invalid("loader.attempts must be at least 1")
	}
	if _, err := codec.ParseDialect(c.Export.Dialect); err != nil {
		return err
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return invalid("export.width and export.height must be positive")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return tserrors.New(tserrors.ErrCodeInvalidInput, format, args...)
}

// StoreOptions converts the store section for store.Open. An empty
// directory resolves to the default store directory.
func (c *Config) StoreOptions() (store.Config, error) {
	dir := c.Store.Dir
	if dir == "" && (c.Store.Backend == store.BackendFile || c.Store.Backend == "") {
		d, err := StoreDir()
		if err != nil {
			return store.Config{}, err
		}
		dir = d
	}
	return store.Config{
		Backend: c.Store.Backend,
		Dir:     dir,
		Redis: store.RedisConfig{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
			Prefix:   c.Store.Redis.Prefix,
		},
		Mongo: store.MongoConfig{
			URI:        c.Store.Mongo.URI,
			Database:   c.Store.Mongo.Database,
			Collection: c.Store.Mongo.Collection,
		},
	}, nil
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write saves c to path, creating parent directories.
func (c *Config) Write(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns $XDG_CONFIG_HOME/thinkingspace/config.toml, falling
// back to ~/.config.
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StoreDir returns the file store directory, $XDG_CACHE_HOME/thinkingspace
// falling back to ~/.cache.
func StoreDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", env, err)
	}
	return filepath.Join(home, fallback, AppName), nil
}
